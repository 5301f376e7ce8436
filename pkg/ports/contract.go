package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		MemorySize:    5,
		InitialSymbol: '0',
		States:        []string{"!", "$", "A"},
		Program: []domain.InstructionText{
			{From: "$", Read: '0', To: "A", Write: '1', Dir: domain.Right},
			{From: "A", Read: domain.Wildcard, To: "!", Write: '1', Dir: domain.Left},
		},
		Tape:  "00100",
		Head:  3,
		State: "A",
		Steps: 1,
	}
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot()

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.MemorySize, loaded.MemorySize)
		assert.Equal(t, snap.InitialSymbol, loaded.InitialSymbol)
		assert.Equal(t, snap.States, loaded.States)
		assert.Equal(t, snap.Program, loaded.Program)
		assert.Equal(t, snap.Tape, loaded.Tape)
		assert.Equal(t, snap.Head, loaded.Head)
		assert.Equal(t, snap.State, loaded.State)
		assert.Equal(t, snap.Steps, loaded.Steps)
		assert.Equal(t, snap.Halted, loaded.Halted)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		snap := contractSnapshot()
		snap.Steps = 2
		snap.Halted = true
		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Steps)
		assert.True(t, loaded.Halted)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot()))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should be a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, contractSnapshot())
		_ = store.Save(ctx, id2, contractSnapshot())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
