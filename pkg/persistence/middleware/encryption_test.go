package middleware_test

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/aretw0/turing/pkg/adapters/memory"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/persistence/middleware"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := rand.Read(k)
	require.NoError(t, err)
	return k
}

func sealedStore(t *testing.T, next ports.SnapshotStore, cfg middleware.EncryptionConfig) ports.SnapshotStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func secretSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		MemorySize:    4,
		InitialSymbol: '0',
		Program:       []domain.InstructionText{{From: "$", Read: '0', To: "!", Write: '1', Dir: domain.Right}},
		Tape:          "0110",
		Head:          2,
		State:         "$",
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := sealedStore(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSnapshotStoreContract(t, store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := sealedStore(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	require.NoError(t, store.Save(ctx, "s", secretSnapshot()))

	// The wrapped store only sees the envelope.
	raw, err := underlying.Load(ctx, "s")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Empty(t, raw.Tape)
	assert.Empty(t, raw.Program)

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "0110", loaded.Tape)
	assert.Equal(t, secretSnapshot().Program, loaded.Program)
	assert.Empty(t, loaded.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := sealedStore(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Save(ctx, "s", secretSnapshot()))

	newStore := sealedStore(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := newStore.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "0110", loaded.Tape)

	// Saving again re-seals with the new key.
	require.NoError(t, newStore.Save(ctx, "s", loaded))
	_, err = oldStore.Load(ctx, "s")
	assert.ErrorContains(t, err, "decryption failed")
}

func TestEncryptionMiddleware_BoundToSessionID(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := sealedStore(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	require.NoError(t, store.Save(ctx, "a", secretSnapshot()))

	// Copy the envelope to another session behind the middleware's back.
	raw, err := underlying.Load(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, underlying.Save(ctx, "b", raw))

	_, err = store.Load(ctx, "b")
	assert.ErrorContains(t, err, "decryption failed")

	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "0110", loaded.Tape)
}

func TestEncryptionMiddleware_RejectsPlaintext(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(ctx, "plain", secretSnapshot()))

	store := sealedStore(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  middleware.EncryptionConfig
	}{
		{"short active key", middleware.EncryptionConfig{ActiveKey: []byte("short-key")}},
		{"short fallback key", middleware.EncryptionConfig{ActiveKey: make([]byte, 32), FallbackKeys: [][]byte{{1, 2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := middleware.NewEncryptionMiddleware(tt.cfg)
			assert.Error(t, err)
		})
	}
}
