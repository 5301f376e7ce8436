package runtime_test

import (
	"testing"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_SnapshotRoundTrip(t *testing.T) {
	m := newMachine(t, 6)
	add(t, m, "$", '0', "A", '1', domain.Right)
	add(t, m, "A", '-', "$", '-', domain.Left)
	_, err := m.Step()
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Equal(t, 6, snap.MemorySize)
	assert.Equal(t, "000100", snap.Tape)
	assert.Equal(t, "A", snap.State)
	assert.Equal(t, []string{"!", "$", "A"}, snap.States)

	other := newMachine(t, 3)
	require.NoError(t, other.Restore(snap))

	assert.Equal(t, m.Tape(), other.Tape())
	assert.Equal(t, m.Head(), other.Head())
	assert.Equal(t, m.State(), other.State())
	assert.Equal(t, m.Steps(), other.Steps())
	assert.Equal(t, m.Instructions(), other.Instructions())
	assert.Equal(t, m.States(), other.States())
	assert.Equal(t, m.ProgramLines(), other.ProgramLines())

	// Both machines continue identically.
	_, err = m.StepNFunc(3, nil)
	require.NoError(t, err)
	_, err = other.StepNFunc(3, nil)
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot(), other.Snapshot())
}

func TestMachine_RestoreEmptyTapeIsFilled(t *testing.T) {
	m := newMachine(t, 3)
	require.NoError(t, m.Restore(domain.Snapshot{MemorySize: 4, InitialSymbol: 'b', Head: 1}))

	assert.Equal(t, "bbbb", m.Tape())
	assert.Equal(t, 1, m.Head())
	assert.Equal(t, domain.InitStateName, m.State())
	assert.Zero(t, m.ProgramLen())
}

func TestMachine_RestoreFailureLeavesMachineUntouched(t *testing.T) {
	base := domain.Snapshot{
		MemorySize:    4,
		InitialSymbol: '0',
		Program:       []domain.InstructionText{{From: "$", Read: '0', To: "A", Write: '1', Dir: domain.Right}},
		Tape:          "0000",
		Head:          2,
		State:         "A",
	}

	tests := []struct {
		name    string
		mutate  func(s *domain.Snapshot)
		wantErr error
	}{
		{"Zero Memory", func(s *domain.Snapshot) { s.MemorySize = 0 }, domain.ErrAllocationFailure},
		{"Wildcard Fill", func(s *domain.Snapshot) { s.InitialSymbol = domain.Wildcard }, domain.ErrInvalidSymbol},
		{"Tape Length Mismatch", func(s *domain.Snapshot) { s.Tape = "00" }, domain.ErrInvalidPosition},
		{"Invalid Tape Symbol", func(s *domain.Snapshot) { s.Tape = "0 00" }, domain.ErrInvalidSymbol},
		{"Head Off Tape", func(s *domain.Snapshot) { s.Head = 4 }, domain.ErrInvalidPosition},
		{"Unknown State", func(s *domain.Snapshot) { s.State = "ghost" }, domain.ErrUnknownState},
		{"Empty State Name", func(s *domain.Snapshot) {
			s.Program = []domain.InstructionText{{From: "", Read: '0', To: "A", Write: '1', Dir: domain.Right}}
		}, domain.ErrUnknownState},
		{"Invalid Direction", func(s *domain.Snapshot) { s.Program[0].Dir = 7 }, domain.ErrInvalidDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t, 5)
			add(t, m, "$", '0', "keep", '1', domain.Right)
			before := m.Snapshot()

			snap := base
			snap.Program = append([]domain.InstructionText(nil), base.Program...)
			tt.mutate(&snap)

			err := m.Restore(snap)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, m.Snapshot())
		})
	}
}
