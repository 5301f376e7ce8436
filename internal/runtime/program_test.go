package runtime_test

import (
	"testing"

	"github.com/aretw0/turing/internal/runtime"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_WildcardFallback(t *testing.T) {
	table := runtime.NewTable()
	exact := &domain.Instruction{From: 2, Read: '1', To: 3, Write: '0', Dir: domain.Right}
	wild := &domain.Instruction{From: 2, Read: domain.Wildcard, To: 4, Write: domain.Wildcard, Dir: domain.Left}
	table.Install(exact)
	table.Install(wild)

	got, ok := table.Lookup(2, '1')
	require.True(t, ok)
	assert.Same(t, exact, got)

	got, ok = table.Lookup(2, 'x')
	require.True(t, ok)
	assert.Same(t, wild, got)

	_, ok = table.Lookup(3, '1')
	assert.False(t, ok)

	_, ok = table.Entry(2, 'x')
	assert.False(t, ok, "Entry has no wildcard fallback")

	table.Invalidate(2, domain.Wildcard)
	_, ok = table.Lookup(2, 'x')
	assert.False(t, ok)
	assert.Equal(t, 1, table.Len())
}

func TestProgram_AddDeleteClear(t *testing.T) {
	p := runtime.NewProgram()
	first := p.Add(domain.Instruction{From: 1, Read: '0', To: 2, Write: '1', Dir: domain.Right})
	p.Add(domain.Instruction{From: 2, Read: '0', To: 0, Write: '1', Dir: domain.Right})
	require.Equal(t, 2, p.Len())

	got, err := p.At(1)
	require.NoError(t, err)
	assert.Same(t, first, got)

	_, err = p.At(0)
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
	_, err = p.At(3)
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)

	deleted, err := p.Delete(1)
	require.NoError(t, err)
	assert.Same(t, first, deleted)
	assert.Equal(t, 1, p.Len())
	_, ok := p.Lookup(1, '0')
	assert.False(t, ok)

	p.Clear()
	assert.Equal(t, 0, p.Len())
	_, ok = p.Lookup(2, '0')
	assert.False(t, ok)
}

func TestProgram_LastWriteWins(t *testing.T) {
	p := runtime.NewProgram()
	older := p.Add(domain.Instruction{From: 1, Read: '0', To: 2, Write: 'a', Dir: domain.Right})
	newer := p.Add(domain.Instruction{From: 1, Read: '0', To: 3, Write: 'b', Dir: domain.Left})

	assert.Equal(t, 2, p.Len(), "the overwritten instruction stays in the store")
	got, ok := p.Lookup(1, '0')
	require.True(t, ok)
	assert.Same(t, newer, got)
	assert.False(t, p.Live(older))
	assert.True(t, p.Live(newer))
}
