package runtime_test

import (
	"testing"

	"github.com/aretw0/turing/internal/runtime"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTape_NewCentersHead(t *testing.T) {
	tape, err := runtime.NewTape(5, '0')
	require.NoError(t, err)

	assert.Equal(t, 5, tape.Len())
	assert.Equal(t, 2, tape.Head())
	assert.Equal(t, "00000", tape.String())
}

func TestTape_AllocationFailureKeepsPreviousTape(t *testing.T) {
	_, err := runtime.NewTape(0, '0')
	assert.ErrorIs(t, err, domain.ErrAllocationFailure)

	tape, err := runtime.NewTape(3, 'x')
	require.NoError(t, err)
	require.NoError(t, tape.Write(0, 'a'))

	err = tape.Resize(-1, '0')
	assert.ErrorIs(t, err, domain.ErrAllocationFailure)
	assert.Equal(t, "axx", tape.String())
	assert.Equal(t, domain.Symbol('x'), tape.Fill())
}

func TestTape_ReadWriteBounds(t *testing.T) {
	tape, err := runtime.NewTape(3, '0')
	require.NoError(t, err)

	require.NoError(t, tape.Write(1, '1'))
	got, err := tape.Read(1)
	require.NoError(t, err)
	assert.Equal(t, domain.Symbol('1'), got)

	require.NoError(t, tape.Write(1, domain.Wildcard))
	got, _ = tape.Read(1)
	assert.Equal(t, domain.Symbol('1'), got, "writing the wildcard leaves the cell unchanged")

	_, err = tape.Read(3)
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
	assert.ErrorIs(t, tape.Write(-1, '1'), domain.ErrInvalidPosition)
	assert.ErrorIs(t, tape.SetHead(3), domain.ErrInvalidPosition)
}

func TestTape_MoveStopsAtEdges(t *testing.T) {
	tape, err := runtime.NewTape(2, '0')
	require.NoError(t, err)
	require.Equal(t, 1, tape.Head())

	assert.ErrorIs(t, tape.Move(domain.Right), domain.ErrOutOfBounds)
	assert.Equal(t, 1, tape.Head())

	require.NoError(t, tape.Move(domain.Left))
	assert.Equal(t, 0, tape.Head())
	assert.ErrorIs(t, tape.Move(domain.Left), domain.ErrOutOfBounds)
	assert.Equal(t, 0, tape.Head())
}

func TestTape_SliceAround(t *testing.T) {
	tape, err := runtime.NewTape(10, '0')
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, tape.Write(i, domain.Symbol('0'+i)))
	}

	tests := []struct {
		name      string
		pos       int
		radius    int
		wantStart int
		want      string
	}{
		{"Middle", 5, 2, 3, "34567"},
		{"Left Edge", 1, 3, 0, "01234"},
		{"Right Edge", 9, 2, 7, "789"},
		{"Whole Tape", 4, -1, 0, "0123456789"},
		{"Zero Radius", 4, 0, 4, "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, cells := tape.SliceAround(tt.pos, tt.radius)
			assert.Equal(t, tt.wantStart, start)
			var got []rune
			for _, c := range cells {
				got = append(got, rune(c))
			}
			assert.Equal(t, tt.want, string(got))
		})
	}

	_, cells := tape.SliceAround(5, 1)
	cells[0] = 'z'
	got, _ := tape.Read(4)
	assert.Equal(t, domain.Symbol('4'), got, "SliceAround returns a copy")
}
