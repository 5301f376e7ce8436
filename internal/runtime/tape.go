package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/turing/pkg/domain"
)

// Tape is a fixed-length symbol buffer with a head index in [0, Len()).
type Tape struct {
	cells []domain.Symbol
	head  int
	fill  domain.Symbol
}

// NewTape allocates length cells set to fill, with the head centered.
func NewTape(length int, fill domain.Symbol) (*Tape, error) {
	t := &Tape{}
	if err := t.Resize(length, fill); err != nil {
		return nil, err
	}
	return t, nil
}

// Resize reallocates the tape, fills every cell and recenters the head.
// On failure the previous contents are left intact.
func (t *Tape) Resize(length int, fill domain.Symbol) error {
	cells, err := allocate(length)
	if err != nil {
		return err
	}
	t.cells = cells
	t.fill = fill
	t.Reset()
	return nil
}

func allocate(length int) (cells []domain.Symbol, err error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d cells", domain.ErrAllocationFailure, length)
	}
	defer func() {
		if r := recover(); r != nil {
			cells = nil
			err = fmt.Errorf("%w: %d cells: %v", domain.ErrAllocationFailure, length, r)
		}
	}()
	return make([]domain.Symbol, length), nil
}

// Reset sets every cell to the fill symbol and recenters the head.
func (t *Tape) Reset() {
	for i := range t.cells {
		t.cells[i] = t.fill
	}
	t.head = len(t.cells) / 2
}

// Len returns the number of cells.
func (t *Tape) Len() int { return len(t.cells) }

// Head returns the head index.
func (t *Tape) Head() int { return t.head }

// Fill returns the symbol used by Reset.
func (t *Tape) Fill() domain.Symbol { return t.fill }

// SetHead places the head at pos.
func (t *Tape) SetHead(pos int) error {
	if err := t.check(pos); err != nil {
		return err
	}
	t.head = pos
	return nil
}

// Read returns the symbol at pos.
func (t *Tape) Read(pos int) (domain.Symbol, error) {
	if err := t.check(pos); err != nil {
		return 0, err
	}
	return t.cells[pos], nil
}

// Write stores s at pos. Writing the wildcard leaves the cell unchanged.
func (t *Tape) Write(pos int, s domain.Symbol) error {
	if err := t.check(pos); err != nil {
		return err
	}
	if s.IsWildcard() {
		return nil
	}
	t.cells[pos] = s
	return nil
}

// Move shifts the head one cell. If the head would leave the tape it stays
// where it is and ErrOutOfBounds is returned.
func (t *Tape) Move(d domain.Direction) error {
	next := t.head + d.Delta()
	if next < 0 || next >= len(t.cells) {
		return fmt.Errorf("%w: position %d on a tape of %d cells", domain.ErrOutOfBounds, next, len(t.cells))
	}
	t.head = next
	return nil
}

// SliceAround returns a copy of the cells within radius of pos and the index of
// the first returned cell. A negative radius selects the whole tape.
func (t *Tape) SliceAround(pos, radius int) (int, []domain.Symbol) {
	lo, hi := 0, len(t.cells)
	if radius >= 0 {
		lo = max(0, pos-radius)
		hi = min(len(t.cells), pos+radius+1)
	}
	if lo >= hi {
		return lo, nil
	}
	out := make([]domain.Symbol, hi-lo)
	copy(out, t.cells[lo:hi])
	return lo, out
}

// String returns the raw tape contents.
func (t *Tape) String() string {
	return symbolsString(t.cells)
}

func (t *Tape) check(pos int) error {
	if pos < 0 || pos >= len(t.cells) {
		return fmt.Errorf("%w: %d (tape has %d cells)", domain.ErrInvalidPosition, pos, len(t.cells))
	}
	return nil
}

func symbolsString(cells []domain.Symbol) string {
	var sb strings.Builder
	sb.Grow(len(cells))
	for _, c := range cells {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}
