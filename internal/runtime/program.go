package runtime

import (
	"fmt"

	"github.com/aretw0/turing/pkg/domain"
)

// Program is the ordered instruction store together with its lookup table.
//
// Adding an instruction for an existing (state, symbol) pair overwrites the
// table entry but keeps the older instruction in the store. Deleting by
// position always invalidates the pair's entry, even when a later instruction
// owns it.
type Program struct {
	store []*domain.Instruction
	table *Table
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{table: NewTable()}
}

// Add appends ins to the store and installs it in the table.
func (p *Program) Add(ins domain.Instruction) *domain.Instruction {
	stored := &ins
	p.store = append(p.store, stored)
	p.table.Install(stored)
	return stored
}

// At returns the instruction at the 1-based position pos.
func (p *Program) At(pos int) (*domain.Instruction, error) {
	if pos < 1 || pos > len(p.store) {
		return nil, fmt.Errorf("%w: %d (program has %d instructions)", domain.ErrInvalidIndex, pos, len(p.store))
	}
	return p.store[pos-1], nil
}

// Delete removes the instruction at the 1-based position pos.
func (p *Program) Delete(pos int) (*domain.Instruction, error) {
	ins, err := p.At(pos)
	if err != nil {
		return nil, err
	}
	p.table.Invalidate(ins.From, ins.Read)
	p.store = append(p.store[:pos-1], p.store[pos:]...)
	return ins, nil
}

// Lookup finds the instruction firing for (state, symbol), wildcard included.
func (p *Program) Lookup(state domain.StateCode, symbol domain.Symbol) (*domain.Instruction, bool) {
	return p.table.Lookup(state, symbol)
}

// Live reports whether ins currently owns its table entry.
func (p *Program) Live(ins *domain.Instruction) bool {
	entry, ok := p.table.Entry(ins.From, ins.Read)
	return ok && entry == ins
}

// Len returns the number of stored instructions.
func (p *Program) Len() int {
	return len(p.store)
}

// Instructions returns the stored instructions in order.
func (p *Program) Instructions() []*domain.Instruction {
	out := make([]*domain.Instruction, len(p.store))
	copy(out, p.store)
	return out
}

// Clear empties both the store and the table.
func (p *Program) Clear() {
	p.store = nil
	p.table.Clear()
}
