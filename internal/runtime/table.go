package runtime

import "github.com/aretw0/turing/pkg/domain"

// Table is the sparse transition lookup: state -> read symbol -> instruction.
// Entries point at instructions owned by the Program store.
type Table struct {
	rules map[domain.StateCode]map[domain.Symbol]*domain.Instruction
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{rules: make(map[domain.StateCode]map[domain.Symbol]*domain.Instruction)}
}

// Install sets the entry for (ins.From, ins.Read). A previous entry is overwritten.
func (t *Table) Install(ins *domain.Instruction) {
	row, ok := t.rules[ins.From]
	if !ok {
		row = make(map[domain.Symbol]*domain.Instruction)
		t.rules[ins.From] = row
	}
	row[ins.Read] = ins
}

// Invalidate drops the entry for (state, symbol), whichever instruction holds it.
func (t *Table) Invalidate(state domain.StateCode, symbol domain.Symbol) {
	row, ok := t.rules[state]
	if !ok {
		return
	}
	delete(row, symbol)
	if len(row) == 0 {
		delete(t.rules, state)
	}
}

// Entry returns the exact entry for (state, symbol), without wildcard fallback.
func (t *Table) Entry(state domain.StateCode, symbol domain.Symbol) (*domain.Instruction, bool) {
	ins, ok := t.rules[state][symbol]
	return ins, ok
}

// Lookup returns the exact entry, else the wildcard entry of the state.
func (t *Table) Lookup(state domain.StateCode, symbol domain.Symbol) (*domain.Instruction, bool) {
	row, ok := t.rules[state]
	if !ok {
		return nil, false
	}
	if ins, ok := row[symbol]; ok {
		return ins, true
	}
	ins, ok := row[domain.Wildcard]
	return ins, ok
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	n := 0
	for _, row := range t.rules {
		n += len(row)
	}
	return n
}

// Clear removes every entry.
func (t *Table) Clear() {
	t.rules = make(map[domain.StateCode]map[domain.Symbol]*domain.Instruction)
}
