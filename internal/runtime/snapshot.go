package runtime

import (
	"fmt"

	"github.com/aretw0/turing/pkg/domain"
)

// Snapshot captures the program, tape and control state.
func (m *Machine) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		MemorySize:    m.tape.Len(),
		InitialSymbol: m.tape.Fill(),
		States:        m.interner.Names(),
		Program:       m.Instructions(),
		Tape:          m.tape.String(),
		Head:          m.tape.Head(),
		State:         m.State(),
		Steps:         m.steps,
		Halted:        m.halted,
	}
}

// Restore replaces the machine contents with snap. Everything is validated
// before the swap, so the machine is untouched when an error is returned.
func (m *Machine) Restore(snap domain.Snapshot) error {
	if err := m.checkMemorySize(snap.MemorySize); err != nil {
		return err
	}
	if !snap.InitialSymbol.Valid() || snap.InitialSymbol.IsWildcard() {
		return fmt.Errorf("%w: initial symbol %q", domain.ErrInvalidSymbol, snap.InitialSymbol)
	}
	if snap.Steps < 0 {
		return fmt.Errorf("invalid step count %d", snap.Steps)
	}

	tape, err := NewTape(snap.MemorySize, snap.InitialSymbol)
	if err != nil {
		return err
	}
	if snap.Tape != "" {
		cells := []rune(snap.Tape)
		if len(cells) != snap.MemorySize {
			return fmt.Errorf("%w: tape holds %d cells, memsize is %d", domain.ErrInvalidPosition, len(cells), snap.MemorySize)
		}
		for i, r := range cells {
			s := domain.Symbol(r)
			if !s.Valid() {
				return fmt.Errorf("%w: %q at cell %d", domain.ErrInvalidSymbol, r, i)
			}
			tape.cells[i] = s
		}
	}
	if err := tape.SetHead(snap.Head); err != nil {
		return err
	}

	interner := NewInterner()
	for _, name := range snap.States {
		if name != "" {
			interner.Intern(name)
		}
	}

	program := NewProgram()
	for i, t := range snap.Program {
		if t.From == "" || t.To == "" {
			return fmt.Errorf("instruction %d: %w: empty state name", i+1, domain.ErrUnknownState)
		}
		if !t.Read.Valid() || !t.Write.Valid() {
			return fmt.Errorf("instruction %d: %w", i+1, domain.ErrInvalidSymbol)
		}
		if t.Dir != domain.Left && t.Dir != domain.Right {
			return fmt.Errorf("instruction %d: %w %d", i+1, domain.ErrInvalidDirection, t.Dir)
		}
		program.Add(domain.Instruction{
			From:  interner.Intern(t.From),
			Read:  t.Read,
			To:    interner.Intern(t.To),
			Write: t.Write,
			Dir:   t.Dir,
		})
	}

	state := domain.InitState
	if snap.State != "" {
		code, ok := interner.Code(snap.State)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownState, snap.State)
		}
		state = code
	}

	m.interner = interner
	m.program = program
	m.tape = tape
	m.state = state
	m.steps = snap.Steps
	m.halted = snap.Halted
	m.logger.Debug("Machine restored", "memsize", tape.Len(), "instructions", program.Len(), "state", snap.State)
	return nil
}
