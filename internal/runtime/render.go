package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/turing/pkg/domain"
)

// Listing markers.
const (
	MarkerNext  = "=>"
	MarkerStart = "START"
	MarkerHalt  = "HALT"
)

// ProgramLines renders one line per instruction, in store order:
//
//	   3: => START ($, 0) -> (A, 1, >)
//
// "=>" marks the instruction that fires next from the current state and head
// symbol, START marks rules leaving the initial state and HALT rules entering
// the halt state.
func (m *Machine) ProgramLines() []string {
	next := m.nextInstruction()
	all := m.program.Instructions()
	lines := make([]string, len(all))
	for i, ins := range all {
		arrow := "  "
		if ins == next {
			arrow = MarkerNext
		}
		marker := ""
		switch {
		case ins.From == domain.InitState:
			marker = MarkerStart
		case ins.To == domain.HaltState:
			marker = MarkerHalt
		}
		t := m.text(ins)
		lines[i] = fmt.Sprintf("%4d: %s %-5s (%s, %s) -> (%s, %s, %s)", i+1, arrow, marker, t.From, t.Read, t.To, t.Write, t.Dir)
	}
	return lines
}

// ProgramListing joins ProgramLines with newlines.
func (m *Machine) ProgramListing() string {
	lines := m.ProgramLines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// TapeWindow renders the cells within radius of the head, the head cell in
// angle brackets. Hidden cells are summarized as "Nx[...]" on the left and
// "[...]xN" on the right. A negative radius renders the whole tape.
func (m *Machine) TapeWindow(radius int) string {
	head := m.tape.Head()
	start, cells := m.tape.SliceAround(head, radius)
	rel := head - start

	var sb strings.Builder
	if start > 0 {
		fmt.Fprintf(&sb, "%dx[...]", start)
	}
	sb.WriteString(symbolsString(cells[:rel]))
	sb.WriteByte('<')
	sb.WriteRune(rune(cells[rel]))
	sb.WriteByte('>')
	sb.WriteString(symbolsString(cells[rel+1:]))
	if hidden := m.tape.Len() - (start + len(cells)); hidden > 0 {
		fmt.Fprintf(&sb, "[...]x%d", hidden)
	}
	return sb.String()
}

// StatusSummary renders the current state, head, step count and tape window.
func (m *Machine) StatusSummary(radius int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current state: %s\n", m.State())
	fmt.Fprintf(&sb, "Head position: %d\n", m.tape.Head())
	fmt.Fprintf(&sb, "Computation steps: %d\n", m.steps)
	fmt.Fprintf(&sb, "Tape state: %s\n", m.TapeWindow(radius))
	if m.halted {
		sb.WriteString("Machine halted\n")
	}
	return sb.String()
}

// nextInstruction returns the instruction the next step would fire, if any.
func (m *Machine) nextInstruction() *domain.Instruction {
	if m.halted {
		return nil
	}
	read, err := m.tape.Read(m.tape.Head())
	if err != nil {
		return nil
	}
	ins, _ := m.program.Lookup(m.state, read)
	return ins
}

// LiveInstructions returns the instructions that currently own a table entry,
// in store order. Overwritten or invalidated rules are skipped.
func (m *Machine) LiveInstructions() []domain.InstructionText {
	var out []domain.InstructionText
	for _, ins := range m.program.Instructions() {
		if m.program.Live(ins) {
			out = append(out, m.text(ins))
		}
	}
	return out
}
