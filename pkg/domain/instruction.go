package domain

import "fmt"

// Instruction is a transition rule stored by code.
// Instructions are immutable once added to a program.
type Instruction struct {
	From  StateCode
	Read  Symbol
	To    StateCode
	Write Symbol
	Dir   Direction
}

// InstructionText is the name-based form of an Instruction, as listed and persisted.
type InstructionText struct {
	From  string    `json:"from" yaml:"from"`
	Read  Symbol    `json:"read" yaml:"read"`
	To    string    `json:"to" yaml:"to"`
	Write Symbol    `json:"write" yaml:"write"`
	Dir   Direction `json:"dir" yaml:"dir"`
}

// String renders the instruction operands in program-file order.
func (i InstructionText) String() string {
	return fmt.Sprintf("%s %s %s %s %s", i.From, i.Read, i.To, i.Write, i.Dir)
}
