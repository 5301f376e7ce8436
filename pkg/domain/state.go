package domain

// StateCode is the interned identity of a state.
type StateCode int

// Reserved state codes. Every machine interns them before any instruction.
const (
	HaltState StateCode = 0
	InitState StateCode = 1
)

// Reserved state names.
const (
	HaltStateName = "!"
	InitStateName = "$"
)

// MachineStatus is the coarse lifecycle of a machine.
type MachineStatus string

const (
	StatusReady  MachineStatus = "ready"  // May step
	StatusHalted MachineStatus = "halted" // Requires reset
)

// Outcome reports how a step or a run ended.
type Outcome int

const (
	Continued Outcome = iota
	Halted
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Continued:
		return "continued"
	case Halted:
		return "halted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
