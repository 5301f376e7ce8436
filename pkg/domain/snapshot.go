package domain

import "time"

// Snapshot is a persistable image of a machine.
// Program holds instructions in program store order. States preserves the
// interning order so codes survive a round trip.
//
// A snapshot with Sealed set is an envelope written by an encrypting store;
// its other machine fields are empty and it cannot be restored directly.
type Snapshot struct {
	MemorySize    int               `json:"memsize" yaml:"memsize"`
	InitialSymbol Symbol            `json:"initsymbol" yaml:"initsymbol"`
	States        []string          `json:"states,omitempty" yaml:"states,omitempty"`
	Program       []InstructionText `json:"program" yaml:"program"`
	Tape          string            `json:"tape" yaml:"tape"`
	Head          int               `json:"head" yaml:"head"`
	State         string            `json:"state" yaml:"state"`
	Steps         int               `json:"steps" yaml:"steps"`
	Halted        bool              `json:"halted" yaml:"halted"`
	SavedAt       time.Time         `json:"saved_at,omitempty" yaml:"saved_at,omitempty"`
	Sealed        string            `json:"sealed,omitempty" yaml:"sealed,omitempty"`
}
