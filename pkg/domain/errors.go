package domain

import "errors"

// ErrMachineHalted is returned when step or run is invoked on a halted machine.
// The machine must be reset before it can step again.
var ErrMachineHalted = errors.New("the machine is halted")

// ErrEmptyProgram is returned when step or run is invoked without instructions.
var ErrEmptyProgram = errors.New("the program is empty")

// ErrIllegalInstruction is returned when no transition (exact or wildcard) matches
// the current state and symbol. The machine halts.
var ErrIllegalInstruction = errors.New("illegal instruction")

// ErrOutOfBounds is returned when the head would leave the tape. The machine halts.
var ErrOutOfBounds = errors.New("head out of tape bounds")

// ErrAllocationFailure is returned when a tape of the requested size cannot be allocated.
var ErrAllocationFailure = errors.New("cannot allocate tape")

// ErrInvalidIndex is returned for an instruction position outside the program.
var ErrInvalidIndex = errors.New("invalid instruction index")

// ErrUnknownState is returned when a state name was never interned.
var ErrUnknownState = errors.New("unknown state")

// ErrInvalidPosition is returned when a tape position falls outside the tape.
var ErrInvalidPosition = errors.New("invalid tape position")

// ErrInvalidSymbol is returned for whitespace, non printable or comment characters.
var ErrInvalidSymbol = errors.New("invalid symbol")

// ErrInvalidDirection is returned for a head move other than left or right.
var ErrInvalidDirection = errors.New("invalid direction")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")
