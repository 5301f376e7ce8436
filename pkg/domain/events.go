package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStep  EventType = "step"
	EventHalt  EventType = "halt"
	EventReset EventType = "reset"
)

// HaltReason tells why a machine stopped.
type HaltReason string

const (
	HaltReasonHaltState   HaltReason = "halt_state"
	HaltReasonIllegal     HaltReason = "illegal_instruction"
	HaltReasonOutOfBounds HaltReason = "out_of_bounds"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Step      int       `json:"step"`
}

// StepEvent describes one completed transition.
type StepEvent struct {
	EventBase
	From  string    `json:"from"`
	Read  Symbol    `json:"read"`
	To    string    `json:"to"`
	Write Symbol    `json:"write"`
	Dir   Direction `json:"dir"`
	Head  int       `json:"head"`
}

// HaltEvent is emitted once when the machine enters the halted state.
type HaltEvent struct {
	EventBase
	State  string     `json:"state"`
	Reason HaltReason `json:"reason"`
	Head   int        `json:"head"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously inside the step that triggered them.
type LifecycleHooks struct {
	OnStep  func(*StepEvent)
	OnHalt  func(*HaltEvent)
	OnReset func(*EventBase)
}

// MergeHooks returns hooks calling every non-nil callback of hooks in order.
func MergeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range hooks {
		merged.OnStep = chain(merged.OnStep, h.OnStep)
		merged.OnHalt = chain(merged.OnHalt, h.OnHalt)
		merged.OnReset = chain(merged.OnReset, h.OnReset)
	}
	return merged
}

func chain[E any](first, next func(E)) func(E) {
	switch {
	case first == nil:
		return next
	case next == nil:
		return first
	}
	return func(e E) {
		first(e)
		next(e)
	}
}
