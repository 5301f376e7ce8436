package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeHooks(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnStep: func(*StepEvent) { calls = append(calls, "a") }}
	b := LifecycleHooks{
		OnStep:  func(*StepEvent) { calls = append(calls, "b") },
		OnReset: func(*EventBase) { calls = append(calls, "reset") },
	}

	merged := MergeHooks(a, LifecycleHooks{}, b)
	merged.OnStep(&StepEvent{})
	merged.OnReset(&EventBase{})
	assert.Nil(t, merged.OnHalt)
	assert.Equal(t, []string{"a", "b", "reset"}, calls)
}
