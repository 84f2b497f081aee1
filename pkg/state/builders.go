// SPDX-License-Identifier: BSD-3-Clause

package state

import "time"

// StateLow and StateHigh name the two states of a pin-driving FSM, used
// by internal/control's Feedback controller.
const (
	StateLow  = "low"
	StateHigh = "high"

	// TriggerRaise and TriggerLower are the only two triggers a pin FSM accepts.
	TriggerRaise = "raise"
	TriggerLower = "lower"
)

// NewPinStateMachine builds the two-state (low/high) FSM that the
// Feedback controller uses to drive one GPIO line. onRaise and
// onLower run as the transition completes, driving the physical pin;
// either may be nil.
func NewPinStateMachine(name string, initial string, onRaise, onLower ActionFunc) (*FSM, error) {
	opts := []Option{
		WithName(name),
		WithDescription("pin-driving state machine"),
		WithInitialState(initial),
		WithState(StateLow, nil, nil),
		WithState(StateHigh, nil, nil),
		WithStateTimeout(5 * time.Second),
	}

	if onRaise != nil {
		opts = append(opts, WithActionTransition(StateLow, StateHigh, TriggerRaise, onRaise))
	} else {
		opts = append(opts, WithTransition(StateLow, StateHigh, TriggerRaise))
	}

	if onLower != nil {
		opts = append(opts, WithActionTransition(StateHigh, StateLow, TriggerLower, onLower))
	} else {
		opts = append(opts, WithTransition(StateHigh, StateLow, TriggerLower))
	}

	return New(NewConfig(opts...))
}
