// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"context"
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{
			"valid",
			&Config{
				Name: "pin", InitialState: "low", StateTimeout: 1,
				States:      []StateDefinition{{Name: "low"}, {Name: "high"}},
				Transitions: []TransitionDefinition{{From: "low", To: "high", Trigger: "raise"}},
			},
			nil,
		},
		{"empty name", &Config{InitialState: "low", States: []StateDefinition{{Name: "low"}}, StateTimeout: 1}, ErrInvalidConfig},
		{"empty initial state", &Config{Name: "pin", States: []StateDefinition{{Name: "low"}}, StateTimeout: 1}, ErrInvalidConfig},
		{"no states", &Config{Name: "pin", InitialState: "low", StateTimeout: 1}, ErrInvalidConfig},
		{
			"initial state not in states",
			&Config{Name: "pin", InitialState: "bogus", States: []StateDefinition{{Name: "low"}}, StateTimeout: 1},
			ErrInvalidConfig,
		},
		{
			"duplicate state",
			&Config{Name: "pin", InitialState: "low", States: []StateDefinition{{Name: "low"}, {Name: "low"}}, StateTimeout: 1},
			ErrInvalidConfig,
		},
		{
			"transition references unknown state",
			&Config{
				Name: "pin", InitialState: "low", StateTimeout: 1,
				States:      []StateDefinition{{Name: "low"}},
				Transitions: []TransitionDefinition{{From: "low", To: "bogus", Trigger: "raise"}},
			},
			ErrInvalidConfig,
		},
		{
			"zero state timeout",
			&Config{Name: "pin", InitialState: "low", States: []StateDefinition{{Name: "low"}}, StateTimeout: 0},
			ErrInvalidConfig,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if c.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, c.wantErr) {
				t.Errorf("Validate() = %v, want wrapping %v", err, c.wantErr)
			}
		})
	}
}

func pinConfig() *Config {
	return NewConfig(
		WithName("pin"),
		WithInitialState(StateLow),
		WithState(StateLow, nil, nil),
		WithState(StateHigh, nil, nil),
		WithTransition(StateLow, StateHigh, TriggerRaise),
		WithTransition(StateHigh, StateLow, TriggerLower),
	)
}

func TestNewRejectsNilConfig(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New(nil) err = %v, want ErrInvalidConfig", err)
	}
}

func TestFireTransitionsState(t *testing.T) {
	sm, err := New(pinConfig())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := context.Background()
	if err := sm.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	if sm.CurrentState() != StateLow {
		t.Fatalf("CurrentState() = %q, want %q", sm.CurrentState(), StateLow)
	}

	if err := sm.Fire(ctx, TriggerRaise); err != nil {
		t.Fatalf("Fire(raise) returned error: %v", err)
	}
	if sm.CurrentState() != StateHigh {
		t.Errorf("CurrentState() after raise = %q, want %q", sm.CurrentState(), StateHigh)
	}

	if err := sm.Fire(ctx, TriggerLower); err != nil {
		t.Fatalf("Fire(lower) returned error: %v", err)
	}
	if sm.CurrentState() != StateLow {
		t.Errorf("CurrentState() after lower = %q, want %q", sm.CurrentState(), StateLow)
	}
}

func TestFireRejectsInvalidTrigger(t *testing.T) {
	sm, err := New(pinConfig())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := context.Background()
	if err := sm.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	// already low: lower is not a valid trigger from the low state.
	if err := sm.Fire(ctx, TriggerLower); !errors.Is(err, ErrInvalidTrigger) {
		t.Errorf("Fire(lower) from low state: err = %v, want ErrInvalidTrigger", err)
	}
}

func TestFireBeforeStart(t *testing.T) {
	sm, err := New(pinConfig())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := sm.Fire(context.Background(), TriggerRaise); !errors.Is(err, ErrStateMachineNotStarted) {
		t.Errorf("Fire before Start: err = %v, want ErrStateMachineNotStarted", err)
	}
}

func TestFireAfterStop(t *testing.T) {
	sm, err := New(pinConfig())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := context.Background()
	if err := sm.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := sm.Stop(ctx); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := sm.Fire(ctx, TriggerRaise); !errors.Is(err, ErrStateMachineStopped) {
		t.Errorf("Fire after Stop: err = %v, want ErrStateMachineStopped", err)
	}
}

func TestActionRunsOnTransition(t *testing.T) {
	var gotFrom, gotTo string
	sm, err := NewPinStateMachine("fan", StateLow,
		func(ctx context.Context, from, to string) error { gotFrom, gotTo = from, to; return nil },
		nil,
	)
	if err != nil {
		t.Fatalf("NewPinStateMachine returned error: %v", err)
	}
	ctx := context.Background()
	if err := sm.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := sm.Fire(ctx, TriggerRaise); err != nil {
		t.Fatalf("Fire returned error: %v", err)
	}
	if gotFrom != StateLow || gotTo != StateHigh {
		t.Errorf("action ran with (%q, %q), want (%q, %q)", gotFrom, gotTo, StateLow, StateHigh)
	}
}

func TestActionErrorFailsTransition(t *testing.T) {
	wantErr := errors.New("gpio write failed")
	sm, err := NewPinStateMachine("fan", StateLow,
		func(ctx context.Context, from, to string) error { return wantErr },
		nil,
	)
	if err != nil {
		t.Fatalf("NewPinStateMachine returned error: %v", err)
	}
	ctx := context.Background()
	if err := sm.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := sm.Fire(ctx, TriggerRaise); err == nil {
		t.Error("Fire with a failing action: want error, got nil")
	}
}

func TestManagerAddGetRemove(t *testing.T) {
	m := NewManager()
	sm, err := New(pinConfig())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := m.AddStateMachine(sm); err != nil {
		t.Fatalf("AddStateMachine returned error: %v", err)
	}
	if err := m.AddStateMachine(sm); !errors.Is(err, ErrStateMachineExists) {
		t.Errorf("AddStateMachine with duplicate name: err = %v, want ErrStateMachineExists", err)
	}

	got, err := m.GetStateMachine("pin")
	if err != nil || got != sm {
		t.Errorf("GetStateMachine(\"pin\") = (%v, %v), want (sm, nil)", got, err)
	}

	if err := m.RemoveStateMachine("pin"); err != nil {
		t.Fatalf("RemoveStateMachine returned error: %v", err)
	}
	if _, err := m.GetStateMachine("pin"); !errors.Is(err, ErrStateMachineNotFound) {
		t.Errorf("GetStateMachine after removal: err = %v, want ErrStateMachineNotFound", err)
	}
}

func TestManagerAddRejectsNil(t *testing.T) {
	m := NewManager()
	if err := m.AddStateMachine(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("AddStateMachine(nil): err = %v, want ErrInvalidConfig", err)
	}
}
