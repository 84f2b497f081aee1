// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"context"
	"fmt"
	"time"
)

// EntryFunc runs when a state machine enters a state.
type EntryFunc func(ctx context.Context) error

// ExitFunc runs when a state machine leaves a state.
type ExitFunc func(ctx context.Context) error

// GuardFunc reports whether a transition out of the current state may fire.
type GuardFunc func(ctx context.Context) bool

// ActionFunc runs after a transition completes, naming the states it moved between.
type ActionFunc func(ctx context.Context, from, to string) error

// StateDefinition names one state and its optional entry/exit hooks.
type StateDefinition struct {
	Name    string
	OnEntry EntryFunc
	OnExit  ExitFunc
}

// TransitionDefinition names one allowed edge between two states.
type TransitionDefinition struct {
	From    string
	To      string
	Trigger string
	Guard   GuardFunc
	Action  ActionFunc
}

// PersistenceCallback is called after every successful transition so the
// caller can durably record the new state.
type PersistenceCallback func(machineName, state string) error

// BroadcastCallback is called after every successful transition so the
// caller can notify observers of the change.
type BroadcastCallback func(machineName, previousState, currentState, trigger string) error

// Config holds the configuration for an FSM.
type Config struct {
	Name         string
	Description  string
	InitialState string
	States       []StateDefinition
	Transitions  []TransitionDefinition
	StateTimeout time.Duration
	EnableTracing bool
}

// Option configures a Config.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithName sets the name of the state machine.
func WithName(name string) Option {
	return optionFunc(func(c *Config) { c.Name = name })
}

// WithDescription sets the description of the state machine.
func WithDescription(description string) Option {
	return optionFunc(func(c *Config) { c.Description = description })
}

// WithInitialState sets the initial state of the state machine.
func WithInitialState(state string) Option {
	return optionFunc(func(c *Config) { c.InitialState = state })
}

// WithState adds one state, with optional entry/exit hooks.
func WithState(name string, onEntry EntryFunc, onExit ExitFunc) Option {
	return optionFunc(func(c *Config) {
		c.States = append(c.States, StateDefinition{Name: name, OnEntry: onEntry, OnExit: onExit})
	})
}

// WithTransition adds an unconditional transition.
func WithTransition(from, to, trigger string) Option {
	return optionFunc(func(c *Config) {
		c.Transitions = append(c.Transitions, TransitionDefinition{From: from, To: to, Trigger: trigger})
	})
}

// WithGuardedTransition adds a transition that only fires when guard returns true.
func WithGuardedTransition(from, to, trigger string, guard GuardFunc) Option {
	return optionFunc(func(c *Config) {
		c.Transitions = append(c.Transitions, TransitionDefinition{From: from, To: to, Trigger: trigger, Guard: guard})
	})
}

// WithActionTransition adds a transition that runs action once it completes.
func WithActionTransition(from, to, trigger string, action ActionFunc) Option {
	return optionFunc(func(c *Config) {
		c.Transitions = append(c.Transitions, TransitionDefinition{From: from, To: to, Trigger: trigger, Action: action})
	})
}

// WithStateTimeout sets the maximum duration a single Fire call may take.
func WithStateTimeout(timeout time.Duration) Option {
	return optionFunc(func(c *Config) { c.StateTimeout = timeout })
}

// WithTracing enables OpenTelemetry spans around each Fire call.
func WithTracing(enabled bool) Option {
	return optionFunc(func(c *Config) { c.EnableTracing = enabled })
}

// NewConfig builds a Config from opts, applying defaults first.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		StateTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidConfig)
	}
	if c.InitialState == "" {
		return fmt.Errorf("%w: initial state cannot be empty", ErrInvalidConfig)
	}
	if len(c.States) == 0 {
		return fmt.Errorf("%w: at least one state must be defined", ErrInvalidConfig)
	}

	stateNames := make(map[string]bool, len(c.States))
	initialStateFound := false
	for _, s := range c.States {
		if s.Name == "" {
			return fmt.Errorf("%w: state name cannot be empty", ErrInvalidConfig)
		}
		if stateNames[s.Name] {
			return fmt.Errorf("%w: duplicate state name: %s", ErrInvalidConfig, s.Name)
		}
		stateNames[s.Name] = true
		if s.Name == c.InitialState {
			initialStateFound = true
		}
	}
	if !initialStateFound {
		return fmt.Errorf("%w: initial state %s not found in states list", ErrInvalidConfig, c.InitialState)
	}

	for _, t := range c.Transitions {
		if t.From == "" || t.To == "" {
			return fmt.Errorf("%w: transition from and to states cannot be empty", ErrInvalidConfig)
		}
		if t.Trigger == "" {
			return fmt.Errorf("%w: transition trigger cannot be empty", ErrInvalidConfig)
		}
		if !stateNames[t.From] {
			return fmt.Errorf("%w: transition from state %s not found", ErrInvalidConfig, t.From)
		}
		if !stateNames[t.To] {
			return fmt.Errorf("%w: transition to state %s not found", ErrInvalidConfig, t.To)
		}
	}

	if c.StateTimeout <= 0 {
		return fmt.Errorf("%w: state timeout must be positive", ErrInvalidConfig)
	}

	return nil
}
