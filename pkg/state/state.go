// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qmuntal/stateless"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FSM is a thread-safe finite state machine wrapper around
// github.com/qmuntal/stateless, adding an optional persistence hook, an
// optional change-broadcast hook, and a per-transition timeout.
type FSM struct {
	config  *Config
	machine *stateless.StateMachine
	mu      sync.RWMutex
	tracer  trace.Tracer
	started bool
	stopped bool

	currentState    string
	stateActions    map[string]StateDefinition
	persistCallback PersistenceCallback
	broadcastCallback BroadcastCallback
}

// Machine is an alias kept for symmetry with the builder constructors
// in builders.go, which return the FSM type directly.
type Machine = FSM

// New creates a new FSM from config.
func New(config *Config) (*FSM, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sm := &FSM{
		config:       config,
		currentState: config.InitialState,
		stateActions: make(map[string]StateDefinition),
	}

	if config.EnableTracing {
		sm.tracer = otel.Tracer("state")
	}

	sm.machine = stateless.NewStateMachine(config.InitialState)

	for _, s := range config.States {
		sm.stateActions[s.Name] = s
		sm.configureState(s)
	}
	for _, t := range config.Transitions {
		sm.configureTransition(t)
	}

	return sm, nil
}

// SetPersistenceCallback sets the callback invoked after every successful transition.
func (sm *FSM) SetPersistenceCallback(callback PersistenceCallback) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.started {
		return ErrStateMachineAlreadyStarted
	}
	sm.persistCallback = callback
	return nil
}

// SetBroadcastCallback sets the callback invoked after every successful transition.
func (sm *FSM) SetBroadcastCallback(callback BroadcastCallback) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.started {
		return ErrStateMachineAlreadyStarted
	}
	sm.broadcastCallback = callback
	return nil
}

// Start marks the machine as running, persisting the initial state if a
// persistence callback is set.
func (sm *FSM) Start(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.started {
		return nil
	}
	if sm.stopped {
		return ErrStateMachineStopped
	}
	sm.started = true

	if sm.persistCallback != nil {
		if err := sm.persistCallback(sm.config.Name, sm.currentState); err != nil {
			return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
		}
	}
	return nil
}

// Stop marks the machine as stopped; further Fire calls are rejected.
func (sm *FSM) Stop(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.started || sm.stopped {
		return nil
	}
	sm.stopped = true
	return nil
}

// Fire triggers a state transition.
func (sm *FSM) Fire(ctx context.Context, trigger string) error {
	sm.mu.Lock()

	if !sm.started {
		sm.mu.Unlock()
		return ErrStateMachineNotStarted
	}
	if sm.stopped {
		sm.mu.Unlock()
		return ErrStateMachineStopped
	}

	var span trace.Span
	if sm.tracer != nil {
		ctx, span = sm.tracer.Start(ctx, "state.Fire",
			trace.WithAttributes(
				attribute.String("state_machine.name", sm.config.Name),
				attribute.String("state.current", sm.currentState),
				attribute.String("trigger", trigger),
			))
		defer span.End()
	}

	if ok, err := sm.machine.CanFire(trigger); err != nil {
		sm.mu.Unlock()
		return fmt.Errorf("%w: trigger %s not valid in state %s: %w", ErrInvalidTrigger, trigger, sm.currentState, err)
	} else if !ok {
		sm.mu.Unlock()
		return fmt.Errorf("%w: trigger %s not valid in state %s", ErrInvalidTrigger, trigger, sm.currentState)
	}

	previousState := sm.currentState

	timeout := sm.config.StateTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	fireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		if err := sm.machine.FireCtx(fireCtx, trigger); err != nil {
			done <- fmt.Errorf("%w: %w", ErrInvalidTransition, err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			if span != nil {
				span.RecordError(err)
			}
			sm.mu.Unlock()
			return err
		}
	case <-fireCtx.Done():
		sm.mu.Unlock()
		if fireCtx.Err() == context.DeadlineExceeded {
			return ErrTransitionTimeout
		}
		return fireCtx.Err()
	}

	newState, err := sm.machine.State(ctx)
	if err != nil {
		sm.mu.Unlock()
		return fmt.Errorf("get current state: %w", err)
	}
	sm.currentState = fmt.Sprintf("%v", newState)

	name := sm.config.Name
	curr := sm.currentState
	persistCb := sm.persistCallback
	broadcastCb := sm.broadcastCallback
	sm.mu.Unlock()

	if persistCb != nil {
		if err := persistCb(name, curr); err != nil {
			if span != nil {
				span.RecordError(err)
			}
			return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
		}
	}
	if broadcastCb != nil {
		if err := broadcastCb(name, previousState, curr, trigger); err != nil && span != nil {
			span.RecordError(err)
		}
	}

	if span != nil {
		span.SetAttributes(
			attribute.String("state.previous", previousState),
			attribute.String("state.new", curr),
		)
	}

	return nil
}

// CurrentState returns the machine's current state.
func (sm *FSM) CurrentState() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// CanFire reports whether trigger is valid from the current state.
func (sm *FSM) CanFire(trigger string) (bool, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.machine.CanFire(trigger)
}

// Name returns the machine's configured name.
func (sm *FSM) Name() string { return sm.config.Name }

func (sm *FSM) configureState(s StateDefinition) {
	cfg := sm.machine.Configure(s.Name)
	if s.OnEntry != nil {
		cfg.OnEntry(func(ctx context.Context, _ ...any) error { return s.OnEntry(ctx) })
	}
	if s.OnExit != nil {
		cfg.OnExit(func(ctx context.Context, _ ...any) error { return s.OnExit(ctx) })
	}
}

func (sm *FSM) configureTransition(t TransitionDefinition) {
	fromCfg := sm.machine.Configure(t.From)

	if t.Guard != nil {
		fromCfg.PermitDynamic(t.Trigger, func(ctx context.Context, _ ...any) (any, error) {
			if t.Guard(ctx) {
				return t.To, nil
			}
			return nil, fmt.Errorf("%w: %s -> %s on %s", ErrTransitionGuardFailed, t.From, t.To, t.Trigger)
		})
	} else {
		fromCfg.Permit(t.Trigger, t.To)
	}

	if t.Action != nil {
		toCfg := sm.machine.Configure(t.To)
		toCfg.OnEntryFrom(t.Trigger, func(ctx context.Context, _ ...any) error {
			return t.Action(ctx, t.From, t.To)
		})
	}
}

// Manager owns a named set of independently running FSMs.
type Manager struct {
	machines map[string]*FSM
	mu       sync.RWMutex
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{machines: make(map[string]*FSM)}
}

// AddStateMachine registers sm under its own Name.
func (m *Manager) AddStateMachine(sm *FSM) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sm == nil {
		return fmt.Errorf("%w: nil state machine", ErrInvalidConfig)
	}
	if _, exists := m.machines[sm.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrStateMachineExists, sm.Name())
	}
	m.machines[sm.Name()] = sm
	return nil
}

// RemoveStateMachine unregisters a machine by name.
func (m *Manager) RemoveStateMachine(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.machines[name]; !exists {
		return fmt.Errorf("%w: %s", ErrStateMachineNotFound, name)
	}
	delete(m.machines, name)
	return nil
}

// GetStateMachine looks up a registered machine by name.
func (m *Manager) GetStateMachine(name string) (*FSM, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sm, exists := m.machines[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStateMachineNotFound, name)
	}
	return sm, nil
}

// StopAll stops every registered machine, joining any errors encountered.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, sm := range m.machines {
		if err := sm.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
