// SPDX-License-Identifier: BSD-3-Clause

// Package control implements the four controller variants that drive a
// single GPIO-controlled actuator (fan, pump, light, relay): Disabled,
// Cyclic, TimeBased, and Feedback.
//
// Grounded on original_source/agent/src/manage/control.rs's
// CyclicController/TimeBasedController (the select-on-sleep-or-cancel
// loop, the always-on/always-off zero-duration shortcuts, the
// UTC-time-of-day scheduling arithmetic) and on control/fan_controller.rs
// for the high/low alternation shape. Feedback has no original_source
// counterpart — original_source drives the water pump by a fixed
// schedule only — and is built here from internal/threshold +
// internal/broadcast per SPEC_FULL.md §4.6's supplemented Feedback
// variant, driving its pin through pkg/state's low/high FSM. Cyclic
// tracks its pin with a plain on/off bool instead.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/rorosen/growd/internal/broadcast"
	"github.com/rorosen/growd/internal/threshold"
	"github.com/rorosen/growd/pkg/state"
)

// ErrEqualTimes indicates a TimeBased controller was configured with
// identical activate and deactivate times.
var ErrEqualTimes = errors.New("activate time and deactivate time cannot be equal")

// ErrNoSensors indicates a Feedback controller was configured for a
// domain with no sensors to evaluate its threshold against.
var ErrNoSensors = errors.New("feedback control requires at least one sensor")

// Controller drives one actuator until ctx is cancelled.
type Controller interface {
	Run(ctx context.Context) error
}

// Disabled owns no pin and returns immediately.
type Disabled struct{}

// Run implements Controller.
func (Disabled) Run(ctx context.Context) error { return nil }

// Cyclic alternates a pin high/low on fixed on/off durations. A zero
// off-duration means always-on; a zero on-duration means always-off;
// either case short-circuits into a single SetValue with no further
// alternation.
type Cyclic struct {
	line        *gpiocdev.Line
	onDuration  time.Duration
	offDuration time.Duration
	logger      *slog.Logger
	subject     string
}

// NewCyclic constructs a Cyclic controller driving line.
func NewCyclic(line *gpiocdev.Line, onDuration, offDuration time.Duration, subject string, logger *slog.Logger) *Cyclic {
	return &Cyclic{line: line, onDuration: onDuration, offDuration: offDuration, subject: subject, logger: logger}
}

// Run implements Controller.
func (c *Cyclic) Run(ctx context.Context) error {
	c.logger.Debug("starting cyclic controller", "subject", c.subject)

	if c.offDuration <= 0 {
		c.logger.Info("always on", "subject", c.subject)
		return c.line.SetValue(1)
	}
	if c.onDuration <= 0 {
		c.logger.Info("always off", "subject", c.subject)
		return c.line.SetValue(0)
	}

	if err := c.line.SetValue(1); err != nil {
		return fmt.Errorf("set %s high: %w", c.subject, err)
	}
	isOn := true
	timeout := c.onDuration

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("stopping cyclic controller", "subject", c.subject)
			return nil
		case <-time.After(timeout):
			if isOn {
				c.logger.Debug("deactivating", "subject", c.subject)
				if err := c.line.SetValue(0); err != nil {
					return fmt.Errorf("set %s low: %w", c.subject, err)
				}
				isOn = false
				timeout = c.offDuration
			} else {
				c.logger.Debug("activating", "subject", c.subject)
				if err := c.line.SetValue(1); err != nil {
					return fmt.Errorf("set %s high: %w", c.subject, err)
				}
				isOn = true
				timeout = c.onDuration
			}
		}
	}
}

// TimeOfDay is an offset from midnight UTC, in [0, 24h).
type TimeOfDay time.Duration

// TimeBased drives a pin high between activate and deactivate times of
// day, recomputing the time until the next edge every cycle.
type TimeBased struct {
	line     *gpiocdev.Line
	activate TimeOfDay
	deactivate TimeOfDay
	subject  string
	logger   *slog.Logger
}

// NewTimeBased constructs a TimeBased controller. Returns ErrEqualTimes
// if activate and deactivate name the same time of day.
func NewTimeBased(line *gpiocdev.Line, activate, deactivate TimeOfDay, subject string, logger *slog.Logger) (*TimeBased, error) {
	if activate == deactivate {
		return nil, ErrEqualTimes
	}
	return &TimeBased{line: line, activate: activate, deactivate: deactivate, subject: subject, logger: logger}, nil
}

// Run implements Controller.
func (t *TimeBased) Run(ctx context.Context) error {
	t.logger.Debug("starting time-based controller", "subject", t.subject)

	timeout := time.Duration(0)
	for {
		select {
		case <-ctx.Done():
			t.logger.Debug("stopping time-based controller", "subject", t.subject)
			return nil
		case <-time.After(timeout):
			now := time.Now().UTC()
			untilOn := untilNext(now, t.activate)
			untilOff := untilNext(now, t.deactivate)

			if untilOn < untilOff {
				t.logger.Debug("deactivating now", "subject", t.subject)
				if err := t.line.SetValue(0); err != nil {
					return fmt.Errorf("set %s low: %w", t.subject, err)
				}
				t.logger.Info("activating in", "subject", t.subject, "duration", untilOn)
				timeout = untilOn
			} else {
				t.logger.Debug("activating now", "subject", t.subject)
				if err := t.line.SetValue(1); err != nil {
					return fmt.Errorf("set %s high: %w", t.subject, err)
				}
				t.logger.Info("deactivating in", "subject", t.subject, "duration", untilOff)
				timeout = untilOff
			}
		}
	}
}

// untilNext returns the duration from now until the next occurrence of
// target (an offset from midnight UTC), rolling over to tomorrow if
// target has already passed today.
func untilNext(now time.Time, target TimeOfDay) time.Duration {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	next := midnight.Add(time.Duration(target))
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// Feedback subscribes to a domain's broadcast at construction and
// drives a pin high/low by evaluating a Threshold over each incoming
// batch, with deactivate-priority per internal/threshold.Evaluate.
type Feedback[M any] struct {
	sub     *broadcast.Subscription[[]M]
	sm      *state.FSM
	t       threshold.Threshold
	lookup  threshold.FieldLookup[M]
	subject string
	logger  *slog.Logger
}

// NewFeedback constructs a Feedback controller. bc must belong to a
// domain with at least one configured sensor. NewFeedback returns
// ErrNoSensors when bc is nil; it cannot observe the sensor count
// itself, so callers reject a non-nil broadcast of a zero-sensor
// domain before calling this.
func NewFeedback[M any](line *gpiocdev.Line, bc *broadcast.Broadcast[[]M], t threshold.Threshold, lookup threshold.FieldLookup[M], subject string, logger *slog.Logger) (*Feedback[M], error) {
	if bc == nil {
		return nil, ErrNoSensors
	}

	sm, err := state.NewPinStateMachine(subject, state.StateLow,
		func(ctx context.Context, from, to string) error { return line.SetValue(1) },
		func(ctx context.Context, from, to string) error { return line.SetValue(0) },
	)
	if err != nil {
		return nil, fmt.Errorf("build pin state machine: %w", err)
	}

	return &Feedback[M]{
		sub:     bc.Subscribe(),
		sm:      sm,
		t:       t,
		lookup:  lookup,
		subject: subject,
		logger:  logger,
	}, nil
}

// Run implements Controller.
func (f *Feedback[M]) Run(ctx context.Context) error {
	if err := f.sm.Start(ctx); err != nil {
		return fmt.Errorf("start pin state machine: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			f.logger.Debug("stopping feedback controller", "subject", f.subject)
			return nil
		case batch, ok := <-f.sub.C():
			if !ok {
				return nil
			}
			if lagged := f.sub.TakeLag(); lagged > 0 {
				f.logger.Warn("feedback controller lagging", "subject", f.subject, "skipped", lagged)
			}

			decision, err := threshold.Evaluate(f.t, batch, f.lookup)
			if err != nil {
				f.logger.Warn("threshold evaluation failed", "subject", f.subject, "error", err)
				continue
			}

			var trigger string
			switch decision {
			case threshold.Activated:
				trigger = state.TriggerRaise
			case threshold.Deactivated:
				trigger = state.TriggerLower
			default:
				continue
			}

			if err := f.sm.Fire(ctx, trigger); err != nil {
				f.logger.Debug("no pin transition", "subject", f.subject, "trigger", trigger, "error", err)
			}
		}
	}
}
