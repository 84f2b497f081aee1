// SPDX-License-Identifier: BSD-3-Clause

package control

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rorosen/growd/internal/broadcast"
	"github.com/rorosen/growd/internal/threshold"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDisabledRun(t *testing.T) {
	if err := (Disabled{}).Run(context.Background()); err != nil {
		t.Errorf("Disabled.Run() = %v, want nil", err)
	}
}

func TestNewTimeBasedRejectsEqualTimes(t *testing.T) {
	same := TimeOfDay(8 * time.Hour)
	_, err := NewTimeBased(nil, same, same, "light", discardLogger())
	if !errors.Is(err, ErrEqualTimes) {
		t.Errorf("NewTimeBased with equal times: err = %v, want ErrEqualTimes", err)
	}
}

func TestNewTimeBasedAcceptsDistinctTimes(t *testing.T) {
	activate := TimeOfDay(6 * time.Hour)
	deactivate := TimeOfDay(20 * time.Hour)
	tb, err := NewTimeBased(nil, activate, deactivate, "light", discardLogger())
	if err != nil {
		t.Fatalf("NewTimeBased returned error: %v", err)
	}
	if tb.activate != activate || tb.deactivate != deactivate {
		t.Errorf("NewTimeBased stored (%v, %v), want (%v, %v)", tb.activate, tb.deactivate, activate, deactivate)
	}
}

func TestUntilNext(t *testing.T) {
	noon := time.Date(2026, time.July, 30, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		target TimeOfDay
		want   time.Duration
	}{
		{"later today", TimeOfDay(18 * time.Hour), 6 * time.Hour},
		{"earlier today rolls to tomorrow", TimeOfDay(6 * time.Hour), 18 * time.Hour},
		{"exactly now rolls to tomorrow", TimeOfDay(12 * time.Hour), 24 * time.Hour},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := untilNext(noon, c.target); got != c.want {
				t.Errorf("untilNext(noon, %v) = %v, want %v", c.target, got, c.want)
			}
		})
	}
}

func TestNewFeedbackRejectsNilBroadcast(t *testing.T) {
	th := threshold.Threshold{
		Activate:   threshold.Condition{Field: "humidity", Comparator: threshold.GreaterThan, Value: 65},
		Deactivate: threshold.Condition{Field: "humidity", Comparator: threshold.LessThan, Value: 40},
	}
	lookup := func(int, string) (float64, bool) { return 0, false }

	_, err := NewFeedback[int](nil, nil, th, lookup, "fan", discardLogger())
	if !errors.Is(err, ErrNoSensors) {
		t.Errorf("NewFeedback with nil broadcast: err = %v, want ErrNoSensors", err)
	}
}

func TestNewFeedbackConstructsOverSubscription(t *testing.T) {
	bc := broadcast.New[[]int]()
	th := threshold.Threshold{
		Activate:   threshold.Condition{Field: "humidity", Comparator: threshold.GreaterThan, Value: 65},
		Deactivate: threshold.Condition{Field: "humidity", Comparator: threshold.LessThan, Value: 40},
	}
	lookup := func(int, string) (float64, bool) { return 0, false }

	fb, err := NewFeedback(nil, bc, th, lookup, "fan", discardLogger())
	if err != nil {
		t.Fatalf("NewFeedback returned error: %v", err)
	}
	if fb.sub == nil {
		t.Error("NewFeedback did not subscribe to the broadcast")
	}
}
