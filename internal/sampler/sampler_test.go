// SPDX-License-Identifier: BSD-3-Clause

package sampler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rorosen/growd/internal/broadcast"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeSensor struct {
	label string
	value int
	err   error
}

func (f fakeSensor) Label() string { return f.label }
func (f fakeSensor) Measure(ctx context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.value, nil
}

func TestRunBroadcastsEachTick(t *testing.T) {
	bc := broadcast.New[[]int]()
	sub := bc.Subscribe()
	defer bc.Unsubscribe(sub)

	sensors := []Sensor[int]{fakeSensor{label: "a", value: 1}, fakeSensor{label: "b", value: 2}}
	s := New("test", 5*time.Millisecond, sensors, bc, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case batch := <-sub.C():
		if len(batch) != 2 {
			t.Fatalf("batch = %v, want 2 measurements", batch)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a broadcast batch")
	}
}

func TestSampleOnceOmitsFailedSensors(t *testing.T) {
	bc := broadcast.New[[]int]()
	sensors := []Sensor[int]{
		fakeSensor{label: "good", value: 7},
		fakeSensor{label: "bad", err: errors.New("i2c timeout")},
	}
	s := New("test", time.Second, sensors, bc, discardLogger())

	batch := s.sampleOnce(context.Background())
	if len(batch) != 1 || batch[0] != 7 {
		t.Errorf("sampleOnce() = %v, want [7]", batch)
	}
}

func TestSampleOnceAllFailedReturnsEmpty(t *testing.T) {
	bc := broadcast.New[[]int]()
	sensors := []Sensor[int]{fakeSensor{label: "bad", err: errors.New("nope")}}
	s := New("test", time.Second, sensors, bc, discardLogger())

	batch := s.sampleOnce(context.Background())
	if len(batch) != 0 {
		t.Errorf("sampleOnce() = %v, want empty", batch)
	}
}

func TestRunRejectsNonPositivePeriod(t *testing.T) {
	bc := broadcast.New[[]int]()
	s := New("test", 0, nil, bc, discardLogger())

	if err := s.Run(context.Background()); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("Run() with a zero period: err = %v, want ErrInvalidPeriod", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	bc := broadcast.New[[]int]()
	s := New("test", time.Millisecond, nil, bc, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
