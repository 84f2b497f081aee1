// SPDX-License-Identifier: BSD-3-Clause

package domainmgr

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

// blockingRunnable runs until ctx is cancelled, then returns err.
type blockingRunnable struct{ err error }

func (b blockingRunnable) Run(ctx context.Context) error {
	<-ctx.Done()
	return b.err
}

// failingRunnable returns err immediately without waiting on ctx.
type failingRunnable struct{ err error }

func (f failingRunnable) Run(ctx context.Context) error { return f.err }

func TestName(t *testing.T) {
	bc := broadcast.New[[]int]()
	d := New("air", blockingRunnable{}, blockingRunnable{}, bc, func([]int) {}, discardLogger())
	if got := d.Name(); got != "air" {
		t.Errorf("Name() = %q, want %q", got, "air")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	bc := broadcast.New[[]int]()
	d := New("air", blockingRunnable{}, blockingRunnable{}, bc, func([]int) {}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

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

func TestRunPropagatesSamplerError(t *testing.T) {
	bc := broadcast.New[[]int]()
	wantErr := errors.New("sampler boom")
	d := New("air", failingRunnable{err: wantErr}, blockingRunnable{}, bc, func([]int) {}, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := d.Run(ctx)
	if !errors.Is(err, wantErr) {
		t.Errorf("Run() = %v, want wrapping %v", err, wantErr)
	}
}

func TestRunAppendsBatchesToStore(t *testing.T) {
	bc := broadcast.New[[]int]()
	var stored [][]int
	store := func(batch []int) { stored = append(stored, batch) }
	d := New("air", blockingRunnable{}, blockingRunnable{}, bc, store, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// Give Run a moment to subscribe before sending, then poll until the
	// batch has actually been appended.
	deadline := time.Now().Add(time.Second)
	for len(stored) == 0 && time.Now().Before(deadline) {
		bc.Send([]int{1, 2, 3})
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done

	if len(stored) == 0 {
		t.Fatal("store callback was never invoked")
	}
	if got := stored[len(stored)-1]; len(got) != 3 || got[0] != 1 {
		t.Errorf("last stored batch = %v, want [1 2 3]", got)
	}
}
