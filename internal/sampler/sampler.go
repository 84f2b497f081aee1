// SPDX-License-Identifier: BSD-3-Clause

// Package sampler implements the periodic measurement loop shared by
// every domain: tick on a fixed period, ask each sensor for one
// measurement, and broadcast the batch. Grounded on
// original_source/agent/src/manage/sample/air.rs's AirSampler::run (a
// select between a sleep and cancellation, each sensor measured in turn
// with errors logged and that sensor's result simply omitted), here
// generalized into a single generic implementation parameterized over
// the measurement type and any number of sensors, instead of one
// hand-written sampler struct per domain.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rorosen/growd/internal/broadcast"
)

// ErrInvalidPeriod indicates Run was asked to tick on a non-positive
// period. Configuration is expected to reject this at startup (see
// internal/config.Config.Validate); this is a defensive backstop against
// time.NewTicker's panic on a non-positive interval.
var ErrInvalidPeriod = errors.New("sample period must be positive")

// Sensor is anything that can produce one measurement of type M,
// honoring ctx for cancellation mid-measurement.
type Sensor[M any] interface {
	Label() string
	Measure(ctx context.Context) (M, error)
}

// Sampler ticks every Period, asking every Sensor for one measurement
// and broadcasting the resulting batch.
type Sampler[M any] struct {
	period    time.Duration
	sensors   []Sensor[M]
	broadcast *broadcast.Broadcast[[]M]
	logger    *slog.Logger
	domain    string
}

// New constructs a Sampler. period must be positive; the caller is
// expected to have validated this at configuration time.
func New[M any](domain string, period time.Duration, sensors []Sensor[M], bc *broadcast.Broadcast[[]M], logger *slog.Logger) *Sampler[M] {
	return &Sampler[M]{
		period:    period,
		sensors:   sensors,
		broadcast: bc,
		logger:    logger,
		domain:    domain,
	}
}

// Run ticks every s.period until ctx is cancelled. Missed ticks are
// skipped, not queued: time.Ticker already drops a tick that arrives
// before the previous one was consumed, which is exactly the desired
// "Skip" policy. Returns nil on clean cancellation.
func (s *Sampler[M]) Run(ctx context.Context) error {
	if s.period <= 0 {
		return fmt.Errorf("%w: domain %s: period %s", ErrInvalidPeriod, s.domain, s.period)
	}

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			batch := s.sampleOnce(ctx)
			if len(batch) == 0 {
				continue
			}
			s.broadcast.Send(batch)
		}
	}
}

func (s *Sampler[M]) sampleOnce(ctx context.Context) []M {
	type result struct {
		m  M
		ok bool
	}

	results := make([]result, len(s.sensors))
	var wg sync.WaitGroup
	for i, sensor := range s.sensors {
		wg.Add(1)
		go func(i int, sensor Sensor[M]) {
			defer wg.Done()
			m, err := sensor.Measure(ctx)
			if err != nil {
				s.logger.Error("measurement failed",
					"domain", s.domain, "sensor", sensor.Label(), "error", err)
				return
			}
			results[i] = result{m: m, ok: true}
		}(i, sensor)
	}
	wg.Wait()

	batch := make([]M, 0, len(results))
	for _, r := range results {
		if r.ok {
			batch = append(batch, r.m)
		}
	}
	return batch
}
