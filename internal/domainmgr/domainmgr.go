// SPDX-License-Identifier: BSD-3-Clause

// Package domainmgr implements the per-domain supervisor unit: one
// Sampler, one Controller, one broadcast subscription, and a handle into
// the Store. Grounded on the teacher's service.Service shape
// (service/sensormon and friends: Name()+Run(ctx) under oversight) but
// stripped of the NATS/IPC surface those services carry — a
// DomainManager needs nothing beyond a context.
package domainmgr

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/rorosen/growd/internal/broadcast"
	"github.com/rorosen/growd/internal/control"
)

// Runnable is the shared Run(ctx) contract of Sampler and Controller.
type Runnable interface {
	Run(ctx context.Context) error
}

// DomainManager owns one domain's Sampler, Controller, broadcast
// subscription, and Store append callback.
type DomainManager[M any] struct {
	name       string
	sampler    Runnable
	controller control.Controller
	bc         *broadcast.Broadcast[[]M]
	store      func(batch []M)
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New constructs a DomainManager. store is the Store method to append
// completed batches to (e.g. a Store's AddAir bound as a method value).
func New[M any](name string, smp Runnable, ctrl control.Controller, bc *broadcast.Broadcast[[]M], store func(batch []M), logger *slog.Logger) *DomainManager[M] {
	return &DomainManager[M]{
		name:       name,
		sampler:    smp,
		controller: ctrl,
		bc:         bc,
		store:      store,
		logger:     logger,
		tracer:     otel.Tracer("domainmgr"),
	}
}

// Name implements internal/service.Service.
func (d *DomainManager[M]) Name() string {
	return d.name
}

// Run spawns the Sampler and Controller as sibling goroutines under ctx
// and multiplexes their completion against new batches (appended to the
// Store) until ctx is cancelled or a sibling returns an error.
func (d *DomainManager[M]) Run(ctx context.Context) error {
	ctx, span := d.tracer.Start(ctx, "domainmgr.Run")
	defer span.End()

	sub := d.bc.Subscribe()
	defer d.bc.Unsubscribe(sub)

	samplerDone := make(chan error, 1)
	controllerDone := make(chan error, 1)
	go func() { samplerDone <- d.sampler.Run(ctx) }()
	go func() { controllerDone <- d.controller.Run(ctx) }()

	samplerLive, controllerLive := true, true

	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("domain manager stopping", "domain", d.name)
			if samplerLive {
				<-samplerDone
			}
			if controllerLive {
				<-controllerDone
			}
			return nil

		case batch := <-sub.C():
			if lagged := sub.TakeLag(); lagged > 0 {
				d.logger.Warn("domain manager lagging behind sampler", "domain", d.name, "skipped", lagged)
			}
			d.store(batch)

		case err := <-samplerDone:
			samplerLive = false
			if err != nil {
				return fmt.Errorf("domain %s: sampler: %w", d.name, err)
			}

		case err := <-controllerDone:
			controllerLive = false
			if err != nil {
				return fmt.Errorf("domain %s: controller: %w", d.name, err)
			}
		}
	}
}
