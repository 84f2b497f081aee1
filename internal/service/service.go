// SPDX-License-Identifier: BSD-3-Clause

// Package service defines the common interface every supervised domain
// component implements, so the supervisor can run all of them uniformly.
package service

import "context"

// Service is a named, long-running unit of work supervised by the
// oversight tree. Run blocks until ctx is cancelled or an unrecoverable
// error occurs.
type Service interface {
	Name() string
	Run(ctx context.Context) error
}
