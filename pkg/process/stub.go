// SPDX-License-Identifier: BSD-3-Clause

package process

import "context"

// Stub is a no-op implementation of service.Service. It can be used as a
// placeholder, for testing, or to disable a domain manager by replacing it
// with a stub.
type Stub struct {
	name string
}

// Name returns the identifier name for this stub service.
func (s *Stub) Name() string {
	return s.name
}

// Run returns immediately without error.
func (s *Stub) Run(_ context.Context) error {
	return nil
}

// NewStub creates and returns a new instance of the stub service with the given name.
func NewStub(name string) *Stub {
	return &Stub{
		name: name,
	}
}
