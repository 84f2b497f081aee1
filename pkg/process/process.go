// SPDX-License-Identifier: BSD-3-Clause

package process

import (
	"context"
	"fmt"

	"cirello.io/oversight/v2"
	"github.com/rorosen/growd/internal/service"
)

// New creates a new oversight.ChildProcess that wraps a service.Service.
// It recovers from any panic raised while the service runs, converting it
// to an error that includes the service name for easier diagnosis.
func New(s service.Service) oversight.ChildProcess {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panicked: %v", s.Name(), r)
			}
		}()

		return s.Run(ctx)
	}
}
