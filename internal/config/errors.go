// SPDX-License-Identifier: BSD-3-Clause

package config

import "errors"

var (
	// ErrConfigParse indicates the configuration document could not be parsed as JSON.
	ErrConfigParse = errors.New("failed to parse configuration")
	// ErrInvalidConfig indicates a parsed configuration violates an invariant.
	ErrInvalidConfig = errors.New("invalid configuration")
)
