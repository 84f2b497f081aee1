// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package gpio

import (
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// LineGroup tracks a named set of requested GPIO lines so callers (the
// supervisor, holding every domain's actuator line for the process
// lifetime) can set values and close every line together on shutdown.
type LineGroup struct {
	lines map[string]*gpiocdev.Line
	mu    sync.RWMutex
}

// NewLineGroup creates a new empty line group.
func NewLineGroup() *LineGroup {
	return &LineGroup{
		lines: make(map[string]*gpiocdev.Line),
	}
}

// Add adds a requested line to the group under name.
func (lg *LineGroup) Add(name string, line *gpiocdev.Line) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if line != nil {
		lg.lines[name] = line
	}
}

// Remove removes a line from the group without closing it.
func (lg *LineGroup) Remove(name string) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	delete(lg.lines, name)
}

// Get retrieves a line from the group by name.
func (lg *LineGroup) Get(name string) (*gpiocdev.Line, bool) {
	lg.mu.RLock()
	defer lg.mu.RUnlock()
	line, exists := lg.lines[name]
	return line, exists
}

// SetValues sets values for multiple output lines at once. It continues
// past individual failures, returning the first error encountered.
func (lg *LineGroup) SetValues(values map[string]int) error {
	lg.mu.RLock()
	defer lg.mu.RUnlock()

	var firstError error
	for name, value := range values {
		if line, exists := lg.lines[name]; exists {
			if err := line.SetValue(value); err != nil && firstError == nil {
				firstError = err
			}
		}
	}
	return firstError
}

// Close closes every line in the group and empties it.
func (lg *LineGroup) Close() error {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	var firstError error
	for _, line := range lg.lines {
		if err := line.Close(); err != nil && firstError == nil {
			firstError = err
		}
	}
	lg.lines = make(map[string]*gpiocdev.Line)
	return firstError
}
