// SPDX-License-Identifier: BSD-3-Clause

// Package light implements the BH1750-class ambient illuminance sensor
// driver. Unlike the other two drivers, it has no identify or
// calibration phase: each sample writes the two measurement-time
// registers and then one one-time high-resolution command.
//
// Grounded on original_source/measure/src/light/bh1750fvi.rs.
package light

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rorosen/growd/internal/measurement"
	"github.com/rorosen/growd/pkg/i2c"
)

const (
	modeOneTimeHighRes = 0x20
	waitDuration       = 200 * time.Millisecond
	mtRegMax           = 31
	mtRegDefault       = 69
	maskMTRegMin       = 0x1F
	cmdSetMTHigh       = 0b01000 << 3
	cmdSetMTLow        = 0b011 << 5
)

// ErrCancelled indicates a measurement was aborted by context cancellation.
var ErrCancelled = errors.New("measurement cancelled")

// Sensor drives a BH1750-class ambient light sensor over I2C.
type Sensor struct {
	conn  *i2c.Conn
	label string
}

// New constructs a Sensor. Construction always succeeds: unlike the
// gas/air and distance sensors, this device has no identify or
// calibration handshake to fail.
func New(conn *i2c.Conn, label string) *Sensor {
	return &Sensor{conn: conn, label: label}
}

// Label returns the sensor's configured name.
func (s *Sensor) Label() string { return s.label }

// Measure triggers a one-time high-resolution measurement and returns
// the decoded illuminance in lux.
func (s *Sensor) Measure(ctx context.Context) (measurement.Light, error) {
	if err := s.conn.WriteBytes([]byte{cmdSetMTHigh | (mtRegMax >> 5)}); err != nil {
		return measurement.Light{}, fmt.Errorf("set measurement time high: %w", err)
	}
	if err := s.conn.WriteBytes([]byte{cmdSetMTLow | (mtRegMax & maskMTRegMin)}); err != nil {
		return measurement.Light{}, fmt.Errorf("set measurement time low: %w", err)
	}
	if err := s.conn.WriteBytes([]byte{modeOneTimeHighRes}); err != nil {
		return measurement.Light{}, fmt.Errorf("trigger measurement: %w", err)
	}

	select {
	case <-ctx.Done():
		return measurement.Light{}, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	case <-time.After(waitDuration):
	}

	buf, err := s.conn.ReadBytes(2)
	if err != nil {
		return measurement.Light{}, fmt.Errorf("read illuminance: %w", err)
	}

	raw := uint32(buf[0])<<8 | uint32(buf[1])
	illuminance := float64(raw) / 1.2 * (float64(mtRegDefault) / float64(mtRegMax))

	return measurement.Light{
		MeasureTime: time.Now().Unix(),
		Label:       s.label,
		Illuminance: &illuminance,
	}, nil
}
