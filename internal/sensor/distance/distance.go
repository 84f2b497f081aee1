// SPDX-License-Identifier: BSD-3-Clause

// Package distance implements the VL53L0X-class time-of-flight distance
// sensor driver used by the water-level domain: three-phase
// initialization, a stop-measurement/start-measurement cycle per sample,
// and the two cancellable polling loops that bracket it.
//
// Grounded on original_source/measure/src/water_level/vl53l0x.rs.
package distance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rorosen/growd/internal/measurement"
	"github.com/rorosen/growd/pkg/i2c"
)

const (
	identificationModelID = 0xEE

	rangeSequenceStepDSS        = 0x28
	rangeSequenceStepPreRange   = 0x40
	rangeSequenceStepFinalRange = 0x80
	rangeSequenceSteps          = rangeSequenceStepDSS | rangeSequenceStepPreRange | rangeSequenceStepFinalRange

	regIdentificationModelID                      = 0xC0
	regVHVConfigPadSCLSDAExtSupHV                  = 0x89
	regSystemSequenceConfig                       = 0x01
	regSystemInterruptConfigGPIO                  = 0x0A
	regGPIOHVMuxActiveHigh                        = 0x84
	regSystemInterruptClear                       = 0x0B
	regResultInterruptStatus                      = 0x13
	regSysrangeStart                              = 0x00
	regResultRangeStatus                          = 0x14
	regMSRCConfigControl                          = 0x60
	regFinalRangeConfigMinCountRateRtnLimit        = 0x44
)

var (
	// ErrIdentify indicates the device at the configured address did not
	// report the expected VL53L0X model id.
	ErrIdentify = errors.New("distance sensor identification failed")
	// ErrNotInitialized indicates the sensor has no valid stop_variable
	// because its most recent initialization attempt failed.
	ErrNotInitialized = errors.New("distance sensor not initialized")
	// ErrCancelled indicates a measurement was aborted by context cancellation.
	ErrCancelled = errors.New("measurement cancelled")
)

// Sensor drives a VL53L0X-class time-of-flight distance sensor over I2C.
type Sensor struct {
	conn  *i2c.Conn
	label string

	hasStopVariable bool
	stopVariable    byte
}

// New constructs a Sensor. Unlike gasair.New, a failed initial
// calibration does not make construction fail: the error is discarded
// and Measure retries initialization on its next call.
func New(conn *i2c.Conn, label string) *Sensor {
	s := &Sensor{conn: conn, label: label}
	if v, err := s.initialize(); err == nil {
		s.stopVariable = v
		s.hasStopVariable = true
	}
	return s
}

// Label returns the sensor's configured name.
func (s *Sensor) Label() string { return s.label }

func (s *Sensor) initialize() (byte, error) {
	modelID, err := s.conn.ReadRegU8(regIdentificationModelID)
	if err != nil {
		return 0, fmt.Errorf("read identification model id: %w", err)
	}
	if modelID != identificationModelID {
		return 0, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrIdentify, modelID, identificationModelID)
	}

	stopVariable, err := s.initData()
	if err != nil {
		return 0, fmt.Errorf("init data: %w", err)
	}
	if err := s.initStatic(); err != nil {
		return 0, fmt.Errorf("init static: %w", err)
	}
	if err := s.performRefCalibration(); err != nil {
		return 0, fmt.Errorf("reference calibration: %w", err)
	}

	return stopVariable, nil
}

func (s *Sensor) stopMeasurement(stopVariable byte) error {
	writes := []struct {
		reg, val byte
	}{
		{0x80, 0x01},
		{0xFF, 0x01},
		{0x00, 0x00},
		{0x91, stopVariable},
		{0x00, 0x01},
		{0xFF, 0x00},
		{0x80, 0x00},
	}
	for _, w := range writes {
		if err := s.conn.WriteRegU8(w.reg, w.val); err != nil {
			return fmt.Errorf("write 0x%02x: %w", w.reg, err)
		}
	}
	return nil
}

func (s *Sensor) initData() (byte, error) {
	// set 2v8 mode
	if err := s.conn.SetRegBits(regVHVConfigPadSCLSDAExtSupHV, 0x01, 0x01); err != nil {
		return 0, err
	}

	// set i2c standard mode, then read the stop variable
	writes := []struct {
		reg, val byte
	}{
		{0x88, 0x00},
		{0x80, 0x01},
		{0xFF, 0x01},
		{0x00, 0x00},
	}
	for _, w := range writes {
		if err := s.conn.WriteRegU8(w.reg, w.val); err != nil {
			return 0, err
		}
	}

	stopVariable, err := s.conn.ReadRegU8(0x91)
	if err != nil {
		return 0, err
	}

	restore := []struct {
		reg, val byte
	}{
		{0x00, 0x01},
		{0xFF, 0x00},
		{0x80, 0x00},
	}
	for _, w := range restore {
		if err := s.conn.WriteRegU8(w.reg, w.val); err != nil {
			return 0, err
		}
	}

	// disable SIGNAL_RATE_MSRC (bit 1) and SIGNAL_RATE_PRE_RANGE (bit 4) limit checks
	if err := s.conn.SetRegBits(regMSRCConfigControl, 0x12, 0x12); err != nil {
		return 0, err
	}

	// final range signal rate limit, Q9.7 fixed point (208/128 = 1.625 Mcps)
	if err := s.conn.WriteRegU16(regFinalRangeConfigMinCountRateRtnLimit, 208); err != nil {
		return 0, err
	}

	return stopVariable, nil
}

func (s *Sensor) initStatic() error {
	for _, w := range tuningTable {
		if err := s.conn.WriteRegU8(w.reg, w.val); err != nil {
			return fmt.Errorf("write tuning value 0x%02x: %w", w.reg, err)
		}
	}

	if err := s.conn.WriteRegU8(regSystemInterruptConfigGPIO, 0x04); err != nil {
		return err
	}

	activeHigh, err := s.conn.ReadRegU8(regGPIOHVMuxActiveHigh)
	if err != nil {
		return err
	}
	if err := s.conn.WriteRegU8(regGPIOHVMuxActiveHigh, activeHigh&^0x10); err != nil {
		return err
	}

	if err := s.conn.WriteRegU8(regSystemInterruptClear, 0x01); err != nil {
		return err
	}

	return s.conn.WriteRegU8(regSystemSequenceConfig, rangeSequenceSteps)
}

func (s *Sensor) performRefCalibration() error {
	if err := s.performSingleRefCalibration(0x01, 0x01|0x40); err != nil {
		return err
	}
	if err := s.performSingleRefCalibration(0x02, 0x01); err != nil {
		return err
	}
	return s.conn.WriteRegU8(regSystemSequenceConfig, rangeSequenceSteps)
}

func (s *Sensor) performSingleRefCalibration(sequenceConfig, sysrangeStart byte) error {
	if err := s.conn.WriteRegU8(regSystemSequenceConfig, sequenceConfig); err != nil {
		return err
	}
	if err := s.conn.WriteRegU8(regSysrangeStart, sysrangeStart); err != nil {
		return err
	}

	for {
		status, err := s.conn.ReadRegU8(regResultInterruptStatus)
		if err != nil {
			return err
		}
		if status&0x07 != 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := s.conn.WriteRegU8(regSystemInterruptClear, 0x01); err != nil {
		return err
	}
	return s.conn.WriteRegU8(regSysrangeStart, 0x00)
}

// Measure triggers a single range measurement and returns the decoded
// distance. If the sensor has no valid stop_variable from a previous
// successful initialization, Measure attempts one first.
func (s *Sensor) Measure(ctx context.Context) (measurement.WaterLevel, error) {
	if !s.hasStopVariable {
		v, err := s.initialize()
		if err != nil {
			return measurement.WaterLevel{}, fmt.Errorf("%w: %w", ErrNotInitialized, err)
		}
		s.stopVariable = v
		s.hasStopVariable = true
	}

	if err := s.stopMeasurement(s.stopVariable); err != nil {
		return measurement.WaterLevel{}, err
	}

	if err := s.conn.WriteRegU8(regSysrangeStart, 0x01); err != nil {
		return measurement.WaterLevel{}, err
	}

	if err := s.waitWhile(ctx, func() (bool, error) {
		v, err := s.conn.ReadRegU8(regSysrangeStart)
		if err != nil {
			return false, err
		}
		return v&0x01 == 1, nil
	}); err != nil {
		return measurement.WaterLevel{}, err
	}

	if err := s.waitWhile(ctx, func() (bool, error) {
		v, err := s.conn.ReadRegU8(regResultInterruptStatus)
		if err != nil {
			return false, err
		}
		return v&0x07 == 0, nil
	}); err != nil {
		return measurement.WaterLevel{}, err
	}

	distance, err := s.conn.ReadRegU16(regResultRangeStatus + 10)
	if err != nil {
		return measurement.WaterLevel{}, err
	}

	if err := s.conn.WriteRegU8(regSystemInterruptClear, 0x01); err != nil {
		return measurement.WaterLevel{}, err
	}

	d := uint32(distance)
	return measurement.WaterLevel{
		MeasureTime: time.Now().Unix(),
		Label:       s.label,
		Distance:    &d,
	}, nil
}

// waitWhile polls cond every 10ms and returns once cond reports false,
// honoring ctx cancellation on every tick.
func (s *Sensor) waitWhile(ctx context.Context, cond func() (bool, error)) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		case <-time.After(10 * time.Millisecond):
		}

		keepWaiting, err := cond()
		if err != nil {
			return err
		}
		if !keepWaiting {
			return nil
		}
	}
}

var tuningTable = []struct{ reg, val byte }{
	{0xFF, 0x01}, {0x00, 0x00}, {0xFF, 0x00}, {0x09, 0x00}, {0x10, 0x00},
	{0x11, 0x00}, {0x24, 0x01}, {0x25, 0xFF}, {0x75, 0x00}, {0xFF, 0x01},
	{0x4E, 0x2C}, {0x48, 0x00}, {0x30, 0x20}, {0xFF, 0x00}, {0x30, 0x09},
	{0x54, 0x00}, {0x31, 0x04}, {0x32, 0x03}, {0x40, 0x83}, {0x46, 0x25},
	{0x60, 0x00}, {0x27, 0x00}, {0x50, 0x06}, {0x51, 0x00}, {0x52, 0x96},
	{0x56, 0x08}, {0x57, 0x30}, {0x61, 0x00}, {0x62, 0x00}, {0x64, 0x00},
	{0x65, 0x00}, {0x66, 0xA0}, {0xFF, 0x01}, {0x22, 0x32}, {0x47, 0x14},
	{0x49, 0xFF}, {0x4A, 0x00}, {0xFF, 0x00}, {0x7A, 0x0A}, {0x7B, 0x00},
	{0x78, 0x21}, {0xFF, 0x01}, {0x23, 0x34}, {0x42, 0x00}, {0x44, 0xFF},
	{0x45, 0x26}, {0x46, 0x05}, {0x40, 0x40}, {0x0E, 0x06}, {0x20, 0x1A},
	{0x43, 0x40}, {0xFF, 0x00}, {0x34, 0x03}, {0x35, 0x44}, {0xFF, 0x01},
	{0x31, 0x04}, {0x4B, 0x09}, {0x4C, 0x05}, {0x4D, 0x04}, {0xFF, 0x00},
	{0x44, 0x00}, {0x45, 0x20}, {0x47, 0x08}, {0x48, 0x28}, {0x67, 0x00},
	{0x70, 0x04}, {0x71, 0x01}, {0x72, 0xFE}, {0x76, 0x00}, {0x77, 0x00},
	{0xFF, 0x01}, {0x0D, 0x01}, {0xFF, 0x00}, {0x80, 0x01}, {0x01, 0xF8},
	{0xFF, 0x01}, {0x8E, 0x01}, {0x00, 0x01}, {0xFF, 0x00}, {0x80, 0x00},
}
