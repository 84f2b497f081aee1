// SPDX-License-Identifier: BSD-3-Clause

// Package gasair implements the BME680-class gas/air sensor driver:
// chip identification, calibration read, forced-mode measurement
// triggering, and the bit-exact compensation formulas that turn raw
// ADC counts into temperature, humidity, pressure and gas resistance.
//
// Grounded on original_source/agent/src/manage/sample/air/air_sensor.rs
// and original_source/agent/src/manage/sample/air/params.rs.
package gasair

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rorosen/growd/internal/measurement"
	"github.com/rorosen/growd/pkg/i2c"
)

// Register addresses.
const (
	regChipID    = 0xD0
	chipIDValue  = 0x61
	regReset     = 0xE0
	resetCommand = 0xB6
	regCalib1    = 0x8A // 23 bytes
	regCalib2    = 0xE1 // 14 bytes
	regCalib3    = 0x00 // 5 bytes
	regCtrlHum   = 0x72
	regCtrlMeas  = 0x74
	regResHeat0  = 0x5A
	regGasWait0  = 0x64
	regCtrlGas1  = 0x71
	regData      = 0x1D // 17 bytes

	osrsHMask = 0x07
	osrsTMask = 0xE0
	osrsPMask = 0x1C

	modeSleep  = 0x00
	modeForced = 0x01
	modeMask   = 0x03

	targetHeaterTempC = 300.0
	ambientTempC      = 25.0
	gasWaitMS         = 700
)

var (
	// ErrChipID indicates the device at the configured address is not a BME680-class sensor.
	ErrChipID = errors.New("unexpected chip id")
	// ErrNotInitialized indicates calibration was never completed successfully.
	ErrNotInitialized = errors.New("gas/air sensor not initialized")
	// ErrCancelled indicates a measurement was aborted by context cancellation.
	ErrCancelled = errors.New("measurement cancelled")
)

// Params holds the factory calibration coefficients decoded from the
// sensor's 42-byte calibration blob.
type Params struct {
	t1, t2, t3             float64
	p1, p2, p3, p4, p5, p6 float64
	p7, p8, p9, p10        float64
	h1, h2, h3, h4, h5     float64
	h6, h7                 float64
	gh1, gh2, gh3          float64
	heatRange, heatVal     float64
	rangeSwitchingError    float64
}

func decodeParams(buf [42]byte) Params {
	u16 := func(lsb, msb int) float64 { return float64(uint16(buf[msb])<<8 | uint16(buf[lsb])) }
	i8 := func(i int) float64 { return float64(int8(buf[i])) }
	u8 := func(i int) float64 { return float64(buf[i]) }

	return Params{
		t1: u16(31, 32),
		t2: u16(0, 1),
		t3: i8(2),

		p1:  u16(4, 5),
		p2:  u16(6, 7),
		p3:  i8(8),
		p4:  u16(10, 11),
		p5:  u16(12, 13),
		p6:  i8(15),
		p7:  i8(14),
		p8:  u16(18, 19),
		p9:  u16(20, 21),
		p10: u8(22),

		h1: float64(uint16(buf[25])<<4 | uint16(buf[24]&0x0F)),
		h2: float64(uint16(buf[23])<<4 | uint16(buf[24]>>4)),
		h3: i8(26),
		h4: i8(27),
		h5: i8(28),
		h6: u8(29),
		h7: i8(30),

		gh1: i8(35),
		gh2: u16(33, 34),
		gh3: i8(36),

		heatVal:             i8(37),
		heatRange:           float64((buf[39] & 0x30) >> 4),
		rangeSwitchingError: float64(int8((buf[41] & 0xF0) >> 4)),
	}
}

// rawData is the decoded contents of the 17-byte measurement buffer at 0x1D.
type rawData struct {
	pressureADC     uint32
	temperatureADC  uint32
	humidityADC     uint32
	gasADC          uint16
	gasRange        uint8
	gasValid        bool
	heaterStable    bool
	newDataAvailable bool
}

func decodeRawData(buf [17]byte) rawData {
	return rawData{
		newDataAvailable: buf[0]&0x80 != 0,
		pressureADC:      uint32(buf[2])<<12 | uint32(buf[3])<<4 | uint32(buf[4])>>4,
		temperatureADC:   uint32(buf[5])<<12 | uint32(buf[6])<<4 | uint32(buf[7])>>4,
		humidityADC:      uint32(buf[8])<<8 | uint32(buf[9]),
		gasADC:           uint16(buf[13])<<2 | uint16(buf[14])>>6,
		gasRange:         buf[14] & 0x0F,
		gasValid:         buf[14]&0x20 != 0,
		heaterStable:     buf[14]&0x10 != 0,
	}
}

var k1 = [16]float64{0, 0, 0, 0, 0, -1, 0, -0.8, 0, 0, -0.2, -0.5, 0, -1, 0, 0}
var k2 = [16]float64{0, 0, 0, 0, 0.1, 0.7, 0, -0.8, -0.1, 0, 0, 0, 0, 0, 0, 0}

// Sensor drives a BME680-class gas/air sensor over I2C.
type Sensor struct {
	conn   *i2c.Conn
	label  string
	params Params
	ready  bool
}

// New constructs a Sensor and runs its calibration sequence. If
// initialization fails the error is returned directly, and
// internal/supervisor omits the sensor from its sampler.
func New(conn *i2c.Conn, label string) (*Sensor, error) {
	s := &Sensor{conn: conn, label: label}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Label returns the sensor's configured name.
func (s *Sensor) Label() string { return s.label }

func (s *Sensor) initialize() error {
	chipID, err := s.conn.ReadRegU8(regChipID)
	if err != nil {
		return fmt.Errorf("read chip id: %w", err)
	}
	if chipID != chipIDValue {
		return fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrChipID, chipID, chipIDValue)
	}

	if err := s.conn.WriteRegU8(regReset, resetCommand); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}
	time.Sleep(5 * time.Millisecond)

	var buf [42]byte
	b1, err := s.conn.ReadRegBytes(regCalib1, 23)
	if err != nil {
		return fmt.Errorf("read calibration block 1: %w", err)
	}
	copy(buf[0:23], b1)

	b2, err := s.conn.ReadRegBytes(regCalib2, 14)
	if err != nil {
		return fmt.Errorf("read calibration block 2: %w", err)
	}
	copy(buf[23:37], b2)

	b3, err := s.conn.ReadRegBytes(regCalib3, 5)
	if err != nil {
		return fmt.Errorf("read calibration block 3: %w", err)
	}
	copy(buf[37:42], b3)

	s.params = decodeParams(buf)
	s.ready = true
	return nil
}

// Measure triggers a forced-mode measurement and returns the decoded
// sample. If the sensor was never successfully initialized, Measure
// attempts a one-shot re-initialization first.
func (s *Sensor) Measure(ctx context.Context) (measurement.Air, error) {
	if !s.ready {
		if err := s.initialize(); err != nil {
			return measurement.Air{}, fmt.Errorf("%w: %w", ErrNotInitialized, err)
		}
	}

	if err := s.setOpMode(modeSleep); err != nil {
		return measurement.Air{}, err
	}

	if err := s.ensureOversampling(); err != nil {
		return measurement.Air{}, err
	}

	if err := s.setHeaterConfig(); err != nil {
		return measurement.Air{}, err
	}

	if err := s.setOpMode(modeForced); err != nil {
		return measurement.Air{}, err
	}

	raw, err := s.readSensorData(ctx)
	if err != nil {
		return measurement.Air{}, err
	}

	temp, tFine := s.params.temperature(float64(raw.temperatureADC))
	humidity := s.params.humidity(float64(raw.humidityADC), temp)
	pressure := s.params.pressure(float64(raw.pressureADC), tFine)

	air := measurement.Air{
		MeasureTime: time.Now().Unix(),
		Label:       s.label,
		Temperature: &temp,
		Humidity:    &humidity,
		Pressure:    &pressure,
	}

	if raw.gasValid && raw.heaterStable {
		resistance := s.params.gasResistance(float64(raw.gasADC), raw.gasRange)
		air.Resistance = &resistance
	}

	return air, nil
}

func (s *Sensor) setOpMode(mode byte) error {
	return s.conn.SetRegBits(regCtrlMeas, modeMask, mode)
}

func (s *Sensor) ensureOversampling() error {
	// Humidity oversampling x2 (value 2) in the low 3 bits.
	if err := s.conn.SetRegBits(regCtrlHum, osrsHMask, 2); err != nil {
		return fmt.Errorf("set humidity oversampling: %w", err)
	}
	// Temperature oversampling x2 (value 2) in bits 7:5.
	if err := s.conn.SetRegBits(regCtrlMeas, osrsTMask, 2<<5); err != nil {
		return fmt.Errorf("set temperature oversampling: %w", err)
	}
	// Pressure oversampling x16 (value 5) in bits 4:2.
	if err := s.conn.SetRegBits(regCtrlMeas, osrsPMask, 5<<2); err != nil {
		return fmt.Errorf("set pressure oversampling: %w", err)
	}
	return nil
}

func (s *Sensor) setHeaterConfig() error {
	heatRes := s.params.heaterResistance(targetHeaterTempC, ambientTempC)
	if err := s.conn.WriteRegU8(regResHeat0, byte(heatRes)); err != nil {
		return fmt.Errorf("set heater resistance: %w", err)
	}

	gasWait := encodeGasWait(gasWaitMS)
	if err := s.conn.WriteRegU8(regGasWait0, gasWait); err != nil {
		return fmt.Errorf("set gas wait: %w", err)
	}

	// Enable run-gas with heater profile 0.
	if err := s.conn.WriteRegU8(regCtrlGas1, 1<<4); err != nil {
		return fmt.Errorf("enable run-gas: %w", err)
	}

	return nil
}

func (s *Sensor) readSensorData(ctx context.Context) (rawData, error) {
	for {
		b, err := s.conn.ReadRegBytes(regData, 17)
		if err != nil {
			return rawData{}, fmt.Errorf("read sensor data: %w", err)
		}

		var buf [17]byte
		copy(buf[:], b)
		raw := decodeRawData(buf)
		if raw.newDataAvailable {
			return raw, nil
		}

		select {
		case <-ctx.Done():
			return rawData{}, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// encodeGasWait encodes a heater wait duration in milliseconds into the
// sensor's gas_wait register format.
func encodeGasWait(durationMS uint32) byte {
	if durationMS > 4032 {
		return 0xFF
	}

	var factor uint32
	duration := durationMS
	for duration > 0x3F {
		duration /= 4
		factor++
	}

	return byte(duration + factor*64)
}

func (p Params) temperature(tempADC float64) (temperature, tFine float64) {
	var1 := (tempADC/16384 - p.t1/1024) * p.t2
	var2raw := tempADC/131072 - p.t1/8192
	var2 := var2raw * var2raw * (p.t3 * 16)
	tFine = var1 + var2
	return tFine / 5120, tFine
}

func (p Params) humidity(humidityADC, temp float64) float64 {
	var1 := humidityADC - (p.h1*16 + (p.h3/2)*temp)
	var2 := var1 * ((p.h2 / 262144) * (1 + (p.h4/16384)*temp + (p.h5/1048576)*temp*temp))
	var3 := p.h6 / 16384
	var4 := p.h7 / 2097152
	return var2 + (var3+var4*temp)*var2*var2
}

func (p Params) pressure(pressureADC, tFine float64) float64 {
	var1 := tFine/2 - 64000
	var2 := var1 * var1 * p.p6 / 131072
	var2 += var1 * p.p5 * 2
	var2 = var2/4 + p.p4*65536
	var1 = (p.p3*var1*var1/16384 + p.p2*var1) / 524288
	var1 = (1 + var1/32768) * p.p1

	press := 1048576 - pressureADC
	press = (press - var2/4096) * 6250 / var1

	var1 = p.p9 * press * press / 2147483648
	var2 = press * p.p8 / 32768
	var3 := (press / 256) * (press / 256) * (press / 256) * p.p10 / 131072
	press += (var1 + var2 + var3 + p.p7*128) / 16

	return press / 100
}

func (p Params) gasResistance(gasADC float64, gasRange uint8) float64 {
	var1 := 1340 + 5*p.rangeSwitchingError
	var2 := var1 * (1 + k1[gasRange]/100)
	var3 := 1 + k2[gasRange]/100

	return 1 / (var3 * 1.25e-7 * float64(uint32(1)<<gasRange) * ((gasADC-512)/var2 + 1))
}

func (p Params) heaterResistance(targetTempC, ambientTempC float64) float64 {
	if targetTempC > 400 {
		targetTempC = 400
	}

	var1 := p.gh1/16 + 49
	var2 := (p.gh2/32768)*0.00005 + 0.00235
	var3 := p.gh3 / 1024
	var4 := var1 * (1 + var2*targetTempC)
	var5 := var4 + var3*ambientTempC
	resHeat := 3.4 * (var5*(4/(4+p.heatRange*(1/(1+p.heatVal*0.002)))) - 25)

	return resHeat
}
