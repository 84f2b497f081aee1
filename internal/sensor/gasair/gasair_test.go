// SPDX-License-Identifier: BSD-3-Clause

package gasair

import "testing"

func TestEncodeGasWait(t *testing.T) {
	cases := []struct {
		ms   uint32
		want byte
	}{
		{0, 0},
		{63, 63},
		// 100ms = 25 * 4^1, encoded as duration=25, factor=1 -> 25+64 = 89.
		{100, 89},
		{4032, 0xFF},
		{5000, 0xFF},
	}

	for _, c := range cases {
		if got := encodeGasWait(c.ms); got != c.want {
			t.Errorf("encodeGasWait(%d) = %d, want %d", c.ms, got, c.want)
		}
	}
}

func TestDecodeRawDataFlags(t *testing.T) {
	var buf [17]byte
	buf[0] = 0x80 // new_data_0
	buf[14] = 0x30 | 0x05 // heater_stab_r | gas_valid_r | gas_range_r=5

	raw := decodeRawData(buf)
	if !raw.newDataAvailable {
		t.Error("newDataAvailable = false, want true")
	}
	if !raw.gasValid {
		t.Error("gasValid = false, want true")
	}
	if !raw.heaterStable {
		t.Error("heaterStable = false, want true")
	}
	if raw.gasRange != 5 {
		t.Errorf("gasRange = %d, want 5", raw.gasRange)
	}
}

func TestDecodeRawDataADCFields(t *testing.T) {
	var buf [17]byte
	// pressureADC packs as buf[2]<<12 | buf[3]<<4 | buf[4]>>4.
	buf[2], buf[3], buf[4] = 0x12, 0x34, 0x50
	want := uint32(0x12)<<12 | uint32(0x34)<<4 | uint32(0x50)>>4

	raw := decodeRawData(buf)
	if raw.pressureADC != want {
		t.Errorf("pressureADC = %d, want %d", raw.pressureADC, want)
	}
}

func TestDecodeParamsRoundTripsSignedAndUnsignedFields(t *testing.T) {
	var buf [42]byte
	// t2 is a little-endian u16 at offsets 0,1.
	buf[0], buf[1] = 0x34, 0x12
	// t3 is a signed i8 at offset 2; 0xFF decodes to -1.
	buf[2] = 0xFF

	p := decodeParams(buf)
	if p.t2 != float64(0x1234) {
		t.Errorf("t2 = %v, want %v", p.t2, float64(0x1234))
	}
	if p.t3 != -1 {
		t.Errorf("t3 = %v, want -1", p.t3)
	}
}

// Reference calibration chosen so that var1/var2 in temperature() reduce to
// simple values: with t1 and t2 zero, temperature is driven entirely by t3.
func TestTemperatureCompensation(t *testing.T) {
	p := Params{t1: 0, t2: 0, t3: 0}
	temp, tFine := p.temperature(100000)
	if temp != 0 || tFine != 0 {
		t.Errorf("temperature() with all-zero calibration = (%v, %v), want (0, 0)", temp, tFine)
	}
}

// rangeSwitchingError packs as the top nibble of buf[41], a value 0-15
// that must be shifted into range before the signed cast, not after: the
// nibble is never negative before the shift, so a pre-shift cast to int8
// would sign-extend bit 7 (the nibble's own bit 3) of the wrong byte.
func TestDecodeParamsRangeSwitchingErrorDoesNotSignExtendBeforeShift(t *testing.T) {
	var buf [42]byte
	buf[41] = 0xB0 // nibble = 0xB = 11, fits in 4 bits, never negative.

	p := decodeParams(buf)
	if p.rangeSwitchingError != 11 {
		t.Errorf("rangeSwitchingError = %v, want 11", p.rangeSwitchingError)
	}
}

func TestHumidityZeroCalibrationYieldsZero(t *testing.T) {
	p := Params{h1: 0, h2: 0, h3: 0, h4: 0, h5: 0, h6: 0, h7: 0}
	if got := p.humidity(20000, 25); got != 0 {
		t.Errorf("humidity() with all-zero calibration = %v, want 0", got)
	}
}

// With p1=1 and the rest of the calibration zeroed, pressure() collapses to
// a direct function of pressureADC and tFine that's easy to hand-check.
func TestPressureWithUnitP1AndZeroADCOffset(t *testing.T) {
	p := Params{p1: 1}
	got := p.pressure(1048576, 128000)
	if got != 0 {
		t.Errorf("pressure() = %v, want 0", got)
	}
}

func TestGasResistancePositiveForPlausibleInput(t *testing.T) {
	p := Params{rangeSwitchingError: 0}
	r := p.gasResistance(600, 0)
	if r <= 0 {
		t.Errorf("gasResistance() = %v, want a positive resistance", r)
	}
}

func TestHeaterResistanceClampsHighTarget(t *testing.T) {
	p := Params{gh1: 10, gh2: 100, gh3: 5, heatRange: 1, heatVal: 1}
	atCap := p.heaterResistance(400, 25)
	overCap := p.heaterResistance(1000, 25)
	if atCap != overCap {
		t.Errorf("heaterResistance(1000, ...) = %v, want clamped to heaterResistance(400, ...) = %v", overCap, atCap)
	}
}
