// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestAddressUnmarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		json string
		want Address
	}{
		{"decimal number", `119`, 119},
		{"hex string with prefix", `"0x77"`, 0x77},
		{"hex string upper prefix", `"0X77"`, 0x77},
		{"hex string no prefix", `"77"`, 0x77},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var a Address
			if err := json.Unmarshal([]byte(c.json), &a); err != nil {
				t.Fatalf("Unmarshal(%s) returned error: %v", c.json, err)
			}
			if a != c.want {
				t.Errorf("Unmarshal(%s) = %v, want %v", c.json, a, c.want)
			}
		})
	}
}

func TestAddressUnmarshalJSONInvalid(t *testing.T) {
	var a Address
	err := json.Unmarshal([]byte(`"not hex"`), &a)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Unmarshal invalid address: err = %v, want ErrInvalidConfig", err)
	}
}

func TestTimeOfDayRoundTrip(t *testing.T) {
	var tod TimeOfDay
	if err := json.Unmarshal([]byte(`"06:30:15"`), &tod); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	want := TimeOfDay{Hour: 6, Minute: 30, Second: 15}
	if tod != want {
		t.Errorf("Unmarshal(\"06:30:15\") = %+v, want %+v", tod, want)
	}

	out, err := json.Marshal(tod)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(out) != `"06:30:15"` {
		t.Errorf("Marshal = %s, want \"06:30:15\"", out)
	}
}

func TestTimeOfDayUnmarshalInvalid(t *testing.T) {
	var tod TimeOfDay
	err := json.Unmarshal([]byte(`"06:30"`), &tod)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Unmarshal(\"06:30\") err = %v, want ErrInvalidConfig", err)
	}
}

func TestTimeOfDayDuration(t *testing.T) {
	tod := TimeOfDay{Hour: 1, Minute: 2, Second: 3}
	want := 1*3600 + 2*60 + 3
	if got := tod.Duration().Seconds(); got != float64(want) {
		t.Errorf("Duration() = %v seconds, want %v", got, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.I2CPath != DefaultI2CPath || cfg.GPIOPath != DefaultGPIOPath || cfg.GrowID != DefaultGrowID {
		t.Errorf("Load({}) = %+v, want defaults filled in", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader(`{"bogus_key": true}`))
	if !errors.Is(err, ErrConfigParse) {
		t.Errorf("Load with unknown field: err = %v, want ErrConfigParse", err)
	}
}

func TestValidateTimeBasedRequiresDistinctTimes(t *testing.T) {
	cfg := Default()
	cfg.LightControl = ControlConfig{
		Mode:           ModeTimeBased,
		ActivateTime:   TimeOfDay{Hour: 8},
		DeactivateTime: TimeOfDay{Hour: 8},
	}

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate with equal activate/deactivate times: err = %v, want ErrInvalidConfig", err)
	}
}

func TestValidateFeedbackRequiresConditions(t *testing.T) {
	cfg := Default()
	cfg.AirControl = ControlConfig{Mode: ModeFeedback}

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate with missing Feedback conditions: err = %v, want ErrInvalidConfig", err)
	}
}

func TestValidateFeedbackRequiresSensorDomain(t *testing.T) {
	cfg := Default()
	cfg.FanControl = ControlConfig{
		Mode:                ModeFeedback,
		ActivateCondition:   "temperature > 30",
		DeactivateCondition: "temperature < 20",
	}
	// AirSample.Sensors is still empty: fan's Feedback mode reads the air
	// domain, so this must fail validation.
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate fan.control Feedback with no air.sample sensors: err = %v, want ErrInvalidConfig", err)
	}

	cfg.AirSample.Sensors = map[string]SensorConfig{"bme680-1": {Model: ModelBME680, Address: 0x77}}
	cfg.AirSample.SampleRateSecs = 30
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate fan.control Feedback with an air.sample sensor configured: %v", err)
	}
}

func TestValidateRejectsZeroSampleRateWithSensorsConfigured(t *testing.T) {
	cfg := Default()
	cfg.AirSample.Sensors = map[string]SensorConfig{"bme680-1": {Model: ModelBME680, Address: 0x77}}
	// SampleRateSecs left at its zero value: time.NewTicker(0) panics, so
	// this must be rejected at configuration time.
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate with a configured sensor and a zero sample rate: err = %v, want ErrInvalidConfig", err)
	}

	cfg.AirSample.SampleRateSecs = 60
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate with a positive sample rate: %v", err)
	}
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := Default()
	cfg.AirControl = ControlConfig{Mode: "Bogus"}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate with unknown mode: err = %v, want ErrInvalidConfig", err)
	}
}

func TestSampleConfigPeriod(t *testing.T) {
	sc := SampleConfig{SampleRateSecs: 30}
	if got := sc.Period().Seconds(); got != 30 {
		t.Errorf("Period() = %v seconds, want 30", got)
	}
}
