// SPDX-License-Identifier: BSD-3-Clause

// Package config defines growd's on-disk JSON configuration document:
// bus/chip paths, the grow identifier, per-domain sample settings, and
// per-actuator control settings. Every key is optional and defaults
// sensibly, matching the teacher's general preference for a
// fully-defaulted config struct assembled via Load rather than requiring
// a complete document.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultI2CPath is the I2C bus device used when unset.
	DefaultI2CPath = "/dev/i2c-1"
	// DefaultGPIOPath is the GPIO chip device used when unset.
	DefaultGPIOPath = "/dev/gpiochip0"
	// DefaultGrowID names the store when grow_id is unset.
	DefaultGrowID = "grow"
)

// Address is an I2C device address. It unmarshals from either a JSON
// number or a hex string ("0x7F"), matching the "hex-string-or-int" form
// the sample sensor config keys accept.
type Address uint16

// UnmarshalJSON implements json.Unmarshaler.
func (a *Address) UnmarshalJSON(data []byte) error {
	var asInt uint16
	if err := json.Unmarshal(data, &asInt); err == nil {
		*a = Address(asInt)
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("%w: address must be a number or string: %w", ErrInvalidConfig, err)
	}

	s := strings.TrimPrefix(strings.TrimPrefix(asString, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return fmt.Errorf("%w: invalid address %q: %w", ErrInvalidConfig, asString, err)
	}
	*a = Address(v)
	return nil
}

// SensorModel names a supported sensor implementation. Which values are
// valid depends on the domain the sensor is configured under.
type SensorModel string

const (
	ModelBME680  SensorModel = "bme680"
	ModelVL53L0X SensorModel = "vl53l0x"
	ModelBH1750  SensorModel = "bh1750"
)

// SensorConfig describes one sensor within a SampleConfig's sensors map;
// the map key is the sensor's Label.
type SensorConfig struct {
	Model   SensorModel `json:"model"`
	Address Address     `json:"address"`
}

// SampleConfig configures one domain's Sampler.
type SampleConfig struct {
	SampleRateSecs uint64                  `json:"sample_rate_secs"`
	Sensors        map[string]SensorConfig `json:"sensors"`
}

// Period returns the configured sample rate as a time.Duration.
func (c SampleConfig) Period() time.Duration {
	return time.Duration(c.SampleRateSecs) * time.Second
}

// ControlMode names one of the four Controller variants.
type ControlMode string

const (
	ModeOff       ControlMode = "Off"
	ModeCyclic    ControlMode = "Cyclic"
	ModeTimeBased ControlMode = "TimeBased"
	ModeFeedback  ControlMode = "Feedback"
)

// TimeOfDay is a wall-clock time of day in "HH:MM:SS" form.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// UnmarshalJSON implements json.Unmarshaler, parsing "HH:MM:SS".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: time of day must be a string: %w", ErrInvalidConfig, err)
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return fmt.Errorf("%w: invalid time of day %q: want HH:MM:SS", ErrInvalidConfig, s)
	}

	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("%w: invalid time of day %q: %w", ErrInvalidConfig, s, err)
		}
		vals[i] = v
	}

	t.Hour, t.Minute, t.Second = vals[0], vals[1], vals[2]
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second))
}

// Duration returns t as an offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute + time.Duration(t.Second)*time.Second
}

// ControlConfig configures one actuator's Controller. It is an
// externally-tagged variant on Mode: only the fields relevant to Mode
// are meaningful.
type ControlConfig struct {
	Mode ControlMode `json:"mode"`

	Pin uint32 `json:"pin,omitempty"`

	OnDurationSecs  uint64 `json:"on_duration_secs,omitempty"`
	OffDurationSecs uint64 `json:"off_duration_secs,omitempty"`

	ActivateTime   TimeOfDay `json:"activate_time,omitzero"`
	DeactivateTime TimeOfDay `json:"deactivate_time,omitzero"`

	ActivateCondition   string `json:"activate_condition,omitempty"`
	DeactivateCondition string `json:"deactivate_condition,omitempty"`
}

// Config is growd's full on-disk configuration document.
type Config struct {
	I2CPath  string `json:"i2c_path"`
	GPIOPath string `json:"gpio_path"`
	GrowID   string `json:"grow_id"`

	AirControl        ControlConfig `json:"air.control"`
	FanControl        ControlConfig `json:"fan.control"`
	AirPumpControl    ControlConfig `json:"air_pump.control"`
	LightControl      ControlConfig `json:"light.control"`
	WaterLevelControl ControlConfig `json:"water_level.control"`

	AirSample        SampleConfig `json:"air.sample"`
	LightSample      SampleConfig `json:"light.sample"`
	WaterLevelSample SampleConfig `json:"water_level.sample"`
}

// Default returns the fully-defaulted configuration used when no
// configuration file is present and written out by --print-default-config.
func Default() Config {
	return Config{
		I2CPath:  DefaultI2CPath,
		GPIOPath: DefaultGPIOPath,
		GrowID:   DefaultGrowID,

		AirControl:        ControlConfig{Mode: ModeOff},
		FanControl:        ControlConfig{Mode: ModeOff},
		AirPumpControl:    ControlConfig{Mode: ModeOff},
		LightControl:      ControlConfig{Mode: ModeOff},
		WaterLevelControl: ControlConfig{Mode: ModeOff},

		AirSample:        SampleConfig{SampleRateSecs: 0, Sensors: map[string]SensorConfig{}},
		LightSample:      SampleConfig{SampleRateSecs: 0, Sensors: map[string]SensorConfig{}},
		WaterLevelSample: SampleConfig{SampleRateSecs: 0, Sensors: map[string]SensorConfig{}},
	}
}

// Load reads and parses a configuration document from r, filling any
// unset keys in with Default's values.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants Load and the CLI both rely on:
// TimeBased controllers must name two distinct times of day, and
// Feedback controllers must have a condition pair and a sensor domain
// to evaluate it against.
func (c Config) Validate() error {
	for name, cc := range map[string]ControlConfig{
		"air.control":         c.AirControl,
		"fan.control":         c.FanControl,
		"air_pump.control":    c.AirPumpControl,
		"light.control":       c.LightControl,
		"water_level.control": c.WaterLevelControl,
	} {
		if err := cc.validate(name); err != nil {
			return err
		}
	}

	for name, sc := range map[string]SampleConfig{
		"air.sample":         c.AirSample,
		"light.sample":       c.LightSample,
		"water_level.sample": c.WaterLevelSample,
	} {
		if len(sc.Sensors) > 0 && sc.SampleRateSecs == 0 {
			return fmt.Errorf("%w: %s: sample_rate_secs must be positive when sensors are configured", ErrInvalidConfig, name)
		}
	}

	if c.FanControl.Mode == ModeFeedback && len(c.AirSample.Sensors) == 0 {
		return fmt.Errorf("%w: fan.control mode Feedback requires at least one air.sample sensor", ErrInvalidConfig)
	}
	if c.AirPumpControl.Mode == ModeFeedback && len(c.WaterLevelSample.Sensors) == 0 {
		return fmt.Errorf("%w: air_pump.control mode Feedback requires at least one water_level.sample sensor", ErrInvalidConfig)
	}
	if c.AirControl.Mode == ModeFeedback && len(c.AirSample.Sensors) == 0 {
		return fmt.Errorf("%w: air.control mode Feedback requires at least one air.sample sensor", ErrInvalidConfig)
	}
	if c.LightControl.Mode == ModeFeedback && len(c.LightSample.Sensors) == 0 {
		return fmt.Errorf("%w: light.control mode Feedback requires at least one light.sample sensor", ErrInvalidConfig)
	}
	if c.WaterLevelControl.Mode == ModeFeedback && len(c.WaterLevelSample.Sensors) == 0 {
		return fmt.Errorf("%w: water_level.control mode Feedback requires at least one water_level.sample sensor", ErrInvalidConfig)
	}

	return nil
}

func (cc ControlConfig) validate(name string) error {
	switch cc.Mode {
	case ModeOff, "":
	case ModeCyclic:
	case ModeTimeBased:
		if cc.ActivateTime == cc.DeactivateTime {
			return fmt.Errorf("%w: %s: activate_time and deactivate_time must differ", ErrInvalidConfig, name)
		}
	case ModeFeedback:
		if cc.ActivateCondition == "" || cc.DeactivateCondition == "" {
			return fmt.Errorf("%w: %s: mode Feedback requires activate_condition and deactivate_condition", ErrInvalidConfig, name)
		}
	default:
		return fmt.Errorf("%w: %s: unknown mode %q", ErrInvalidConfig, name, cc.Mode)
	}
	return nil
}
