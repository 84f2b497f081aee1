// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package gpio

import (
	"errors"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.ChipPath != "/dev/gpiochip0" {
		t.Errorf("ChipPath = %q, want /dev/gpiochip0", cfg.ChipPath)
	}
	if cfg.DefaultConfig.Direction != DirectionOutput {
		t.Errorf("DefaultConfig.Direction = %v, want DirectionOutput", cfg.DefaultConfig.Direction)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
}

func TestAsOutputValueSetsDirectionAndInitialValue(t *testing.T) {
	cfg := NewConfig(AsOutputValue(1))
	if cfg.DefaultConfig.Direction != DirectionOutput {
		t.Errorf("Direction = %v, want DirectionOutput", cfg.DefaultConfig.Direction)
	}
	if cfg.DefaultConfig.InitialValue != 1 {
		t.Errorf("InitialValue = %d, want 1", cfg.DefaultConfig.InitialValue)
	}
}

func TestAsInputSetsDirection(t *testing.T) {
	cfg := NewConfig(AsInput())
	if cfg.DefaultConfig.Direction != DirectionInput {
		t.Errorf("Direction = %v, want DirectionInput", cfg.DefaultConfig.Direction)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid default", func(*Config) {}, nil},
		{"empty chip path", func(c *Config) { c.ChipPath = "" }, ErrInvalidConfiguration},
		{"chip path wrong prefix", func(c *Config) { c.ChipPath = "/dev/ttyUSB0" }, ErrInvalidChipPath},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero event buffer size", func(c *Config) { c.EventBufferSize = 0 }, ErrInvalidConfiguration},
		{"initial value out of range", func(c *Config) { c.DefaultConfig.InitialValue = 2 }, ErrInvalidValue},
		{
			"output line with edge detection",
			func(c *Config) { c.DefaultConfig.Edge = EdgeRising },
			ErrConfigurationConflict,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := NewConfig()
			c.mutate(cfg)
			err := cfg.Validate()
			if c.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, c.wantErr) {
				t.Errorf("Validate() = %v, want wrapping %v", err, c.wantErr)
			}
		})
	}
}

func TestGetLineConfigMergesOverDefault(t *testing.T) {
	cfg := NewConfig(WithLines(map[string]LineConfig{
		"fan": {Direction: DirectionInput, Bias: BiasPullUp},
	}))

	got := cfg.GetLineConfig("fan")
	if got.Direction != DirectionInput {
		t.Errorf("Direction = %v, want DirectionInput", got.Direction)
	}
	if got.Bias != BiasPullUp {
		t.Errorf("Bias = %v, want BiasPullUp", got.Bias)
	}
	// Consumer was left zero-valued on the line override, so it inherits
	// the default rather than being cleared.
	if got.Consumer != cfg.DefaultConfig.Consumer {
		t.Errorf("Consumer = %q, want inherited default %q", got.Consumer, cfg.DefaultConfig.Consumer)
	}
}

func TestGetLineConfigUnknownNameReturnsDefault(t *testing.T) {
	cfg := NewConfig()
	got := cfg.GetLineConfig("unconfigured")
	if got != cfg.DefaultConfig {
		t.Errorf("GetLineConfig(unknown) = %+v, want default %+v", got, cfg.DefaultConfig)
	}
}

func TestGetAllLineNamesSorted(t *testing.T) {
	cfg := NewConfig(WithLines(map[string]LineConfig{
		"water_level": {}, "air": {}, "fan": {},
	}))
	got := cfg.GetAllLineNames()
	want := []string{"air", "fan", "water_level"}
	if len(got) != len(want) {
		t.Fatalf("GetAllLineNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetAllLineNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
