// SPDX-License-Identifier: BSD-3-Clause

package i2c

import (
	"errors"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.Bus != 1 || cfg.Address != 0x00 || cfg.Timeout != time.Second || cfg.Retries != 3 {
		t.Errorf("NewConfig() = %+v, want the documented defaults", cfg)
	}
}

func TestNewConfigAppliesOptions(t *testing.T) {
	cfg := NewConfig(WithBus(2), WithAddress(0x76), WithForceAddress(true), WithTimeout(500*time.Millisecond), WithRetries(5))
	if cfg.Bus != 2 {
		t.Errorf("Bus = %d, want 2", cfg.Bus)
	}
	if cfg.Address != 0x76 {
		t.Errorf("Address = 0x%02x, want 0x76", cfg.Address)
	}
	if !cfg.ForceAddress {
		t.Error("ForceAddress = false, want true")
	}
	if cfg.Timeout != 500*time.Millisecond {
		t.Errorf("Timeout = %v, want 500ms", cfg.Timeout)
	}
	if cfg.Retries != 5 {
		t.Errorf("Retries = %d, want 5", cfg.Retries)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"valid", Config{Bus: 1, Address: 0x76, Timeout: time.Second, Retries: 1}, nil},
		{"negative bus", Config{Bus: -1, Address: 0x76, Timeout: time.Second}, ErrInvalidBusNumber},
		{"reserved address without force", Config{Bus: 1, Address: 0x00, Timeout: time.Second}, ErrInvalidAddress},
		{"address out of range", Config{Bus: 1, Address: 0x80, Timeout: time.Second}, ErrInvalidAddress},
		{"zero timeout", Config{Bus: 1, Address: 0x76, Timeout: 0}, ErrInvalidTimeout},
		{"negative retries", Config{Bus: 1, Address: 0x76, Timeout: time.Second, Retries: -1}, ErrInvalidRetryCount},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
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

func TestIsValidAddressForceBypassesReservedRange(t *testing.T) {
	cfg := Config{ForceAddress: true}
	if !cfg.IsValidAddress(0x00) {
		t.Error("IsValidAddress(0x00) with ForceAddress = false, want true")
	}

	cfg.ForceAddress = false
	if cfg.IsValidAddress(0x00) {
		t.Error("IsValidAddress(0x00) without ForceAddress = true, want false")
	}
	if !cfg.IsValidAddress(0x08) {
		t.Error("IsValidAddress(0x08) = false, want true")
	}
}

func TestGetDevicePath(t *testing.T) {
	cfg := Config{Bus: 3}
	if got := cfg.GetDevicePath(); got != "/dev/i2c-3" {
		t.Errorf("GetDevicePath() = %q, want /dev/i2c-3", got)
	}
}

func TestString(t *testing.T) {
	cfg := Config{Bus: 1, Address: 0x76, Timeout: time.Second, Retries: 3}
	if got := cfg.String(); got == "" {
		t.Error("String() returned an empty string")
	}
}
