// SPDX-License-Identifier: BSD-3-Clause

package i2c

import (
	"fmt"
	"time"
)

// Config holds the configuration for a single I2C device connection.
type Config struct {
	// Bus is the I2C bus number (corresponds to /dev/i2c-N).
	Bus int
	// Address is the 7-bit device address on the I2C bus.
	Address uint16
	// ForceAddress uses I2C_SLAVE_FORCE instead of I2C_SLAVE when setting
	// the device address. This bypasses the kernel's busy device check.
	ForceAddress bool
	// Timeout is the maximum time to wait for I2C operations.
	Timeout time.Duration
	// Retries is the number of times to retry failed operations.
	Retries int
}

// Option represents a configuration option for an I2C device connection.
type Option interface {
	apply(*Config)
}

type busOption struct {
	bus int
}

func (o *busOption) apply(c *Config) {
	c.Bus = o.bus
}

// WithBus sets the I2C bus number to use.
// The bus number corresponds to /dev/i2c-N where N is the bus number.
func WithBus(bus int) Option {
	return &busOption{bus: bus}
}

type addressOption struct {
	address uint16
}

func (o *addressOption) apply(c *Config) {
	c.Address = o.address
}

// WithAddress sets the 7-bit I2C device address (0x00-0x7F).
func WithAddress(address uint16) Option {
	return &addressOption{address: address}
}

type forceAddressOption struct {
	force bool
}

func (o *forceAddressOption) apply(c *Config) {
	c.ForceAddress = o.force
}

// WithForceAddress enables or disables forced address mode.
// When enabled, uses I2C_SLAVE_FORCE instead of I2C_SLAVE, bypassing
// the kernel's check for busy devices.
func WithForceAddress(force bool) Option {
	return &forceAddressOption{force: force}
}

type timeoutOption struct {
	timeout time.Duration
}

func (o *timeoutOption) apply(c *Config) {
	c.Timeout = o.timeout
}

// WithTimeout sets the maximum time to wait for I2C operations.
func WithTimeout(timeout time.Duration) Option {
	return &timeoutOption{timeout: timeout}
}

type retriesOption struct {
	retries int
}

func (o *retriesOption) apply(c *Config) {
	c.Retries = o.retries
}

// WithRetries sets the number of times to retry failed operations.
func WithRetries(retries int) Option {
	return &retriesOption{retries: retries}
}

// NewConfig creates a new Config with default values and applies the provided options.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Bus:          1,
		Address:      0x00,
		ForceAddress: false,
		Timeout:      1 * time.Second,
		Retries:      3,
	}

	for _, opt := range opts {
		opt.apply(cfg)
	}

	return cfg
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Bus < 0 {
		return fmt.Errorf("%w: bus number cannot be negative", ErrInvalidBusNumber)
	}

	if !c.IsValidAddress(c.Address) {
		return fmt.Errorf("%w: 0x%02x", ErrInvalidAddress, c.Address)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidTimeout)
	}

	if c.Retries < 0 {
		return fmt.Errorf("%w: retries cannot be negative", ErrInvalidRetryCount)
	}

	return nil
}

// IsValidAddress checks if an address is a valid 7-bit I2C address.
func (c *Config) IsValidAddress(addr uint16) bool {
	if addr > 0x7F {
		return false
	}
	return (addr >= 0x08 && addr <= 0x77) || c.ForceAddress
}

// GetDevicePath returns the device node path for the configured bus.
func (c *Config) GetDevicePath() string {
	return fmt.Sprintf("/dev/i2c-%d", c.Bus)
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("I2C bus=%d addr=0x%02x timeout=%v retries=%d",
		c.Bus, c.Address, c.Timeout, c.Retries)
}
