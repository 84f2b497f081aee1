// SPDX-License-Identifier: BSD-3-Clause

//nolint:gosec
package i2c

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
	"unsafe"
)

// Linux I2C subsystem constants.
const (
	// ioctl commands.
	i2cSlave      = 0x0703 // Use this slave address
	i2cSlaveForce = 0x0706 // Use this slave address, even if busy
	i2cFuncs      = 0x0705 // Get the adapter functionality mask
	i2cRdwr       = 0x0707 // Combined R/W transfer (one STOP only)
	i2cTimeout    = 0x0702 // Set timeout in units of 10 ms
	i2cRetries    = 0x0701 // Set number of retries

	// I2C functionality flags.
	i2cFuncI2C = 0x00000001
)

// Conn represents a connection to a single I2C device, pinned to its
// 7-bit address for the lifetime of the handle. Every register operation
// on a Conn reuses this handle rather than reopening the bus device,
// so repeated SetAddress calls for the same address are no-ops.
type Conn struct {
	file         *os.File
	config       *Config
	capabilities uint32
	currentAddr  uint16
	addrSet      bool
}

// i2cMsg represents an I2C message for combined transactions.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// i2cRdwrIoctlData represents the data structure for I2C_RDWR ioctl.
type i2cRdwrIoctlData struct {
	msgs  uintptr
	nmsgs uint32
}

// Open opens a connection to an I2C device using the provided configuration.
func Open(cfg *Config) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	devicePath := cfg.GetDevicePath()
	file, err := os.OpenFile(devicePath, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBusNotFound, devicePath)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrBusAccessDenied, devicePath)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrBusOpenFailed, devicePath, err)
	}

	conn := &Conn{
		file:   file,
		config: cfg,
	}

	if err := conn.getCapabilities(); err != nil {
		_ = conn.file.Close()
		return nil, fmt.Errorf("failed to get adapter capabilities: %w", err)
	}

	if err := conn.configure(); err != nil {
		_ = conn.file.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	if err := conn.SetAddress(cfg.Address); err != nil {
		_ = conn.file.Close()
		return nil, fmt.Errorf("failed to set device address: %w", err)
	}

	return conn, nil
}

// OpenBus opens a connection to an I2C bus without setting a device address.
// This is useful when a single process owns more than one device on a bus
// and wants to retarget the handle with SetAddress between devices.
func OpenBus(bus int) (*Conn, error) {
	cfg := NewConfig(WithBus(bus))

	devicePath := cfg.GetDevicePath()
	file, err := os.OpenFile(devicePath, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBusNotFound, devicePath)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrBusAccessDenied, devicePath)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrBusOpenFailed, devicePath, err)
	}

	conn := &Conn{
		file:   file,
		config: cfg,
	}

	if err := conn.getCapabilities(); err != nil {
		_ = conn.file.Close()
		return nil, fmt.Errorf("failed to get adapter capabilities: %w", err)
	}

	if err := conn.configure(); err != nil {
		_ = conn.file.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	return conn, nil
}

// Close closes the connection to the I2C device.
func (c *Conn) Close() error {
	if c.file == nil {
		return nil
	}

	err := c.file.Close()
	c.file = nil
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBusCloseFailed, err)
	}
	return nil
}

// SetAddress sets the I2C device address for subsequent operations.
// Calling it with the address already pinned to the handle is a no-op,
// which lets callers share one Conn across repeated register operations
// on the same device without reselecting the address every time.
func (c *Conn) SetAddress(addr uint16) error {
	if !c.config.IsValidAddress(addr) {
		return fmt.Errorf("%w: 0x%02x", ErrInvalidAddress, addr)
	}

	if c.addrSet && c.currentAddr == addr {
		return nil
	}

	var ioctlCmd uintptr = i2cSlave
	if c.config.ForceAddress {
		ioctlCmd = i2cSlaveForce
	}

	if err := c.ioctl(ioctlCmd, uintptr(addr)); err != nil {
		return fmt.Errorf("%w: failed to set address 0x%02x: %w", ErrDeviceNotResponding, addr, err)
	}

	c.currentAddr = addr
	c.addrSet = true
	return nil
}

// Read reads data from the I2C device into the provided buffer.
func (c *Conn) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	var errs []error //nolint:prealloc
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(10 * time.Millisecond)
		}
		n, err := c.file.Read(buf)
		if err == nil {
			return n, nil
		}
		errs = append(errs, err)
	}

	return 0, fmt.Errorf("%w: %w", ErrReadFailed, errors.Join(errs...))
}

// Write writes data to the I2C device.
func (c *Conn) Write(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	var errs []error //nolint:prealloc
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(10 * time.Millisecond)
		}
		n, err := c.file.Write(buf)
		if err == nil {
			return n, nil
		}
		errs = append(errs, err)
	}

	return 0, fmt.Errorf("%w: %w", ErrWriteFailed, errors.Join(errs...))
}

// WriteByte writes a single byte to the I2C device.
func (c *Conn) WriteByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

// ReadByte reads a single byte from the I2C device.
func (c *Conn) ReadByte() (byte, error) {
	buf := make([]byte, 1)
	if _, err := c.Read(buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Transaction performs a combined write-then-read transaction without
// releasing the bus between the two phases. This is the primitive every
// register-level helper in registers.go is built on: write the register
// address, then read back however many bytes the register holds.
func (c *Conn) Transaction(writeData []byte, readBuf []byte) error {
	if len(writeData) == 0 && len(readBuf) == 0 {
		return fmt.Errorf("%w: no data to read or write", ErrInvalidDataLength)
	}

	if !c.supportsI2C() {
		return ErrI2CNotSupported
	}

	msgs := make([]i2cMsg, 0, 2)

	if len(writeData) > 0 {
		msgs = append(msgs, i2cMsg{
			addr:  c.currentAddr,
			flags: 0,
			len:   uint16(len(writeData)),
			buf:   uintptr(unsafe.Pointer(&writeData[0])),
		})
	}

	if len(readBuf) > 0 {
		msgs = append(msgs, i2cMsg{
			addr:  c.currentAddr,
			flags: 1,
			len:   uint16(len(readBuf)),
			buf:   uintptr(unsafe.Pointer(&readBuf[0])),
		})
	}

	data := i2cRdwrIoctlData{
		msgs:  uintptr(unsafe.Pointer(&msgs[0])),
		nmsgs: uint32(len(msgs)),
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(10 * time.Millisecond)
		}

		if err := c.ioctl(i2cRdwr, uintptr(unsafe.Pointer(&data))); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("%w: %w", ErrTransactionFailed, lastErr)
}

// GetCapabilities returns the I2C adapter capabilities.
func (c *Conn) GetCapabilities() uint32 {
	return c.capabilities
}

// Config returns a copy of the connection configuration.
func (c *Conn) Config() Config {
	return *c.config
}

// IsConnected returns true if the connection is still valid.
func (c *Conn) IsConnected() bool {
	return c.file != nil
}

// configure sets up the I2C connection based on the configuration.
func (c *Conn) configure() error {
	timeoutUnits := int(c.config.Timeout.Milliseconds() / 10)
	timeoutUnits = max(timeoutUnits, 1) // Minimum 1 unit (10ms)
	if err := c.ioctl(i2cTimeout, uintptr(timeoutUnits)); err != nil {
		return fmt.Errorf("failed to set timeout: %w", err)
	}

	if err := c.ioctl(i2cRetries, uintptr(c.config.Retries)); err != nil {
		return fmt.Errorf("failed to set retries: %w", err)
	}

	return nil
}

// getCapabilities retrieves the I2C adapter capabilities.
func (c *Conn) getCapabilities() error {
	var funcs uint32
	if err := c.ioctl(i2cFuncs, uintptr(unsafe.Pointer(&funcs))); err != nil {
		return fmt.Errorf("failed to get adapter capabilities: %w", err)
	}
	c.capabilities = funcs
	return nil
}

// supportsI2C checks if the adapter supports basic I2C operations.
func (c *Conn) supportsI2C() bool {
	return c.capabilities&i2cFuncI2C != 0
}

// ioctl performs an ioctl system call on the I2C device file.
func (c *Conn) ioctl(cmd, arg uintptr) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, c.file.Fd(), cmd, arg); errno != 0 {
		return errno
	}
	return nil
}
