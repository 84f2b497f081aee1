// SPDX-License-Identifier: BSD-3-Clause

package i2c

import (
	"encoding/binary"
	"fmt"
)

// ReadRegU8 reads a single byte from the given register.
func (c *Conn) ReadRegU8(reg byte) (byte, error) {
	buf := make([]byte, 1)
	if err := c.Transaction([]byte{reg}, buf); err != nil {
		return 0, fmt.Errorf("read register 0x%02x: %w", reg, err)
	}
	return buf[0], nil
}

// WriteRegU8 writes a single byte to the given register.
func (c *Conn) WriteRegU8(reg byte, value byte) error {
	if err := c.Transaction([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("write register 0x%02x: %w", reg, err)
	}
	return nil
}

// SetRegBits reads the given register, replaces the bits selected by mask
// with the corresponding bits of value, and writes the result back.
func (c *Conn) SetRegBits(reg byte, mask byte, value byte) error {
	cur, err := c.ReadRegU8(reg)
	if err != nil {
		return err
	}
	updated := (cur &^ mask) | (value & mask)
	return c.WriteRegU8(reg, updated)
}

// ReadRegU16 reads a big-endian 16-bit value starting at the given register.
func (c *Conn) ReadRegU16(reg byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := c.Transaction([]byte{reg}, buf); err != nil {
		return 0, fmt.Errorf("read register 0x%02x: %w", reg, err)
	}
	return binary.BigEndian.Uint16(buf), nil
}

// WriteRegU16 writes a big-endian 16-bit value to the given register.
func (c *Conn) WriteRegU16(reg byte, value uint16) error {
	buf := make([]byte, 3)
	buf[0] = reg
	binary.BigEndian.PutUint16(buf[1:], value)
	if err := c.Transaction(buf, nil); err != nil {
		return fmt.Errorf("write register 0x%02x: %w", reg, err)
	}
	return nil
}

// ReadRegBytes reads n bytes starting at the given register, without
// releasing the bus between the register-address write and the read.
func (c *Conn) ReadRegBytes(reg byte, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := c.Transaction([]byte{reg}, buf); err != nil {
		return nil, fmt.Errorf("read register 0x%02x (%d bytes): %w", reg, n, err)
	}
	return buf, nil
}

// ReadBytes reads n bytes from the device with no preceding register
// write, continuing from wherever the device's internal pointer sits.
func (c *Conn) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := c.Read(buf); err != nil {
		return nil, fmt.Errorf("read %d bytes: %w", n, err)
	}
	return buf, nil
}

// WriteBytes writes an arbitrary byte sequence to the device, e.g. a
// register address immediately followed by multiple data bytes.
func (c *Conn) WriteBytes(buf []byte) error {
	if _, err := c.Write(buf); err != nil {
		return fmt.Errorf("write %d bytes: %w", len(buf), err)
	}
	return nil
}
