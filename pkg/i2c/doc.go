// SPDX-License-Identifier: BSD-3-Clause

// Package i2c provides a Go interface for talking to plain I2C devices on
// Linux through the standard /dev/i2c-* character device interface.
//
// # Basic usage
//
//	cfg := i2c.NewConfig(
//		i2c.WithBus(1),
//		i2c.WithAddress(0x76),
//	)
//
//	conn, err := i2c.Open(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	chipID, err := conn.ReadRegU8(0xD0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Register-level helpers (ReadRegU8, WriteRegU8, SetRegBits, ReadRegU16,
// WriteRegU16, ReadRegBytes) are all built on Transaction, a combined
// write-then-read performed without releasing the bus in between, using
// the Linux I2C_RDWR ioctl. Multi-byte register values are read and
// written big-endian, matching how the BME680, VL53L0X and BH1750 encode
// their registers.
//
// A Conn is pinned to a single device address for its lifetime; reusing
// the same Conn for repeated register operations on that device avoids
// reselecting the address on every call. OpenBus opens a bus handle
// without pinning an address, for callers that need to retarget with
// SetAddress between multiple devices sharing a bus.
//
// Connection instances are not safe for concurrent use; callers issuing
// register operations from multiple goroutines must synchronize access
// to a shared Conn themselves.
package i2c
