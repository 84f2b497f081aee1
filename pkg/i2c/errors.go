// SPDX-License-Identifier: BSD-3-Clause

package i2c

import "errors"

var (
	// Bus and device access errors.

	// ErrBusNotFound indicates that the specified I2C bus device file does not exist.
	ErrBusNotFound = errors.New("I2C bus device not found")
	// ErrBusAccessDenied indicates insufficient permissions to access the I2C bus device.
	ErrBusAccessDenied = errors.New("access denied to I2C bus device")
	// ErrBusOpenFailed indicates a failure to open the I2C bus device file.
	ErrBusOpenFailed = errors.New("failed to open I2C bus device")
	// ErrBusCloseFailed indicates a failure to close the I2C bus device file.
	ErrBusCloseFailed = errors.New("failed to close I2C bus device")

	// Device communication errors.

	// ErrDeviceNotResponding indicates that the I2C device did not acknowledge communication attempts.
	ErrDeviceNotResponding = errors.New("I2C device not responding")
	// ErrBusError indicates a general I2C bus error occurred.
	ErrBusError = errors.New("I2C bus error")

	// Protocol errors.

	// ErrI2CNotSupported indicates that the adapter does not support plain I2C transfers.
	ErrI2CNotSupported = errors.New("I2C operations not supported by adapter")

	// Data and parameter validation errors.

	// ErrInvalidBusNumber indicates that the specified bus number is invalid.
	ErrInvalidBusNumber = errors.New("invalid I2C bus number")
	// ErrInvalidAddress indicates that the specified device address is invalid.
	ErrInvalidAddress = errors.New("invalid I2C device address")
	// ErrInvalidRegister indicates that the specified register address is invalid.
	ErrInvalidRegister = errors.New("invalid register address")
	// ErrInvalidDataLength indicates that the data length is invalid for the operation.
	ErrInvalidDataLength = errors.New("invalid data length for operation")

	// Configuration errors.

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid I2C configuration")
	// ErrInvalidTimeout indicates that the specified timeout value is invalid.
	ErrInvalidTimeout = errors.New("invalid timeout value")
	// ErrInvalidRetryCount indicates that the specified retry count is invalid.
	ErrInvalidRetryCount = errors.New("invalid retry count")

	// Operation errors.

	// ErrTimeout indicates that an I2C operation timed out.
	ErrTimeout = errors.New("I2C operation timeout")
	// ErrOperationFailed indicates that an I2C operation failed for an unspecified reason.
	ErrOperationFailed = errors.New("I2C operation failed")
	// ErrReadFailed indicates that a read operation failed.
	ErrReadFailed = errors.New("I2C read operation failed")
	// ErrWriteFailed indicates that a write operation failed.
	ErrWriteFailed = errors.New("I2C write operation failed")
	// ErrTransactionFailed indicates that a combined I2C transaction failed.
	ErrTransactionFailed = errors.New("I2C transaction failed")

	// System and hardware errors.

	// ErrAdapterNotFound indicates that no I2C adapter was found for the specified bus.
	ErrAdapterNotFound = errors.New("I2C adapter not found")
	// ErrAdapterBusy indicates that the I2C adapter is busy and cannot perform the operation.
	ErrAdapterBusy = errors.New("I2C adapter busy")
)
