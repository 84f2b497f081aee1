// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

// Package gpio provides a high-level abstraction for GPIO operations on
// Linux systems, wrapping github.com/warthog618/go-gpiocdev with a
// convenient interface for driving relays and reading digital sensor
// outputs.
//
// # Key Concepts
//
// GPIO Chip: a GPIO controller exposed at /dev/gpiochipN, managing a
// collection of GPIO lines.
//
// GPIO Line: an individual pin within a chip, configured as an input or
// output with properties like bias and edge detection.
//
// # Basic Usage
//
// Requesting a persistent output line (the pattern internal/control uses
// for long-lived actuators):
//
//	line, err := gpio.RequestLineByNumber("/dev/gpiochip0", 17, gpio.AsOutput())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer line.Close()
//
//	if err := line.SetValue(1); err != nil {
//		log.Fatal(err)
//	}
//
// One-shot operations that don't need to keep the line open:
//
//	if err := gpio.SetGPIOByNumber("/dev/gpiochip0", 17, 1); err != nil {
//		log.Fatal(err)
//	}
//	if err := gpio.ToggleGPIOByNumber("/dev/gpiochip0", 17, 200*time.Millisecond); err != nil {
//		log.Fatal(err)
//	}
//
// # Error Handling
//
// The package provides specific error types for different failure scenarios:
//
//	line, err := gpio.RequestLineByNumber("/dev/gpiochip0", 17)
//	if err != nil {
//		switch {
//		case errors.Is(err, gpio.ErrChipNotFound):
//			log.Fatal("GPIO chip not available")
//		case errors.Is(err, gpio.ErrLineNotFound):
//			log.Fatal("GPIO line not found")
//		case errors.Is(err, gpio.ErrPermissionDenied):
//			log.Fatal("Insufficient permissions for GPIO access")
//		default:
//			log.Fatalf("Unexpected error: %v", err)
//		}
//	}
//
// # Platform Considerations
//
// This package requires a Linux kernel with CONFIG_GPIO_CDEV enabled and
// appropriate permissions to access /dev/gpiochipN.
package gpio
