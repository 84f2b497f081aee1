// SPDX-License-Identifier: BSD-3-Clause

// Package state wraps github.com/qmuntal/stateless with thread-safe
// Start/Stop lifecycle, an optional per-transition persistence callback,
// and an optional broadcast callback — used by the Feedback controller
// to drive a single GPIO pin between low and high.
//
// # Basic usage
//
//	sm, err := state.NewPinStateMachine("fan", state.StateLow,
//		func(ctx context.Context, from, to string) error { return line.SetHigh(ctx) },
//		func(ctx context.Context, from, to string) error { return line.SetLow(ctx) },
//	)
//	if err != nil {
//		return err
//	}
//	if err := sm.Start(ctx); err != nil {
//		return err
//	}
//	if err := sm.Fire(ctx, state.TriggerRaise); err != nil {
//		log.Printf("transition failed: %v", err)
//	}
//
// # Thread safety
//
// All FSM operations are safe for concurrent use.
package state
