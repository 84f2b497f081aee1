// SPDX-License-Identifier: BSD-3-Clause

// Package log provides structured logging built on Go's standard library
// slog, backed by a zerolog console writer for human-readable output.
//
// # Basic usage
//
//	logger := log.NewDefaultLogger()
//	logger.Info("sampler starting", "domain", "air", "interval", 30*time.Second)
//	logger.Error("measurement failed", "domain", "air", "error", err)
//
// GetGlobalLogger accepts the level growd resolves from GROWD_LOG_LEVEL,
// and is what the supervisor and every domain manager share.
//
// # Thread safety
//
// Logger instances are safe for concurrent use from multiple goroutines.
package log
