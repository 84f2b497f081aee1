// SPDX-License-Identifier: BSD-3-Clause

package log

import (
	"log/slog"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// NewDefaultLogger creates a new structured logger that writes human-readable
// console output via zerolog. This is the recommended way to create a new
// logger instance for application use.
func NewDefaultLogger() *slog.Logger {
	zeroLogger := zerolog.
		New(zerolog.NewConsoleWriter()).
		With().
		Timestamp().
		Logger()

	return slog.New(slogzerolog.Option{Level: slog.LevelDebug, Logger: &zeroLogger}.NewZerologHandler())
}

// GetGlobalLogger returns a structured logger configured for global application use,
// at the level requested (growd reads this from GROWD_LOG_LEVEL).
func GetGlobalLogger(level slog.Level) *slog.Logger {
	zeroLogger := zerolog.
		New(zerolog.NewConsoleWriter()).
		With().
		Timestamp().
		Logger()

	return slog.New(slogzerolog.Option{Level: level, Logger: &zeroLogger}.NewZerologHandler())
}
