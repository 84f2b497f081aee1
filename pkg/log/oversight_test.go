// SPDX-License-Identifier: BSD-3-Clause

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewOversightLoggerLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	oversightLog := NewOversightLogger(logger)
	oversightLog("child", "restarted", 1)

	out := buf.String()
	if !strings.Contains(out, "oversight") {
		t.Errorf("log output = %q, want it to contain %q", out, "oversight")
	}
	if !strings.Contains(out, "child") || !strings.Contains(out, "restarted") {
		t.Errorf("log output = %q, want the formatted args present", out)
	}
}

func TestNewOversightLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	oversightLog := NewOversightLogger(logger)
	oversightLog("should not appear")

	if buf.Len() != 0 {
		t.Errorf("log output = %q, want nothing logged below Info level", buf.String())
	}
}
