// SPDX-License-Identifier: BSD-3-Clause

// Command growd is the grow chamber supervisory agent: it samples an
// air, light and water-level domain over I2C, drives up to five GPIO
// actuators (air, fan, air_pump, light, water_level) according to
// per-domain ControlConfig, and optionally serves the collected
// readings over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rorosen/growd/internal/config"
	"github.com/rorosen/growd/internal/queryserver"
	"github.com/rorosen/growd/internal/store"
	"github.com/rorosen/growd/internal/supervisor"
	"github.com/rorosen/growd/pkg/log"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "growd: "+err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	var httpAddr string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--print-default-config":
			return printDefaultConfig()
		case "--serve-http":
			if i+1 >= len(args) {
				return errors.New("--serve-http requires an address argument")
			}
			httpAddr = args[i+1]
			i++
		default:
			return fmt.Errorf("unknown argument %q", args[i])
		}
	}

	logger := log.GetGlobalLogger(logLevel())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st := store.New(cfg.GrowID)
	sup := supervisor.New(cfg, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if httpAddr == "" {
		return sup.Run(ctx)
	}

	qs := queryserver.New(httpAddr, st, logger)
	errCh := make(chan error, 2)
	go func() { errCh <- sup.Run(ctx) }()
	go func() { errCh <- qs.Run(ctx) }()

	var firstErr error
	for range 2 {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func printDefaultConfig() error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(config.Default())
}

// loadConfig resolves the configuration file path from the process
// environment (GROW_AGENT_CONFIG_PATH overrides CONFIGURATION_DIRECTORY)
// and loads it, falling back to config.Default() when no configuration
// file is present.
func loadConfig() (config.Config, error) {
	path := configPath()
	if path == "" {
		return config.Default(), nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("open configuration file %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := config.Load(f)
	if err != nil {
		return config.Config{}, fmt.Errorf("load configuration file %s: %w", path, err)
	}
	return cfg, nil
}

func configPath() string {
	if p := os.Getenv("GROW_AGENT_CONFIG_PATH"); p != "" {
		return p
	}
	if dir := os.Getenv("CONFIGURATION_DIRECTORY"); dir != "" {
		first, _, _ := strings.Cut(dir, ":")
		return filepath.Join(first, "config.json")
	}
	return ""
}

func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv("GROWD_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
