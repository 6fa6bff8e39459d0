// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment overrides
const (
	EnvLogLevel   = "PADLINK_LOG_LEVEL"
	EnvLogNoColor = "PADLINK_LOG_NOCOLOR"
	EnvLogJSON    = "PADLINK_LOG_JSON"
)

// Options selects the logger output.
type Options struct {
	Level   string
	JSON    bool
	NoColor bool
	Output  io.Writer // defaults to os.Stderr
}

// Configure installs the global logger. Environment variables override opts.
func Configure(opts Options) zerolog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
		if f, ok := opts.Output.(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
			opts.JSON = true
		}
	}
	applyEnvOverrides(&opts)

	level, ok := ParseLevel(opts.Level)
	if !ok {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = opts.Output
	if !opts.JSON {
		w = zerolog.ConsoleWriter{
			Out:        opts.Output,
			NoColor:    opts.NoColor,
			TimeFormat: "15:04:05.000",
		}
	}

	logger := zerolog.New(w).With().Timestamp().Logger()
	log.Logger = logger
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return logger
}

// ParseLevel accepts zerolog level names, case-insensitively.
func ParseLevel(s string) (zerolog.Level, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.InfoLevel, false
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return level, true
}

func applyEnvOverrides(opts *Options) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		opts.Level = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		opts.JSON = v
	}
}

func parseBool(s string) (bool, bool) {
	if s == "" {
		return false, false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return v, true
}
