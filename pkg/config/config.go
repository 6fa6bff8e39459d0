// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the padlink TOML configuration file.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Thermoquad/padlink/pkg/dispatch"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

// Config is the resolved configuration.
type Config struct {
	Link      LinkConfig      `toml:"link"`
	Valves    ValveConfig     `toml:"valves"`
	Heartbeat HeartbeatConfig `toml:"heartbeat"`
	Plot      PlotConfig      `toml:"plot"`
	Log       LogConfig       `toml:"log"`
}

// LinkConfig selects the transport to the stand.
type LinkConfig struct {
	Addr     string `toml:"addr"`     // TCP host:port
	URL      string `toml:"url"`      // WebSocket bridge ws:// or wss://
	Username string `toml:"username"` // WebSocket basic auth
	Port     string `toml:"port"`     // serial device
	Baud     int    `toml:"baud"`
	Legacy   bool   `toml:"legacy"` // serial link carries legacy frames
}

// ValveConfig describes the valve wiring of the stand.
type ValveConfig struct {
	DefaultOpen []int             `toml:"default_open"`
	Names       map[string]string `toml:"names"` // actuator id -> display name
}

// HeartbeatConfig controls link liveness detection.
type HeartbeatConfig struct {
	Timeout int `toml:"timeout"` // seconds
}

// PlotConfig controls the displayed time window.
type PlotConfig struct {
	TimeRange uint32 `toml:"time_range"` // ms
}

// LogConfig controls runtime logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Link:      LinkConfig{Baud: 115200},
		Heartbeat: HeartbeatConfig{Timeout: dispatch.DefaultHeartbeatTimeout},
		Plot:      PlotConfig{TimeRange: 30000},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := c.DefaultOpenValves(); err != nil {
		return fmt.Errorf("valves.default_open: %w", err)
	}
	for key := range c.Valves.Names {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 || id > int(dispatch.IgniterID) {
			return fmt.Errorf("valves.names: invalid actuator id %q", key)
		}
	}
	if c.Link.Baud <= 0 {
		return fmt.Errorf("link.baud must be positive, got %d", c.Link.Baud)
	}
	if c.Heartbeat.Timeout <= 0 {
		return fmt.Errorf("heartbeat.timeout must be positive, got %d", c.Heartbeat.Timeout)
	}
	if c.Link.URL != "" && !strings.HasPrefix(c.Link.URL, "ws://") && !strings.HasPrefix(c.Link.URL, "wss://") {
		return fmt.Errorf("link.url must start with ws:// or wss://, got %q", c.Link.URL)
	}
	return nil
}

// DefaultOpenValves returns the configured default-open valves as a set.
func (c Config) DefaultOpenValves() (padproto.ValveSet, error) {
	return padproto.NewValveSet(c.Valves.DefaultOpen...)
}

// ActuatorLabel returns the configured display name for id, falling back to
// the standard label.
func (c Config) ActuatorLabel(id uint8) string {
	if name, ok := c.Valves.Names[strconv.Itoa(int(id))]; ok && name != "" {
		return name
	}
	return dispatch.ActuatorLabel(id)
}
