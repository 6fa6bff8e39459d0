// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "padlink.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 115200, cfg.Link.Baud)
	assert.Equal(t, 6, cfg.Heartbeat.Timeout)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[link]
addr = "192.168.1.50:5000"
port = "/dev/ttyUSB0"
legacy = true

[valves]
default_open = [3, 7]

[heartbeat]
timeout = 10

[plot]
time_range = 60000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.50:5000", cfg.Link.Addr)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Link.Port)
	assert.True(t, cfg.Link.Legacy)
	assert.Equal(t, 115200, cfg.Link.Baud, "unset keys keep defaults")
	assert.Equal(t, 10, cfg.Heartbeat.Timeout)
	assert.Equal(t, uint32(60000), cfg.Plot.TimeRange)

	set, err := cfg.DefaultOpenValves()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, set.Indices())
}

func TestLoad_RejectsValveOutOfRange(t *testing.T) {
	path := writeConfig(t, "[valves]\ndefault_open = [12]\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valves.default_open")
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[link]\nadress = \"x\"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link.adress")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Heartbeat.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Link.URL = "http://slate.local"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Link.URL = "wss://slate.local/pad"
	assert.NoError(t, cfg.Validate())
}

func TestActuatorLabel_Names(t *testing.T) {
	path := writeConfig(t, "[valves]\nnames = { \"3\" = \"LOX Vent\", \"14\" = \"Pyro\" }\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "LOX Vent", cfg.ActuatorLabel(3))
	assert.Equal(t, "Pyro", cfg.ActuatorLabel(14))
	assert.Equal(t, "XV-4", cfg.ActuatorLabel(4))
	assert.Equal(t, "Fire Valve", cfg.ActuatorLabel(0))
}

func TestLoad_RejectsBadValveName(t *testing.T) {
	path := writeConfig(t, "[valves]\nnames = { \"15\" = \"Nope\" }\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valves.names")
}
