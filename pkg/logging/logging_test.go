// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("DEBUG")
	assert.True(t, ok)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)

	_, ok = ParseLevel("")
	assert.False(t, ok)
}

func TestConfigure_JSON(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogJSON, "")

	var buf bytes.Buffer
	logger := Configure(Options{Level: "warn", JSON: true, Output: &buf})

	logger.Info().Msg("hidden")
	logger.Warn().Str("addr", "10.0.0.2:5000").Msg("link lost")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "link lost", rec["message"])
	assert.Equal(t, "10.0.0.2:5000", rec["addr"])
}

func TestConfigure_EnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogJSON, "true")

	var buf bytes.Buffer
	logger := Configure(Options{Level: "debug", Output: &buf})
	logger.Warn().Msg("dropped")
	assert.Zero(t, buf.Len())
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}
