// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/padlink/pkg/padproto"
)

func TestParseControlCommand(t *testing.T) {
	tests := []struct {
		input string
		want  padproto.Message
	}{
		{"open 3", padproto.ActuationRequest{ID: 3, State: padproto.ActuatorOn}},
		{"  CLOSE   0 ", padproto.ActuationRequest{ID: 0, State: padproto.ActuatorOff}},
		{"open 14", padproto.ActuationRequest{ID: 14, State: padproto.ActuatorOn}},
		{"arm valves", padproto.ArmingRequest{Level: padproto.ArmedValves}},
		{"arm 4", padproto.ArmingRequest{Level: padproto.ArmedLaunch}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseControlCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseControlCommand_Rejects(t *testing.T) {
	for _, input := range []string{"", "open", "open x", "open 256", "arm 5", "arm orbit", "fire 1", "open 1 2"} {
		_, err := parseControlCommand(input)
		assert.Error(t, err, input)
	}
}
