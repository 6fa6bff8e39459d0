// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Thermoquad/padlink/pkg/config"
	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

func TestMonitorModel_ConfiguredActuatorNames(t *testing.T) {
	c := config.Default()
	c.Valves.Names = map[string]string{"3": "LOX Vent"}
	m := newMonitorModel("test", c, nil)

	m.apply(feed.Result{
		ReceivedAt: time.Now(),
		Events: []padproto.Event{
			padproto.NewEvent(padproto.ActuatorStatePacket{ID: 3, State: padproto.ActuatorOn}),
			padproto.NewEvent(padproto.ActuationAcknowledgement{ID: 3, Status: padproto.ActOK}),
		},
	})

	var lines []string
	for _, e := range m.board.Entries {
		lines = append(lines, e.Line)
	}
	assert.Contains(t, lines, "LOX Vent: ON")
	assert.Contains(t, lines, "LOX Vent request: "+padproto.ActOK.String())
	assert.Equal(t, padproto.ActuatorOn, m.board.Actuators[3])
}

func TestMonitorModel_FlagsTCPOverPressure(t *testing.T) {
	m := newMonitorModel("test", config.Default(), nil)
	m.apply(feed.Result{
		ReceivedAt: time.Now(),
		Events:     []padproto.Event{padproto.NewEvent(padproto.PressurePacket{Pressure: 5000, ID: 1})},
	})

	assert.Equal(t, uint64(1), m.stats.AnomalousValues)
}
