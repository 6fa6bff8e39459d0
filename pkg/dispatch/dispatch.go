// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package dispatch routes decoded pad events to the presentation layer.
package dispatch

import (
	"fmt"

	"github.com/Thermoquad/padlink/pkg/padproto"
)

// Reserved actuator ids with their own names
const (
	FireValveID       = 0
	QuickDisconnectID = 13
	IgniterID         = 14
)

// LogSeparator brackets the fire sequence in the operator log
const LogSeparator = "////////////////////////////"

// Handler receives dispatched events.
type Handler interface {
	// PlotPoint appends one reading to the series named key ("t2", "p4", "m1").
	PlotPoint(key string, timeSincePower uint32, value float64)
	// ApplyActuatorState updates the displayed state of actuator id.
	ApplyActuatorState(id uint8, state padproto.ActuatorState)
	// ResetHeartbeat marks the link as alive.
	ResetHeartbeat()
	// Log appends a line to the operator log.
	Log(line string)
}

// Labeler is implemented by handlers that name actuators themselves. Dispatch
// uses it for actuator log lines in place of ActuatorLabel.
type Labeler interface {
	ActuatorLabel(id uint8) string
}

// Dispatch hands ev to h. Sensor readings become plot points, actuator states
// update the actuator, reset the heartbeat when resetHeartbeat is set, and
// write a log line. Every other subtype is ignored.
func Dispatch(h Handler, ev padproto.Event, resetHeartbeat bool) {
	switch m := ev.Message.(type) {
	case padproto.TemperaturePacket, padproto.PressurePacket, padproto.MassPacket:
		key, value, ok := PlotKey(ev)
		if ok {
			h.PlotPoint(key, timeSincePower(m), value)
		}

	case padproto.ActuatorStatePacket:
		h.ApplyActuatorState(m.ID, m.State)
		if resetHeartbeat {
			h.ResetHeartbeat()
		}
		label := ActuatorLabel(m.ID)
		if l, ok := h.(Labeler); ok {
			label = l.ActuatorLabel(m.ID)
		}
		for _, line := range actuatorLogLines(label, m.ID, m.State) {
			h.Log(line)
		}
	}
}

// PlotKey returns the series key and value of a sensor reading.
func PlotKey(ev padproto.Event) (string, float64, bool) {
	if ev.Header.Type != padproto.TypeTelemetry {
		return "", 0, false
	}
	switch m := ev.Message.(type) {
	case padproto.TemperaturePacket:
		return fmt.Sprintf("t%d", m.ID), m.Temperature, true
	case padproto.PressurePacket:
		return fmt.Sprintf("p%d", m.ID), m.Pressure, true
	case padproto.MassPacket:
		return fmt.Sprintf("m%d", m.ID), m.Mass, true
	}
	return "", 0, false
}

// ActuatorLabel names an actuator for the operator.
func ActuatorLabel(id uint8) string {
	switch id {
	case FireValveID:
		return "Fire Valve"
	case QuickDisconnectID:
		return "Quick Disconnect"
	case IgniterID:
		return "Igniter"
	default:
		return fmt.Sprintf("XV-%d", id)
	}
}

// ActuatorLogLines returns the log lines for a state change. The fire valve
// opens the block and the igniter closes it.
func ActuatorLogLines(id uint8, state padproto.ActuatorState) []string {
	return actuatorLogLines(ActuatorLabel(id), id, state)
}

func actuatorLogLines(label string, id uint8, state padproto.ActuatorState) []string {
	line := fmt.Sprintf("%s: %s", label, state)
	switch id {
	case FireValveID:
		return []string{LogSeparator, line}
	case IgniterID:
		return []string{line, LogSeparator}
	default:
		return []string{line}
	}
}

func timeSincePower(m padproto.Message) uint32 {
	switch v := m.(type) {
	case padproto.TemperaturePacket:
		return v.TimeSincePower
	case padproto.PressurePacket:
		return v.TimeSincePower
	case padproto.MassPacket:
		return v.TimeSincePower
	case padproto.ArmingStatePacket:
		return v.TimeSincePower
	case padproto.ActuatorStatePacket:
		return v.TimeSincePower
	case padproto.WarningPacket:
		return v.TimeSincePower
	}
	return 0
}
