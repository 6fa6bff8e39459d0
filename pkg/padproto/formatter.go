// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package padproto

import (
	"fmt"
	"strings"
	"time"
)

// FormatEvent formats an event into a human-readable line, prefixed with the
// time it was received.
func FormatEvent(received time.Time, ev Event) string {
	timestamp := received.Format("15:04:05.000")
	return fmt.Sprintf("[%s] %s %s\n", timestamp, FormatHeader(ev.Header), FormatMessage(ev.Message))
}

// FormatHeader returns "TYPE/SUBTYPE (0xTT 0xSS)"
func FormatHeader(h PacketHeader) string {
	return fmt.Sprintf("%s (0x%02X 0x%02X)", h, uint8(h.Type), uint8(h.SubType))
}

// FormatMessage formats the fields of a message with units
func FormatMessage(m Message) string {
	switch v := m.(type) {
	case TemperaturePacket:
		return fmt.Sprintf("t%d=%.2f °C time=%s", v.ID, v.Temperature, formatSincePower(v.TimeSincePower))
	case PressurePacket:
		return fmt.Sprintf("p%d=%.2f psi time=%s", v.ID, v.Pressure, formatSincePower(v.TimeSincePower))
	case MassPacket:
		return fmt.Sprintf("m%d=%.3f kg time=%s", v.ID, v.Mass, formatSincePower(v.TimeSincePower))
	case ArmingStatePacket:
		return fmt.Sprintf("state=%s time=%s", v.State, formatSincePower(v.TimeSincePower))
	case ActuatorStatePacket:
		return fmt.Sprintf("actuator=%d state=%s time=%s", v.ID, v.State, formatSincePower(v.TimeSincePower))
	case WarningPacket:
		return fmt.Sprintf("warning=%s time=%s", v.Type, formatSincePower(v.TimeSincePower))
	case ActuationRequest:
		return fmt.Sprintf("actuator=%d state=%s", v.ID, v.State)
	case ActuationAcknowledgement:
		return fmt.Sprintf("actuator=%d status=%s", v.ID, v.Status)
	case ArmingRequest:
		return fmt.Sprintf("level=%s", v.Level)
	case ArmingAcknowledgement:
		return fmt.Sprintf("status=%s", v.Status)
	case nil:
		return "(no message)"
	default:
		return fmt.Sprintf("%+v", v)
	}
}

// FormatSerialPacket formats a legacy frame snapshot over several lines
func FormatSerialPacket(p SerialDataPacket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Mass:     m1=%.3f kg  m2=%.3f kg\n", p.M1, p.M2)
	fmt.Fprintf(&b, "  Pressure: p1=%.1f  p2=%.1f  p3=%.1f  p4=%.1f psi\n", p.P1, p.P2, p.P3, p.P4)
	fmt.Fprintf(&b, "  Temp:     t1=%.1f  t2=%.1f  t3=%.1f °C\n", p.T1, p.T2, p.T3)
	fmt.Fprintf(&b, "  Valves:   %s\n", p.Valves)
	return b.String()
}

// formatSincePower renders milliseconds since power-on as seconds
func formatSincePower(ms uint32) string {
	return fmt.Sprintf("%.3fs", float64(ms)/1000.0)
}

// FormatHex dumps raw bytes 16 per line, for decode failures
func FormatHex(data []byte) string {
	var b strings.Builder
	b.WriteString("  Bytes: ")
	for i, x := range data {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n         ")
		}
		fmt.Fprintf(&b, "%02X ", x)
	}
	b.WriteString("\n")
	return b.String()
}
