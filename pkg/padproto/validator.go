// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package padproto

import "fmt"

// AnomalyType represents different types of value anomalies
type AnomalyType int

const (
	AnomalyHighPressure AnomalyType = iota
	AnomalyInvalidTemp
	AnomalyNegativeMass
	AnomalyWarning
	AnomalyUnknownChannel
)

func (a AnomalyType) String() string {
	switch a {
	case AnomalyHighPressure:
		return "high_pressure"
	case AnomalyInvalidTemp:
		return "invalid_temp"
	case AnomalyNegativeMass:
		return "negative_mass"
	case AnomalyWarning:
		return "warning"
	case AnomalyUnknownChannel:
		return "unknown_channel"
	default:
		return "unknown"
	}
}

// Limits for engineering-unit validation
const (
	MaxPressurePSI = 1000.0
	MinTempC       = -50.0
	MaxTempC       = 400.0
)

// Sensor channels per kind, matching the legacy frame (m1-m2, p1-p4, t1-t3)
const (
	MassChannels        = 2
	PressureChannels    = 4
	TemperatureChannels = 3
)

// ValidationError represents a decoded value outside its expected range.
// The event still decoded; this flags it for the operator.
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateEvent checks engineering values of a decoded event, from either
// link. Returns a slice of validation errors (empty if the event looks sane).
// TCP values are unsigned, so only serial frames can report a negative mass.
func ValidateEvent(ev Event) []ValidationError {
	errors := []ValidationError{}

	switch m := ev.Message.(type) {
	case TemperaturePacket:
		errors = append(errors, validateChannel("t", m.ID, TemperatureChannels)...)
		if m.Temperature < MinTempC || m.Temperature > MaxTempC {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidTemp,
				Message: fmt.Sprintf("t%d out of range (%.1f °C, valid: %.0f to %.0f °C)", m.ID, m.Temperature, MinTempC, MaxTempC),
				Details: map[string]interface{}{"value": m.Temperature, "min": MinTempC, "max": MaxTempC},
			})
		}

	case PressurePacket:
		errors = append(errors, validateChannel("p", m.ID, PressureChannels)...)
		if m.Pressure > MaxPressurePSI {
			errors = append(errors, ValidationError{
				Type:    AnomalyHighPressure,
				Message: fmt.Sprintf("p%d high pressure (%.1f psi, max %.0f)", m.ID, m.Pressure, MaxPressurePSI),
				Details: map[string]interface{}{"value": m.Pressure, "max": MaxPressurePSI},
			})
		}

	case MassPacket:
		errors = append(errors, validateChannel("m", m.ID, MassChannels)...)
		if m.Mass < 0 {
			errors = append(errors, ValidationError{
				Type:    AnomalyNegativeMass,
				Message: fmt.Sprintf("m%d negative mass (%.3f kg)", m.ID, m.Mass),
				Details: map[string]interface{}{"value": m.Mass},
			})
		}

	case WarningPacket:
		errors = append(errors, ValidationError{
			Type:    AnomalyWarning,
			Message: fmt.Sprintf("stand raised %s", m.Type),
			Details: map[string]interface{}{"warning": m.Type, "time_since_power": m.TimeSincePower},
		})
	}

	return errors
}

// validateChannel checks a 1-based sensor channel id
func validateChannel(kind string, id uint8, channels int) []ValidationError {
	if id >= 1 && int(id) <= channels {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyUnknownChannel,
		Message: fmt.Sprintf("unknown channel %s%d (valid 1-%d)", kind, id, channels),
		Details: map[string]interface{}{"kind": kind, "id": id},
	}}
}
