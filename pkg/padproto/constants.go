// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package padproto implements the pad ground-support link protocol.
//
// The protocol carries telemetry and control packets between the test stand
// and the ground station. Each packet is a 2-byte header (type, subtype)
// followed by a fixed-size little-endian payload whose length is determined
// by the header alone. A legacy serial frame carrying every sensor channel and
// the valve status word in one block is also supported.
//
// This package only decodes complete buffers. Accumulating bytes from a
// stream is the caller's job (see package feed).
package padproto

import "fmt"

// Wire sizes
const (
	HeaderSize      = 2
	SerialFrameSize = 26 // 4 ignored + 9*u16 + u32 status
	serialSkip      = 4
)

// Valve status limits for the legacy serial frame
const (
	ValveCount = 12
	valveMask  = 1<<ValveCount - 1
)

// PacketType is the first header byte.
type PacketType uint8

// Packet types
const (
	TypeControl   PacketType = 0
	TypeTelemetry PacketType = 1
)

// Valid reports whether t is a known packet type.
func (t PacketType) Valid() bool {
	return t <= TypeTelemetry
}

func (t PacketType) String() string {
	switch t {
	case TypeControl:
		return "CONTROL"
	case TypeTelemetry:
		return "TELEMETRY"
	default:
		return fmt.Sprintf("PacketType(%d)", uint8(t))
	}
}

// SubType is the second header byte. Its meaning depends on the PacketType:
// CONTROL packets use the request/acknowledgement subset, TELEMETRY packets
// use the sensor and state subset.
type SubType uint8

// Packet subtypes
const (
	SubTemperature SubType = iota
	SubPressure
	SubMass
	SubArmingState
	SubActState
	SubWarning
	SubActReq
	SubActAck
	SubArmReq
	SubArmAck
)

var subTypeNames = [...]string{
	SubTemperature: "TEMPERATURE",
	SubPressure:    "PRESSURE",
	SubMass:        "MASS",
	SubArmingState: "ARMING_STATE",
	SubActState:    "ACT_STATE",
	SubWarning:     "WARNING",
	SubActReq:      "ACT_REQ",
	SubActAck:      "ACT_ACK",
	SubArmReq:      "ARM_REQ",
	SubArmAck:      "ARM_ACK",
}

// Valid reports whether s is a known subtype.
func (s SubType) Valid() bool {
	return int(s) < len(subTypeNames)
}

func (s SubType) String() string {
	if s.Valid() {
		return subTypeNames[s]
	}
	return fmt.Sprintf("SubType(%d)", uint8(s))
}

// ActuatorState is the logical state of a valve or other actuator.
type ActuatorState uint8

// Actuator states
const (
	ActuatorOff ActuatorState = 0
	ActuatorOn  ActuatorState = 1
)

// Valid reports whether s is a known actuator state.
func (s ActuatorState) Valid() bool {
	return s <= ActuatorOn
}

func (s ActuatorState) String() string {
	switch s {
	case ActuatorOff:
		return "OFF"
	case ActuatorOn:
		return "ON"
	default:
		return fmt.Sprintf("ActuatorState(%d)", uint8(s))
	}
}

// ArmingState is the stand's arming level.
type ArmingState uint8

// Arming states
const (
	ArmedPad ArmingState = iota
	ArmedValves
	ArmedIgnition
	ArmedDisconnected
	ArmedLaunch
)

var armingStateNames = [...]string{
	ArmedPad:          "ARMED_PAD",
	ArmedValves:       "ARMED_VALVES",
	ArmedIgnition:     "ARMED_IGNITION",
	ArmedDisconnected: "ARMED_DISCONNECTED",
	ArmedLaunch:       "ARMED_LAUNCH",
}

// Valid reports whether s is a known arming state.
func (s ArmingState) Valid() bool {
	return int(s) < len(armingStateNames)
}

func (s ArmingState) String() string {
	if s.Valid() {
		return armingStateNames[s]
	}
	return fmt.Sprintf("ArmingState(%d)", uint8(s))
}

// Warning identifies the condition raised by a WARNING packet.
type Warning uint8

// Warning kinds
const (
	WarningHighPressure Warning = 0
	WarningHighTemp     Warning = 1
)

// Valid reports whether w is a known warning.
func (w Warning) Valid() bool {
	return w <= WarningHighTemp
}

func (w Warning) String() string {
	switch w {
	case WarningHighPressure:
		return "HIGH_PRESSURE"
	case WarningHighTemp:
		return "HIGH_TEMP"
	default:
		return fmt.Sprintf("Warning(%d)", uint8(w))
	}
}

// AcknowledgementStatus answers an ArmingRequest.
type AcknowledgementStatus uint8

// Arming acknowledgement statuses
const (
	ArmOK AcknowledgementStatus = iota
	ArmDenied
	ArmInvalid
)

var ackStatusNames = [...]string{
	ArmOK:      "ARM_OK",
	ArmDenied:  "ARM_DENIED",
	ArmInvalid: "ARM_INV",
}

// Valid reports whether s is a known acknowledgement status.
func (s AcknowledgementStatus) Valid() bool {
	return int(s) < len(ackStatusNames)
}

func (s AcknowledgementStatus) String() string {
	if s.Valid() {
		return ackStatusNames[s]
	}
	return fmt.Sprintf("AcknowledgementStatus(%d)", uint8(s))
}

// ActuationRequestStatus answers an ActuationRequest.
type ActuationRequestStatus uint8

// Actuation acknowledgement statuses
const (
	ActOK ActuationRequestStatus = iota
	ActDenied
	ActDoesNotExist
	ActInvalid
)

var actStatusNames = [...]string{
	ActOK:           "ACT_OK",
	ActDenied:       "ACT_DENIED",
	ActDoesNotExist: "ACT_DNE",
	ActInvalid:      "ACT_INV",
}

// Valid reports whether s is a known actuation status.
func (s ActuationRequestStatus) Valid() bool {
	return int(s) < len(actStatusNames)
}

func (s ActuationRequestStatus) String() string {
	if s.Valid() {
		return actStatusNames[s]
	}
	return fmt.Sprintf("ActuationRequestStatus(%d)", uint8(s))
}

// Range-checked constructors used by the decoders

func parsePacketType(b byte) (PacketType, error) {
	t := PacketType(b)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: packet type %d", ErrInvalidEnumValue, b)
	}
	return t, nil
}

func parseSubType(b byte) (SubType, error) {
	s := SubType(b)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: subtype %d", ErrInvalidEnumValue, b)
	}
	return s, nil
}

func parseActuatorState(b byte) (ActuatorState, error) {
	s := ActuatorState(b)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: actuator state %d", ErrInvalidEnumValue, b)
	}
	return s, nil
}

func parseArmingState(b byte) (ArmingState, error) {
	s := ArmingState(b)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: arming state %d", ErrInvalidEnumValue, b)
	}
	return s, nil
}

func parseWarning(b byte) (Warning, error) {
	w := Warning(b)
	if !w.Valid() {
		return 0, fmt.Errorf("%w: warning %d", ErrInvalidEnumValue, b)
	}
	return w, nil
}

func parseAckStatus(b byte) (AcknowledgementStatus, error) {
	s := AcknowledgementStatus(b)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: arming acknowledgement status %d", ErrInvalidEnumValue, b)
	}
	return s, nil
}

func parseActStatus(b byte) (ActuationRequestStatus, error) {
	s := ActuationRequestStatus(b)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: actuation status %d", ErrInvalidEnumValue, b)
	}
	return s, nil
}
