// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package padproto

import (
	"encoding/binary"
	"fmt"
)

// DecodeMessage decodes payload as the message shape selected by h.
// The payload must be exactly PayloadLength(h) bytes. Either a complete
// message or an error is returned, never both.
func DecodeMessage(h PacketHeader, payload []byte) (Message, error) {
	want, err := PayloadLength(h)
	if err != nil {
		return nil, err
	}
	if len(payload) != want {
		return nil, fmt.Errorf("%w: %s payload is %d bytes, expected %d", ErrMalformedPayload, h, len(payload), want)
	}

	switch h.Type {
	case TypeControl:
		return decodeControl(h, payload)
	case TypeTelemetry:
		return decodeTelemetry(h, payload)
	}
	// Unreachable: PayloadLength only resolves known types.
	return nil, fmt.Errorf("%w: %s", ErrUnresolvedLength, h)
}

func decodeControl(h PacketHeader, p []byte) (Message, error) {
	switch h.SubType {
	case SubActReq:
		state, err := parseActuatorState(p[1])
		if err != nil {
			return nil, err
		}
		return ActuationRequest{ID: p[0], State: state}, nil

	case SubActAck:
		status, err := parseActStatus(p[1])
		if err != nil {
			return nil, err
		}
		return ActuationAcknowledgement{ID: p[0], Status: status}, nil

	case SubArmReq:
		level, err := parseArmingState(p[0])
		if err != nil {
			return nil, err
		}
		return ArmingRequest{Level: level}, nil

	case SubArmAck:
		status, err := parseAckStatus(p[0])
		if err != nil {
			return nil, err
		}
		return ArmingAcknowledgement{Status: status}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnresolvedLength, h)
}

func decodeTelemetry(h PacketHeader, p []byte) (Message, error) {
	// Every telemetry payload starts with the time since power-on
	t := binary.LittleEndian.Uint32(p[0:4])

	switch h.SubType {
	case SubTemperature:
		value, id := readSensor(p)
		return TemperaturePacket{TimeSincePower: t, Temperature: value, ID: id}, nil

	case SubPressure:
		value, id := readSensor(p)
		return PressurePacket{TimeSincePower: t, Pressure: value, ID: id}, nil

	case SubMass:
		value, id := readSensor(p)
		return MassPacket{TimeSincePower: t, Mass: value, ID: id}, nil

	case SubArmingState:
		state, err := parseArmingState(p[4])
		if err != nil {
			return nil, err
		}
		return ArmingStatePacket{TimeSincePower: t, State: state}, nil

	case SubActState:
		state, err := parseActuatorState(p[5])
		if err != nil {
			return nil, err
		}
		return ActuatorStatePacket{TimeSincePower: t, ID: p[4], State: state}, nil

	case SubWarning:
		w, err := parseWarning(p[4])
		if err != nil {
			return nil, err
		}
		return WarningPacket{TimeSincePower: t, Type: w}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnresolvedLength, h)
}

// readSensor extracts the u32 value and u8 channel id of a sensor payload
func readSensor(p []byte) (float64, uint8) {
	return float64(binary.LittleEndian.Uint32(p[4:8])), p[8]
}

// DecodePacket decodes one complete packet: header followed by exactly the
// payload length the header resolves to.
func DecodePacket(b []byte) (Event, error) {
	if len(b) < HeaderSize {
		return Event{}, fmt.Errorf("%w: packet is %d bytes, shorter than header", ErrMalformedPayload, len(b))
	}
	h, err := DecodeHeader(b[:HeaderSize])
	if err != nil {
		return Event{}, err
	}
	m, err := DecodeMessage(h, b[HeaderSize:])
	if err != nil {
		return Event{}, err
	}
	return Event{Header: h, Message: m}, nil
}
