// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package padproto

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeMessage returns the wire payload for m, without the header.
// Sensor values must be whole numbers within the u32 range since the wire
// carries unsigned integers.
func EncodeMessage(m Message) ([]byte, error) {
	switch v := m.(type) {
	case TemperaturePacket:
		return encodeSensor(v.TimeSincePower, v.Temperature, v.ID)
	case PressurePacket:
		return encodeSensor(v.TimeSincePower, v.Pressure, v.ID)
	case MassPacket:
		return encodeSensor(v.TimeSincePower, v.Mass, v.ID)

	case ArmingStatePacket:
		if !v.State.Valid() {
			return nil, fmt.Errorf("%w: arming state %d", ErrInvalidEnumValue, v.State)
		}
		return encodeTimed(v.TimeSincePower, byte(v.State)), nil

	case ActuatorStatePacket:
		if !v.State.Valid() {
			return nil, fmt.Errorf("%w: actuator state %d", ErrInvalidEnumValue, v.State)
		}
		return encodeTimed(v.TimeSincePower, v.ID, byte(v.State)), nil

	case WarningPacket:
		if !v.Type.Valid() {
			return nil, fmt.Errorf("%w: warning %d", ErrInvalidEnumValue, v.Type)
		}
		return encodeTimed(v.TimeSincePower, byte(v.Type)), nil

	case ActuationRequest:
		if !v.State.Valid() {
			return nil, fmt.Errorf("%w: actuator state %d", ErrInvalidEnumValue, v.State)
		}
		return []byte{v.ID, byte(v.State)}, nil

	case ActuationAcknowledgement:
		if !v.Status.Valid() {
			return nil, fmt.Errorf("%w: actuation status %d", ErrInvalidEnumValue, v.Status)
		}
		return []byte{v.ID, byte(v.Status)}, nil

	case ArmingRequest:
		if !v.Level.Valid() {
			return nil, fmt.Errorf("%w: arming state %d", ErrInvalidEnumValue, v.Level)
		}
		return []byte{byte(v.Level)}, nil

	case ArmingAcknowledgement:
		if !v.Status.Valid() {
			return nil, fmt.Errorf("%w: arming acknowledgement status %d", ErrInvalidEnumValue, v.Status)
		}
		return []byte{byte(v.Status)}, nil
	}
	return nil, fmt.Errorf("padproto: cannot encode %T", m)
}

// EncodePacket returns the header followed by the payload for m.
func EncodePacket(m Message) ([]byte, error) {
	payload, err := EncodeMessage(m)
	if err != nil {
		return nil, err
	}
	hdr := EncodeHeader(m.Header())
	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, hdr[:]...)
	return append(out, payload...), nil
}

func encodeSensor(t uint32, value float64, id uint8) ([]byte, error) {
	if value < 0 || value > math.MaxUint32 || value != math.Trunc(value) {
		return nil, fmt.Errorf("%w: sensor value %v is not a u32 count", ErrMalformedPayload, value)
	}
	buf := make([]byte, 9)
	binary.LittleEndian.PutUint32(buf[0:4], t)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(value))
	buf[8] = id
	return buf, nil
}

func encodeTimed(t uint32, rest ...byte) []byte {
	buf := make([]byte, 4, 4+len(rest))
	binary.LittleEndian.PutUint32(buf, t)
	return append(buf, rest...)
}
