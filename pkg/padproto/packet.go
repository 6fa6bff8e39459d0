// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package padproto

import "fmt"

// PacketHeader identifies a packet's payload shape and length.
type PacketHeader struct {
	Type    PacketType
	SubType SubType
}

func (h PacketHeader) String() string {
	return fmt.Sprintf("%s/%s", h.Type, h.SubType)
}

// Message is one decoded payload. The set of implementations is closed:
// every variant lives in this file.
type Message interface {
	// Header returns the header this message is carried under.
	Header() PacketHeader
	isMessage()
}

// Event is a decoded (header, message) pair as delivered to consumers.
type Event struct {
	Header  PacketHeader
	Message Message
}

// NewEvent pairs m with its own header.
func NewEvent(m Message) Event {
	return Event{Header: m.Header(), Message: m}
}

// Telemetry variants

// TemperaturePacket is a temperature reading in °C.
type TemperaturePacket struct {
	TimeSincePower uint32
	Temperature    float64
	ID             uint8
}

// PressurePacket is a pressure reading in psi.
type PressurePacket struct {
	TimeSincePower uint32
	Pressure       float64
	ID             uint8
}

// MassPacket is a mass reading in kg.
type MassPacket struct {
	TimeSincePower uint32
	Mass           float64
	ID             uint8
}

// ArmingStatePacket reports the stand's current arming level.
type ArmingStatePacket struct {
	TimeSincePower uint32
	State          ArmingState
}

// ActuatorStatePacket reports the state of one actuator.
type ActuatorStatePacket struct {
	TimeSincePower uint32
	ID             uint8
	State          ActuatorState
}

// WarningPacket raises a warning condition.
type WarningPacket struct {
	TimeSincePower uint32
	Type           Warning
}

// Control variants

// ActuationRequest asks the stand to drive actuator ID to State.
type ActuationRequest struct {
	ID    uint8
	State ActuatorState
}

// ActuationAcknowledgement answers an ActuationRequest.
type ActuationAcknowledgement struct {
	ID     uint8
	Status ActuationRequestStatus
}

// ArmingRequest asks the stand to move to arming Level.
type ArmingRequest struct {
	Level ArmingState
}

// ArmingAcknowledgement answers an ArmingRequest.
type ArmingAcknowledgement struct {
	Status AcknowledgementStatus
}

var (
	hdrTemperature = PacketHeader{TypeTelemetry, SubTemperature}
	hdrPressure    = PacketHeader{TypeTelemetry, SubPressure}
	hdrMass        = PacketHeader{TypeTelemetry, SubMass}
	hdrArmingState = PacketHeader{TypeTelemetry, SubArmingState}
	hdrActState    = PacketHeader{TypeTelemetry, SubActState}
	hdrWarning     = PacketHeader{TypeTelemetry, SubWarning}
	hdrActReq      = PacketHeader{TypeControl, SubActReq}
	hdrActAck      = PacketHeader{TypeControl, SubActAck}
	hdrArmReq      = PacketHeader{TypeControl, SubArmReq}
	hdrArmAck      = PacketHeader{TypeControl, SubArmAck}
)

func (TemperaturePacket) Header() PacketHeader        { return hdrTemperature }
func (PressurePacket) Header() PacketHeader           { return hdrPressure }
func (MassPacket) Header() PacketHeader               { return hdrMass }
func (ArmingStatePacket) Header() PacketHeader        { return hdrArmingState }
func (ActuatorStatePacket) Header() PacketHeader      { return hdrActState }
func (WarningPacket) Header() PacketHeader            { return hdrWarning }
func (ActuationRequest) Header() PacketHeader         { return hdrActReq }
func (ActuationAcknowledgement) Header() PacketHeader { return hdrActAck }
func (ArmingRequest) Header() PacketHeader            { return hdrArmReq }
func (ArmingAcknowledgement) Header() PacketHeader    { return hdrArmAck }

func (TemperaturePacket) isMessage()        {}
func (PressurePacket) isMessage()           {}
func (MassPacket) isMessage()               {}
func (ArmingStatePacket) isMessage()        {}
func (ActuatorStatePacket) isMessage()      {}
func (WarningPacket) isMessage()            {}
func (ActuationRequest) isMessage()         {}
func (ActuationAcknowledgement) isMessage() {}
func (ArmingRequest) isMessage()            {}
func (ArmingAcknowledgement) isMessage()    {}

// payloadLengths is the total length table. The decoder accepts exactly the
// headers listed here.
var payloadLengths = map[PacketHeader]int{
	hdrTemperature: 9,
	hdrPressure:    9,
	hdrMass:        9,
	hdrActState:    6,
	hdrArmingState: 5,
	hdrWarning:     5,
	hdrActReq:      2,
	hdrActAck:      2,
	hdrArmReq:      1,
	hdrArmAck:      1,
}

// knownHeaders is payloadLengths in wire order.
var knownHeaders = []PacketHeader{
	hdrTemperature, hdrPressure, hdrMass, hdrArmingState, hdrActState, hdrWarning,
	hdrActReq, hdrActAck, hdrArmReq, hdrArmAck,
}

// PayloadLength returns the number of payload bytes that follow header h.
func PayloadLength(h PacketHeader) (int, error) {
	n, ok := payloadLengths[h]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnresolvedLength, h)
	}
	return n, nil
}

// KnownHeaders returns every header with a payload length, in subtype order.
func KnownHeaders() []PacketHeader {
	out := make([]PacketHeader, len(knownHeaders))
	copy(out, knownHeaders)
	return out
}

// DecodeHeader decodes the 2-byte packet header (type, subtype).
func DecodeHeader(b []byte) (PacketHeader, error) {
	if len(b) != HeaderSize {
		return PacketHeader{}, fmt.Errorf("%w: header is %d bytes, expected %d", ErrMalformedPayload, len(b), HeaderSize)
	}
	t, err := parsePacketType(b[0])
	if err != nil {
		return PacketHeader{}, err
	}
	s, err := parseSubType(b[1])
	if err != nil {
		return PacketHeader{}, err
	}
	return PacketHeader{Type: t, SubType: s}, nil
}

// EncodeHeader returns the wire form of h.
func EncodeHeader(h PacketHeader) [HeaderSize]byte {
	return [HeaderSize]byte{byte(h.Type), byte(h.SubType)}
}
