// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package recording stores decoded events as a CBOR sequence so a session
// can be replayed later.
//
// Each record is an integer-keyed CBOR map:
//
//	0: receive time (Unix ms)   4: channel or actuator id
//	1: packet type              5: sensor value
//	2: subtype                  6: enum code (state, status, level, warning)
//	3: time since power (ms)    7: value is calibrated (legacy frame)
package recording

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/padlink/pkg/padproto"
)

// Record is one stored event.
type Record struct {
	ReceivedAt     int64   `cbor:"0,keyasint"`
	Type           uint8   `cbor:"1,keyasint"`
	SubType        uint8   `cbor:"2,keyasint"`
	TimeSincePower uint32  `cbor:"3,keyasint,omitempty"`
	ID             uint8   `cbor:"4,keyasint,omitempty"`
	Value          float64 `cbor:"5,keyasint,omitempty"`
	Code           uint8   `cbor:"6,keyasint,omitempty"`
	Calibrated     bool    `cbor:"7,keyasint,omitempty"`
}

// FromEvent flattens ev into a record.
func FromEvent(receivedAt time.Time, ev padproto.Event, calibrated bool) Record {
	r := Record{
		ReceivedAt: receivedAt.UnixMilli(),
		Type:       uint8(ev.Header.Type),
		SubType:    uint8(ev.Header.SubType),
		Calibrated: calibrated,
	}

	switch m := ev.Message.(type) {
	case padproto.TemperaturePacket:
		r.TimeSincePower, r.Value, r.ID = m.TimeSincePower, m.Temperature, m.ID
	case padproto.PressurePacket:
		r.TimeSincePower, r.Value, r.ID = m.TimeSincePower, m.Pressure, m.ID
	case padproto.MassPacket:
		r.TimeSincePower, r.Value, r.ID = m.TimeSincePower, m.Mass, m.ID
	case padproto.ArmingStatePacket:
		r.TimeSincePower, r.Code = m.TimeSincePower, uint8(m.State)
	case padproto.ActuatorStatePacket:
		r.TimeSincePower, r.ID, r.Code = m.TimeSincePower, m.ID, uint8(m.State)
	case padproto.WarningPacket:
		r.TimeSincePower, r.Code = m.TimeSincePower, uint8(m.Type)
	case padproto.ActuationRequest:
		r.ID, r.Code = m.ID, uint8(m.State)
	case padproto.ActuationAcknowledgement:
		r.ID, r.Code = m.ID, uint8(m.Status)
	case padproto.ArmingRequest:
		r.Code = uint8(m.Level)
	case padproto.ArmingAcknowledgement:
		r.Code = uint8(m.Status)
	}
	return r
}

// Time returns the receive time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.ReceivedAt)
}

// Event rebuilds the event, applying the same enum checks as the decoder.
func (r Record) Event() (padproto.Event, error) {
	h := padproto.PacketHeader{Type: padproto.PacketType(r.Type), SubType: padproto.SubType(r.SubType)}
	if !h.Type.Valid() || !h.SubType.Valid() {
		return padproto.Event{}, fmt.Errorf("%w: header %d/%d", padproto.ErrInvalidEnumValue, r.Type, r.SubType)
	}
	if _, err := padproto.PayloadLength(h); err != nil {
		return padproto.Event{}, err
	}

	var m padproto.Message
	switch h.SubType {
	case padproto.SubTemperature:
		m = padproto.TemperaturePacket{TimeSincePower: r.TimeSincePower, Temperature: r.Value, ID: r.ID}
	case padproto.SubPressure:
		m = padproto.PressurePacket{TimeSincePower: r.TimeSincePower, Pressure: r.Value, ID: r.ID}
	case padproto.SubMass:
		m = padproto.MassPacket{TimeSincePower: r.TimeSincePower, Mass: r.Value, ID: r.ID}
	case padproto.SubArmingState:
		s := padproto.ArmingState(r.Code)
		if !s.Valid() {
			return padproto.Event{}, invalidCode("arming state", r.Code)
		}
		m = padproto.ArmingStatePacket{TimeSincePower: r.TimeSincePower, State: s}
	case padproto.SubActState:
		s := padproto.ActuatorState(r.Code)
		if !s.Valid() {
			return padproto.Event{}, invalidCode("actuator state", r.Code)
		}
		m = padproto.ActuatorStatePacket{TimeSincePower: r.TimeSincePower, ID: r.ID, State: s}
	case padproto.SubWarning:
		w := padproto.Warning(r.Code)
		if !w.Valid() {
			return padproto.Event{}, invalidCode("warning", r.Code)
		}
		m = padproto.WarningPacket{TimeSincePower: r.TimeSincePower, Type: w}
	case padproto.SubActReq:
		s := padproto.ActuatorState(r.Code)
		if !s.Valid() {
			return padproto.Event{}, invalidCode("actuator state", r.Code)
		}
		m = padproto.ActuationRequest{ID: r.ID, State: s}
	case padproto.SubActAck:
		s := padproto.ActuationRequestStatus(r.Code)
		if !s.Valid() {
			return padproto.Event{}, invalidCode("actuation status", r.Code)
		}
		m = padproto.ActuationAcknowledgement{ID: r.ID, Status: s}
	case padproto.SubArmReq:
		l := padproto.ArmingState(r.Code)
		if !l.Valid() {
			return padproto.Event{}, invalidCode("arming level", r.Code)
		}
		m = padproto.ArmingRequest{Level: l}
	case padproto.SubArmAck:
		s := padproto.AcknowledgementStatus(r.Code)
		if !s.Valid() {
			return padproto.Event{}, invalidCode("arming status", r.Code)
		}
		m = padproto.ArmingAcknowledgement{Status: s}
	}
	return padproto.Event{Header: h, Message: m}, nil
}

func invalidCode(what string, code uint8) error {
	return fmt.Errorf("%w: %s %d", padproto.ErrInvalidEnumValue, what, code)
}

// Writer appends records to a stream.
type Writer struct {
	enc   *cbor.Encoder
	count int
}

// NewWriter writes records to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

// Write appends one event.
func (w *Writer) Write(receivedAt time.Time, ev padproto.Event, calibrated bool) error {
	if err := w.enc.Encode(FromEvent(receivedAt, ev, calibrated)); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Reader reads records back in order.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader reads records from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("read record: %w", err)
	}
	return rec, nil
}
