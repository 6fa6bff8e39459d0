// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package padproto

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ValveBits holds the 12 valve status bits of a legacy frame.
// Bit i is valve i.
type ValveBits uint16

// Bit returns the raw status bit of valve i.
func (v ValveBits) Bit(i int) bool {
	return v&(1<<uint(i)) != 0
}

// String renders the bits valve 0 first, e.g. "100000000000" for valve 0 set.
func (v ValveBits) String() string {
	var b strings.Builder
	for i := 0; i < ValveCount; i++ {
		if v.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// ValveSet is a set of valve indices (0-11). The zero value is empty.
type ValveSet uint16

// NewValveSet builds a set from indices, rejecting any outside 0-11.
func NewValveSet(indices ...int) (ValveSet, error) {
	var s ValveSet
	for _, i := range indices {
		if i < 0 || i >= ValveCount {
			return 0, fmt.Errorf("valve index %d out of range 0-%d", i, ValveCount-1)
		}
		s |= 1 << uint(i)
	}
	return s, nil
}

// Has reports whether valve i is in the set.
func (s ValveSet) Has(i int) bool {
	if i < 0 || i >= ValveCount {
		return false
	}
	return s&(1<<uint(i)) != 0
}

// Indices returns the members in ascending order.
func (s ValveSet) Indices() []int {
	out := []int{}
	for i := 0; i < ValveCount; i++ {
		if s.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// ValveState maps a raw status bit to the logical actuator state. A
// default-open valve reads ON when its bit is clear.
func ValveState(bit, defaultOpen bool) ActuatorState {
	if bit != defaultOpen {
		return ActuatorOn
	}
	return ActuatorOff
}

// SerialDataPacket is one legacy frame in engineering units.
type SerialDataPacket struct {
	M1, M2         float64 // kg
	P1, P2, P3, P4 float64 // psi
	T1, T2, T3     float64 // °C
	Valves         ValveBits
}

// RawSerialFrame is the undecoded content of a legacy frame.
type RawSerialFrame struct {
	M1, M2         uint16
	P1, P2, P3, P4 uint16
	T1, T2, T3     uint16
	Status         uint32
}

// unpackSerialFrame reads the frame fields. Mass channels are sent m2 first.
func unpackSerialFrame(frame []byte) RawSerialFrame {
	f := frame[serialSkip:]
	u16 := func(i int) uint16 { return binary.LittleEndian.Uint16(f[i*2:]) }
	return RawSerialFrame{
		M2:     u16(0),
		M1:     u16(1),
		P1:     u16(2),
		P2:     u16(3),
		P3:     u16(4),
		P4:     u16(5),
		T1:     u16(6),
		T2:     u16(7),
		T3:     u16(8),
		Status: binary.LittleEndian.Uint32(f[18:22]),
	}
}

// EncodeSerialFrame builds a legacy frame from raw values. The 4 leading
// bytes are left zero.
func EncodeSerialFrame(r RawSerialFrame) []byte {
	buf := make([]byte, SerialFrameSize)
	f := buf[serialSkip:]
	for i, v := range []uint16{r.M2, r.M1, r.P1, r.P2, r.P3, r.P4, r.T1, r.T2, r.T3} {
		binary.LittleEndian.PutUint16(f[i*2:], v)
	}
	binary.LittleEndian.PutUint32(f[18:22], r.Status)
	return buf
}

// StatusWord packs valve bits into the upper half of a status field, the
// inverse of what DecodeSerialFrame reads.
func StatusWord(v ValveBits) uint32 {
	return uint32(v&valveMask) << 16
}

// Calibrate converts raw counts into engineering units. Only the low 12 bits
// of the status word's upper half carry valves; the rest are dropped.
func (r RawSerialFrame) Calibrate() SerialDataPacket {
	return SerialDataPacket{
		M1:     MassLinear(r.M1),
		M2:     LoadCell(r.M2),
		P1:     Pressure(r.P1),
		P2:     Pressure(r.P2),
		P3:     Pressure(r.P3),
		P4:     Pressure(r.P4),
		T1:     Thermistor(r.T1),
		T2:     Thermistor2(r.T2),
		T3:     Thermocouple(r.T3),
		Valves: ValveBits((r.Status >> 16) & valveMask),
	}
}

// Events explodes the snapshot into one event per channel, stamped with
// timestamp: masses m1-m2, pressures p1-p4, temperatures t1-t3 and then
// valves 0-11. The order never changes.
func (s SerialDataPacket) Events(timestamp uint32, defaultOpen ValveSet) []Event {
	events := make([]Event, 0, 9+ValveCount)

	for i, v := range []float64{s.M1, s.M2} {
		events = append(events, NewEvent(MassPacket{TimeSincePower: timestamp, Mass: v, ID: uint8(i + 1)}))
	}
	for i, v := range []float64{s.P1, s.P2, s.P3, s.P4} {
		events = append(events, NewEvent(PressurePacket{TimeSincePower: timestamp, Pressure: v, ID: uint8(i + 1)}))
	}
	for i, v := range []float64{s.T1, s.T2, s.T3} {
		events = append(events, NewEvent(TemperaturePacket{TimeSincePower: timestamp, Temperature: v, ID: uint8(i + 1)}))
	}
	for i := 0; i < ValveCount; i++ {
		events = append(events, NewEvent(ActuatorStatePacket{
			TimeSincePower: timestamp,
			ID:             uint8(i),
			State:          ValveState(s.Valves.Bit(i), defaultOpen.Has(i)),
		}))
	}

	return events
}

// DecodeSerialFrame decodes a legacy multi-channel frame. Bytes past
// SerialFrameSize are ignored.
func DecodeSerialFrame(frame []byte, timestamp uint32, defaultOpen ValveSet) (SerialDataPacket, []Event, error) {
	if len(frame) < SerialFrameSize {
		return SerialDataPacket{}, nil, fmt.Errorf("%w: serial frame is %d bytes, expected %d", ErrMalformedPayload, len(frame), SerialFrameSize)
	}
	packet := unpackSerialFrame(frame).Calibrate()
	return packet, packet.Events(timestamp, defaultOpen), nil
}
