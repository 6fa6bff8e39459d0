// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package standsim simulates a test stand for bench work without hardware.
//
// The simulated stand reports sensor readings and actuator states, honours
// arming and actuation requests, and can also render its state as a legacy
// serial frame.
package standsim

import (
	"math"
	"sync"
	"time"

	"github.com/Thermoquad/padlink/pkg/dispatch"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

// ActuatorCount covers the valves plus the quick disconnect and igniter.
const ActuatorCount = dispatch.IgniterID + 1

// Stand is the simulated stand state. It is safe for concurrent use.
type Stand struct {
	mu          sync.Mutex
	now         func() time.Time
	start       time.Time
	arming      padproto.ArmingState
	actuators   [ActuatorCount]padproto.ActuatorState
	defaultOpen padproto.ValveSet
}

// NewStand returns a stand at ARMED_PAD. Valves in defaultOpen start open.
func NewStand(defaultOpen padproto.ValveSet) *Stand {
	s := &Stand{now: time.Now, defaultOpen: defaultOpen}
	s.start = s.now()
	for _, i := range defaultOpen.Indices() {
		s.actuators[i] = padproto.ActuatorOn
	}
	return s
}

func (s *Stand) sincePower() uint32 {
	return uint32(s.now().Sub(s.start).Milliseconds())
}

// Arming returns the current arming level.
func (s *Stand) Arming() padproto.ArmingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arming
}

// Actuator returns the state of actuator id.
func (s *Stand) Actuator(id uint8) padproto.ActuatorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(id) >= ActuatorCount {
		return padproto.ActuatorOff
	}
	return s.actuators[id]
}

// counts produces slowly varying raw readings around fixed operating points.
func (s *Stand) counts(t uint32) (mass [2]uint16, pressure [4]uint16, temp [3]uint16) {
	phase := float64(t) / 1000.0
	wobble := func(center, amp, period float64) uint16 {
		v := center + amp*math.Sin(2*math.Pi*phase/period)
		return uint16(math.Round(math.Max(0, math.Min(65535, v))))
	}

	mass[0] = wobble(12000, 50, 7)
	mass[1] = wobble(32768+1200, 20, 11)
	for i := range pressure {
		base := 6553.5 + float64(i)*3000
		if s.actuators[dispatch.FireValveID] == padproto.ActuatorOn {
			base += 15000
		}
		pressure[i] = wobble(base, 150, 3+float64(i))
	}
	temp[0] = wobble(32768, 400, 13)
	temp[1] = wobble(32768, 300, 17)
	temp[2] = wobble(24800, 100, 19)
	return mass, pressure, temp
}

// Telemetry returns one round of sensor readings in engineering units:
// masses, pressures and then temperatures. The link carries unsigned
// integers, so values are rounded and negative readings sent as 0.
func (s *Stand) Telemetry() []padproto.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.sincePower()
	cal := s.rawFrame(t).Calibrate()

	msgs := make([]padproto.Message, 0, 9)
	for i, v := range []float64{cal.M1, cal.M2} {
		msgs = append(msgs, padproto.MassPacket{TimeSincePower: t, Mass: wireValue(v), ID: uint8(i + 1)})
	}
	for i, v := range []float64{cal.P1, cal.P2, cal.P3, cal.P4} {
		msgs = append(msgs, padproto.PressurePacket{TimeSincePower: t, Pressure: wireValue(v), ID: uint8(i + 1)})
	}
	for i, v := range []float64{cal.T1, cal.T2, cal.T3} {
		msgs = append(msgs, padproto.TemperaturePacket{TimeSincePower: t, Temperature: wireValue(v), ID: uint8(i + 1)})
	}
	return msgs
}

func wireValue(v float64) float64 {
	return math.Max(0, math.Round(v))
}

// Status returns the arming state followed by every actuator state. The
// ground station treats actuator reports as the link heartbeat.
func (s *Stand) Status() []padproto.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.sincePower()
	msgs := make([]padproto.Message, 0, 1+ActuatorCount)
	msgs = append(msgs, padproto.ArmingStatePacket{TimeSincePower: t, State: s.arming})
	for id, state := range s.actuators {
		msgs = append(msgs, padproto.ActuatorStatePacket{TimeSincePower: t, ID: uint8(id), State: state})
	}
	return msgs
}

// Frame renders the current state as a legacy serial frame.
func (s *Stand) Frame() padproto.RawSerialFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawFrame(s.sincePower())
}

// rawFrame builds the raw counts and valve bits at t. Callers hold mu.
func (s *Stand) rawFrame(t uint32) padproto.RawSerialFrame {
	mass, pressure, temp := s.counts(t)

	var bits padproto.ValveBits
	for i := 0; i < padproto.ValveCount; i++ {
		on := s.actuators[i] == padproto.ActuatorOn
		if on != s.defaultOpen.Has(i) {
			bits |= 1 << i
		}
	}

	return padproto.RawSerialFrame{
		M1: mass[0], M2: mass[1],
		P1: pressure[0], P2: pressure[1], P3: pressure[2], P4: pressure[3],
		T1: temp[0], T2: temp[1], T3: temp[2],
		Status: padproto.StatusWord(bits),
	}
}

// Handle applies a control request and returns the stand's replies.
// Non-request messages are ignored.
//
// Arming may rise one level at a time and drop to any lower level. Valves
// need ARMED_VALVES and the igniter needs ARMED_IGNITION.
func (s *Stand) Handle(m padproto.Message) []padproto.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req := m.(type) {
	case padproto.ArmingRequest:
		if !req.Level.Valid() || req.Level > s.arming+1 {
			return []padproto.Message{padproto.ArmingAcknowledgement{Status: padproto.ArmDenied}}
		}
		s.arming = req.Level
		return []padproto.Message{
			padproto.ArmingAcknowledgement{Status: padproto.ArmOK},
			padproto.ArmingStatePacket{TimeSincePower: s.sincePower(), State: s.arming},
		}

	case padproto.ActuationRequest:
		status := s.permit(req)
		ack := padproto.ActuationAcknowledgement{ID: req.ID, Status: status}
		if status != padproto.ActOK {
			return []padproto.Message{ack}
		}
		s.actuators[req.ID] = req.State
		return []padproto.Message{
			ack,
			padproto.ActuatorStatePacket{TimeSincePower: s.sincePower(), ID: req.ID, State: req.State},
		}
	}
	return nil
}

func (s *Stand) permit(req padproto.ActuationRequest) padproto.ActuationRequestStatus {
	switch {
	case int(req.ID) >= ActuatorCount:
		return padproto.ActDoesNotExist
	case !req.State.Valid():
		return padproto.ActInvalid
	case req.ID == dispatch.IgniterID && s.arming < padproto.ArmedIgnition:
		return padproto.ActDenied
	case s.arming < padproto.ArmedValves:
		return padproto.ActDenied
	}
	return padproto.ActOK
}
