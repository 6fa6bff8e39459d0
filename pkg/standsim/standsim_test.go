// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package standsim

import (
	"context"
	"math"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

func TestStand_ArmingSteps(t *testing.T) {
	s := NewStand(0)

	replies := s.Handle(padproto.ArmingRequest{Level: padproto.ArmedIgnition})
	assert.Equal(t, []padproto.Message{padproto.ArmingAcknowledgement{Status: padproto.ArmDenied}}, replies)
	assert.Equal(t, padproto.ArmedPad, s.Arming())

	replies = s.Handle(padproto.ArmingRequest{Level: padproto.ArmedValves})
	require.Len(t, replies, 2)
	assert.Equal(t, padproto.ArmingAcknowledgement{Status: padproto.ArmOK}, replies[0])
	assert.Equal(t, padproto.ArmedValves, s.Arming())

	replies = s.Handle(padproto.ArmingRequest{Level: padproto.ArmedPad})
	require.Len(t, replies, 2)
	assert.Equal(t, padproto.ArmedPad, s.Arming())
}

func TestStand_Actuation(t *testing.T) {
	s := NewStand(0)

	ack := s.Handle(padproto.ActuationRequest{ID: 3, State: padproto.ActuatorOn})
	assert.Equal(t, []padproto.Message{padproto.ActuationAcknowledgement{ID: 3, Status: padproto.ActDenied}}, ack)

	ack = s.Handle(padproto.ActuationRequest{ID: 20, State: padproto.ActuatorOn})
	assert.Equal(t, []padproto.Message{padproto.ActuationAcknowledgement{ID: 20, Status: padproto.ActDoesNotExist}}, ack)

	s.Handle(padproto.ArmingRequest{Level: padproto.ArmedValves})
	replies := s.Handle(padproto.ActuationRequest{ID: 3, State: padproto.ActuatorOn})
	require.Len(t, replies, 2)
	assert.Equal(t, padproto.ActuationAcknowledgement{ID: 3, Status: padproto.ActOK}, replies[0])
	state, ok := replies[1].(padproto.ActuatorStatePacket)
	require.True(t, ok)
	assert.Equal(t, uint8(3), state.ID)
	assert.Equal(t, padproto.ActuatorOn, s.Actuator(3))

	ack = s.Handle(padproto.ActuationRequest{ID: 14, State: padproto.ActuatorOn})
	assert.Equal(t, []padproto.Message{padproto.ActuationAcknowledgement{ID: 14, Status: padproto.ActDenied}}, ack)

	assert.Nil(t, s.Handle(padproto.WarningPacket{}))
}

func TestStand_TelemetryEncodes(t *testing.T) {
	s := NewStand(0)
	msgs := s.Telemetry()
	require.Len(t, msgs, 9)
	status := s.Status()
	require.Len(t, status, 1+ActuatorCount)
	arming, ok := status[0].(padproto.ArmingStatePacket)
	require.True(t, ok)
	assert.Equal(t, padproto.ArmedPad, arming.State)
	for _, m := range append(msgs, status...) {
		_, err := padproto.EncodePacket(m)
		assert.NoError(t, err, "%T", m)
	}
}

func TestStand_TelemetryEngineeringUnits(t *testing.T) {
	s := NewStand(0)
	s.Handle(padproto.ArmingRequest{Level: padproto.ArmedValves})
	s.Handle(padproto.ActuationRequest{ID: 0, State: padproto.ActuatorOn})

	for _, m := range s.Telemetry() {
		ev := padproto.NewEvent(m)
		assert.Empty(t, padproto.ValidateEvent(ev), padproto.FormatMessage(m))

		var v float64
		switch r := m.(type) {
		case padproto.MassPacket:
			v = r.Mass
			assert.InDelta(t, 12, v, 1, "m%d", r.ID)
		case padproto.PressurePacket:
			v = r.Pressure
			assert.Greater(t, v, 0.0, "p%d", r.ID)
		case padproto.TemperaturePacket:
			v = r.Temperature
			if r.ID != 3 {
				assert.InDelta(t, 25, v, 3, "t%d", r.ID)
			}
		}
		assert.Equal(t, math.Round(v), v)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestStand_FrameRoundTrip(t *testing.T) {
	open, err := padproto.NewValveSet(2)
	require.NoError(t, err)
	s := NewStand(open)
	s.Handle(padproto.ArmingRequest{Level: padproto.ArmedValves})
	s.Handle(padproto.ActuationRequest{ID: 5, State: padproto.ActuatorOn})

	_, events, err := padproto.DecodeSerialFrame(padproto.EncodeSerialFrame(s.Frame()), 0, open)
	require.NoError(t, err)

	for _, ev := range events[9:] {
		st := ev.Message.(padproto.ActuatorStatePacket)
		assert.Equal(t, s.Actuator(st.ID), st.State, "valve %d", st.ID)
	}
	assert.Equal(t, padproto.ActuatorOn, s.Actuator(2))
}

func TestServer_RequestRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer(NewStand(0), WithInterval(20*time.Millisecond), WithServerLogger(zerolog.Nop()))
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	req, err := padproto.EncodePacket(padproto.ArmingRequest{Level: padproto.ArmedValves})
	require.NoError(t, err)
	_, err = conn.Write(req)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	r := feed.NewReader(conn)
	for {
		res, err := r.Next(ctx)
		require.NoError(t, err)
		require.NoError(t, res.Err)
		if ack, ok := res.Events[0].Message.(padproto.ArmingAcknowledgement); ok {
			assert.Equal(t, padproto.ArmOK, ack.Status)
			break
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
