// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package feed

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/padlink/pkg/padproto"
)

func mustEncode(t *testing.T, m padproto.Message) []byte {
	t.Helper()
	b, err := padproto.EncodePacket(m)
	require.NoError(t, err)
	return b
}

func TestReader_Stream(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(mustEncode(t, padproto.TemperaturePacket{TimeSincePower: 1000, Temperature: 25, ID: 1}))
	stream.Write([]byte{0x07, 0x00}) // invalid type
	stream.Write([]byte{0x00, 0x00}) // CONTROL/TEMPERATURE has no length
	stream.Write(mustEncode(t, padproto.PressurePacket{TimeSincePower: 1500, Pressure: 412, ID: 2}))

	r := NewReader(&stream)
	ctx := context.Background()

	res, err := r.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, padproto.TemperaturePacket{TimeSincePower: 1000, Temperature: 25, ID: 1}, res.Events[0].Message)
	assert.Len(t, res.Raw, padproto.HeaderSize+9)

	res, err = r.Next(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, padproto.ErrInvalidEnumValue)
	assert.Equal(t, []byte{0x07, 0x00}, res.Raw)
	assert.Empty(t, res.Events)

	res, err = r.Next(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, padproto.ErrUnresolvedLength)

	res, err = r.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, padproto.PressurePacket{TimeSincePower: 1500, Pressure: 412, ID: 2}, res.Events[0].Message)

	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_InvalidPayloadEnum(t *testing.T) {
	raw := []byte{0x01, 0x04, 0, 0, 0, 0, 3, 9} // ACT_STATE with state 9
	res, err := NewReader(bytes.NewReader(raw)).Next(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, padproto.ErrInvalidEnumValue)
	assert.Equal(t, raw, res.Raw)
}

func TestReader_TruncatedPayload(t *testing.T) {
	raw := mustEncode(t, padproto.MassPacket{TimeSincePower: 1, Mass: 2, ID: 1})
	_, err := NewReader(bytes.NewReader(raw[:5])).Next(context.Background())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader(bytes.NewReader(nil)).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFrameReader(t *testing.T) {
	raw := padproto.RawSerialFrame{M1: 1000, M2: 32768 + 300, Status: padproto.StatusWord(0b1)}
	stream := append(padproto.EncodeSerialFrame(raw), padproto.EncodeSerialFrame(raw)...)

	ts := uint32(0)
	fr := NewFrameReader(bytes.NewReader(stream), 0, WithTimestamp(func() uint32 {
		ts += 100
		return ts
	}))

	for _, want := range []uint32{100, 200} {
		res, err := fr.Next(context.Background())
		require.NoError(t, err)
		require.NoError(t, res.Err)
		require.NotNil(t, res.Serial)
		assert.True(t, res.Calibrated)
		require.Len(t, res.Events, 9+padproto.ValveCount)

		assert.Equal(t, 1.0, res.Serial.M1)
		assert.InDelta(t, 3.0, res.Serial.M2, 1e-9)
		first, ok := res.Events[0].Message.(padproto.MassPacket)
		require.True(t, ok)
		assert.Equal(t, want, first.TimeSincePower)

		valve0, ok := res.Events[9].Message.(padproto.ActuatorStatePacket)
		require.True(t, ok)
		assert.Equal(t, padproto.ActuatorOn, valve0.State)
	}

	_, err := fr.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestRun_DeliversUntilEOF(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(mustEncode(t, padproto.ArmingStatePacket{TimeSincePower: 5, State: padproto.ArmedPad}))
	stream.Write(mustEncode(t, padproto.WarningPacket{TimeSincePower: 6, Type: padproto.WarningHighTemp}))

	out := make(chan Result, 4)
	require.NoError(t, Run(context.Background(), NewReader(&stream), out))
	close(out)

	var got []padproto.Message
	for res := range out {
		require.Len(t, res.Events, 1)
		got = append(got, res.Events[0].Message)
	}
	assert.Equal(t, []padproto.Message{
		padproto.ArmingStatePacket{TimeSincePower: 5, State: padproto.ArmedPad},
		padproto.WarningPacket{TimeSincePower: 6, Type: padproto.WarningHighTemp},
	}, got)
}

func TestRun_TruncatedStream(t *testing.T) {
	out := make(chan Result, 1)
	err := Run(context.Background(), NewReader(bytes.NewReader([]byte{0x01, 0x00, 0x01})), out)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestStartTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	pkt := mustEncode(t, padproto.ActuatorStatePacket{TimeSincePower: 42, ID: 3, State: padproto.ActuatorOn})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write(pkt)
		time.Sleep(100 * time.Millisecond)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Result, 1)
	link := StartTCP(ctx, ln.Addr().String(), out,
		WithReconnectInterval(10*time.Millisecond),
		WithLogger(zerolog.Nop()))

	select {
	case res := <-out:
		require.NoError(t, res.Err)
		require.Len(t, res.Events, 1)
		assert.Equal(t, padproto.ActuatorStatePacket{TimeSincePower: 42, ID: 3, State: padproto.ActuatorOn}, res.Events[0].Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no result from link")
	}

	cancel()
	select {
	case <-link.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("link did not stop")
	}
}

func TestTCPLink_WriteWithoutConnection(t *testing.T) {
	l := &TCPLink{}
	_, err := l.Write([]byte{0})
	assert.ErrorIs(t, err, net.ErrClosed)
}
