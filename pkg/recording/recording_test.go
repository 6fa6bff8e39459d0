// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package recording

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

func TestWriterReader_Session(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	messages := []padproto.Message{
		padproto.TemperaturePacket{TimeSincePower: 1000, Temperature: 21.75, ID: 1},
		padproto.PressurePacket{TimeSincePower: 1010, Pressure: 412.5, ID: 2},
		padproto.MassPacket{TimeSincePower: 1020, Mass: -0.25, ID: 1},
		padproto.ArmingStatePacket{TimeSincePower: 1030, State: padproto.ArmedIgnition},
		padproto.ActuatorStatePacket{TimeSincePower: 1040, ID: 14, State: padproto.ActuatorOn},
		padproto.WarningPacket{TimeSincePower: 1050, Type: padproto.WarningHighPressure},
		padproto.ActuationRequest{ID: 3, State: padproto.ActuatorOn},
		padproto.ActuationAcknowledgement{ID: 3, Status: padproto.ActDenied},
		padproto.ArmingRequest{Level: padproto.ArmedLaunch},
		padproto.ArmingAcknowledgement{Status: padproto.ArmOK},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for i, m := range messages {
		require.NoError(t, w.Write(start.Add(time.Duration(i)*time.Millisecond), padproto.NewEvent(m), i == 0))
	}
	assert.Equal(t, len(messages), w.Count())

	r := NewReader(&buf)
	for i, m := range messages {
		rec, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, start.Add(time.Duration(i)*time.Millisecond), rec.Time())
		assert.Equal(t, i == 0, rec.Calibrated)

		ev, err := rec.Event()
		require.NoError(t, err)
		assert.Equal(t, padproto.NewEvent(m), ev)
	}

	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRecord_IntegerKeys(t *testing.T) {
	rec := FromEvent(time.UnixMilli(5), padproto.NewEvent(padproto.ActuatorStatePacket{TimeSincePower: 7, ID: 2, State: padproto.ActuatorOn}), false)
	data, err := cbor.Marshal(rec)
	require.NoError(t, err)

	var m map[int]interface{}
	require.NoError(t, cbor.Unmarshal(data, &m))
	assert.Equal(t, uint64(5), m[0])
	assert.Equal(t, uint64(1), m[1])
	assert.Equal(t, uint64(4), m[2])
	assert.Equal(t, uint64(7), m[3])
	assert.Equal(t, uint64(2), m[4])
	assert.Equal(t, uint64(1), m[6])
	assert.NotContains(t, m, 5)
	assert.NotContains(t, m, 7)
}

func TestRecord_EventRejects(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want error
	}{
		{"bad type", Record{Type: 4}, padproto.ErrInvalidEnumValue},
		{"bad subtype", Record{Type: 1, SubType: 10}, padproto.ErrInvalidEnumValue},
		{"unresolved header", Record{Type: 0, SubType: 0}, padproto.ErrUnresolvedLength},
		{"bad actuator state", Record{Type: 1, SubType: 4, Code: 2}, padproto.ErrInvalidEnumValue},
		{"bad warning", Record{Type: 1, SubType: 5, Code: 9}, padproto.ErrInvalidEnumValue},
		{"bad arm level", Record{Type: 0, SubType: 8, Code: 5}, padproto.ErrInvalidEnumValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rec.Event()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReader_Garbage(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0xff, 0x00})).Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestPlayer_Pacing(t *testing.T) {
	start := time.UnixMilli(1_000)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(start, padproto.NewEvent(padproto.ArmingStatePacket{State: padproto.ArmedPad}), false))
	require.NoError(t, w.Write(start.Add(400*time.Millisecond), padproto.NewEvent(padproto.ArmingStatePacket{State: padproto.ArmedValves}), false))
	require.NoError(t, w.Write(start.Add(1000*time.Millisecond), padproto.NewEvent(padproto.MassPacket{Mass: 1.5, ID: 1}), true))

	p := NewPlayer(NewReader(&buf), 2)
	var slept []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	ctx := context.Background()
	var got []feed.Result
	for {
		res, err := p.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, res)
	}

	require.Len(t, got, 3)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 300 * time.Millisecond}, slept)
	assert.Equal(t, start, got[0].ReceivedAt)
	assert.False(t, got[1].Calibrated)
	assert.True(t, got[2].Calibrated)
	assert.Equal(t, padproto.MassPacket{Mass: 1.5, ID: 1}, got[2].Events[0].Message)
}

func TestPlayer_InvalidRecord(t *testing.T) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	require.NoError(t, enc.Encode(Record{ReceivedAt: 1, Type: 1, SubType: 4, Code: 7}))

	res, err := NewPlayer(NewReader(&buf), 0).Next(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, padproto.ErrInvalidEnumValue)
	assert.Empty(t, res.Events)
}
