// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package padproto

import (
	"errors"
	"testing"
)

// FuzzDecodePacket checks that arbitrary input never panics and that a
// successful decode always agrees with its header.
func FuzzDecodePacket(f *testing.F) {
	f.Add([]byte{0x01, 0x00, 0xE8, 0x03, 0x00, 0x00, 0xFA, 0x00, 0x00, 0x00, 0x02})
	f.Add([]byte{0x01, 0x04, 0x00, 0x00, 0x00, 0x00, 0x01, 0x01})
	f.Add([]byte{0x00, 0x06, 0x01, 0x01})
	f.Add([]byte{0x00, 0x09, 0x00})
	f.Add([]byte{0x05, 0x00})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		ev, err := DecodePacket(data)
		if err != nil {
			if ErrorKind(err) == KindOther {
				t.Fatalf("unclassified error: %v", err)
			}
			return
		}
		if ev.Message == nil {
			t.Fatal("nil message without error")
		}
		if ev.Message.Header() != ev.Header {
			t.Fatalf("message %T under header %v", ev.Message, ev.Header)
		}
		n, err := PayloadLength(ev.Header)
		if err != nil || len(data) != HeaderSize+n {
			t.Fatalf("decoded %d bytes for %v (length %d, %v)", len(data), ev.Header, n, err)
		}
	})
}

// FuzzDecodeSerialFrame checks the explosion size for any frame.
func FuzzDecodeSerialFrame(f *testing.F) {
	f.Add(make([]byte, SerialFrameSize), uint32(0), uint16(0))
	f.Add(EncodeSerialFrame(RawSerialFrame{Status: 0xFFFFFFFF}), uint32(1000), uint16(0x0FFF))
	f.Add([]byte{0x01}, uint32(0), uint16(1))

	f.Fuzz(func(t *testing.T, frame []byte, ts uint32, open uint16) {
		_, events, err := DecodeSerialFrame(frame, ts, ValveSet(open&valveMask))
		if err != nil {
			if !errors.Is(err, ErrMalformedPayload) || len(frame) >= SerialFrameSize {
				t.Fatalf("unexpected error for %d bytes: %v", len(frame), err)
			}
			return
		}
		if len(events) != 9+ValveCount {
			t.Fatalf("got %d events", len(events))
		}
	})
}
