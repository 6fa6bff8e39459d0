// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package feed frames a byte stream from the stand into decoded events.
//
// The packet stream has no sync marker or checksum. Reader consumes a header
// pair, resolves the payload length and reads exactly that many bytes. A bad
// header is reported and the next two bytes are treated as a header.
package feed

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Thermoquad/padlink/pkg/padproto"
)

// Result is one framed unit from the stream.
type Result struct {
	ReceivedAt time.Time
	Raw        []byte
	Events     []padproto.Event
	Serial     *padproto.SerialDataPacket // set for legacy frames
	Calibrated bool                       // event values are engineering units
	Err        error                      // decode failure; the stream is still usable
}

// Source yields framed results. A returned error ends the stream.
type Source interface {
	Next(ctx context.Context) (Result, error)
}

// Reader frames typed packets.
type Reader struct {
	r   io.Reader
	now func() time.Time
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, now: time.Now}
}

// Next blocks until one header has been consumed. ctx is checked between
// reads; cancel a blocking read by closing the underlying reader.
func (r *Reader) Next(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	hdr := make([]byte, padproto.HeaderSize)
	if _, err := io.ReadFull(r.r, hdr); err != nil {
		return Result{}, err
	}
	res := Result{ReceivedAt: r.now(), Raw: hdr}

	h, err := padproto.DecodeHeader(hdr)
	if err != nil {
		res.Err = err
		return res, nil
	}
	n, err := padproto.PayloadLength(h)
	if err != nil {
		res.Err = err
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return Result{}, unexpected(err)
	}
	res.Raw = append(res.Raw, payload...)

	m, err := padproto.DecodeMessage(h, payload)
	if err != nil {
		res.Err = err
		return res, nil
	}
	res.Events = []padproto.Event{{Header: h, Message: m}}
	return res, nil
}

// FrameReader frames fixed-size legacy serial frames.
type FrameReader struct {
	r           io.Reader
	defaultOpen padproto.ValveSet
	now         func() time.Time
	start       time.Time
	timestamp   func() uint32
}

// FrameOption configures a FrameReader.
type FrameOption func(*FrameReader)

// WithTimestamp overrides the frame timestamp source. The default is
// milliseconds since the reader was created.
func WithTimestamp(fn func() uint32) FrameOption {
	return func(f *FrameReader) {
		if fn != nil {
			f.timestamp = fn
		}
	}
}

// NewFrameReader wraps r. defaultOpen names the normally-open valves.
func NewFrameReader(r io.Reader, defaultOpen padproto.ValveSet, opts ...FrameOption) *FrameReader {
	f := &FrameReader{r: r, defaultOpen: defaultOpen, now: time.Now}
	f.start = f.now()
	f.timestamp = func() uint32 {
		return uint32(f.now().Sub(f.start).Milliseconds())
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Next reads one whole frame.
func (f *FrameReader) Next(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	frame := make([]byte, padproto.SerialFrameSize)
	if _, err := io.ReadFull(f.r, frame); err != nil {
		return Result{}, err
	}
	res := Result{ReceivedAt: f.now(), Raw: frame}

	pkt, events, err := padproto.DecodeSerialFrame(frame, f.timestamp(), f.defaultOpen)
	if err != nil {
		res.Err = err
		return res, nil
	}
	res.Serial = &pkt
	res.Calibrated = true
	res.Events = events
	return res, nil
}

// Run pumps src into out until the stream ends or ctx is cancelled. A clean
// end of stream returns nil.
func Run(ctx context.Context, src Source, out chan<- Result) error {
	for {
		res, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		select {
		case out <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// A stream that ends inside a payload is truncated, not cleanly closed.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
