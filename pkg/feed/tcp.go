// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package feed

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Framer builds a Source over a freshly dialed connection.
type Framer func(io.Reader) Source

// PacketFramer frames typed packets.
func PacketFramer(r io.Reader) Source { return NewReader(r) }

// TCPLink dials the stand and keeps redialing with linear backoff until its
// context is cancelled.
type TCPLink struct {
	addr         string
	framer       Framer
	out          chan<- Result
	reconnect    time.Duration
	reconnectMax time.Duration
	dialTimeout  time.Duration
	logger       zerolog.Logger
	onConnect    func(net.Conn)

	mu   sync.Mutex
	conn net.Conn
	done chan struct{}
}

// Option configures a TCPLink.
type Option func(*TCPLink)

// WithReconnectInterval sets the backoff step.
func WithReconnectInterval(d time.Duration) Option {
	return func(l *TCPLink) {
		if d > 0 {
			l.reconnect = d
		}
	}
}

// WithReconnectMax caps the backoff.
func WithReconnectMax(d time.Duration) Option {
	return func(l *TCPLink) {
		if d > 0 {
			l.reconnectMax = d
		}
	}
}

// WithDialTimeout bounds each dial attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(l *TCPLink) {
		if d > 0 {
			l.dialTimeout = d
		}
	}
}

// WithFramer selects how the byte stream is framed. Defaults to PacketFramer.
func WithFramer(f Framer) Option {
	return func(l *TCPLink) {
		if f != nil {
			l.framer = f
		}
	}
}

// WithLogger replaces the global logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *TCPLink) {
		l.logger = logger
	}
}

// WithOnConnect is called after every successful dial.
func WithOnConnect(fn func(net.Conn)) Option {
	return func(l *TCPLink) {
		l.onConnect = fn
	}
}

// StartTCP dials addr in the background and delivers results to out.
func StartTCP(ctx context.Context, addr string, out chan<- Result, opts ...Option) *TCPLink {
	l := &TCPLink{
		addr:         addr,
		framer:       PacketFramer,
		out:          out,
		reconnect:    1 * time.Second,
		reconnectMax: 30 * time.Second,
		dialTimeout:  5 * time.Second,
		logger:       log.Logger,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.run(ctx)
	return l
}

// Write sends b on the current connection.
func (l *TCPLink) Write(b []byte) (int, error) {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return 0, net.ErrClosed
	}
	return conn.Write(b)
}

// Done is closed once the link has stopped.
func (l *TCPLink) Done() <-chan struct{} {
	return l.done
}

func (l *TCPLink) run(ctx context.Context) {
	defer close(l.done)

	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		var d net.Dialer
		dctx, cancel := context.WithTimeout(ctx, l.dialTimeout)
		conn, err := d.DialContext(dctx, "tcp", l.addr)
		cancel()
		if err != nil {
			attempt++
			l.logger.Warn().Err(err).Str("addr", l.addr).Int("attempt", attempt).Msg("dial failed")
			l.sleepBackoff(ctx, attempt)
			continue
		}

		attempt = 0
		l.logger.Info().Str("addr", l.addr).Msg("connected")
		l.setConn(conn)
		if l.onConnect != nil {
			l.onConnect(conn)
		}

		err = l.handleConn(ctx, conn)
		l.setConn(nil)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.logger.Warn().Err(err).Str("addr", l.addr).Msg("connection lost")
		} else {
			l.logger.Info().Str("addr", l.addr).Msg("connection closed by peer")
		}
		l.sleepBackoff(ctx, 1)
	}
}

func (l *TCPLink) handleConn(ctx context.Context, conn net.Conn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	return Run(ctx, l.framer(conn), l.out)
}

func (l *TCPLink) setConn(conn net.Conn) {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
}

func (l *TCPLink) sleepBackoff(ctx context.Context, attempt int) {
	wait := min(l.reconnect*time.Duration(attempt), l.reconnectMax)
	timer := time.NewTimer(wait)
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	timer.Stop()
}
