// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package standsim

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

// Server streams a Stand to every connected client.
type Server struct {
	stand    *Stand
	interval time.Duration
	status   time.Duration
	legacy   bool
	logger   zerolog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithInterval sets the telemetry period.
func WithInterval(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithStatusInterval sets the arming and actuator report period.
func WithStatusInterval(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.status = d
		}
	}
}

// WithLegacyFrames streams legacy serial frames instead of typed packets.
// Legacy clients cannot send requests.
func WithLegacyFrames(legacy bool) ServerOption {
	return func(s *Server) {
		s.legacy = legacy
	}
}

// WithServerLogger replaces the global logger.
func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer wraps stand.
func NewServer(stand *Stand, opts ...ServerOption) *Server {
	s := &Server{
		stand:    stand,
		interval: 100 * time.Millisecond,
		status:   1 * time.Second,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve accepts clients on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer conn.Close()
	context.AfterFunc(ctx, func() { _ = conn.Close() })

	logger := s.logger.With().Str("client", conn.RemoteAddr().String()).Logger()
	logger.Info().Bool("legacy", s.legacy).Msg("client connected")
	defer logger.Info().Msg("client disconnected")

	var mu sync.Mutex
	send := func(msgs ...padproto.Message) error {
		mu.Lock()
		defer mu.Unlock()
		for _, m := range msgs {
			b, err := padproto.EncodePacket(m)
			if err != nil {
				return err
			}
			if _, err := conn.Write(b); err != nil {
				return err
			}
		}
		return nil
	}

	if !s.legacy {
		go func() {
			defer cancel()
			s.readRequests(ctx, conn, logger, send)
		}()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	var lastStatus time.Time
	for {
		var err error
		if s.legacy {
			_, err = conn.Write(padproto.EncodeSerialFrame(s.stand.Frame()))
		} else {
			err = send(s.stand.Telemetry()...)
			if err == nil && time.Since(lastStatus) >= s.status {
				lastStatus = time.Now()
				err = send(s.stand.Status()...)
			}
		}
		if err != nil {
			if ctx.Err() == nil {
				logger.Debug().Err(err).Msg("write failed")
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) readRequests(ctx context.Context, conn net.Conn, logger zerolog.Logger, send func(...padproto.Message) error) {
	r := feed.NewReader(conn)
	for {
		res, err := r.Next(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				logger.Debug().Err(err).Msg("read ended")
			}
			return
		}
		if res.Err != nil {
			logger.Warn().Err(res.Err).Hex("raw", res.Raw).Msg("bad request")
			continue
		}
		for _, ev := range res.Events {
			logger.Info().Str("request", padproto.FormatMessage(ev.Message)).Msg("request received")
			if err := send(s.stand.Handle(ev.Message)...); err != nil {
				return
			}
		}
	}
}
