// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Thermoquad/padlink/pkg/config"
	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

// PasswordEnv names the variable holding the WebSocket password
const PasswordEnv = "PADLINK_PASSWORD"

// Connection provides a common interface for reading/writing bytes from TCP, serial or WebSocket
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketConnection wraps a WebSocket connection for byte-level reading
type WebSocketConnection struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, ErrConnectionClosed
		}

		// The bridge forwards the stand's byte stream in binary messages
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// OpenTCPConnection dials the stand
func OpenTCPConnection(addr string) (Connection, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn, nil
}

// OpenSerialConnection opens a serial port connection
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return &WebSocketConnection{conn: conn}, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens a TCP, WebSocket or serial connection from the link settings
func OpenConnection(link config.LinkConfig) (Connection, string, error) {
	if link.Addr != "" {
		conn, err := OpenTCPConnection(link.Addr)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("TCP: %s", link.Addr), nil
	}

	if link.URL != "" {
		password := ""
		if link.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(link.URL, link.Username, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("WebSocket: %s", link.URL), nil
	}

	if link.Port != "" {
		conn, err := OpenSerialConnection(link.Port, link.Baud)
		if err != nil {
			return nil, "", err
		}

		info := fmt.Sprintf("Serial: %s @ %d baud", link.Port, link.Baud)
		if link.Legacy {
			info += " (legacy frames)"
		}
		return conn, info, nil
	}

	return nil, "", fmt.Errorf("one of --addr, --url or --port must be specified")
}

// newFramer picks packet or legacy-frame framing for the link
func newFramer(c config.Config) (feed.Framer, error) {
	if !c.Link.Legacy {
		return feed.PacketFramer, nil
	}
	open, err := c.DefaultOpenValves()
	if err != nil {
		return nil, err
	}
	return func(r io.Reader) feed.Source {
		return feed.NewFrameReader(r, open)
	}, nil
}

// linkSession is a running link delivering decoded results
type linkSession struct {
	Results <-chan feed.Result
	Info    string

	writer io.Writer
	errc   chan error
}

// Write sends raw bytes to the stand
func (s *linkSession) Write(p []byte) (int, error) {
	return s.writer.Write(p)
}

// Send encodes and writes one control message
func (s *linkSession) Send(m padproto.Message) error {
	b, err := padproto.EncodePacket(m)
	if err != nil {
		return err
	}
	_, err = s.Write(b)
	return err
}

// Err returns the error that ended the session, once Results is closed
func (s *linkSession) Err() error {
	select {
	case err := <-s.errc:
		return err
	default:
		return nil
	}
}

// startLink connects using cfg and pumps results until ctx is cancelled.
// A TCP link redials on loss; serial and WebSocket links end on loss.
func startLink(ctx context.Context, c config.Config) (*linkSession, error) {
	framer, err := newFramer(c)
	if err != nil {
		return nil, err
	}

	results := make(chan feed.Result, 256)
	session := &linkSession{Results: results, errc: make(chan error, 1)}

	if c.Link.Addr != "" {
		link := feed.StartTCP(ctx, c.Link.Addr, results, feed.WithFramer(framer))
		go func() {
			<-link.Done()
			close(results)
		}()
		session.writer = link
		session.Info = fmt.Sprintf("TCP: %s", c.Link.Addr)
		return session, nil
	}

	conn, info, err := OpenConnection(c.Link)
	if err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	go func() {
		defer close(results)
		defer conn.Close()
		defer stop()
		err := feed.Run(ctx, framer(conn), results)
		if err != nil && ctx.Err() == nil && !errors.Is(err, ErrConnectionClosed) {
			session.errc <- err
		}
	}()

	session.writer = conn
	session.Info = info
	return session, nil
}
