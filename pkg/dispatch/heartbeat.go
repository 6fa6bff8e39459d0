// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dispatch

import (
	"fmt"
	"sync"
)

// DefaultHeartbeatTimeout is the number of ticks (seconds) without an
// actuator state report before the link is considered lost.
const DefaultHeartbeatTimeout = 6

// Heartbeat is a countdown refreshed by actuator state reports and
// decremented once per tick. Safe for concurrent use.
type Heartbeat struct {
	mu        sync.Mutex
	timeout   int
	remaining int
}

// NewHeartbeat creates a heartbeat that starts alive.
func NewHeartbeat(timeout int) *Heartbeat {
	if timeout <= 0 {
		timeout = DefaultHeartbeatTimeout
	}
	return &Heartbeat{timeout: timeout, remaining: timeout}
}

// Reset refills the countdown.
func (h *Heartbeat) Reset() {
	h.mu.Lock()
	h.remaining = h.timeout
	h.mu.Unlock()
}

// Tick decrements the countdown. Once expired it returns a log line counting
// the ticks since expiry, starting at 1, and ok=false.
func (h *Heartbeat) Tick() (line string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.remaining--
	if h.remaining > 0 {
		return "", true
	}
	return fmt.Sprintf("Heartbeat not found for %d seconds", 1-h.remaining), false
}

// Alive reports whether the countdown has not expired.
func (h *Heartbeat) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remaining > 0
}
