// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dispatch

import (
	"sort"
	"time"

	"github.com/Thermoquad/padlink/pkg/padproto"
)

// Point is one plotted reading
type Point struct {
	Time  uint32 // ms since power-on
	Value float64
}

// PlotBuffer keeps a sliding time window of points per series.
type PlotBuffer struct {
	timeRange uint32
	series    map[string][]Point
}

// NewPlotBuffer keeps points no older than timeRange ms behind the newest
// point of each series. Zero keeps everything.
func NewPlotBuffer(timeRange uint32) *PlotBuffer {
	return &PlotBuffer{timeRange: timeRange, series: make(map[string][]Point)}
}

// Add appends a point to series key.
func (b *PlotBuffer) Add(key string, t uint32, v float64) {
	b.series[key] = append(b.series[key], Point{Time: t, Value: v})
}

// Trim drops points older than the window in every series.
func (b *PlotBuffer) Trim() {
	if b.timeRange == 0 {
		return
	}
	for key, points := range b.series {
		if len(points) == 0 {
			continue
		}
		var newest uint32
		for _, p := range points {
			if p.Time > newest {
				newest = p.Time
			}
		}
		var minTime uint32
		if newest > b.timeRange {
			minTime = newest - b.timeRange
		}
		kept := points[:0]
		for _, p := range points {
			if p.Time >= minTime {
				kept = append(kept, p)
			}
		}
		b.series[key] = kept
	}
}

// Series returns the points of key, oldest first.
func (b *PlotBuffer) Series(key string) []Point {
	return b.series[key]
}

// Latest returns the newest point of key.
func (b *PlotBuffer) Latest(key string) (Point, bool) {
	points := b.series[key]
	if len(points) == 0 {
		return Point{}, false
	}
	return points[len(points)-1], true
}

// Keys returns the series names in sorted order.
func (b *PlotBuffer) Keys() []string {
	keys := make([]string, 0, len(b.series))
	for k := range b.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LogEntry is one operator log line
type LogEntry struct {
	Time time.Time
	Line string
}

// Board is a Handler that keeps the latest state of everything the operator
// sees: plots, actuator states, the heartbeat and the log. It is not safe for
// concurrent use except for the heartbeat.
type Board struct {
	Plots     *PlotBuffer
	Actuators map[uint8]padproto.ActuatorState
	Heartbeat *Heartbeat
	Entries   []LogEntry

	// Labels overrides the built-in actuator names when set
	Labels func(id uint8) string

	maxEntries int
	now        func() time.Time
}

// NewBoard creates an empty board.
func NewBoard(timeRange uint32, heartbeatTimeout, maxEntries int) *Board {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &Board{
		Plots:      NewPlotBuffer(timeRange),
		Actuators:  make(map[uint8]padproto.ActuatorState),
		Heartbeat:  NewHeartbeat(heartbeatTimeout),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (b *Board) PlotPoint(key string, t uint32, v float64) {
	b.Plots.Add(key, t, v)
	b.Plots.Trim()
}

func (b *Board) ApplyActuatorState(id uint8, state padproto.ActuatorState) {
	b.Actuators[id] = state
}

// ActuatorLabel names actuator id using Labels, or the built-in name.
func (b *Board) ActuatorLabel(id uint8) string {
	if b.Labels != nil {
		return b.Labels(id)
	}
	return ActuatorLabel(id)
}

func (b *Board) ResetHeartbeat() {
	b.Heartbeat.Reset()
}

func (b *Board) Log(line string) {
	b.Entries = append(b.Entries, LogEntry{Time: b.now(), Line: line})
	if len(b.Entries) > b.maxEntries {
		b.Entries = b.Entries[len(b.Entries)-b.maxEntries:]
	}
}

// Tick advances the heartbeat and logs once it has expired.
func (b *Board) Tick() bool {
	line, ok := b.Heartbeat.Tick()
	if !ok {
		b.Log(line)
	}
	return ok
}
