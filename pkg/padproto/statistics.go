// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package padproto

import (
	"fmt"
	"time"
)

// Statistics tracks packet statistics and error rates.
// It is not safe for concurrent use; keep it on the goroutine that consumes
// decode results.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalPackets      uint64
	ValidPackets      uint64
	InvalidEnums      uint64
	MalformedPayloads uint64
	UnresolvedLengths uint64
	OtherErrors       uint64
	AnomalousValues   uint64
	Warnings          uint64
	SerialFrames      uint64

	// Per-subtype counts of successfully decoded events
	BySubType map[SubType]uint64

	// Rates (calculated)
	PacketRate float64 // packets/sec
	ErrorRate  float64 // errors/sec

	now func() time.Time
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	s := &Statistics{now: time.Now}
	s.Reset()
	return s
}

// Update updates statistics based on one decode result
func (s *Statistics) Update(ev *Event, decodeErr error, validationErrors []ValidationError) {
	s.TotalPackets++
	s.LastUpdateTime = s.now()

	if decodeErr != nil {
		switch ErrorKind(decodeErr) {
		case KindInvalidEnum:
			s.InvalidEnums++
		case KindMalformed:
			s.MalformedPayloads++
		case KindUnresolvedLength:
			s.UnresolvedLengths++
		default:
			s.OtherErrors++
		}
		return
	}

	if ev != nil {
		s.BySubType[ev.Header.SubType]++
	}

	if len(validationErrors) == 0 {
		s.ValidPackets++
		return
	}
	for _, err := range validationErrors {
		if err.Type == AnomalyWarning {
			s.Warnings++
		} else {
			s.AnomalousValues++
		}
	}
}

// RecordSerialFrame counts one legacy frame
func (s *Statistics) RecordSerialFrame() {
	s.SerialFrames++
}

// Errors returns the total decode error count
func (s *Statistics) Errors() uint64 {
	return s.InvalidEnums + s.MalformedPayloads + s.UnresolvedLengths + s.OtherErrors
}

// CalculateRates calculates packet and error rates
func (s *Statistics) CalculateRates() {
	elapsed := s.now().Sub(s.StartTime).Seconds()
	if elapsed > 0 {
		s.PacketRate = float64(s.TotalPackets) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	percent := func(n uint64) float64 {
		if s.TotalPackets == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalPackets)
	}

	elapsed := s.now().Sub(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Packets:   %8d\n", s.TotalPackets)
	result += fmt.Sprintf("Valid Packets:   %8d (%.1f%%)\n", s.ValidPackets, percent(s.ValidPackets))

	if s.SerialFrames > 0 {
		result += fmt.Sprintf("Serial Frames:   %8d\n", s.SerialFrames)
	}
	if s.InvalidEnums > 0 {
		result += fmt.Sprintf("Invalid Enums:   %8d (%.1f%%)\n", s.InvalidEnums, percent(s.InvalidEnums))
	}
	if s.MalformedPayloads > 0 {
		result += fmt.Sprintf("Malformed:       %8d (%.1f%%)\n", s.MalformedPayloads, percent(s.MalformedPayloads))
	}
	if s.UnresolvedLengths > 0 {
		result += fmt.Sprintf("Unresolved Len:  %8d (%.1f%%)\n", s.UnresolvedLengths, percent(s.UnresolvedLengths))
	}
	if s.OtherErrors > 0 {
		result += fmt.Sprintf("Other Errors:    %8d (%.1f%%)\n", s.OtherErrors, percent(s.OtherErrors))
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d (%.1f%%)\n", s.AnomalousValues, percent(s.AnomalousValues))
	}
	if s.Warnings > 0 {
		result += fmt.Sprintf("Stand Warnings:  %8d\n", s.Warnings)
	}

	result += fmt.Sprintf("Packet Rate:     %8.1f pkts/sec\n", s.PacketRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := s.now()
	*s = Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		BySubType:      make(map[SubType]uint64),
		now:            s.now,
	}
}
