// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/padlink/pkg/padproto"
)

var armingLevels = map[string]padproto.ArmingState{
	"pad":          padproto.ArmedPad,
	"valves":       padproto.ArmedValves,
	"ignition":     padproto.ArmedIgnition,
	"disconnected": padproto.ArmedDisconnected,
	"launch":       padproto.ArmedLaunch,
}

// parseControlCommand turns operator input into a control request:
//
//	open N | close N   actuation request for actuator N
//	arm LEVEL          arming request; LEVEL is a name (pad, valves,
//	                   ignition, disconnected, launch) or 0-4
func parseControlCommand(input string) (padproto.Message, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) != 2 {
		return nil, fmt.Errorf("expected \"open N\", \"close N\" or \"arm LEVEL\"")
	}

	switch fields[0] {
	case "open", "close":
		id, err := strconv.ParseUint(fields[1], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid actuator id %q", fields[1])
		}
		state := padproto.ActuatorOn
		if fields[0] == "close" {
			state = padproto.ActuatorOff
		}
		return padproto.ActuationRequest{ID: uint8(id), State: state}, nil

	case "arm":
		if level, ok := armingLevels[fields[1]]; ok {
			return padproto.ArmingRequest{Level: level}, nil
		}
		n, err := strconv.ParseUint(fields[1], 10, 8)
		if err != nil || !padproto.ArmingState(n).Valid() {
			return nil, fmt.Errorf("invalid arming level %q", fields[1])
		}
		return padproto.ArmingRequest{Level: padproto.ArmingState(n)}, nil
	}

	return nil, fmt.Errorf("unknown command %q", fields[0])
}
