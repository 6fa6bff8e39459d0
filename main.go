// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Padlink - Ground Support Pad Link Analyzer
//
// A CLI tool for monitoring, decoding and commanding the test stand pad link.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/padlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "padlink: %v\n", err)
		os.Exit(1)
	}
}
