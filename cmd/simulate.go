// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/padlink/pkg/standsim"
)

var (
	simListen   string
	simInterval int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulated stand on a TCP port",
	Long: `Serve synthetic stand telemetry for bench testing without hardware.

Every connected client receives sensor readings once per interval and the
arming state with every actuator state once per second. Clients may send arming and actuation
requests, which the simulated stand acknowledges and applies:

  - arming may rise one level at a time and drop to any lower level
  - valves need ARMED_VALVES, the igniter needs ARMED_IGNITION

With --legacy the server streams 26-byte legacy serial frames instead and
ignores client input. --default-open sets the normally-open valves.

Example:
  padlink simulate --listen :5000
  padlink monitor --addr localhost:5000`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVarP(&simListen, "listen", "l", ":5000", "TCP listen address")
	simulateCmd.Flags().IntVar(&simInterval, "interval", 100, "Telemetry interval in milliseconds")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	open, err := cfg.DefaultOpenValves()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", simListen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", simListen, err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := standsim.NewServer(standsim.NewStand(open),
		standsim.WithInterval(time.Duration(simInterval)*time.Millisecond),
		standsim.WithLegacyFrames(cfg.Link.Legacy),
	)

	log.Info().
		Str("listen", ln.Addr().String()).
		Bool("legacy", cfg.Link.Legacy).
		Ints("default_open", open.Indices()).
		Msg("simulated stand running")
	return srv.Serve(ctx, ln)
}
