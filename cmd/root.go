// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/padlink/pkg/config"
	"github.com/Thermoquad/padlink/pkg/logging"
)

var (
	// TCP connection flags
	tcpAddr string

	// Serial connection flags
	portName string
	baudRate int
	legacy   bool

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Stand wiring
	defaultOpen []int

	configPath string
	logLevel   string

	// cfg is the config file overlaid with explicitly set flags
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "padlink",
	Short: "Pad ground-support link monitor",
	Long: `Padlink - A CLI tool for monitoring and commanding a rocket test stand.

Decodes the pad link packet protocol (telemetry and control) and the legacy
multi-channel serial frame, and provides commands for logging, link testing,
an interactive monitor, sending control requests, recording and replay.

Connection modes:
  TCP:       --addr host:port
  Serial:    --port /dev/ttyUSB0 [--baud 115200] [--legacy]
  WebSocket: --url ws://host/path [--username user]

Settings may also come from a TOML file (--config). Flags given on the command
line override the file.

For WebSocket authentication, the password is read from the PADLINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&tcpAddr, "addr", "a", "", "Stand TCP address (host:port)")

	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")
	rootCmd.PersistentFlags().BoolVar(&legacy, "legacy", false, "Link carries legacy 26-byte serial frames")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().IntSliceVar(&defaultOpen, "default-open", nil, "Normally-open valve indices (0-11)")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}

// loadSettings resolves cfg and configures logging before any command runs.
func loadSettings(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		loaded.Link.Addr = tcpAddr
	}
	if flags.Changed("port") {
		loaded.Link.Port = portName
	}
	if flags.Changed("baud") {
		loaded.Link.Baud = baudRate
	}
	if flags.Changed("legacy") {
		loaded.Link.Legacy = legacy
	}
	if flags.Changed("url") {
		loaded.Link.URL = wsURL
	}
	if flags.Changed("username") {
		loaded.Link.Username = wsUsername
	}
	if flags.Changed("default-open") {
		loaded.Valves.DefaultOpen = defaultOpen
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	logging.Configure(logging.Options{Level: cfg.Log.Level})
	log.Debug().Str("config", configPath).Interface("link", cfg.Link).Msg("settings loaded")
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
