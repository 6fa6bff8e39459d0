// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/logging"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

var monitorLogFile string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive dashboard for the stand",
	Long: `Monitor the stand in an interactive terminal UI.

Shows the latest sensor readings, actuator states, the arming state, the link
heartbeat, decode statistics and the operator log. The heartbeat is reset by
every actuator state report and expires after [heartbeat] timeout seconds.

Control requests are typed on the command line at the bottom:
  open N        open actuator N
  close N       close actuator N
  arm LEVEL     request arming level (pad, valves, ignition, disconnected, launch)

A TCP link reconnects automatically. Legacy serial links are read-only.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorLogFile, "log-file", "", "Write runtime logs to a file while the UI is running")
}

// quietLogs keeps runtime logs off the terminal while a UI owns it
func quietLogs(path string) (func(), error) {
	if path == "" {
		logging.Configure(logging.Options{Level: cfg.Log.Level, Output: io.Discard})
		return func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logging.Configure(logging.Options{Level: cfg.Log.Level, JSON: true, Output: f})
	return func() { _ = f.Close() }, nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	closeLogs, err := quietLogs(monitorLogFile)
	if err != nil {
		return err
	}
	defer closeLogs()

	session, err := startLink(ctx, cfg)
	if err != nil {
		return err
	}

	var send func(padproto.Message) error
	if !cfg.Link.Legacy {
		send = session.Send
	}

	p := tea.NewProgram(newMonitorModel(session.Info, cfg, send), tea.WithAltScreen())
	go pumpResults(p, session.Results, session.Err)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// pumpResults forwards results to the UI in 50 ms batches until the stream closes.
func pumpResults(p *tea.Program, results <-chan feed.Result, errFn func() error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var batch monitorBatchMsg
	for {
		select {
		case res, ok := <-results:
			if !ok {
				if len(batch) > 0 {
					p.Send(batch)
				}
				p.Send(linkClosedMsg{err: errFn()})
				return
			}
			batch = append(batch, res)
		case <-ticker.C:
			if len(batch) > 0 {
				p.Send(batch)
				batch = nil
			}
		}
	}
}
