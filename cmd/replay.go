// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/padproto"
	"github.com/Thermoquad/padlink/pkg/recording"
)

var (
	replaySpeed   float64
	replayMonitor bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <recording>",
	Short: "Play back a recording made with raw_log --record",
	Long: `Replay a CBOR session recording.

By default every recorded event is printed as raw_log would print it, as fast
as possible. With --monitor the recording drives the interactive dashboard
(read-only) at recorded pace; --speed scales the pace.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1, "Playback speed multiplier for --monitor (0 = no delay)")
	replayCmd.Flags().BoolVarP(&replayMonitor, "monitor", "m", false, "Replay into the monitor dashboard")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if !replayMonitor {
		return printReplay(ctx, recording.NewPlayer(recording.NewReader(f), 0))
	}

	closeLogs, err := quietLogs("")
	if err != nil {
		return err
	}
	defer closeLogs()

	results := make(chan feed.Result, 256)
	errc := make(chan error, 1)
	go func() {
		defer close(results)
		errc <- feed.Run(ctx, recording.NewPlayer(recording.NewReader(f), replaySpeed), results)
	}()
	errFn := func() error {
		select {
		case err := <-errc:
			return err
		default:
			return nil
		}
	}

	p := tea.NewProgram(newMonitorModel("Replay: "+args[0], cfg, nil), tea.WithAltScreen())
	go pumpResults(p, results, errFn)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func printReplay(ctx context.Context, src feed.Source) error {
	stats := padproto.NewStatistics()
	for {
		res, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if res.Err != nil {
			stats.Update(nil, res.Err, nil)
			fmt.Printf("[%s] [ERROR] %v\n", res.ReceivedAt.Format("15:04:05.000"), res.Err)
			continue
		}
		for _, ev := range res.Events {
			verrs := padproto.ValidateEvent(ev)
			stats.Update(&ev, nil, verrs)
			fmt.Print(padproto.FormatEvent(res.ReceivedAt, ev))
			for _, verr := range verrs {
				fmt.Printf("  ! %s: %s\n", verr.Type, verr.Message)
			}
		}
	}
	fmt.Println()
	fmt.Print(stats.String())
	return nil
}
