// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/padlink/pkg/padproto"
	"github.com/Thermoquad/padlink/pkg/recording"
)

var (
	recordPath   string
	showAnomaly  bool
	showExploded bool
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display decoded packets in human-readable format",
	Long: `Continuously decode and display pad link packets as they arrive.

Each packet is shown with its receive time, header and decoded fields in
engineering units. Decode failures are shown with the offending bytes and the
stream continues with the next header.

Legacy serial frames are shown as one block per frame; use --explode to print
the 21 per-channel events instead.

With --record, every decoded event is also appended to a CBOR recording that
can be played back with the replay command.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().StringVarP(&recordPath, "record", "r", "", "Append decoded events to a CBOR recording")
	rawLogCmd.Flags().BoolVar(&showAnomaly, "anomalies", true, "Flag out-of-range values")
	rawLogCmd.Flags().BoolVar(&showExploded, "explode", false, "Print legacy frames as per-channel events")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session, err := startLink(ctx, cfg)
	if err != nil {
		return err
	}

	var rec *recording.Writer
	if recordPath != "" {
		f, err := os.OpenFile(recordPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open recording: %w", err)
		}
		defer f.Close()
		rec = recording.NewWriter(f)
	}

	fmt.Printf("Padlink - Raw Packet Log\n")
	fmt.Printf("Connection: %s\n", session.Info)
	if recordPath != "" {
		fmt.Printf("Recording: %s\n", recordPath)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	for res := range session.Results {
		if res.Err != nil {
			fmt.Printf("[%s] [ERROR] %v\n", res.ReceivedAt.Format("15:04:05.000"), res.Err)
			fmt.Print(padproto.FormatHex(res.Raw))
			continue
		}

		calibrated := res.Calibrated
		if res.Serial != nil && !showExploded {
			fmt.Printf("[%s] SERIAL_FRAME\n", res.ReceivedAt.Format("15:04:05.000"))
			fmt.Print(padproto.FormatSerialPacket(*res.Serial))
		}

		for _, ev := range res.Events {
			if res.Serial == nil || showExploded {
				fmt.Print(padproto.FormatEvent(res.ReceivedAt, ev))
			}
			if showAnomaly {
				for _, verr := range padproto.ValidateEvent(ev) {
					fmt.Printf("  ! %s: %s\n", verr.Type, verr.Message)
				}
			}
			if rec != nil {
				if err := rec.Write(res.ReceivedAt, ev, calibrated); err != nil {
					return err
				}
			}
		}
	}

	if rec != nil {
		log.Info().Int("events", rec.Count()).Str("path", recordPath).Msg("recording closed")
	}
	return session.Err()
}
