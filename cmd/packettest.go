// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

var (
	packetTestTimeout int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid packet",
	Long: `Wait for a valid pad link packet on the connection until timeout.

This command connects to the stand and waits for any packet (or legacy serial
frame with --legacy) that decodes cleanly. Headers or payloads that fail to
decode are counted and skipped.

Exit codes:
  0 - Packet received before timeout
  1 - Timeout reached without receiving a valid packet
  2 - Connection error

Useful for testing connectivity to the stand or its WebSocket bridge.`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a packet")
}

// packetTestOutcome is the exit code of packet_test
type packetTestOutcome int

const (
	packetReceived  packetTestOutcome = 0
	packetTimeout   packetTestOutcome = 1
	packetConnError packetTestOutcome = 2
)

func runPacketTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cfg.Link)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(int(packetConnError))
	}
	defer conn.Close()

	framer, err := newFramer(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Padlink - Packet Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for valid packet...\n\n")

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(packetTestTimeout)*time.Second)
	defer cancel()

	outcome := waitForPacket(ctx, framer(conn), conn.Close)
	os.Exit(int(outcome))
	return nil
}

// waitForPacket reads src until one clean result arrives or ctx ends.
// closeFn unblocks the reader on timeout.
func waitForPacket(ctx context.Context, src feed.Source, closeFn func() error) packetTestOutcome {
	type outcome struct {
		res     feed.Result
		skipped int
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		skipped := 0
		for {
			res, err := src.Next(ctx)
			if err != nil {
				done <- outcome{err: err, skipped: skipped}
				return
			}
			if res.Err != nil || len(res.Events) == 0 {
				skipped++
				continue
			}
			done <- outcome{res: res, skipped: skipped}
			return
		}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(os.Stderr, "Read error: %v\n", o.err)
			return packetConnError
		}
		if o.skipped > 0 {
			fmt.Printf("(skipped %d undecodable packets)\n", o.skipped)
		}
		fmt.Printf("SUCCESS: Received valid packet\n")
		if o.res.Serial != nil {
			fmt.Printf("  Legacy frame (%d bytes)\n", len(o.res.Raw))
			fmt.Print(padproto.FormatSerialPacket(*o.res.Serial))
		} else {
			ev := o.res.Events[0]
			fmt.Printf("  Header: %s\n", padproto.FormatHeader(ev.Header))
			fmt.Printf("  Fields: %s\n", padproto.FormatMessage(ev.Message))
			fmt.Printf("  Length: %d bytes\n", len(o.res.Raw))
		}
		return packetReceived

	case <-ctx.Done():
	}

	_ = closeFn()
	fmt.Fprintf(os.Stderr, "TIMEOUT: No valid packet received within %d seconds\n", packetTestTimeout)
	return packetTimeout
}
