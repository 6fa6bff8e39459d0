// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

var sendWait int

var sendCmd = &cobra.Command{
	Use:   "send <open N | close N | arm LEVEL>",
	Short: "Send one control request to the stand",
	Long: `Send a single actuation or arming request and wait for the acknowledgement.

Examples:
  padlink send --addr 10.0.0.2:5000 arm valves
  padlink send --addr 10.0.0.2:5000 open 3
  padlink send --addr 10.0.0.2:5000 close 3

Arming levels: pad, valves, ignition, disconnected, launch (or 0-4).
Use --wait 0 to send without waiting.`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendWait, "wait", 5, "Seconds to wait for the acknowledgement")
}

func runSend(cmd *cobra.Command, args []string) error {
	req, err := parseControlCommand(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if cfg.Link.Legacy {
		return fmt.Errorf("legacy serial links do not accept control requests")
	}

	conn, connInfo, err := OpenConnection(cfg.Link)
	if err != nil {
		return err
	}
	defer conn.Close()

	wire, err := padproto.EncodePacket(req)
	if err != nil {
		return err
	}
	if _, err := conn.Write(wire); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	log.Info().Str("conn", connInfo).Str("request", padproto.FormatMessage(req)).Msg("request sent")
	fmt.Printf("Sent %s %s\n", req.Header(), padproto.FormatMessage(req))

	if sendWait <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(sendWait)*time.Second)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	ack, err := waitForAck(ctx, feed.NewReader(conn), req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("no acknowledgement within %d seconds", sendWait)
		}
		return err
	}
	fmt.Printf("Received %s %s\n", ack.Header(), padproto.FormatMessage(ack))
	if !ackOK(ack) {
		return fmt.Errorf("request rejected: %s", padproto.FormatMessage(ack))
	}
	return nil
}

var errNoAck = errors.New("stream ended before acknowledgement")

// waitForAck reads src until the acknowledgement matching req arrives.
func waitForAck(ctx context.Context, src feed.Source, req padproto.Message) (padproto.Message, error) {
	for {
		res, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", errNoAck, err)
		}
		for _, ev := range res.Events {
			if matchesRequest(req, ev.Message) {
				return ev.Message, nil
			}
		}
	}
}

func matchesRequest(req, m padproto.Message) bool {
	switch r := req.(type) {
	case padproto.ActuationRequest:
		ack, ok := m.(padproto.ActuationAcknowledgement)
		return ok && ack.ID == r.ID
	case padproto.ArmingRequest:
		_, ok := m.(padproto.ArmingAcknowledgement)
		return ok
	}
	return false
}

func ackOK(m padproto.Message) bool {
	switch a := m.(type) {
	case padproto.ActuationAcknowledgement:
		return a.Status == padproto.ActOK
	case padproto.ArmingAcknowledgement:
		return a.Status == padproto.ArmOK
	}
	return false
}
