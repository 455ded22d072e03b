// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sfadiga/destra/pkg/destra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Passively decode requests on a tapped link",
	Long: `Continuously decode the host-to-target direction of a tapped link.

Attach the connection to the TX line between another debugger instance
and the target to watch the requests it issues. Bytes that do not frame
into a valid request are counted as noise, which makes baud-rate and
wiring problems visible at a glance.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("destra - Link Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	framer := destra.NewFramer()
	buf := make([]byte, 128)

	var (
		requests int
		noise    int
	)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if err == ErrConnectionClosed {
				log.Info().Int("requests", requests).Int("noise_bytes", noise).
					Msg("connection closed")
				return nil
			}
			log.Warn().Err(err).Msg("read error")
			continue
		}

		for i := 0; i < n; i++ {
			wasIdle := framer.Idle()
			req := framer.Feed(buf[i])
			if req == nil {
				// A byte that leaves the framer idle never belonged to
				// a frame.
				if wasIdle && framer.Idle() {
					noise++
				}
				continue
			}

			requests++
			fmt.Print(formatRequest(req))
		}
	}
}

func formatRequest(req *destra.Request) string {
	timestamp := time.Now().Format("15:04:05.000")

	switch req.Command {
	case destra.CmdPeek:
		return fmt.Sprintf("[%s] PEEK  addr=0x%04X size=%d\n",
			timestamp, req.Address, req.Size)
	case destra.CmdPoke:
		return fmt.Sprintf("[%s] POKE  addr=0x%04X size=%d value=%s\n",
			timestamp, req.Address, req.Size, destra.FormatHex(req.ValueBytes()))
	case destra.CmdGetPerfLog:
		return fmt.Sprintf("[%s] GET_PERF_LOG\n", timestamp)
	default:
		return fmt.Sprintf("[%s] UNKNOWN (0x%02X)\n", timestamp, req.Command)
	}
}
