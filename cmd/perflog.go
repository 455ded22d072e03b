// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sfadiga/destra/pkg/destra"
)

var perflogOut string

var perflogCmd = &cobra.Command{
	Use:   "perflog",
	Short: "Drain the target's performance log",
	Long: `Fetch and clear the embedded performance log.

Each record carries the frame counter, instantaneous frame rate, frame
jitter, the command sequence number and the command processing time as
measured on the target. Draining resets the log, so a second immediate
call returns zero records.

The records are checked for gaps in the frame counter and command
sequence, which indicate lost frames or dropped records.

Examples:
  # Print the log
  destra perflog --port /dev/ttyUSB0

  # Drain and export for offline analysis
  destra perflog --port /dev/ttyUSB0 --out run1.cbor`,
	RunE: runPerflog,
}

func init() {
	rootCmd.AddCommand(perflogCmd)
	perflogCmd.Flags().StringVarP(&perflogOut, "out", "o", "", "Export records to file (.cbor or .json)")
}

func runPerflog(cmd *cobra.Command, args []string) error {
	client, connInfo, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	log.Debug().Str("connection", connInfo).Msg("draining performance log")

	entries, err := client.GetPerfLog()
	if err != nil {
		return err
	}

	fmt.Printf("Performance log: %d records\n\n", len(entries))
	for _, e := range entries {
		fmt.Println(destra.FormatPerfLogEntry(e))
	}

	if len(entries) > 0 {
		analysis := destra.AnalyzePerfLog(entries)
		fmt.Printf("\n--- Sequence analysis ---\n")
		if analysis.Clean() {
			fmt.Printf("No gaps or anomalies detected\n")
		} else {
			fmt.Printf("Frame counter gaps: %d\n", len(analysis.FrameCounterGaps))
			fmt.Printf("Command sequence gaps: %d\n", len(analysis.CommandSequenceGaps))
			fmt.Printf("Counter delta anomalies: %d\n", len(analysis.CounterDeltaAnomalies))
		}
	}

	if perflogOut != "" {
		if err := exportFile(perflogOut, entries); err != nil {
			return err
		}
		fmt.Printf("\nExported %d records to %s\n", len(entries), perflogOut)
	}

	return nil
}
