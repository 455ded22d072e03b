// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sfadiga/destra/pkg/destra"
)

var probeAddress string

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that a target is alive and responding",
	Long: `Send a benign single-byte read and report the round-trip time.

Useful in scripts to verify a link before starting a debugging session.
The probe reads one byte from inside the default memory window, so it
never mutates target state.

Examples:
  # Serial probe
  destra probe --port /dev/ttyUSB0

  # WebSocket probe
  destra probe --url ws://bridge.local/destra

Exit codes:
  0 - Target responded
  1 - Target did not respond (timeout or protocol error)
  2 - Connection error`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVarP(&probeAddress, "address", "a", "0x0100", "Address to read")
}

func runProbe(cmd *cobra.Command, args []string) error {
	address, err := parseAddress(probeAddress)
	if err != nil {
		return err
	}

	client, connInfo, err := openClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer client.Close()

	fmt.Printf("destra - Target Probe\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	start := time.Now()
	data, err := client.Peek(address, 1)
	rtt := time.Since(start)

	if err != nil {
		fmt.Printf("PROBE FAILED: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Target responded in %.3f ms\n", float64(rtt.Microseconds())/1000.0)
	fmt.Printf("0x%04X = %s\n", address, destra.FormatHex(data))
	return nil
}
