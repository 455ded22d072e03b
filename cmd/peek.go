// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package cmd

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sfadiga/destra/pkg/destra"
)

var peekType string

var peekCmd = &cobra.Command{
	Use:   "peek <address> [size]",
	Short: "Read target memory",
	Long: `Read up to 8 bytes from the target's memory window.

The address accepts decimal or 0x-prefixed hex. The size defaults to 1
byte; when --type names a fixed-width type, the size is taken from the
type instead.

Examples:
  # Read one byte
  destra peek 0x0200 --port /dev/ttyUSB0

  # Read a little-endian uint16
  destra peek 0x0200 --type uint16 --port /dev/ttyUSB0

  # Read 8 raw bytes
  destra peek 0x0200 8 --port /dev/ttyUSB0`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPeek,
}

func init() {
	rootCmd.AddCommand(peekCmd)
	peekCmd.Flags().StringVar(&peekType, "type", "hex", "Decode the value as this type (hex, uint8, int8, uint16, int16, uint32, int32, float, double, string, bytes)")
}

func runPeek(cmd *cobra.Command, args []string) error {
	address, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	size := uint8(1)
	if implied, ok := destra.TypeSize(peekType); ok {
		size = implied
	}
	if len(args) == 2 {
		n, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil || n < destra.MinTransferSize || n > destra.MaxTransferSize {
			return fmt.Errorf("invalid size %q (must be 1-8)", args[1])
		}
		size = uint8(n)
	}

	client, connInfo, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	log.Debug().Str("connection", connInfo).
		Uint16("address", address).Uint8("size", size).Msg("peek")

	data, err := client.Peek(address, size)
	if err != nil {
		return err
	}

	value, err := destra.DecodeValue(data, peekType)
	if err != nil {
		return err
	}

	fmt.Printf("0x%04X: %v\n", address, value)
	if peekType != "hex" {
		fmt.Printf("  raw: %s\n", destra.FormatHex(data))
	}
	return nil
}
