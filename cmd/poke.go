// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sfadiga/destra/pkg/destra"
)

var (
	pokeType string
	pokeSize int
)

var pokeCmd = &cobra.Command{
	Use:   "poke <address> <value>",
	Short: "Write target memory",
	Long: `Write up to 8 bytes into the target's memory window.

The value is parsed according to --type. Integers accept decimal or
0x-prefixed hex and default to the smallest size that holds the value;
use --size to force a width. The response echoes the bytes the target
actually stored, and a mismatch against the requested value is reported
as an error.

Examples:
  # Write a single byte
  destra poke 0x0200 0x42 --port /dev/ttyUSB0

  # Write a 16-bit counter
  destra poke 0x0200 1500 --size 2 --port /dev/ttyUSB0

  # Write a float
  destra poke 0x0204 3.14 --type float --port /dev/ttyUSB0

  # Write raw bytes
  destra poke 0x0200 "de ad be ef" --type hex --port /dev/ttyUSB0`,
	Args: cobra.ExactArgs(2),
	RunE: runPoke,
}

func init() {
	rootCmd.AddCommand(pokeCmd)
	pokeCmd.Flags().StringVar(&pokeType, "type", "int", "Value type (int, float, double, hex, string)")
	pokeCmd.Flags().IntVar(&pokeSize, "size", 0, "Transfer size in bytes (default inferred from value)")
}

func runPoke(cmd *cobra.Command, args []string) error {
	address, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	value, err := parsePokeValue(args[1], pokeType, pokeSize)
	if err != nil {
		return err
	}

	client, connInfo, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	log.Debug().Str("connection", connInfo).
		Uint16("address", address).Int("size", len(value)).Msg("poke")

	echo, err := client.Poke(address, value)
	if err != nil {
		if errors.Is(err, destra.ErrVerify) {
			fmt.Printf("0x%04X: wrote %s\n", address, destra.FormatHex(value))
			fmt.Printf("  echo: %s (MISMATCH)\n", destra.FormatHex(echo))
		}
		return err
	}

	fmt.Printf("0x%04X: wrote %s\n", address, destra.FormatHex(echo))
	return nil
}

// parsePokeValue converts the command-line value into wire bytes.
func parsePokeValue(arg, valueType string, size int) ([]byte, error) {
	if size < 0 || size > destra.MaxTransferSize {
		return nil, fmt.Errorf("invalid size %d (must be 1-8)", size)
	}

	switch strings.ToLower(valueType) {
	case "int":
		v, err := strconv.ParseInt(arg, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer value %q: %w", arg, err)
		}
		width := uint8(size)
		if width == 0 {
			width = destra.InferIntegerSize(v)
		}
		return destra.EncodeInteger(v, width)

	case "float", "double":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float value %q: %w", arg, err)
		}
		width := uint8(size)
		if width == 0 {
			width = 4
			if strings.EqualFold(valueType, "double") {
				width = 8
			}
		}
		return destra.EncodeFloat(v, width)

	case "hex", "bytes":
		cleaned := strings.NewReplacer(" ", "", "0x", "", ",", "").Replace(arg)
		data, err := hex.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("invalid hex value %q: %w", arg, err)
		}
		if len(data) < destra.MinTransferSize || len(data) > destra.MaxTransferSize {
			return nil, fmt.Errorf("hex value %q is %d bytes (must be 1-8)", arg, len(data))
		}
		return data, nil

	case "string":
		data := []byte(arg)
		if len(data) < destra.MinTransferSize || len(data) > destra.MaxTransferSize {
			return nil, fmt.Errorf("string value is %d bytes (must be 1-8)", len(data))
		}
		return data, nil

	default:
		return nil, fmt.Errorf("unknown value type %q", valueType)
	}
}
