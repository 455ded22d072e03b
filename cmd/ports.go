// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List serial ports with USB details where available.

Recognizes the USB-serial bridges commonly found on development boards
(Arduino, CH340, FT232, CP210x) to help pick the right --port value.`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

// usbVendors maps USB vendor IDs to the names users actually know.
var usbVendors = map[string]string{
	"2341": "Arduino",
	"2A03": "Arduino (org)",
	"1A86": "CH340/CH341 bridge",
	"0403": "FTDI FT232",
	"10C4": "Silicon Labs CP210x",
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return fmt.Errorf("enumerate serial ports: %w", err)
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}

	for _, port := range ports {
		fmt.Printf("%s\n", port.Name)
		if !port.IsUSB {
			continue
		}
		if vendor, ok := usbVendors[strings.ToUpper(port.VID)]; ok {
			fmt.Printf("  USB: %s (VID %s, PID %s)\n", vendor, port.VID, port.PID)
		} else {
			fmt.Printf("  USB: VID %s, PID %s\n", port.VID, port.PID)
		}
		if port.Product != "" {
			fmt.Printf("  Product: %s\n", port.Product)
		}
		if port.SerialNumber != "" {
			fmt.Printf("  Serial:  %s\n", port.SerialNumber)
		}
	}
	return nil
}
