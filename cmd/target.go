// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package cmd

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sfadiga/destra/pkg/destra"
)

var (
	targetListen string
	targetFill   int
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Run a simulated target",
	Long: `Serve the embedded protocol peer over serial or WebSocket.

The simulated target behaves like the reference firmware: it owns a
64 KiB SRAM image, enforces the memory window from the target profile,
and records telemetry for every executed request. Useful for testing
host tooling without hardware.

Modes:
  Serial:    --port /dev/ttyUSB1     (e.g. one end of a virtual pair)
  WebSocket: --listen 127.0.0.1:8080 (serves ws://.../destra)

Examples:
  # Serve on one end of a socat pty pair
  destra target --port /tmp/ttyV1

  # Serve over WebSocket with a custom window
  destra target --listen 127.0.0.1:8080 --target board.toml`,
	RunE: runTarget,
}

func init() {
	rootCmd.AddCommand(targetCmd)
	targetCmd.Flags().StringVarP(&targetListen, "listen", "l", "", "WebSocket listen address (host:port)")
	targetCmd.Flags().IntVar(&targetFill, "fill", 0x00, "Byte value the SRAM image starts filled with")
}

func newSimulatedDevice() (*destra.Device, error) {
	profile, err := loadTargetProfile(targetPath)
	if err != nil {
		return nil, err
	}

	sram := destra.NewSRAM()
	if targetFill != 0 {
		if targetFill < 0 || targetFill > 0xFF {
			return nil, fmt.Errorf("invalid fill byte %d (must be 0-255)", targetFill)
		}
		sram.Fill(byte(targetFill))
	}

	mem := destra.NewMemory(profile.Window, sram)
	log.Info().
		Str("profile", profile.Name).
		Str("window", fmt.Sprintf("0x%04X-0x%04X", profile.Window.Start, profile.Window.End)).
		Msg("simulated target ready")
	return destra.NewDevice(mem), nil
}

func runTarget(cmd *cobra.Command, args []string) error {
	if targetListen != "" {
		return serveWebSocketTarget(targetListen)
	}

	if portName == "" {
		return fmt.Errorf("either --port or --listen must be specified")
	}

	device, err := newSimulatedDevice()
	if err != nil {
		return err
	}

	conn, err := OpenSerialConnection(portName, baudRate)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("destra - Simulated Target\n")
	fmt.Printf("Serving on %s @ %d baud, Ctrl+C to exit\n", portName, baudRate)

	return device.Serve(conn)
}

func serveWebSocketTarget(addr string) error {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  256,
		WriteBufferSize: 256,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/destra", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		// Each session gets its own device and memory image, so parallel
		// test runs don't observe each other's pokes.
		device, err := newSimulatedDevice()
		if err != nil {
			log.Error().Err(err).Msg("device setup failed")
			ws.Close()
			return
		}

		conn := &WebSocketConnection{conn: ws}
		defer conn.Close()

		log.Info().Str("remote", r.RemoteAddr).Msg("session started")
		if err := device.Serve(conn); err != nil {
			log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("session ended")
		}
	})

	fmt.Printf("destra - Simulated Target\n")
	fmt.Printf("Serving on ws://%s/destra, Ctrl+C to exit\n", addr)

	return http.ListenAndServe(addr, mux)
}
