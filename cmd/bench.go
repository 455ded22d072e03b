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

var (
	benchMode     string
	benchSamples  int
	benchDuration time.Duration
	benchHz       int
	benchBurst    int
	benchAddress  string
	benchSize     int
	benchPerfLog  bool
	benchOut      string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark round-trip performance",
	Long: `Measure request/response performance against a live target.

Modes:
  latency: N sequential single-request round trips, full statistics.
  stress:  back-to-back requests for a fixed duration, no pacing.
  burst:   bursts of requests at a fixed rate, to expose queueing
           effects in the target's main loop.

Jitter is computed as the absolute difference between consecutive
latencies. With --perflog the target's own telemetry is drained after
the run and embedded in the report, so host-side and target-side
timings can be correlated.

Examples:
  # 1000-sample latency run
  destra bench --mode latency --samples 1000 --port /dev/ttyUSB0

  # 30-second stress run with embedded telemetry
  destra bench --mode stress --duration 30s --perflog --port /dev/ttyUSB0

  # Bursts of 5 requests, 10 times per second
  destra bench --mode burst --hz 10 --burst 5 --duration 10s --port /dev/ttyUSB0`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().StringVarP(&benchMode, "mode", "m", "latency", "Benchmark mode (latency, stress, burst)")
	benchCmd.Flags().IntVarP(&benchSamples, "samples", "n", 100, "Number of samples (latency mode)")
	benchCmd.Flags().DurationVarP(&benchDuration, "duration", "d", 10*time.Second, "Run duration (stress and burst modes)")
	benchCmd.Flags().IntVar(&benchHz, "hz", 10, "Burst rate in bursts per second (burst mode)")
	benchCmd.Flags().IntVar(&benchBurst, "burst", 5, "Requests per burst (burst mode)")
	benchCmd.Flags().StringVarP(&benchAddress, "address", "a", "0x0200", "Address to peek during the run")
	benchCmd.Flags().IntVarP(&benchSize, "size", "s", 1, "Transfer size per peek (1-8)")
	benchCmd.Flags().BoolVar(&benchPerfLog, "perflog", false, "Drain embedded telemetry after the run")
	benchCmd.Flags().StringVarP(&benchOut, "out", "o", "", "Export report to file (.cbor or .json)")
}

func runBench(cmd *cobra.Command, args []string) error {
	address, err := parseAddress(benchAddress)
	if err != nil {
		return err
	}
	if benchSize < destra.MinTransferSize || benchSize > destra.MaxTransferSize {
		return fmt.Errorf("invalid size %d (must be 1-8)", benchSize)
	}

	client, connInfo, err := openClient()
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("destra - Benchmark\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Mode: %s\n\n", benchMode)

	metrics := destra.NewMetrics()
	size := uint8(benchSize)

	switch benchMode {
	case "latency":
		err = benchLatency(client, metrics, address, size)
	case "stress":
		err = benchStress(client, metrics, address, size)
	case "burst":
		err = benchBurstMode(client, metrics, address, size)
	default:
		return fmt.Errorf("unknown benchmark mode %q (use latency, stress or burst)", benchMode)
	}
	if err != nil {
		return err
	}

	report := metrics.Report(benchMode)

	if benchPerfLog {
		entries, err := client.GetPerfLog()
		if err != nil {
			log.Warn().Err(err).Msg("telemetry drain failed, report has host-side data only")
		} else {
			analysis := destra.AnalyzePerfLog(entries)
			report.PerfLog = entries
			report.PerfAnalysis = &analysis
		}
	}

	fmt.Print(report.String())

	if benchOut != "" {
		if err := exportFile(benchOut, report); err != nil {
			return err
		}
		fmt.Printf("\nreport exported to %s\n", benchOut)
	}

	return nil
}

// sample performs one timed peek and records the outcome. Transport
// errors abort the run; protocol errors count against the error rate.
func sample(client *destra.Client, metrics *destra.Metrics, address uint16, size uint8) error {
	start := time.Now()
	_, err := client.Peek(address, size)
	latency := time.Since(start)

	if err != nil {
		log.Debug().Err(err).Msg("sample failed")
	}
	metrics.Add(latency, err == nil)
	return nil
}

func benchLatency(client *destra.Client, metrics *destra.Metrics, address uint16, size uint8) error {
	for i := 0; i < benchSamples; i++ {
		if err := sample(client, metrics, address, size); err != nil {
			return err
		}
	}
	return nil
}

func benchStress(client *destra.Client, metrics *destra.Metrics, address uint16, size uint8) error {
	deadline := time.Now().Add(benchDuration)
	for time.Now().Before(deadline) {
		if err := sample(client, metrics, address, size); err != nil {
			return err
		}
	}
	return nil
}

func benchBurstMode(client *destra.Client, metrics *destra.Metrics, address uint16, size uint8) error {
	if benchHz <= 0 || benchBurst <= 0 {
		return fmt.Errorf("burst mode needs positive --hz and --burst")
	}

	interval := time.Second / time.Duration(benchHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deadline := time.Now().Add(benchDuration)
	for time.Now().Before(deadline) {
		for i := 0; i < benchBurst; i++ {
			if err := sample(client, metrics, address, size); err != nil {
				return err
			}
		}
		<-ticker.C
	}
	return nil
}
