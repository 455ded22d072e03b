// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Metrics collects host-side round-trip measurements during a benchmark
// run. Jitter is the absolute difference between consecutive latencies.
type Metrics struct {
	StartTime time.Time

	latencies []time.Duration
	jitter    []time.Duration
	errors    int
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// Add records one round trip.
func (m *Metrics) Add(latency time.Duration, ok bool) {
	if n := len(m.latencies); n > 0 {
		m.jitter = append(m.jitter, absDelta(latency, m.latencies[n-1]))
	}
	m.latencies = append(m.latencies, latency)
	if !ok {
		m.errors++
	}
}

// Samples returns the number of recorded round trips.
func (m *Metrics) Samples() int {
	return len(m.latencies)
}

// Errors returns the number of failed round trips.
func (m *Metrics) Errors() int {
	return m.errors
}

// Summary holds the distribution statistics for one measured quantity, in
// milliseconds.
type Summary struct {
	Mean   float64 `json:"media_ms"`
	Median float64 `json:"mediana_ms"`
	StdDev float64 `json:"desvio_padrao_ms"`
	Min    float64 `json:"min_ms"`
	Max    float64 `json:"max_ms"`
	P95    float64 `json:"p95_ms"`
	P99    float64 `json:"p99_ms"`
}

// BenchReport is the full result of one benchmark run, shaped for export.
type BenchReport struct {
	Test       string   `json:"teste"`
	Samples    int      `json:"total_de_medidas"`
	Successful int      `json:"medidas_bem_sucedidas"`
	ErrorRate  float64  `json:"taxa_de_erro"`
	Latency    Summary  `json:"latencia"`
	Jitter     *Summary `json:"jitter,omitempty"`

	// Embedded telemetry drained after the run, when available.
	PerfLog      []PerfLogEntry `json:"perf_log,omitempty"`
	PerfAnalysis *PerfAnalysis  `json:"analise_de_sequencia,omitempty"`
}

// Report summarizes the collected measurements.
func (m *Metrics) Report(test string) BenchReport {
	r := BenchReport{
		Test:       test,
		Samples:    len(m.latencies),
		Successful: len(m.latencies) - m.errors,
		Latency:    summarize(m.latencies),
	}
	if r.Samples > 0 {
		r.ErrorRate = float64(m.errors) * 100.0 / float64(r.Samples)
	}
	if len(m.jitter) > 0 {
		j := summarize(m.jitter)
		r.Jitter = &j
	}
	return r
}

// String renders the report as a human-readable statistics block.
func (r BenchReport) String() string {
	out := fmt.Sprintf("=== %s ===\n", r.Test)
	out += fmt.Sprintf("Samples:      %8d\n", r.Samples)
	out += fmt.Sprintf("Successful:   %8d\n", r.Successful)
	out += fmt.Sprintf("Error rate:   %7.1f%%\n", r.ErrorRate)
	out += fmt.Sprintf("Latency:  mean %.3f ms, median %.3f ms, stddev %.3f ms\n",
		r.Latency.Mean, r.Latency.Median, r.Latency.StdDev)
	out += fmt.Sprintf("          min %.3f ms, max %.3f ms, p95 %.3f ms, p99 %.3f ms\n",
		r.Latency.Min, r.Latency.Max, r.Latency.P95, r.Latency.P99)
	if r.Jitter != nil {
		out += fmt.Sprintf("Jitter:   mean %.3f ms, median %.3f ms, stddev %.3f ms\n",
			r.Jitter.Mean, r.Jitter.Median, r.Jitter.StdDev)
	}
	if r.PerfLog != nil {
		out += fmt.Sprintf("Embedded records: %d\n", len(r.PerfLog))
	}
	return out
}

func summarize(durations []time.Duration) Summary {
	if len(durations) == 0 {
		return Summary{}
	}
	ms := make([]float64, len(durations))
	for i, d := range durations {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	sort.Float64s(ms)

	var sum float64
	for _, v := range ms {
		sum += v
	}
	mean := sum / float64(len(ms))

	var sq float64
	for _, v := range ms {
		sq += (v - mean) * (v - mean)
	}

	return Summary{
		Mean:   mean,
		Median: percentile(ms, 50),
		StdDev: math.Sqrt(sq / float64(len(ms))),
		Min:    ms[0],
		Max:    ms[len(ms)-1],
		P95:    percentile(ms, 95),
		P99:    percentile(ms, 99),
	}
}

// percentile uses linear interpolation between closest ranks over a sorted
// slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
