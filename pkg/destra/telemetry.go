// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import (
	"encoding/binary"
	"fmt"
)

// PerfLogEntry is one telemetry record captured by the embedded side for
// a single processed request. Times are in microseconds, the frame rate in
// frames per second.
type PerfLogEntry struct {
	FrameCounter             uint32 `json:"frame_counter"`
	FrameRate                uint16 `json:"frame_rate"`
	FrameJitter              uint16 `json:"frame_jitter_us"`
	CommandSequence          uint16 `json:"command_sequence"`
	CommandFrameCounterDelta uint16 `json:"command_counter_delta"`
	CommandProcessTime       uint32 `json:"command_process_time_us"`
}

// appendEntry appends the 16-byte little-endian wire encoding of e.
func appendEntry(dst []byte, e PerfLogEntry) []byte {
	var rec [PerfEntrySize]byte
	binary.LittleEndian.PutUint32(rec[0:4], e.FrameCounter)
	binary.LittleEndian.PutUint16(rec[4:6], e.FrameRate)
	binary.LittleEndian.PutUint16(rec[6:8], e.FrameJitter)
	binary.LittleEndian.PutUint16(rec[8:10], e.CommandSequence)
	binary.LittleEndian.PutUint16(rec[10:12], e.CommandFrameCounterDelta)
	binary.LittleEndian.PutUint32(rec[12:16], e.CommandProcessTime)
	return append(dst, rec[:]...)
}

// DecodePerfLog parses a GET_PERF_LOG success payload:
//
//	[COUNT: 1 byte][COUNT x 16-byte records]
func DecodePerfLog(payload []byte) ([]PerfLogEntry, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty telemetry payload", ErrDesync)
	}
	count := int(payload[0])
	body := payload[1:]
	if len(body) != count*PerfEntrySize {
		return nil, fmt.Errorf("%w: telemetry payload %d bytes, want %d",
			ErrDesync, len(body), count*PerfEntrySize)
	}
	entries := make([]PerfLogEntry, count)
	for i := 0; i < count; i++ {
		rec := body[i*PerfEntrySize:]
		entries[i] = PerfLogEntry{
			FrameCounter:             binary.LittleEndian.Uint32(rec[0:4]),
			FrameRate:                binary.LittleEndian.Uint16(rec[4:6]),
			FrameJitter:              binary.LittleEndian.Uint16(rec[6:8]),
			CommandSequence:          binary.LittleEndian.Uint16(rec[8:10]),
			CommandFrameCounterDelta: binary.LittleEndian.Uint16(rec[10:12]),
			CommandProcessTime:       binary.LittleEndian.Uint32(rec[12:16]),
		}
	}
	return entries, nil
}

// PerfLog is the fixed-capacity telemetry buffer owned by the embedded
// process. The append policy is drop-when-full: once the buffer holds
// PerfLogCapacity entries, further records are silently discarded until a
// drain resets the cursor. No locking; the embedded loop is single-threaded
// and a drain can never interrupt a command in progress.
type PerfLog struct {
	entries [PerfLogCapacity]PerfLogEntry
	count   int
	dropped uint32
}

// NewPerfLog creates an empty telemetry buffer.
func NewPerfLog() *PerfLog {
	return &PerfLog{}
}

// Len returns the number of buffered records.
func (l *PerfLog) Len() int {
	return l.count
}

// Dropped returns how many records were discarded since the last drain.
func (l *PerfLog) Dropped() uint32 {
	return l.dropped
}

// Record appends one entry, dropping it if the buffer is full.
func (l *PerfLog) Record(e PerfLogEntry) {
	if l.count >= len(l.entries) {
		l.dropped++
		return
	}
	l.entries[l.count] = e
	l.count++
}

// Drain returns a copy of the buffered records and resets the cursor.
func (l *PerfLog) Drain() []PerfLogEntry {
	out := make([]PerfLogEntry, l.count)
	copy(out, l.entries[:l.count])
	l.count = 0
	l.dropped = 0
	return out
}

// DrainPayload encodes the buffered records as a GET_PERF_LOG response
// payload and resets the cursor.
func (l *PerfLog) DrainPayload() []byte {
	buf := make([]byte, 1, 1+l.count*PerfEntrySize)
	buf[0] = byte(l.count)
	for i := 0; i < l.count; i++ {
		buf = appendEntry(buf, l.entries[i])
	}
	l.count = 0
	l.dropped = 0
	return buf
}

// PerfAnalysis flags consistency problems in a drained telemetry run,
// mirroring the sequence checks of the host-side performance tooling.
type PerfAnalysis struct {
	// FrameCounterGaps lists the indexes at which the frame counter did
	// not advance relative to the previous record.
	FrameCounterGaps []int `json:"gaps_frame_counter"`
	// CommandSequenceGaps lists the indexes at which the command sequence
	// did not advance by exactly one.
	CommandSequenceGaps []int `json:"gaps_command_sequence"`
	// CounterDeltaAnomalies lists the indexes of records whose command
	// spanned more than one main-loop iteration.
	CounterDeltaAnomalies []int `json:"anomalies_command_counter_delta"`
}

// Clean reports whether no anomaly was found.
func (a PerfAnalysis) Clean() bool {
	return len(a.FrameCounterGaps) == 0 &&
		len(a.CommandSequenceGaps) == 0 &&
		len(a.CounterDeltaAnomalies) == 0
}

// AnalyzePerfLog scans drained records for sequence gaps and counter-delta
// anomalies.
func AnalyzePerfLog(entries []PerfLogEntry) PerfAnalysis {
	var a PerfAnalysis
	for i, e := range entries {
		if i > 0 {
			if e.FrameCounter <= entries[i-1].FrameCounter {
				a.FrameCounterGaps = append(a.FrameCounterGaps, i)
			}
			if e.CommandSequence != entries[i-1].CommandSequence+1 {
				a.CommandSequenceGaps = append(a.CommandSequenceGaps, i)
			}
		}
		if e.CommandFrameCounterDelta != 0 {
			a.CounterDeltaAnomalies = append(a.CounterDeltaAnomalies, i)
		}
	}
	return a
}

// FormatPerfLogEntry renders one record in the line format the offline
// analysis tooling parses.
func FormatPerfLogEntry(e PerfLogEntry) string {
	return fmt.Sprintf(
		"frame_counter: %d, frame_rate:%d, frame_jitter_us:%d, command_sequence:%d, command_counter_delta:%d, command_process_time_us:%d",
		e.FrameCounter, e.FrameRate, e.FrameJitter,
		e.CommandSequence, e.CommandFrameCounterDelta, e.CommandProcessTime)
}
