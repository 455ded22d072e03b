// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import (
	"errors"
	"testing"
)

func TestPerfLog_RecordAndDrain(t *testing.T) {
	l := NewPerfLog()
	for i := 1; i <= 5; i++ {
		l.Record(PerfLogEntry{CommandSequence: uint16(i)})
	}
	if l.Len() != 5 {
		t.Fatalf("len = %d, want 5", l.Len())
	}

	entries := l.Drain()
	if len(entries) != 5 {
		t.Fatalf("drained %d entries, want 5", len(entries))
	}
	for i, e := range entries {
		if e.CommandSequence != uint16(i+1) {
			t.Errorf("entry %d sequence = %d, want %d", i, e.CommandSequence, i+1)
		}
	}

	// Drain resets the cursor; an immediate second drain is empty.
	if got := l.Drain(); len(got) != 0 {
		t.Errorf("second drain returned %d entries, want 0", len(got))
	}
}

func TestPerfLog_DropWhenFull(t *testing.T) {
	l := NewPerfLog()
	for i := 0; i < PerfLogCapacity+50; i++ {
		l.Record(PerfLogEntry{CommandSequence: uint16(i + 1)})
	}
	if l.Len() != PerfLogCapacity {
		t.Fatalf("len = %d, want %d", l.Len(), PerfLogCapacity)
	}
	if l.Dropped() != 50 {
		t.Errorf("dropped = %d, want 50", l.Dropped())
	}

	// Drop-when-full keeps the oldest entries, never overwrites them.
	entries := l.Drain()
	if entries[0].CommandSequence != 1 {
		t.Errorf("first entry sequence = %d, want 1", entries[0].CommandSequence)
	}
	if last := entries[len(entries)-1].CommandSequence; last != PerfLogCapacity {
		t.Errorf("last entry sequence = %d, want %d", last, PerfLogCapacity)
	}
}

func TestPerfLog_PayloadRoundTrip(t *testing.T) {
	l := NewPerfLog()
	want := []PerfLogEntry{
		{
			FrameCounter:             1000,
			FrameRate:                60,
			FrameJitter:              125,
			CommandSequence:          1,
			CommandFrameCounterDelta: 0,
			CommandProcessTime:       850,
		},
		{
			FrameCounter:             1001,
			FrameRate:                59,
			FrameJitter:              300,
			CommandSequence:          2,
			CommandFrameCounterDelta: 1,
			CommandProcessTime:       910,
		},
	}
	for _, e := range want {
		l.Record(e)
	}

	payload := l.DrainPayload()
	if payload[0] != 2 {
		t.Fatalf("count byte = %d, want 2", payload[0])
	}
	if len(payload) != 1+2*PerfEntrySize {
		t.Fatalf("payload length = %d, want %d", len(payload), 1+2*PerfEntrySize)
	}

	got, err := DecodePerfLog(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if l.Len() != 0 {
		t.Error("DrainPayload must reset the buffer")
	}
}

func TestDecodePerfLog_Malformed(t *testing.T) {
	if _, err := DecodePerfLog(nil); !errors.Is(err, ErrDesync) {
		t.Errorf("empty payload: err = %v, want desync", err)
	}
	// Count byte claims two records but only one follows.
	payload := make([]byte, 1+PerfEntrySize)
	payload[0] = 2
	if _, err := DecodePerfLog(payload); !errors.Is(err, ErrDesync) {
		t.Errorf("truncated payload: err = %v, want desync", err)
	}
}

func TestAnalyzePerfLog(t *testing.T) {
	entries := []PerfLogEntry{
		{FrameCounter: 10, CommandSequence: 1},
		{FrameCounter: 11, CommandSequence: 2},
		{FrameCounter: 11, CommandSequence: 4, CommandFrameCounterDelta: 2},
		{FrameCounter: 13, CommandSequence: 5},
	}
	a := AnalyzePerfLog(entries)
	if len(a.FrameCounterGaps) != 1 || a.FrameCounterGaps[0] != 2 {
		t.Errorf("frame counter gaps = %v, want [2]", a.FrameCounterGaps)
	}
	if len(a.CommandSequenceGaps) != 1 || a.CommandSequenceGaps[0] != 2 {
		t.Errorf("command sequence gaps = %v, want [2]", a.CommandSequenceGaps)
	}
	if len(a.CounterDeltaAnomalies) != 1 || a.CounterDeltaAnomalies[0] != 2 {
		t.Errorf("counter delta anomalies = %v, want [2]", a.CounterDeltaAnomalies)
	}
	if a.Clean() {
		t.Error("analysis with anomalies must not report clean")
	}

	if clean := AnalyzePerfLog(entries[:2]); !clean.Clean() {
		t.Errorf("clean run reported anomalies: %+v", clean)
	}
}

func TestFormatPerfLogEntry(t *testing.T) {
	e := PerfLogEntry{
		FrameCounter:             42,
		FrameRate:                60,
		FrameJitter:              17,
		CommandSequence:          3,
		CommandFrameCounterDelta: 0,
		CommandProcessTime:       912,
	}
	want := "frame_counter: 42, frame_rate:60, frame_jitter_us:17, command_sequence:3, command_counter_delta:0, command_process_time_us:912"
	if got := FormatPerfLogEntry(e); got != want {
		t.Errorf("formatted entry:\n got %q\nwant %q", got, want)
	}
}
