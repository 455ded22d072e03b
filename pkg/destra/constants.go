// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

// Package destra implements the DESTRA real-time debugging protocol.
//
// DESTRA (DEpurador de Sistemas em Tempo ReAl) lets a host inspect and
// mutate memory of a running embedded target over a serial byte stream
// without halting execution. This package provides both protocol peers:
// the embedded-side framer, executor, response encoder and telemetry
// recorder, and the host-side client with timeout and resynchronization
// handling.
package destra

// Protocol magic word. Every request and response starts with these two
// bytes; they are also the anchor for stream resynchronization.
const (
	MagicHigh = 0xCA
	MagicLow  = 0xFE
)

// Command bytes
const (
	CmdPeek       = 0xF1
	CmdPoke       = 0xF2
	CmdGetPerfLog = 0xF3
)

// Response status bytes
const (
	StatusSuccess           = 0x00
	StatusAddressRangeError = 0x01
	StatusSizeError         = 0x02
)

// Transfer size limits. A single request moves between 1 and 8 bytes.
const (
	MinTransferSize = 1
	MaxTransferSize = 8
)

// Default valid memory window, matching the ATmega328 SRAM data region.
// Targets with a different layout override this via Window.
const (
	DefaultWindowStart = 0x0100
	DefaultWindowEnd   = 0x08FF
)

// Framer states (internal)
const (
	stateWaitStartHigh = iota
	stateWaitStartLow
	stateWaitCommand
	stateWaitAddressLow
	stateWaitAddressHigh
	stateWaitSize
	stateWaitValue
)

// Telemetry recorder limits
const (
	// PerfLogCapacity is the fixed number of telemetry records the
	// embedded side retains. Once full, further records are dropped
	// until the log is drained.
	PerfLogCapacity = 100

	// PerfEntrySize is the wire size of one telemetry record.
	PerfEntrySize = 16
)

// respHeaderSize is the fixed response prefix: magic, command echo, status.
const respHeaderSize = 4
