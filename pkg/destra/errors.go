// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import (
	"errors"
	"fmt"
)

// Protocol error taxonomy. The embedded executor reports the first two as
// wire status bytes; the host client reports all four as Go errors.
var (
	// ErrAddressRange means the requested range falls outside the
	// target's valid memory window.
	ErrAddressRange = errors.New("destra: address outside valid window")

	// ErrSize means the transfer size is zero or exceeds MaxTransferSize.
	ErrSize = errors.New("destra: invalid transfer size")

	// ErrTimeout means no response arrived within the client's timeout.
	ErrTimeout = errors.New("destra: communication timeout")

	// ErrDesync means the response stream could not be parsed as a framed
	// packet (wrong magic or mismatched command echo).
	ErrDesync = errors.New("destra: response stream desynchronized")

	// ErrClosed is returned for operations on a closed client.
	ErrClosed = errors.New("destra: client closed")
)

// statusByte maps an executor error to its wire status.
func statusByte(err error) byte {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrAddressRange):
		return StatusAddressRangeError
	case errors.Is(err, ErrSize):
		return StatusSizeError
	default:
		// The executor only produces the two protocol errors; anything
		// else indicates a broken accessor and is reported as a range
		// error rather than faulting the main loop.
		return StatusAddressRangeError
	}
}

// statusError maps a wire status byte back to the protocol error it encodes.
// Returns nil for StatusSuccess.
func statusError(status byte, address uint16, size uint8) error {
	switch status {
	case StatusSuccess:
		return nil
	case StatusAddressRangeError:
		return fmt.Errorf("%w: 0x%04X", ErrAddressRange, address)
	case StatusSizeError:
		return fmt.Errorf("%w: %d", ErrSize, size)
	default:
		return fmt.Errorf("%w: unknown status 0x%02X", ErrDesync, status)
	}
}
