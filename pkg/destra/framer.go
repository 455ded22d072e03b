// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

// Framer implements the embedded-side packet framer: a state machine that
// advances one transition per input byte and assembles complete requests.
// It performs no range or size validation; out-of-range values pass
// through to the executor, which answers with the proper status byte.
type Framer struct {
	state    int
	command  byte
	addrLow  byte
	address  uint16
	size     uint8
	valueIdx int
	value    [MaxTransferSize]byte
}

// NewFramer creates a framer waiting for the first magic byte.
func NewFramer() *Framer {
	return &Framer{}
}

// Reset aborts any parse in progress and returns to the initial state.
func (f *Framer) Reset() {
	*f = Framer{}
}

// Idle reports whether the framer is waiting for the start of a packet.
func (f *Framer) Idle() bool {
	return f.state == stateWaitStartHigh
}

// Feed advances the state machine by one byte. It returns a completed
// Request once all required bytes have arrived, or nil while the packet is
// still incomplete. Bytes that do not fit the grammar are discarded and
// the framer resynchronizes on the next magic word.
func (f *Framer) Feed(b byte) *Request {
	switch f.state {
	case stateWaitStartHigh:
		if b == MagicHigh {
			f.state = stateWaitStartLow
		}

	case stateWaitStartLow:
		if b == MagicLow {
			f.state = stateWaitCommand
		} else {
			f.state = stateWaitStartHigh
		}

	case stateWaitCommand:
		switch b {
		case CmdPeek, CmdPoke:
			f.command = b
			f.state = stateWaitAddressLow
		case CmdGetPerfLog:
			// Drain command carries no address, size or value.
			f.command = b
			return f.complete()
		default:
			f.state = stateWaitStartHigh
		}

	case stateWaitAddressLow:
		f.addrLow = b
		f.state = stateWaitAddressHigh

	case stateWaitAddressHigh:
		f.address = uint16(f.addrLow) | uint16(b)<<8
		f.state = stateWaitSize

	case stateWaitSize:
		f.size = b
		if f.command == CmdPeek {
			return f.complete()
		}
		f.valueIdx = 0
		f.state = stateWaitValue
		// A zero-size POKE has no value bytes to wait for. The executor
		// rejects it with a size error.
		if f.size == 0 {
			return f.complete()
		}

	case stateWaitValue:
		// The write index is bounded by the buffer capacity, not by the
		// declared size; a size byte above 8 must not overflow the value
		// buffer.
		if f.valueIdx < len(f.value) {
			f.value[f.valueIdx] = b
		}
		f.valueIdx++
		if f.valueIdx >= int(f.size) {
			return f.complete()
		}
	}
	return nil
}

func (f *Framer) complete() *Request {
	req := &Request{
		Command: f.command,
		Address: f.address,
		Size:    f.size,
		Value:   f.value,
	}
	f.Reset()
	return req
}
