// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import "fmt"

// Window delimits the address range a target exposes for peek/poke. Both
// bounds are inclusive.
type Window struct {
	Start uint16
	End   uint16
}

// DefaultWindow returns the window for the reference target.
func DefaultWindow() Window {
	return Window{Start: DefaultWindowStart, End: DefaultWindowEnd}
}

// Contains reports whether every byte of the transfer falls inside the
// window.
func (w Window) Contains(address uint16, size uint8) bool {
	if address < w.Start || address > w.End {
		return false
	}
	return int(address)+int(size)-1 <= int(w.End)
}

// Accessor performs the raw memory access for a range that has already
// been validated. Implementations are architecture specific; the simulated
// target uses SRAM below.
type Accessor interface {
	ReadAt(address uint16, dst []byte) error
	WriteAt(address uint16, src []byte) error
}

// Memory is the bounds-checked gate in front of an Accessor. Every read
// and write verifies the range against the window first; the raw accessor
// is never reachable for an unvalidated range.
type Memory struct {
	win Window
	acc Accessor
}

// NewMemory creates a memory gate over acc restricted to win.
func NewMemory(win Window, acc Accessor) *Memory {
	return &Memory{win: win, acc: acc}
}

// Window returns the valid address window.
func (m *Memory) Window() Window {
	return m.win
}

// validate applies the protocol's range and size policy. The address check
// runs first so an out-of-window address reports a range error even when
// the size is also invalid.
func (m *Memory) validate(address uint16, size uint8) error {
	if address < m.win.Start || address > m.win.End {
		return fmt.Errorf("%w: 0x%04X (valid 0x%04X-0x%04X)",
			ErrAddressRange, address, m.win.Start, m.win.End)
	}
	if size < MinTransferSize || size > MaxTransferSize {
		return fmt.Errorf("%w: %d (valid %d-%d)",
			ErrSize, size, MinTransferSize, MaxTransferSize)
	}
	if !m.win.Contains(address, size) {
		return fmt.Errorf("%w: 0x%04X+%d runs past 0x%04X",
			ErrAddressRange, address, size, m.win.End)
	}
	return nil
}

// Read validates the range and returns size bytes starting at address.
func (m *Memory) Read(address uint16, size uint8) ([]byte, error) {
	if err := m.validate(address, size); err != nil {
		return nil, err
	}
	dst := make([]byte, size)
	if err := m.acc.ReadAt(address, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// Write validates the range and stores value byte-for-byte at address.
func (m *Memory) Write(address uint16, value []byte) error {
	if err := m.validate(address, uint8(len(value))); err != nil {
		return err
	}
	return m.acc.WriteAt(address, value)
}

// SRAM is an in-process accessor over the full 16-bit address space, used
// by the simulated target and by tests. The zero value is ready to use.
type SRAM struct {
	data [1 << 16]byte
}

// NewSRAM creates a zero-filled simulated memory.
func NewSRAM() *SRAM {
	return &SRAM{}
}

// Fill writes b to every cell, useful for seeding a recognizable pattern.
func (s *SRAM) Fill(b byte) {
	for i := range s.data {
		s.data[i] = b
	}
}

func (s *SRAM) ReadAt(address uint16, dst []byte) error {
	copy(dst, s.data[int(address):int(address)+len(dst)])
	return nil
}

func (s *SRAM) WriteAt(address uint16, src []byte) error {
	copy(s.data[int(address):int(address)+len(src)], src)
	return nil
}
