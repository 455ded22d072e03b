// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import (
	"bytes"
	"errors"
	"testing"
)

func newTestMemory() (*Memory, *SRAM) {
	sram := NewSRAM()
	return NewMemory(DefaultWindow(), sram), sram
}

func TestWindow_Contains(t *testing.T) {
	w := DefaultWindow()
	tests := []struct {
		name    string
		address uint16
		size    uint8
		want    bool
	}{
		{"start of window", 0x0100, 1, true},
		{"end of window", 0x08FF, 1, true},
		{"full transfer at end", 0x08F8, 8, true},
		{"below window", 0x00FF, 1, false},
		{"above window", 0x0900, 1, false},
		{"straddles end", 0x08F9, 8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.address, tt.size); got != tt.want {
				t.Errorf("Contains(0x%04X, %d) = %v, want %v",
					tt.address, tt.size, got, tt.want)
			}
		})
	}
}

func TestExecutor_PokePeekRoundTrip(t *testing.T) {
	mem, _ := newTestMemory()
	e := NewExecutor(mem)

	value := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	echo, err := e.Poke(0x0200, 4, value)
	if err != nil {
		t.Fatalf("poke: %v", err)
	}
	if !bytes.Equal(echo, value) {
		t.Errorf("verification echo = % X, want % X", echo, value)
	}

	got, err := e.Peek(0x0200, 4)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("peek after poke = % X, want % X", got, value)
	}
}

func TestExecutor_AddressRangeErrors(t *testing.T) {
	mem, sram := newTestMemory()
	e := NewExecutor(mem)

	for _, address := range []uint16{0x0000, 0x00FF, 0x0900, 0xFFFF} {
		if _, err := e.Peek(address, 1); !errors.Is(err, ErrAddressRange) {
			t.Errorf("peek(0x%04X): err = %v, want address range error", address, err)
		}
		if _, err := e.Poke(address, 1, []byte{0xAA}); !errors.Is(err, ErrAddressRange) {
			t.Errorf("poke(0x%04X): err = %v, want address range error", address, err)
		}
	}

	// A rejected poke must not touch memory.
	var probe [1]byte
	if err := sram.ReadAt(0x0000, probe[:]); err != nil {
		t.Fatal(err)
	}
	if probe[0] != 0 {
		t.Errorf("rejected poke wrote 0x%02X outside the window", probe[0])
	}
}

func TestExecutor_SizeErrors(t *testing.T) {
	mem, _ := newTestMemory()
	e := NewExecutor(mem)

	for _, size := range []uint8{0, 9, 0xFF} {
		if _, err := e.Peek(0x0200, size); !errors.Is(err, ErrSize) {
			t.Errorf("peek size %d: err = %v, want size error", size, err)
		}
	}
	if _, err := e.Poke(0x0200, 0, nil); !errors.Is(err, ErrSize) {
		t.Errorf("poke size 0: err = %v, want size error", err)
	}
}

func TestExecutor_TransferPastWindowEnd(t *testing.T) {
	mem, _ := newTestMemory()
	e := NewExecutor(mem)
	if _, err := e.Peek(0x08FD, 8); !errors.Is(err, ErrAddressRange) {
		t.Errorf("err = %v, want address range error for transfer past window end", err)
	}
}

func TestExecutor_ExecuteStatusBytes(t *testing.T) {
	mem, _ := newTestMemory()
	e := NewExecutor(mem)

	tests := []struct {
		name       string
		req        Request
		wantStatus byte
		wantLen    int
	}{
		{
			name:       "peek success",
			req:        Request{Command: CmdPeek, Address: 0x0104, Size: 2},
			wantStatus: StatusSuccess,
			wantLen:    2,
		},
		{
			name:       "address error",
			req:        Request{Command: CmdPeek, Address: 0x0010, Size: 2},
			wantStatus: StatusAddressRangeError,
		},
		{
			name:       "size error",
			req:        Request{Command: CmdPeek, Address: 0x0104, Size: 0},
			wantStatus: StatusSizeError,
		},
		{
			name:       "oversized poke",
			req:        Request{Command: CmdPoke, Address: 0x0104, Size: 200},
			wantStatus: StatusSizeError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.Execute(&tt.req)
			if resp.Status != tt.wantStatus {
				t.Errorf("status = 0x%02X, want 0x%02X", resp.Status, tt.wantStatus)
			}
			if resp.Command != tt.req.Command {
				t.Errorf("command echo = 0x%02X, want 0x%02X", resp.Command, tt.req.Command)
			}
			if len(resp.Payload) != tt.wantLen {
				t.Errorf("payload length = %d, want %d", len(resp.Payload), tt.wantLen)
			}
		})
	}
}

func TestMemory_CustomWindow(t *testing.T) {
	sram := NewSRAM()
	mem := NewMemory(Window{Start: 0x2000, End: 0x3FFF}, sram)
	e := NewExecutor(mem)

	if _, err := e.Peek(0x0104, 1); !errors.Is(err, ErrAddressRange) {
		t.Errorf("default-window address must be rejected under a custom window")
	}
	if _, err := e.Peek(0x2000, 8); err != nil {
		t.Errorf("peek inside custom window: %v", err)
	}
}
