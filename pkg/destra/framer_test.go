// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import "testing"

// feedAll pushes a byte sequence through the framer and returns every
// completed request.
func feedAll(f *Framer, data []byte) []*Request {
	var reqs []*Request
	for _, b := range data {
		if req := f.Feed(b); req != nil {
			reqs = append(reqs, req)
		}
	}
	return reqs
}

func TestFramer_PeekRequest(t *testing.T) {
	f := NewFramer()
	reqs := feedAll(f, []byte{0xCA, 0xFE, 0xF1, 0x04, 0x01, 0x02})
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.Command != CmdPeek {
		t.Errorf("command = 0x%02X, want 0x%02X", req.Command, CmdPeek)
	}
	if req.Address != 0x0104 {
		t.Errorf("address = 0x%04X, want 0x0104", req.Address)
	}
	if req.Size != 2 {
		t.Errorf("size = %d, want 2", req.Size)
	}
	if !f.Idle() {
		t.Error("framer should return to idle after a completed request")
	}
}

func TestFramer_PokeRequest(t *testing.T) {
	f := NewFramer()
	reqs := feedAll(f, []byte{0xCA, 0xFE, 0xF2, 0x04, 0x01, 0x02, 0x04, 0x00})
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.Command != CmdPoke {
		t.Errorf("command = 0x%02X, want 0x%02X", req.Command, CmdPoke)
	}
	if req.Address != 0x0104 || req.Size != 2 {
		t.Errorf("address/size = 0x%04X/%d, want 0x0104/2", req.Address, req.Size)
	}
	got := req.ValueBytes()
	if len(got) != 2 || got[0] != 0x04 || got[1] != 0x00 {
		t.Errorf("value = % X, want 04 00", got)
	}
}

func TestFramer_PerfLogRequest(t *testing.T) {
	f := NewFramer()
	reqs := feedAll(f, []byte{0xCA, 0xFE, 0xF3})
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Command != CmdGetPerfLog {
		t.Errorf("command = 0x%02X, want 0x%02X", reqs[0].Command, CmdGetPerfLog)
	}
}

func TestFramer_DiscardsLeadingNoise(t *testing.T) {
	f := NewFramer()
	noise := []byte{0x00, 0x42, 0xFE, 0xF1, 0x99}
	request := []byte{0xCA, 0xFE, 0xF1, 0x00, 0x02, 0x01}
	reqs := feedAll(f, append(noise, request...))
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Address != 0x0200 || reqs[0].Size != 1 {
		t.Errorf("parsed 0x%04X/%d, want 0x0200/1", reqs[0].Address, reqs[0].Size)
	}
}

func TestFramer_FalseStartResync(t *testing.T) {
	// A magic-high byte followed by a non-magic-low byte must resync
	// without consuming the following genuine request.
	f := NewFramer()
	reqs := feedAll(f, []byte{0xCA, 0x00, 0xCA, 0xFE, 0xF1, 0x04, 0x01, 0x02})
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Address != 0x0104 {
		t.Errorf("address = 0x%04X, want 0x0104", reqs[0].Address)
	}
}

func TestFramer_UnknownCommandDiscarded(t *testing.T) {
	f := NewFramer()
	reqs := feedAll(f, []byte{0xCA, 0xFE, 0x55})
	if len(reqs) != 0 {
		t.Fatalf("unknown command must not complete a request")
	}
	if !f.Idle() {
		t.Error("framer should resync to idle after an unknown command")
	}
}

func TestFramer_ZeroSizePoke(t *testing.T) {
	// A zero-size POKE completes without waiting for value bytes; the
	// executor rejects it downstream.
	f := NewFramer()
	reqs := feedAll(f, []byte{0xCA, 0xFE, 0xF2, 0x00, 0x01, 0x00})
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Size != 0 {
		t.Errorf("size = %d, want 0", reqs[0].Size)
	}
}

func TestFramer_OversizedValueDoesNotOverflow(t *testing.T) {
	// Size bytes above the buffer capacity pass through this layer, but
	// the value buffer write index must stay bounded.
	f := NewFramer()
	stream := []byte{0xCA, 0xFE, 0xF2, 0x00, 0x02, 0xFF}
	for i := 0; i < 0xFF; i++ {
		stream = append(stream, byte(i))
	}
	reqs := feedAll(f, stream)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.Size != 0xFF {
		t.Errorf("size = %d, want 255", req.Size)
	}
	if got := req.ValueBytes(); len(got) != MaxTransferSize {
		t.Errorf("value bytes clamped to %d, want %d", len(got), MaxTransferSize)
	}
}

func TestFramer_ResetMidParse(t *testing.T) {
	f := NewFramer()
	feedAll(f, []byte{0xCA, 0xFE, 0xF1, 0x04})
	f.Reset()
	if !f.Idle() {
		t.Fatal("framer not idle after reset")
	}
	reqs := feedAll(f, []byte{0xCA, 0xFE, 0xF1, 0x10, 0x01, 0x01})
	if len(reqs) != 1 || reqs[0].Address != 0x0110 {
		t.Fatalf("request after reset not parsed cleanly: %+v", reqs)
	}
}

func TestFramer_BackToBackRequests(t *testing.T) {
	f := NewFramer()
	stream := []byte{
		0xCA, 0xFE, 0xF1, 0x04, 0x01, 0x02,
		0xCA, 0xFE, 0xF2, 0x08, 0x01, 0x01, 0x7F,
		0xCA, 0xFE, 0xF3,
	}
	reqs := feedAll(f, stream)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(reqs))
	}
	if reqs[0].Command != CmdPeek || reqs[1].Command != CmdPoke || reqs[2].Command != CmdGetPerfLog {
		t.Errorf("commands = %02X %02X %02X", reqs[0].Command, reqs[1].Command, reqs[2].Command)
	}
}
