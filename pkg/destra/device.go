// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import (
	"io"
	"time"
)

// Device is the embedded-side protocol peer: framer, executor, telemetry
// recorder and response encoder driven by a cooperative step loop. It is
// single-threaded; exactly one request is in flight at any time and each
// main-loop iteration completes at most one request before returning
// control to the caller.
type Device struct {
	framer *Framer
	exec   *Executor
	perf   *PerfLog

	now func() time.Time

	frameCounter   uint32
	lastFrameTime  time.Time
	frameDelta     time.Duration
	prevFrameDelta time.Duration

	cmdSeq        uint16
	cmdStartFrame uint32
	cmdStartTime  time.Time
	inCommand     bool
}

// NewDevice creates a device serving the given memory gate.
func NewDevice(mem *Memory) *Device {
	return &Device{
		framer: NewFramer(),
		exec:   NewExecutor(mem),
		perf:   NewPerfLog(),
		now:    time.Now,
	}
}

// SetClock replaces the wall clock, for deterministic telemetry in tests.
func (d *Device) SetClock(now func() time.Time) {
	d.now = now
}

// PerfLog exposes the telemetry buffer.
func (d *Device) PerfLog() *PerfLog {
	return d.perf
}

// Tick marks one main-loop iteration: advance the frame counter and
// refresh the frame timing used for rate and jitter telemetry.
func (d *Device) Tick() {
	now := d.now()
	d.frameCounter++
	if !d.lastFrameTime.IsZero() {
		d.prevFrameDelta = d.frameDelta
		d.frameDelta = now.Sub(d.lastFrameTime)
	}
	d.lastFrameTime = now
}

// Feed advances the framer by one byte. When the byte completes a request
// the device executes it, records telemetry, and returns the encoded
// response ready for the outbound stream; otherwise it returns nil
// immediately, keeping the loop non-blocking.
func (d *Device) Feed(b byte) []byte {
	idleBefore := d.framer.Idle()
	req := d.framer.Feed(b)

	if req == nil {
		if idleBefore && !d.framer.Idle() {
			// First magic byte of a new request: command processing
			// starts here for latency accounting.
			d.inCommand = true
			d.cmdStartFrame = d.frameCounter
			d.cmdStartTime = d.now()
		}
		return nil
	}

	d.inCommand = false

	var resp *Response
	switch req.Command {
	case CmdGetPerfLog:
		// Draining resets the buffer; the drain itself is not recorded,
		// so an immediate second drain returns zero records.
		resp = &Response{
			Command: CmdGetPerfLog,
			Status:  StatusSuccess,
			Payload: d.perf.DrainPayload(),
		}
	default:
		resp = d.exec.Execute(req)
		d.recordCompletion()
	}
	return EncodeResponse(resp)
}

// recordCompletion captures one telemetry record for the request that just
// finished, successful or not.
func (d *Device) recordCompletion() {
	d.cmdSeq++
	d.perf.Record(PerfLogEntry{
		FrameCounter:             d.frameCounter,
		FrameRate:                frameRate(d.frameDelta),
		FrameJitter:              saturateU16(microseconds(absDelta(d.frameDelta, d.prevFrameDelta))),
		CommandSequence:          d.cmdSeq,
		CommandFrameCounterDelta: uint16(d.frameCounter - d.cmdStartFrame),
		CommandProcessTime:       saturateU32(microseconds(d.now().Sub(d.cmdStartTime))),
	})
}

// Serve drives the device over a byte stream until a read or write error.
// Each outer iteration is one cooperative tick; a completed request ends
// the iteration so other on-target work would interleave between requests,
// never within one.
func (d *Device) Serve(conn io.ReadWriter) error {
	buf := make([]byte, 64)
	var pending []byte
	for {
		d.Tick()
		if len(pending) == 0 {
			n, err := conn.Read(buf)
			if err != nil {
				return err
			}
			pending = buf[:n]
		}
		for len(pending) > 0 {
			b := pending[0]
			pending = pending[1:]
			if out := d.Feed(b); out != nil {
				if _, err := conn.Write(out); err != nil {
					return err
				}
				break
			}
		}
	}
}

func frameRate(delta time.Duration) uint16 {
	us := microseconds(delta)
	if us <= 0 {
		return 0
	}
	return saturateU16(1_000_000 / us)
}

func microseconds(d time.Duration) int64 {
	return d.Microseconds()
}

func absDelta(a, b time.Duration) time.Duration {
	if a > b {
		return a - b
	}
	return b - a
}

func saturateU16(v int64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

func saturateU32(v int64) uint32 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(v)
}
