// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultTimeout is the blocking-read timeout for one response.
const DefaultTimeout = 2 * time.Second

const (
	// resyncRunLength is the number of magic-high bytes transmitted
	// during recovery. The run must exceed the largest number of bytes a
	// desynchronized framer can swallow while waiting for value bytes
	// (255, from a corrupted size byte) so the framer is guaranteed to
	// fall back to its start states.
	resyncRunLength = 512

	// resyncSettle is how long to wait for in-flight garbage to arrive
	// before the input is flushed a second time.
	resyncSettle = 50 * time.Millisecond
)

// ErrVerify is returned by Poke when the write-verification echo does not
// match the bytes that were written.
var ErrVerify = errors.New("destra: write verification mismatch")

// Client is the host-side protocol peer. It owns the byte stream for the
// lifetime of the connection and issues strictly one request/response pair
// at a time. On timeout or a malformed response it resynchronizes the
// stream and retries the request exactly once before surfacing a
// communication failure.
type Client struct {
	conn    io.ReadWriteCloser
	timeout time.Duration

	mu        sync.Mutex
	in        chan byte
	errc      chan error
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client over an open connection and starts its reader.
func NewClient(conn io.ReadWriteCloser) *Client {
	c := &Client{
		conn:    conn,
		timeout: DefaultTimeout,
		in:      make(chan byte, 1024),
		errc:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// SetTimeout changes the per-response timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// Close stops the reader and closes the underlying connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// readLoop pumps connection bytes into the input channel so response reads
// can observe a deadline regardless of the transport's own blocking
// behavior.
func (c *Client) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			select {
			case c.errc <- err:
			case <-c.done:
			}
			return
		}
		for i := 0; i < n; i++ {
			select {
			case c.in <- buf[i]:
			case <-c.done:
				return
			}
		}
	}
}

// readByte returns the next buffered byte or fails once the deadline
// passes.
func (c *Client) readByte(deadline time.Time) (byte, error) {
	wait := time.Until(deadline)
	if wait <= 0 {
		return 0, ErrTimeout
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case b := <-c.in:
		return b, nil
	case err := <-c.errc:
		// Keep the read error sticky for subsequent calls.
		c.errc <- err
		return 0, err
	case <-timer.C:
		return 0, ErrTimeout
	case <-c.done:
		return 0, ErrClosed
	}
}

// flushInput discards everything currently buffered from the stream.
func (c *Client) flushInput() {
	for {
		select {
		case <-c.in:
		default:
			return
		}
	}
}

// Peek reads size bytes of target memory starting at address.
func (c *Client) Peek(address uint16, size uint8) ([]byte, error) {
	if size < MinTransferSize || size > MaxTransferSize {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}
	wire := EncodeRequest(CmdPeek, address, size, nil)
	resp, err := c.exchange(wire, CmdPeek, int(size))
	if err != nil {
		return nil, err
	}
	if err := statusError(resp.Status, address, size); err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// Poke writes value to target memory at address and checks the target's
// write-verification echo against what was sent. The echo is returned even
// when the verification fails, so callers can report both sides.
func (c *Client) Poke(address uint16, value []byte) ([]byte, error) {
	size := uint8(len(value))
	if len(value) < MinTransferSize || len(value) > MaxTransferSize {
		return nil, fmt.Errorf("%w: %d", ErrSize, len(value))
	}
	wire := EncodeRequest(CmdPoke, address, size, value)
	resp, err := c.exchange(wire, CmdPoke, int(size))
	if err != nil {
		return nil, err
	}
	if err := statusError(resp.Status, address, size); err != nil {
		return nil, err
	}
	if !bytes.Equal(resp.Payload, value) {
		return resp.Payload, fmt.Errorf("%w: wrote % X, read back % X",
			ErrVerify, value, resp.Payload)
	}
	return resp.Payload, nil
}

// GetPerfLog drains the target's telemetry buffer and decodes the records.
// The target resets its buffer as part of the drain.
func (c *Client) GetPerfLog() ([]PerfLogEntry, error) {
	wire := EncodeRequest(CmdGetPerfLog, 0, 0, nil)
	resp, err := c.exchange(wire, CmdGetPerfLog, -1)
	if err != nil {
		return nil, err
	}
	if err := statusError(resp.Status, 0, 0); err != nil {
		return nil, err
	}
	return DecodePerfLog(resp.Payload)
}

// exchange is the bounded retry state machine: one attempt, then on
// timeout or desync a single resynchronization followed by one retry.
// A second failure is surfaced to the caller; nothing retries forever.
func (c *Client) exchange(wire []byte, cmd byte, payloadLen int) (*Response, error) {
	// The protocol is strictly one in-flight request/response pair.
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.roundTrip(wire, cmd, payloadLen)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, ErrTimeout) && !errors.Is(err, ErrDesync) {
		return nil, err
	}
	if rerr := c.resync(); rerr != nil {
		return nil, fmt.Errorf("destra: resync failed: %w", rerr)
	}
	resp, retryErr := c.roundTrip(wire, cmd, payloadLen)
	if retryErr != nil {
		return nil, fmt.Errorf("destra: exchange failed after resync (first attempt: %v): %w",
			err, retryErr)
	}
	return resp, nil
}

// roundTrip writes one request and reads its fixed-shape response. The
// payload length is known from the request for PEEK/POKE; payloadLen < 0
// selects the count-prefixed telemetry payload instead.
func (c *Client) roundTrip(wire []byte, cmd byte, payloadLen int) (*Response, error) {
	if _, err := c.conn.Write(wire); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.timeout)
	var hdr [respHeaderSize]byte
	for i := range hdr {
		b, err := c.readByte(deadline)
		if err != nil {
			return nil, err
		}
		hdr[i] = b
	}

	if hdr[0] != MagicHigh || hdr[1] != MagicLow {
		return nil, fmt.Errorf("%w: bad response magic % X", ErrDesync, hdr[:2])
	}
	if hdr[2] != cmd {
		return nil, fmt.Errorf("%w: command echo 0x%02X, want 0x%02X",
			ErrDesync, hdr[2], cmd)
	}

	resp := &Response{Command: hdr[2], Status: hdr[3]}
	if resp.Status != StatusSuccess {
		// Error responses are exactly four bytes; no payload follows.
		return resp, nil
	}

	if payloadLen < 0 {
		count, err := c.readByte(deadline)
		if err != nil {
			return nil, err
		}
		resp.Payload = make([]byte, 1, 1+int(count)*PerfEntrySize)
		resp.Payload[0] = count
		payloadLen = int(count) * PerfEntrySize
	} else {
		resp.Payload = make([]byte, 0, payloadLen)
	}

	for i := 0; i < payloadLen; i++ {
		b, err := c.readByte(deadline)
		if err != nil {
			return nil, err
		}
		resp.Payload = append(resp.Payload, b)
	}
	return resp, nil
}

// resync realigns the stream after a failed exchange: discard any buffered
// input, hammer the target's framer back to its start states with a run of
// magic-high bytes, then discard whatever the run shook loose. An
// odd-length run can leave the framer waiting for the low magic byte, so a
// single padding byte returns it to the initial state before the retry.
func (c *Client) resync() error {
	c.flushInput()

	run := bytes.Repeat([]byte{MagicHigh}, resyncRunLength)
	run = append(run, 0x00)
	if _, err := c.conn.Write(run); err != nil {
		return err
	}

	time.Sleep(resyncSettle)
	c.flushInput()
	return nil
}
