// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

// Executor validates assembled requests against the memory policy and
// performs the read or write. Both operations are synchronous and complete
// before the framer consumes further bytes; access is not atomic with
// respect to interrupts or other writers of the same range.
type Executor struct {
	mem *Memory
}

// NewExecutor creates an executor over the given memory gate.
func NewExecutor(mem *Memory) *Executor {
	return &Executor{mem: mem}
}

// Peek reads size bytes starting at address and returns them unmodified.
func (e *Executor) Peek(address uint16, size uint8) ([]byte, error) {
	return e.mem.Read(address, size)
}

// Poke writes value to address, then re-reads the same range and returns
// it as a write-verification echo. The re-read is a deliberate integrity
// check: it can surface a write the hardware did not reflect, but it is
// not atomic with the write.
func (e *Executor) Poke(address uint16, size uint8, value []byte) ([]byte, error) {
	if err := e.mem.validate(address, size); err != nil {
		return nil, err
	}
	if err := e.mem.Write(address, value[:size]); err != nil {
		return nil, err
	}
	return e.mem.Read(address, size)
}

// Execute runs one PEEK or POKE request and builds its response. Protocol
// errors become status bytes; they never fault the caller's loop.
func (e *Executor) Execute(req *Request) *Response {
	var (
		payload []byte
		err     error
	)
	switch req.Command {
	case CmdPeek:
		payload, err = e.Peek(req.Address, req.Size)
	case CmdPoke:
		payload, err = e.Poke(req.Address, req.Size, req.ValueBytes())
	default:
		// The framer only completes known commands; treat anything else
		// as an unreadable range.
		err = ErrAddressRange
	}

	resp := &Response{Command: req.Command, Status: statusByte(err)}
	if err == nil {
		resp.Payload = payload
	}
	return resp
}
