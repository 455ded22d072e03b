// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

// Request is one fully framed command assembled by the Framer. It is
// consumed exactly once by the executor and not retained afterward.
//
// Size carries whatever byte arrived on the wire, including zero and
// values above MaxTransferSize; validation happens in the executor, not
// during framing.
type Request struct {
	Command byte
	Address uint16
	Size    uint8
	Value   [MaxTransferSize]byte
}

// ValueBytes returns the value payload of a POKE request. The slice is
// clamped to the fixed buffer capacity so an oversized declared Size can
// never read past it.
func (r *Request) ValueBytes() []byte {
	n := int(r.Size)
	if n > len(r.Value) {
		n = len(r.Value)
	}
	return r.Value[:n]
}

// Response is the reply to one request: the echoed command byte, a status
// byte and, on success only, a payload.
type Response struct {
	Command byte
	Status  byte
	Payload []byte
}

// OK reports whether the response carries a success status.
func (r *Response) OK() bool {
	return r.Status == StatusSuccess
}
