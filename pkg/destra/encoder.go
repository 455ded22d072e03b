// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

// EncodeRequest serializes one request to wire format:
//
//	CA FE CMD ADDR_LO ADDR_HI SIZE [VALUE...]
//
// GET_PERF_LOG carries only the magic word and the command byte. The value
// bytes are included only for POKE and must already be SIZE bytes long.
func EncodeRequest(cmd byte, address uint16, size uint8, value []byte) []byte {
	buf := make([]byte, 0, 6+len(value))
	buf = append(buf, MagicHigh, MagicLow, cmd)
	if cmd == CmdGetPerfLog {
		return buf
	}
	buf = append(buf, byte(address), byte(address>>8), size)
	if cmd == CmdPoke {
		buf = append(buf, value...)
	}
	return buf
}

// EncodeResponse serializes a response to wire format:
//
//	CA FE CMD STATUS [PAYLOAD...]
//
// The payload is emitted only on success; error responses are exactly four
// bytes.
func EncodeResponse(resp *Response) []byte {
	buf := make([]byte, 0, respHeaderSize+len(resp.Payload))
	buf = append(buf, MagicHigh, MagicLow, resp.Command, resp.Status)
	if resp.Status == StatusSuccess {
		buf = append(buf, resp.Payload...)
	}
	return buf
}
