// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ValueTypes lists the names DecodeValue accepts.
var ValueTypes = []string{
	"hex", "uint8", "int8", "uint16", "int16",
	"uint32", "int32", "float", "double", "string", "bytes",
}

// TypeSize returns the transfer size implied by a type name. Types
// without a fixed width (hex, string, bytes) report ok=false and the
// caller picks the size.
func TypeSize(dataType string) (uint8, bool) {
	switch strings.ToLower(dataType) {
	case "uint8", "int8":
		return 1, true
	case "uint16", "int16":
		return 2, true
	case "uint32", "int32", "float", "long", "long unsigned int", "long signed int":
		return 4, true
	case "double":
		return 8, true
	default:
		return 0, false
	}
}

// DecodeValue interprets raw peek bytes as the named type. Multi-byte
// types are little-endian, matching the target architecture. Strings stop
// at the first NUL terminator.
func DecodeValue(data []byte, dataType string) (any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("destra: no data to decode")
	}

	need := func(n int) error {
		if len(data) < n {
			return fmt.Errorf("destra: need at least %d bytes for %s, have %d",
				n, dataType, len(data))
		}
		return nil
	}

	switch strings.ToLower(dataType) {
	case "hex":
		return FormatHex(data), nil
	case "uint8":
		return data[0], nil
	case "int8":
		return int8(data[0]), nil
	case "uint16":
		if err := need(2); err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint16(data), nil
	case "int16":
		if err := need(2); err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(data)), nil
	case "uint32", "long unsigned int":
		if err := need(4); err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint32(data), nil
	case "int32", "long", "long signed int":
		if err := need(4); err != nil {
			return nil, err
		}
		return int32(binary.LittleEndian.Uint32(data)), nil
	case "float":
		if err := need(4); err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
	case "double":
		if err := need(8); err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
	case "string":
		if i := bytes.IndexByte(data, 0); i >= 0 {
			data = data[:i]
		}
		return string(data), nil
	case "bytes":
		return data, nil
	default:
		return nil, fmt.Errorf("destra: unknown data type %q", dataType)
	}
}

// EncodeInteger converts an integer poke value to little-endian bytes.
// Valid sizes are 1, 2, 4 and 8.
func EncodeInteger(v int64, size uint8) ([]byte, error) {
	switch size {
	case 1:
		return []byte{byte(v)}, nil
	case 2:
		out := make([]byte, 2)
		binary.LittleEndian.PutUint16(out, uint16(v))
		return out, nil
	case 4:
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, uint32(v))
		return out, nil
	case 8:
		out := make([]byte, 8)
		binary.LittleEndian.PutUint64(out, uint64(v))
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d for integer value", ErrSize, size)
	}
}

// InferIntegerSize picks the smallest transfer size holding v, matching
// the host tooling's historical behavior: 1, 2 or 4 bytes.
func InferIntegerSize(v int64) uint8 {
	switch {
	case v >= -128 && v <= 255:
		return 1
	case v >= -32768 && v <= 65535:
		return 2
	default:
		return 4
	}
}

// EncodeFloat converts a floating-point poke value to little-endian bytes.
// Size 4 encodes a float32, size 8 a float64.
func EncodeFloat(v float64, size uint8) ([]byte, error) {
	switch size {
	case 4:
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, math.Float32bits(float32(v)))
		return out, nil
	case 8:
		out := make([]byte, 8)
		binary.LittleEndian.PutUint64(out, math.Float64bits(v))
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d for float value", ErrSize, size)
	}
}

// FormatHex renders bytes as space-separated lowercase hex pairs.
func FormatHex(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}
