// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package destra

import (
	"bytes"
	"testing"
)

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		dataType string
		want     any
	}{
		{"hex", []byte{0x34, 0x12}, "hex", "34 12"},
		{"uint8", []byte{0xFF}, "uint8", byte(0xFF)},
		{"int8", []byte{0xFF}, "int8", int8(-1)},
		{"uint16", []byte{0x34, 0x12}, "uint16", uint16(0x1234)},
		{"int16", []byte{0xFF, 0xFF}, "int16", int16(-1)},
		{"uint32", []byte{0x78, 0x56, 0x34, 0x12}, "uint32", uint32(0x12345678)},
		{"int32", []byte{0xFF, 0xFF, 0xFF, 0xFF}, "int32", int32(-1)},
		{"float", []byte{0x00, 0x00, 0x80, 0x3F}, "float", float32(1.0)},
		{"double", []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, "double", float64(1.0)},
		{"string stops at NUL", []byte{'o', 'k', 0x00, 'x'}, "string", "ok"},
		{"dwarf alias uint32", []byte{0x01, 0, 0, 0}, "long unsigned int", uint32(1)},
		{"dwarf alias int32", []byte{0x01, 0, 0, 0}, "long", int32(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeValue(tt.data, tt.dataType)
			if err != nil {
				t.Fatalf("DecodeValue: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeValue = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestDecodeValue_Bytes(t *testing.T) {
	data := []byte{0x01, 0x02}
	got, err := DecodeValue(data, "bytes")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.([]byte), data) {
		t.Errorf("bytes decode = % X, want % X", got, data)
	}
}

func TestDecodeValue_Errors(t *testing.T) {
	if _, err := DecodeValue(nil, "uint8"); err == nil {
		t.Error("expected error for empty data")
	}
	if _, err := DecodeValue([]byte{0x01}, "uint32"); err == nil {
		t.Error("expected error for short data")
	}
	if _, err := DecodeValue([]byte{0x01}, "complex128"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestEncodeInteger(t *testing.T) {
	tests := []struct {
		name string
		v    int64
		size uint8
		want []byte
	}{
		{"one byte", 0x42, 1, []byte{0x42}},
		{"negative byte", -1, 1, []byte{0xFF}},
		{"two bytes", 0x1234, 2, []byte{0x34, 0x12}},
		{"four bytes", 0x12345678, 4, []byte{0x78, 0x56, 0x34, 0x12}},
		{"eight bytes", 1, 8, []byte{1, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeInteger(tt.v, tt.size)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeInteger = % X, want % X", got, tt.want)
			}
		})
	}

	if _, err := EncodeInteger(1, 3); err == nil {
		t.Error("expected error for unsupported size")
	}
}

func TestInferIntegerSize(t *testing.T) {
	tests := []struct {
		v    int64
		want uint8
	}{
		{0, 1}, {255, 1}, {-128, 1},
		{256, 2}, {65535, 2}, {-129, 2}, {-32768, 2},
		{65536, 4}, {-32769, 4},
	}
	for _, tt := range tests {
		if got := InferIntegerSize(tt.v); got != tt.want {
			t.Errorf("InferIntegerSize(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestEncodeFloat(t *testing.T) {
	got, err := EncodeFloat(1.0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x00, 0x00, 0x80, 0x3F}; !bytes.Equal(got, want) {
		t.Errorf("float32 encode = % X, want % X", got, want)
	}

	got, err = EncodeFloat(1.0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}; !bytes.Equal(got, want) {
		t.Errorf("float64 encode = % X, want % X", got, want)
	}

	if _, err := EncodeFloat(1.0, 2); err == nil {
		t.Error("expected error for unsupported float size")
	}
}

func TestRoundTrip_DecodeAfterEncode(t *testing.T) {
	raw, err := EncodeInteger(-1234, 2)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeValue(raw, "int16")
	if err != nil {
		t.Fatal(err)
	}
	if got.(int16) != -1234 {
		t.Errorf("round trip = %v, want -1234", got)
	}
}
