// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// exportFile writes v to path, choosing the codec by extension:
// .cbor for compact binary, anything else gets indented JSON.
func exportFile(path string, v any) error {
	var (
		data []byte
		err  error
	)

	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		data, err = cbor.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
