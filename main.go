// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP
//
// destra - host-side tooling for the DESTRA real-time memory debugger.

package main

import (
	"os"

	"github.com/sfadiga/destra/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
