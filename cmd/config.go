// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Sandro Fadiga, EESC-USP

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sfadiga/destra/pkg/destra"
)

// TargetProfile describes one target board: its accessible memory window
// and the link parameters to talk to it.
type TargetProfile struct {
	Name    string
	Baud    int
	Timeout time.Duration
	Window  destra.Window
}

// DefaultTargetProfile matches the reference AVR firmware.
func DefaultTargetProfile() TargetProfile {
	return TargetProfile{
		Name:    "default",
		Baud:    0, // 0 means "use the --baud flag"
		Timeout: 0, // 0 means "use the client default"
		Window:  destra.DefaultWindow(),
	}
}

type fileProfile struct {
	Name        string `toml:"name"`
	Baud        int    `toml:"baud"`
	Timeout     string `toml:"timeout"`
	WindowStart string `toml:"window_start"`
	WindowEnd   string `toml:"window_end"`
}

// loadTargetProfile reads a TOML target profile. Only keys that are
// actually present in the file override the defaults. An empty path
// returns the defaults unchanged.
func loadTargetProfile(path string) (TargetProfile, error) {
	profile := DefaultTargetProfile()
	if path == "" {
		return profile, nil
	}

	var raw fileProfile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return TargetProfile{}, fmt.Errorf("load target profile: %w", err)
	}

	if meta.IsDefined("name") {
		name := strings.TrimSpace(raw.Name)
		if name != "" {
			profile.Name = name
		}
	}

	if meta.IsDefined("baud") {
		if raw.Baud <= 0 {
			return TargetProfile{}, fmt.Errorf("target profile: baud must be positive, got %d", raw.Baud)
		}
		profile.Baud = raw.Baud
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return TargetProfile{}, fmt.Errorf("target profile: parse timeout: %w", err)
		}
		if d <= 0 {
			return TargetProfile{}, fmt.Errorf("target profile: timeout must be positive, got %s", d)
		}
		profile.Timeout = d
	}

	if meta.IsDefined("window_start") {
		addr, err := parseAddress(raw.WindowStart)
		if err != nil {
			return TargetProfile{}, fmt.Errorf("target profile: parse window_start: %w", err)
		}
		profile.Window.Start = addr
	}

	if meta.IsDefined("window_end") {
		addr, err := parseAddress(raw.WindowEnd)
		if err != nil {
			return TargetProfile{}, fmt.Errorf("target profile: parse window_end: %w", err)
		}
		profile.Window.End = addr
	}

	if profile.Window.End < profile.Window.Start {
		return TargetProfile{}, fmt.Errorf("target profile: window end 0x%04X below start 0x%04X",
			profile.Window.End, profile.Window.Start)
	}

	return profile, nil
}

// parseAddress accepts decimal or 0x-prefixed hex 16-bit addresses.
func parseAddress(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint16(v), nil
}
