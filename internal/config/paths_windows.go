// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build windows

package config

import (
	"os"
	"path/filepath"
)

const defaultUseResponseFiles = true

// SystemConfigPath mirrors the original's %ProgramData%\octobuild location.
func SystemConfigPath() string {
	programData := os.Getenv("ProgramData")
	if programData == "" {
		return ""
	}
	return filepath.Join(programData, "octobuild", fileName)
}

// UserConfigPath is the per-user override, a dotfile in the home directory
// as in the original's get_local_config_path.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "."+fileName)
}
