// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package config

import (
	"os"
	"path/filepath"
)

const defaultUseResponseFiles = false

// SystemConfigPath is the machine-wide config file, matching the original's
// get_global_config_path for non-Windows targets.
func SystemConfigPath() string {
	return filepath.Join("/etc/octobuild", fileName)
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
