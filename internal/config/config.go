// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config loads octobuild's configuration: a system-wide YAML file,
// a user YAML file overlaid on it, and environment variables taking
// precedence over both (spec.md §6).
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"gopkg.in/yaml.v3"
)

const fileName = "octobuild.yaml"

// Environment variable names, matching spec.md §6 exactly.
const (
	EnvCacheDir         = "OCTOBUILD_CACHE"
	EnvCacheLimitMB     = "OCTOBUILD_CACHE_LIMIT_MB"
	EnvProcessLimit     = "OCTOBUILD_PROCESS_LIMIT"
	EnvUseResponseFiles = "OCTOBUILD_USE_RESPONSE_FILES"
	EnvCacheMode        = "OCTOBUILD_CACHE_MODE"
)

// DefaultCacheLimitMB is the cache size cap when nothing else specifies one.
const DefaultCacheLimitMB = 65536

// Config is octobuild's effective, fully-resolved configuration.
type Config struct {
	CacheDir         string `yaml:"cache_dir"`
	CacheLimitMB     int    `yaml:"cache_limit_mb"`
	ProcessLimit     int    `yaml:"process_limit"`
	UseResponseFiles bool   `yaml:"use_response_files"`
	CacheMode        string `yaml:"cache_mode"`
}

// Defaults returns the configuration with no file or environment input
// applied: platform defaults only.
func Defaults() *Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = "."
	}
	return &Config{
		CacheDir:         filepath.Join(cacheDir, "octobuild"),
		CacheLimitMB:     DefaultCacheLimitMB,
		ProcessLimit:     logicalCores(),
		UseResponseFiles: defaultUseResponseFiles,
		CacheMode:        "ReadWrite",
	}
}

// Load resolves the effective configuration: defaults, overlaid by the
// system config file, overlaid by the user config file, overlaid by
// environment variables. A missing config file is not an error; a config
// file that fails to parse is.
func Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range []string{SystemConfigPath(), UserConfigPath()} {
		if path == "" {
			continue
		}
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	mergeEnv(cfg)
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var onDisk Config
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyNonZero(cfg, &onDisk)
	return nil
}

// applyNonZero overlays src's explicitly-set fields onto dst. Since the
// YAML schema has no way to distinguish "0" from "unset" for integers, a
// value of exactly the Go zero value is treated as "not present in this
// file" and left alone — matching the original's lookup-returns-None
// semantics for missing keys.
func applyNonZero(dst, src *Config) {
	if src.CacheDir != "" {
		dst.CacheDir = src.CacheDir
	}
	if src.CacheLimitMB != 0 {
		dst.CacheLimitMB = src.CacheLimitMB
	}
	if src.ProcessLimit != 0 {
		dst.ProcessLimit = src.ProcessLimit
	}
	if src.CacheMode != "" {
		dst.CacheMode = src.CacheMode
	}
	// UseResponseFiles has no sentinel "unset" value of its own, so it is
	// ORed in: a config file can turn it on but never off. Only the
	// environment variable override (mergeEnv) can turn it off.
	dst.UseResponseFiles = dst.UseResponseFiles || src.UseResponseFiles
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv(EnvCacheLimitMB); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheLimitMB = n
		}
	}
	if v := os.Getenv(EnvProcessLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ProcessLimit = n
		}
	}
	if v := os.Getenv(EnvUseResponseFiles); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UseResponseFiles = b
		}
	}
	if v := os.Getenv(EnvCacheMode); v != "" {
		cfg.CacheMode = v
	}
}

func logicalCores() int {
	if cpuid.CPU.LogicalCores > 0 {
		return cpuid.CPU.LogicalCores
	}
	return 1
}

// Dump writes the search paths plus the effective and default
// configuration, mirroring the original's Config::help (original_source
// src/config.rs) for the `octobuild config` subcommand.
func Dump(w io.Writer) error {
	fmt.Fprintln(w, "octobuild configuration:")
	fmt.Fprintf(w, "  system config path: %s\n", describePath(SystemConfigPath()))
	fmt.Fprintf(w, "  user config path:   %s\n", describePath(UserConfigPath()))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "effective configuration:")
	effective, err := Load()
	if err != nil {
		fmt.Fprintf(w, "  ERROR: %v\n", err)
	} else {
		dumpConfig(w, effective)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "default configuration:")
	dumpConfig(w, Defaults())
	return nil
}

func dumpConfig(w io.Writer, c *Config) {
	fmt.Fprintf(w, "  %s = %d\n", strings.TrimPrefix(EnvProcessLimit, "OCTOBUILD_"), c.ProcessLimit)
	fmt.Fprintf(w, "  %s = %d\n", strings.TrimPrefix(EnvCacheLimitMB, "OCTOBUILD_"), c.CacheLimitMB)
	fmt.Fprintf(w, "  %s = %q\n", strings.TrimPrefix(EnvCacheDir, "OCTOBUILD_"), c.CacheDir)
	fmt.Fprintf(w, "  %s = %t\n", strings.TrimPrefix(EnvUseResponseFiles, "OCTOBUILD_"), c.UseResponseFiles)
	fmt.Fprintf(w, "  %s = %q\n", strings.TrimPrefix(EnvCacheMode, "OCTOBUILD_"), c.CacheMode)
}

func describePath(p string) string {
	if p == "" {
		return "none"
	}
	return p
}
