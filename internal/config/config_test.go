// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package config

import (
	"os"
	"testing"
)

func TestDefaultsHasNonZeroProcessLimit(t *testing.T) {
	d := Defaults()
	if d.ProcessLimit <= 0 {
		t.Errorf("ProcessLimit = %d; want > 0", d.ProcessLimit)
	}
	if d.CacheLimitMB != DefaultCacheLimitMB {
		t.Errorf("CacheLimitMB = %d; want %d", d.CacheLimitMB, DefaultCacheLimitMB)
	}
}

func TestMergeEnvOverridesDefaults(t *testing.T) {
	t.Setenv(EnvCacheDir, "/tmp/octobuild-cache")
	t.Setenv(EnvCacheLimitMB, "1024")
	t.Setenv(EnvProcessLimit, "4")
	t.Setenv(EnvCacheMode, "ReadOnly")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheDir != "/tmp/octobuild-cache" {
		t.Errorf("CacheDir = %q; want /tmp/octobuild-cache", cfg.CacheDir)
	}
	if cfg.CacheLimitMB != 1024 {
		t.Errorf("CacheLimitMB = %d; want 1024", cfg.CacheLimitMB)
	}
	if cfg.ProcessLimit != 4 {
		t.Errorf("ProcessLimit = %d; want 4", cfg.ProcessLimit)
	}
	if cfg.CacheMode != "ReadOnly" {
		t.Errorf("CacheMode = %q; want ReadOnly", cfg.CacheMode)
	}
}

func TestMergeFileOverlaysDefaultsThenEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/octobuild.yaml"
	if err := os.WriteFile(path, []byte("cache_limit_mb: 2048\nprocess_limit: 2\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	cfg := Defaults()
	if err := mergeFile(cfg, path); err != nil {
		t.Fatalf("mergeFile: %v", err)
	}
	if cfg.CacheLimitMB != 2048 {
		t.Errorf("CacheLimitMB after file merge = %d; want 2048", cfg.CacheLimitMB)
	}

	t.Setenv(EnvCacheLimitMB, "4096")
	mergeEnv(cfg)
	if cfg.CacheLimitMB != 4096 {
		t.Errorf("CacheLimitMB after env merge = %d; want 4096 (env wins over file)", cfg.CacheLimitMB)
	}
}

func TestMergeFileMissingIsNotAnError(t *testing.T) {
	cfg := Defaults()
	if err := mergeFile(cfg, "/nonexistent/octobuild.yaml"); err != nil {
		t.Errorf("mergeFile on missing file = %v; want nil", err)
	}
}
