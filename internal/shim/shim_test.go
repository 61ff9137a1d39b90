// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shim

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestResolveRealFindsExecutableOnPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit semantics differ on windows")
	}
	dir := t.TempDir()
	want := writeExecutable(t, dir, "cl")

	t.Setenv("PATH", dir)
	got, err := resolveReal("cl")
	if err != nil {
		t.Fatalf("resolveReal: %v", err)
	}
	if got != want {
		t.Errorf("resolveReal() = %q; want %q", got, want)
	}
}

func TestResolveRealSkipsOwnDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit semantics differ on windows")
	}
	selfDir := filepath.Dir(mustExecutable(t))
	shimCopy := writeExecutable(t, selfDir, "cl-shim-test-decoy")

	real := t.TempDir()
	want := writeExecutable(t, real, "cl-shim-test-decoy")
	t.Cleanup(func() { os.Remove(shimCopy) })

	t.Setenv("PATH", selfDir+string(os.PathListSeparator)+real)
	got, err := resolveReal("cl-shim-test-decoy")
	if err != nil {
		t.Fatalf("resolveReal: %v", err)
	}
	if got != want {
		t.Errorf("resolveReal() = %q; want %q (the shim's own directory should be skipped)", got, want)
	}
}

func TestResolveRealNotFoundReturnsError(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if _, err := resolveReal("does-not-exist-anywhere"); err == nil {
		t.Error("resolveReal() = nil error; want an error when the executable isn't on PATH")
	}
}

func mustExecutable(t *testing.T) string {
	t.Helper()
	self, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}
	return self
}
