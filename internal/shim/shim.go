// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shim holds the lifecycle shared by the octo-cl and octo-clang
// compiler front ends: load configuration, resolve the real toolchain
// behind the shim's own name, classify argv, and run it through the cache
// driver, falling back to a direct invocation when the toolchain cannot be
// identified, the invocation is not cacheable, or the cached compile fails.
// A config load, PATH lookup or working-directory failure exits 1 without
// running the compiler (spec.md §4.A, §6; grounded on original_source's
// src/simple.rs simple_compile/compile).
package shim

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/octobuild/octobuild/internal/cache"
	"github.com/octobuild/octobuild/internal/command"
	"github.com/octobuild/octobuild/internal/compiler"
	"github.com/octobuild/octobuild/internal/config"
	"github.com/octobuild/octobuild/internal/execute/localexec"
	"github.com/octobuild/octobuild/internal/o11y/clog"
)

// ParseFunc is toolsupport/msvcutil.Parse or toolsupport/gccutil.Parse.
type ParseFunc func(ctx context.Context, toolchain command.Toolchain, args []string) command.Info

// Run implements the full shim lifecycle for one invocation of argv (the
// shim's os.Args without the program name) and returns the process exit code the caller should
// use. name is the real compiler to exec, resolved via PATH excluding the
// shim's own directory so a shim named "cl" doesn't call itself.
func Run(ctx context.Context, name string, parse ParseFunc, argv []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "octobuild: load config: %v\n", err)
		return 1
	}

	realPath, err := resolveReal(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "octobuild: resolve %s: %v\n", name, err)
		return 1
	}

	toolchain, err := command.ResolveToolchain(ctx, realPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "octobuild: toolchain identity: %v\n", err)
		return runDirect(ctx, realPath, argv)
	}

	info := parse(ctx, toolchain, append([]string{realPath}, argv...))
	if !info.Cacheable {
		clog.Infof(ctx, "shim: %s: falling through: %s", name, info.NonCacheableReason)
		return runDirect(ctx, realPath, argv)
	}

	mode, err := cache.ParseMode(cfg.CacheMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "octobuild: %v\n", err)
		mode = cache.ReadWrite
	}
	store := cache.New(cfg.CacheDir, mode, int64(cfg.CacheLimitMB)*1024*1024)

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "octobuild: getwd: %v\n", err)
		return 1
	}

	driver := &compiler.Driver{
		Executor: localexec.LocalExec{},
		Cache:    store,
		ExecRoot: wd,
		Env:      os.Environ(),
	}

	res, err := driver.Compile(ctx, info)
	if err != nil {
		clog.Infof(ctx, "shim: %s: %v, falling through", name, err)
		return runDirect(ctx, realPath, argv)
	}

	os.Stdout.Write(res.Stdout)
	os.Stderr.Write(res.Stderr)
	return res.ExitCode
}

// resolveReal finds the real compiler executable on PATH, skipping any
// directory entry matching the shim's own location so octo-cl installed as
// "cl" in front of PATH doesn't recurse into itself.
func resolveReal(name string) (string, error) {
	self, err := os.Executable()
	if err != nil {
		self = ""
	}
	selfDir := filepath.Dir(self)

	path := os.Getenv("PATH")
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		if dir == selfDir {
			continue
		}
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s not found on PATH outside %s", name, selfDir)
}

// runDirect execs the real compiler with argv unmodified and returns its
// exit code, for invocations the cache cannot or should not handle.
func runDirect(ctx context.Context, realPath string, argv []string) int {
	c := exec.CommandContext(ctx, realPath, argv...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Stdin = os.Stdin
	err := c.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0
	case isExitError(err, &exitErr):
		return exitErr.ExitCode()
	default:
		fmt.Fprintf(os.Stderr, "octobuild: exec %s: %v\n", realPath, err)
		return 1
	}
}

func isExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}
