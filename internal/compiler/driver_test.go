// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/octobuild/octobuild/internal/cache"
	"github.com/octobuild/octobuild/internal/command"
	"github.com/octobuild/octobuild/internal/execute"
)

// fakeStep is one scripted response for fakeExecutor.
type fakeStep struct {
	stdout, stderr []byte
	exitCode       int
	// writeObject, if set, is written to info.OutputObject before returning,
	// simulating the real compiler producing its artifact.
	writeObject []byte
}

// fakeExecutor replays a fixed sequence of fakeStep results, one per Run
// call, so driver_test can script "preprocess succeeds, then compile
// succeeds" without spawning a real compiler.
type fakeExecutor struct {
	steps []fakeStep
	calls int
}

func (f *fakeExecutor) Run(ctx context.Context, cmd *execute.Cmd) error {
	step := f.steps[f.calls]
	f.calls++
	cmd.StdoutWriter().Write(step.stdout)
	cmd.StderrWriter().Write(step.stderr)
	if step.writeObject != nil {
		for _, out := range cmd.Outputs {
			_ = os.MkdirAll(filepath.Dir(filepath.Join(cmd.ExecRoot, out)), 0o755)
			_ = os.WriteFile(filepath.Join(cmd.ExecRoot, out), step.writeObject, 0o644)
		}
	}
	if step.exitCode != 0 {
		return execute.ExitError{ExitCode: step.exitCode}
	}
	return nil
}

func TestDriverCompileMissThenHit(t *testing.T) {
	ctx := context.Background()
	execRoot := t.TempDir()
	objPath := "a.o"

	info := command.Info{
		Toolchain:        command.Toolchain{Path: "clang++", Family: command.FamilyGCC, Identity: "test-toolchain"},
		InputSources:     []string{"a.cpp"},
		OutputObject:     objPath,
		PreprocessorArgs: []string{"-Iinc"},
		CompilerArgs:     []string{"-O2"},
		RunSecondCpp:     true,
		Cacheable:        true,
	}

	exec := &fakeExecutor{steps: []fakeStep{
		{stdout: []byte("int x;\n"), exitCode: 0},                        // preprocess (miss)
		{stdout: []byte(""), exitCode: 0, writeObject: []byte("OBJCODE")}, // compile (miss)
		{stdout: []byte("int x;\n"), exitCode: 0},                        // preprocess (hit): same content, same key
	}}
	d := &Driver{Executor: exec, Cache: cache.New(t.TempDir(), cache.ReadWrite, cache.DefaultLimitBytes), ExecRoot: execRoot}

	res, err := d.Compile(ctx, info)
	if err != nil {
		t.Fatalf("Compile (miss): %v", err)
	}
	if res.ExitCode != 0 || res.CacheHit {
		t.Fatalf("Compile (miss) = %+v; want exit 0, CacheHit=false", res)
	}
	if exec.calls != 2 {
		t.Fatalf("exec.calls = %d; want 2 (preprocess + compile)", exec.calls)
	}

	// Remove the object the "compiler" wrote so a replay is observably a
	// replay, not a no-op because the file was already there.
	os.Remove(filepath.Join(execRoot, objPath))

	res2, err := d.Compile(ctx, info)
	if err != nil {
		t.Fatalf("Compile (hit): %v", err)
	}
	if res2.ExitCode != 0 || !res2.CacheHit {
		t.Fatalf("Compile (hit) = %+v; want exit 0, CacheHit=true", res2)
	}
	if exec.calls != 3 {
		t.Fatalf("exec.calls = %d; want 3 (no compiler spawned on replay, only the second preprocess)", exec.calls)
	}

	got, err := os.ReadFile(filepath.Join(execRoot, objPath))
	if err != nil {
		t.Fatalf("read replayed object: %v", err)
	}
	if string(got) != "OBJCODE" {
		t.Errorf("replayed object = %q; want %q", got, "OBJCODE")
	}
}

func TestDriverNotCacheableReturnsSentinelError(t *testing.T) {
	ctx := context.Background()
	info := command.NonCacheable(command.Toolchain{Path: "cl.exe"}, "unrecognized flag")
	d := &Driver{Executor: &fakeExecutor{}}

	_, err := d.Compile(ctx, info)
	if err == nil {
		t.Fatal("Compile() = nil error; want ErrNotCacheable")
	}
}

func TestDriverPreprocessFailureDoesNotFallBack(t *testing.T) {
	ctx := context.Background()
	info := command.Info{
		Toolchain:    command.Toolchain{Path: "clang++", Family: command.FamilyGCC, Identity: "t"},
		InputSources: []string{"a.cpp"},
		OutputObject: "a.o",
		Cacheable:    true,
		RunSecondCpp: true,
	}
	exec := &fakeExecutor{steps: []fakeStep{
		{stdout: []byte(""), stderr: []byte("a.cpp:1:1: error: bad\n"), exitCode: 1},
	}}
	d := &Driver{Executor: exec, ExecRoot: t.TempDir()}

	res, err := d.Compile(ctx, info)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d; want 1", res.ExitCode)
	}
	if exec.calls != 1 {
		t.Errorf("exec.calls = %d; want 1 (no fallback compile attempt)", exec.calls)
	}
}

func TestDriverCommentInsensitivity(t *testing.T) {
	ctx := context.Background()
	info := command.Info{
		Toolchain:    command.Toolchain{Path: "clang++", Family: command.FamilyGCC, Identity: "t"},
		InputSources: []string{"a.cpp"},
		OutputObject: "a.o",
		Cacheable:    true,
		RunSecondCpp: true,
	}

	dir := t.TempDir()
	c := cache.New(dir, cache.ReadWrite, cache.DefaultLimitBytes)

	exec1 := &fakeExecutor{steps: []fakeStep{
		{stdout: []byte("int x;\n"), exitCode: 0},
		{stdout: []byte(""), exitCode: 0, writeObject: []byte("OBJ")},
	}}
	d1 := &Driver{Executor: exec1, Cache: c, ExecRoot: t.TempDir()}
	if _, err := d1.Compile(ctx, info); err != nil {
		t.Fatalf("Compile #1: %v", err)
	}

	// Same preprocessed code plus a trailing comment: must still hit.
	exec2 := &fakeExecutor{steps: []fakeStep{
		{stdout: []byte("int x;// added only a comment\n"), exitCode: 0},
	}}
	d2 := &Driver{Executor: exec2, Cache: c, ExecRoot: t.TempDir()}
	res, err := d2.Compile(ctx, info)
	if err != nil {
		t.Fatalf("Compile #2: %v", err)
	}
	if !res.CacheHit {
		t.Error("Compile #2 CacheHit = false; want true (comment-only edit)")
	}
}
