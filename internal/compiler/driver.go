// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package compiler implements the two-phase compiler driver: preprocess,
// hash, consult the cache, and either replay a hit or compile and populate
// the cache on a miss (spec.md §4.B).
package compiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/octobuild/octobuild/internal/cache"
	"github.com/octobuild/octobuild/internal/cachekey"
	"github.com/octobuild/octobuild/internal/command"
	"github.com/octobuild/octobuild/internal/compiler/commentfilter"
	"github.com/octobuild/octobuild/internal/execute"
	"github.com/octobuild/octobuild/internal/o11y/clog"
	"github.com/octobuild/octobuild/internal/reapi/digest"
)

// Driver runs one compiler invocation through the two-phase pipeline.
type Driver struct {
	// Executor runs the preprocessor and the compiler. Tests supply a fake;
	// production code uses localexec.LocalExec{}.
	Executor execute.Executor

	// Cache is consulted on every cacheable invocation. Nil disables caching
	// (equivalent to cache.None).
	Cache *cache.Store

	// ExecRoot is the directory invocations are spawned in.
	ExecRoot string

	// Env is the environment passed to child processes.
	Env []string
}

// Result is the outcome of Compile, matching what the shim reports back to
// its own caller (UBT or a human at a terminal).
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	CacheHit bool
}

// ErrNotCacheable is returned by Compile when info.Cacheable is false; the
// caller is expected to fall through to a direct invocation instead of
// treating this as a failure (spec.md §4.A "Failure modes").
var ErrNotCacheable = errors.New("compiler: invocation is not cacheable")

// Compile runs info's invocation end to end. On a cache hit it replays the
// stored artifact without spawning the real compiler; on a miss it compiles
// and, on success, populates the cache.
func (d *Driver) Compile(ctx context.Context, info command.Info) (*Result, error) {
	if !info.Cacheable {
		return nil, fmt.Errorf("%w: %s", ErrNotCacheable, info.NonCacheableReason)
	}

	pre, err := d.preprocess(ctx, info)
	if err != nil {
		return nil, err
	}
	if pre.ExitCode != 0 {
		// "do not fall back" — spec.md §4.B's deliberate departure from
		// older behavior that swallowed preprocess errors.
		return &Result{ExitCode: pre.ExitCode, Stdout: pre.Stdout, Stderr: pre.Stderr}, nil
	}

	preprocessed := pre.Stdout
	if info.Toolchain.Family == command.FamilyGCC {
		preprocessed = commentfilter.Strip(preprocessed)
	}
	preprocessedHash := sha256.Sum256(preprocessed)

	var pchHash *[sha256.Size]byte
	forceMiss := false
	if info.InputPrecompiled != "" {
		h, err := hashLocalFile(ctx, filepath.Join(d.ExecRoot, info.InputPrecompiled))
		if err != nil {
			clog.Infof(ctx, "compiler: hash PCH %s: %v (invocation stays cacheable, miss is forced)", info.InputPrecompiled, err)
			forceMiss = true
		} else {
			pchHash = &h
		}
	}

	key := cachekey.Derive(info.Toolchain.Identity, info.CompilerArgs, preprocessedHash, pchHash)

	if d.Cache != nil && !forceMiss {
		if payloads, ok, err := d.Cache.Get(ctx, key); err != nil {
			clog.Infof(ctx, "compiler: cache get %s: %v", key, err)
		} else if ok {
			return d.replay(info, payloads)
		}
	}

	return d.compileMiss(ctx, info, key, preprocessed)
}

func (d *Driver) preprocess(ctx context.Context, info command.Info) (*execResult, error) {
	args := buildPreprocessArgs(info)
	cmd := &execute.Cmd{
		ID:       uuid.NewString(),
		Desc:     fmt.Sprintf("PREPROCESS %s", filepath.Base(info.InputSources[0])),
		Args:     args,
		Env:      d.Env,
		ExecRoot: d.ExecRoot,
	}
	return d.run(ctx, cmd)
}

func (d *Driver) compileMiss(ctx context.Context, info command.Info, key cachekey.Key, preprocessed []byte) (*Result, error) {
	var sourceForSecondStage string
	if info.RunSecondCpp {
		sourceForSecondStage = info.InputSources[0]
	} else {
		tmp, err := writeTempSource(preprocessed, info)
		if err != nil {
			return nil, fmt.Errorf("compiler: write preprocessed temp file: %w", err)
		}
		defer os.Remove(tmp)
		sourceForSecondStage = tmp
	}

	args := buildCompileArgs(info, sourceForSecondStage)
	cmd := &execute.Cmd{
		ID:       uuid.NewString(),
		Desc:     fmt.Sprintf("CXX %s", filepath.Base(info.InputSources[0])),
		Args:     args,
		Env:      d.Env,
		ExecRoot: d.ExecRoot,
		Outputs:  outputsOf(info),
	}
	res, err := d.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		// CompileError: propagate the real compiler's observable behavior
		// exactly, never write a cache entry for a failed compile.
		return &Result{ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr}, nil
	}

	if d.Cache != nil {
		payloads, err := collectOutputs(d.ExecRoot, info)
		if err != nil {
			clog.Infof(ctx, "compiler: collect outputs for cache write: %v", err)
		} else {
			payloads[cache.TagStdout] = res.Stdout
			payloads[cache.TagStderr] = res.Stderr
			if err := d.Cache.Put(ctx, key, payloads); err != nil {
				// IOError on put: log and swallow, never turn a successful
				// compile into a failure (spec.md §7).
				clog.Infof(ctx, "compiler: cache put %s: %v", key, err)
			}
		}
	}

	return &Result{ExitCode: 0, Stdout: res.Stdout, Stderr: res.Stderr}, nil
}

func (d *Driver) replay(info command.Info, payloads map[uint32][]byte) (*Result, error) {
	if obj, ok := payloads[cache.TagObject]; ok {
		if err := cache.WriteFile(filepath.Join(d.ExecRoot, info.OutputObject), obj); err != nil {
			return nil, fmt.Errorf("compiler: replay object: %w", err)
		}
	}
	if pch, ok := payloads[cache.TagPCH]; ok && info.OutputPrecompiled != "" {
		if err := cache.WriteFile(filepath.Join(d.ExecRoot, info.OutputPrecompiled), pch); err != nil {
			return nil, fmt.Errorf("compiler: replay PCH: %w", err)
		}
	}
	return &Result{
		ExitCode: 0,
		Stdout:   payloads[cache.TagStdout],
		Stderr:   payloads[cache.TagStderr],
		CacheHit: true,
	}, nil
}

type execResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (d *Driver) run(ctx context.Context, cmd *execute.Cmd) (*execResult, error) {
	err := d.Executor.Run(ctx, cmd)
	var exitErr execute.ExitError
	switch {
	case err == nil:
		return &execResult{ExitCode: 0, Stdout: cmd.Stdout(), Stderr: cmd.Stderr()}, nil
	case errors.As(err, &exitErr):
		return &execResult{ExitCode: exitErr.ExitCode, Stdout: cmd.Stdout(), Stderr: cmd.Stderr()}, nil
	default:
		return nil, err
	}
}

func hashLocalFile(ctx context.Context, path string) ([sha256.Size]byte, error) {
	var out [sha256.Size]byte
	d, err := digest.FromLocalFile(ctx, digest.LocalFileSource{Fname: path})
	if err != nil {
		return out, err
	}
	b, err := hex.DecodeString(d.Digest().Hash)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func writeTempSource(preprocessed []byte, info command.Info) (string, error) {
	ext := ".i"
	if info.Language == "c" {
		ext = ".i"
	} else if info.Language == "c++" {
		ext = ".ii"
	}
	f, err := os.CreateTemp("", "octobuild-*"+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(preprocessed); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func outputsOf(info command.Info) []string {
	outputs := []string{info.OutputObject}
	if info.OutputPrecompiled != "" {
		outputs = append(outputs, info.OutputPrecompiled)
	}
	return outputs
}

func collectOutputs(execRoot string, info command.Info) (map[uint32][]byte, error) {
	payloads := make(map[uint32][]byte)
	obj, err := os.ReadFile(filepath.Join(execRoot, info.OutputObject))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", info.OutputObject, err)
	}
	payloads[cache.TagObject] = obj
	if info.OutputPrecompiled != "" {
		pch, err := os.ReadFile(filepath.Join(execRoot, info.OutputPrecompiled))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", info.OutputPrecompiled, err)
		}
		payloads[cache.TagPCH] = pch
	}
	return payloads, nil
}
