// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package localexec implements local command execution.
package localexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/octobuild/octobuild/internal/execute"
	"github.com/octobuild/octobuild/internal/o11y/clog"
	"github.com/octobuild/octobuild/internal/sync/semaphore"
)

// WorkerName identifies this executor in logs.
const WorkerName = "local"

// LocalExec implements execute.Executor by running commands as local child
// processes. It is the only executor octobuild uses: there is no remote
// execution path.
type LocalExec struct{}

// Run runs cmd with the default LocalExec.
func Run(ctx context.Context, cmd *execute.Cmd) error {
	return LocalExec{}.Run(ctx, cmd)
}

// Run runs cmd and captures its output into cmd's buffers.
func (LocalExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	res, err := run(ctx, cmd)
	if err != nil {
		return err
	}
	cmd.StdoutWriter().Write(res.Stdout)
	cmd.StderrWriter().Write(res.Stderr)

	clog.Infof(ctx, "exit=%d stdout=%d stderr=%d dur=%s", res.ExitCode, len(res.Stdout), len(res.Stderr), res.Duration)

	if res.ExitCode != 0 {
		return execute.ExitError{ExitCode: res.ExitCode}
	}
	return nil
}

// result is the outcome of running one local process.
type result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
	Rusage   *Rusage
}

// forkSema bounds concurrent fork/exec calls. Without this, a large worker
// pool spawning many processes at once can exhaust OS process-creation
// resources under memory pressure.
var forkSema = semaphore.New("fork", runtime.NumCPU())

func run(ctx context.Context, cmd *execute.Cmd) (*result, error) {
	if len(cmd.Args) == 0 {
		return nil, fmt.Errorf("no arguments in the command. ID: %s", cmd.ID)
	}
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Env = cmd.Env
	c.Dir = filepath.Join(cmd.ExecRoot, cmd.Dir)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := forkSema.Do(ctx, func(ctx context.Context) error {
		return c.Start()
	})
	if err == nil {
		err = c.Wait()
	}
	dur := time.Since(start)

	res := &result{
		ExitCode: exitCode(err),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: dur,
	}
	if c.ProcessState != nil {
		res.Rusage = rusage(c)
	}
	if res.ExitCode != 0 {
		res.Stderr = append(res.Stderr, []byte(fmt.Sprintf("\ncmd: %q env: %q dir: %q error: %v", cmd.Args, cmd.Env, cmd.Dir, err))...)
	}
	return res, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var eerr *exec.ExitError
	if !errors.As(err, &eerr) {
		return 1
	}
	if w, ok := eerr.ProcessState.Sys().(syscall.WaitStatus); ok {
		return w.ExitStatus()
	}
	return 1
}
