// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package execute runs commands.
package execute

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/octobuild/octobuild/internal/toolsupport/shutil"
)

// Executor is an interface to run the cmd.
type Executor interface {
	Run(ctx context.Context, cmd *Cmd) error
}

// Cmd includes all the information required to run one build command:
// either a compiler preprocess/compile step, or an XGE task-graph node.
type Cmd struct {
	// ID is used as a unique identifier for this action in logs and progress
	// output. It does not have to be human-readable, so a UUID is fine.
	ID string

	// Desc is a short, human-readable identifier shown to the user when
	// referencing this action in progress output or a log file.
	// Example: "CXX hello.o"
	Desc string

	// Args holds command line arguments, Args[0] is the executable.
	Args []string

	// Env specifies the environment of the process. Nil means inherit the
	// parent's environment.
	Env []string

	// ExecRoot is the directory Args[0] is resolved and spawned in.
	ExecRoot string

	// Dir specifies the working directory of the cmd, relative to ExecRoot.
	Dir string

	// Inputs lists input files of the cmd, relative to ExecRoot. Informational
	// only on the local-execution path; nothing here builds a remote Merkle
	// tree from them.
	Inputs []string

	// Outputs lists output files the cmd is expected to produce, relative to
	// ExecRoot.
	Outputs []string

	stdoutWriter, stderrWriter io.Writer
	stdoutBuffer, stderrBuffer bytes.Buffer
}

// String returns the ID of the cmd.
func (c *Cmd) String() string {
	return c.ID
}

// Command returns a command line string, for logs.
func (c *Cmd) Command() string {
	return shutil.Join(c.Args)
}

// SetStdoutWriter sets w as an additional sink for stdout, for live streaming.
func (c *Cmd) SetStdoutWriter(w io.Writer) {
	c.stdoutWriter = w
}

// SetStderrWriter sets w as an additional sink for stderr, for live streaming.
func (c *Cmd) SetStderrWriter(w io.Writer) {
	c.stderrWriter = w
}

// StdoutWriter returns the writer the executor should write the child's
// stdout to. It always captures into an internal buffer, and also tees to
// the writer set by SetStdoutWriter, if any.
func (c *Cmd) StdoutWriter() io.Writer {
	c.stdoutBuffer.Reset()
	if c.stdoutWriter == nil {
		return &c.stdoutBuffer
	}
	return io.MultiWriter(c.stdoutWriter, &c.stdoutBuffer)
}

// StderrWriter returns the writer the executor should write the child's
// stderr to. See StdoutWriter.
func (c *Cmd) StderrWriter() io.Writer {
	c.stderrBuffer.Reset()
	if c.stderrWriter == nil {
		return &c.stderrBuffer
	}
	return io.MultiWriter(c.stderrWriter, &c.stderrBuffer)
}

// Stdout returns the captured stdout of the cmd.
func (c *Cmd) Stdout() []byte {
	return c.stdoutBuffer.Bytes()
}

// Stderr returns the captured stderr of the cmd.
func (c *Cmd) Stderr() []byte {
	return c.stderrBuffer.Bytes()
}

// ExitError is an error carrying the exit code of a finished cmd.
type ExitError struct {
	ExitCode int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit=%d", e.ExitCode)
}
