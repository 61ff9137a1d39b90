// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command xgconsole is a local, single-machine reimplementation of
// IncrediBuild's xgConsole: it loads a .xge.xml task graph and runs it to
// completion with dependency-ordered, bounded-parallel local execution
// (spec.md §3, §4.E). Cacheability of individual compiles is handled one
// layer down, by octo-cl/octo-clang sitting in front of the real compiler
// on PATH; xgConsole itself just runs whatever each Task names.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/octobuild/octobuild/internal/config"
	"github.com/octobuild/octobuild/internal/execute"
	"github.com/octobuild/octobuild/internal/execute/localexec"
	"github.com/octobuild/octobuild/internal/o11y/clog"
	"github.com/octobuild/octobuild/internal/xge"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("xgconsole", flag.ContinueOnError)
	stopOnErrors := fs.Bool("stopOnErrors", true, "skip the remaining task files once one file's graph fails (a failure always drains its own graph)")
	noLogo := fs.Bool("no_logo", false, "suppress the banner line")
	title := fs.String("title", "", "ignored; accepted for xgConsole command-line compatibility")
	reset := fs.Bool("reset", false, "wipe the cache directory and exit")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	_ = title

	if !*noLogo {
		fmt.Printf("xgConsole (octobuild):\n")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "xgconsole: load config: %v\n", err)
		return 1
	}

	if *reset {
		fmt.Printf("Cleaning cache directory: %s...\n", cfg.CacheDir)
		if err := os.RemoveAll(cfg.CacheDir); err != nil {
			fmt.Fprintf(os.Stderr, "xgconsole: %v\n", err)
			return 1
		}
		fmt.Println("Done!")
		return 0
	}

	files := expandWildcards(fs.Args())
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "xgconsole: no task files given")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	for _, file := range files {
		code, err := runFile(ctx, cfg, file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "xgconsole: %s: %v\n", file, err)
			return 1
		}
		if code != 0 {
			exitCode = code
			if *stopOnErrors {
				break
			}
		}
	}
	return exitCode
}

func runFile(ctx context.Context, cfg *config.Config, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	tools, tasks, err := xge.Parse(f)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}

	graph, err := xge.Build(tools, tasks)
	if err != nil {
		return 0, fmt.Errorf("build graph: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return 0, fmt.Errorf("getwd: %w", err)
	}

	progress := xge.NewProgressWriter(len(graph.Nodes))
	sched := &xge.Scheduler{
		Graph:        graph,
		Concurrency:  cfg.ProcessLimit,
		OnTransition: progress.OnTransition,
		Run:          runner(wd, os.Environ()),
	}

	outcome, err := sched.Execute(ctx)
	if err != nil {
		return 0, err
	}
	if outcome.WasCanceled {
		fmt.Fprintln(os.Stderr, "xgconsole: build canceled")
	} else if outcome.FailedTask != "" {
		fmt.Fprintf(os.Stderr, "xgconsole: task %q failed with exit code %d\n", outcome.FailedTask, outcome.ExitCode)
	}
	return outcome.ExitCode, nil
}

// runner builds an xge.RunFunc that spawns each Task's Tool as a local
// child process rooted at execRoot.
func runner(execRoot string, env []string) xge.RunFunc {
	return func(ctx context.Context, n *xge.Node) (int, []byte, []byte, error) {
		ctx = clog.NewSpan(ctx, n.Task.ID, map[string]string{"tool": n.Tool.ID})
		args := append([]string{n.Tool.Path}, n.Task.Args...)
		cmd := &execute.Cmd{
			ID:       uuid.NewString(),
			Desc:     n.Task.Caption,
			Args:     args,
			Env:      env,
			ExecRoot: execRoot,
			Dir:      n.Task.WorkingDir,
		}
		err := localexec.Run(ctx, cmd)
		stdout, stderr := stripPrefix(cmd.Stdout(), n.Tool.OutputPrefix), cmd.Stderr()
		os.Stdout.Write(stdout)
		os.Stderr.Write(stderr)

		var exitErr execute.ExitError
		switch {
		case err == nil:
			return 0, stdout, stderr, nil
		case errors.As(err, &exitErr):
			return exitErr.ExitCode, stdout, stderr, nil
		default:
			return 1, stdout, stderr, err
		}
	}
}

func stripPrefix(b []byte, prefix string) []byte {
	if prefix == "" {
		return b
	}
	out := make([]byte, 0, len(b))
	for _, line := range strings.Split(string(b), "\n") {
		out = append(out, []byte(strings.TrimPrefix(line, prefix))...)
		out = append(out, '\n')
	}
	return out
}

// expandWildcards resolves glob patterns in args, for Windows-style
// invocations where the shell doesn't do it. A pattern matching nothing, or
// a plain non-glob path, is passed through unchanged so a typo still
// surfaces as "file not found" rather than silently vanishing.
func expandWildcards(args []string) []string {
	var out []string
	for _, a := range args {
		matches, err := filepath.Glob(a)
		if err != nil || len(matches) == 0 {
			out = append(out, a)
			continue
		}
		out = append(out, matches...)
	}
	return out
}
