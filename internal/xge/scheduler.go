// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package xge

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// RunFunc launches one Task's child process and reports its outcome. The
// scheduler never inspects argv construction; that's the caller's job
// (cmd/xgconsole resolves Tool.Path plus Task.Args into an execute.Cmd).
type RunFunc func(ctx context.Context, n *Node) (exitCode int, stdout, stderr []byte, err error)

// Transition is reported once per state change, in the order it happens,
// so a progress reporter can print one line per transition without
// re-deriving it from polled state.
type Transition struct {
	Node     *Node
	State    State
	ExitCode int
}

// Scheduler runs a Graph's tasks with a bounded worker pool and fail-fast
// drain semantics (spec.md §4.E).
type Scheduler struct {
	Graph       *Graph
	Run         RunFunc
	Concurrency int

	// OnTransition, if set, is called synchronously from whichever worker
	// goroutine produced the transition; implementations must not block.
	OnTransition func(Transition)
}

// Outcome is the scheduler's overall result.
type Outcome struct {
	ExitCode    int
	FailedTask  string
	WasCanceled bool
}

// Execute runs the graph to completion: either every task Succeeds, or the
// first Failed task puts the scheduler into drain, after which no new task
// is started and every not-yet-started task is marked Cancelled (or
// Skipped, for tasks with SkipIfProjectFailed set). Cancelling ctx has the
// same effect but forces an exit code of 130 once drain completes.
func (s *Scheduler) Execute(ctx context.Context) (*Outcome, error) {
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	st := &schedState{
		sched: s,
		sem:   sem,
	}

	for _, n := range s.Graph.Roots() {
		st.dispatch(ctx, n)
	}
	st.wg.Wait()

	if ctx.Err() != nil {
		return &Outcome{ExitCode: 130, WasCanceled: true, FailedTask: st.failedTask}, nil
	}
	if st.failed {
		return &Outcome{ExitCode: clampExitCode(st.failExitCode), FailedTask: st.failedTask}, nil
	}
	return &Outcome{ExitCode: 0}, nil
}

type schedState struct {
	sched *Scheduler
	sem   *semaphore.Weighted
	wg    sync.WaitGroup

	mu           sync.Mutex
	failed       bool
	failExitCode int
	failedTask   string
}

func (st *schedState) drain() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.failed
}

func (st *schedState) recordFailure(taskID string, exitCode int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.failed {
		st.failed = true
		st.failExitCode = exitCode
		st.failedTask = taskID
	}
}

// dispatch runs n, or short-circuits it into Cancelled/Skipped if the
// scheduler is already draining, then propagates n's completion to its
// successors. Each Node is dispatched exactly once: roots are dispatched
// directly by Execute, and every other Node is dispatched exactly when its
// pending-predecessor count reaches zero.
func (st *schedState) dispatch(ctx context.Context, n *Node) {
	st.wg.Add(1)
	go func() {
		defer st.wg.Done()

		if st.drain() || ctx.Err() != nil {
			st.complete(ctx, n, drainedState(n), 0)
			return
		}

		if err := st.sem.Acquire(ctx, 1); err != nil {
			st.complete(ctx, n, drainedState(n), 0)
			return
		}
		// A failure recorded while n waited for a slot still drains n.
		if st.drain() || ctx.Err() != nil {
			st.sem.Release(1)
			st.complete(ctx, n, drainedState(n), 0)
			return
		}
		st.setState(n, Running, 0)
		exitCode, _, _, err := st.sched.Run(ctx, n)

		state := Succeeded
		if err != nil || exitCode != 0 {
			state = Failed
			st.recordFailure(n.Task.ID, exitCode)
		}
		// Release only after the failure (if any) is recorded, so a freed
		// slot can't be claimed by a task that should instead see drain.
		st.sem.Release(1)
		st.complete(ctx, n, state, exitCode)
	}()
}

func drainedState(n *Node) State {
	if n.Task.SkipIfProjectFailed {
		return Skipped
	}
	return Cancelled
}

// setState records n's state and emits its transition, without touching
// successors.
func (st *schedState) setState(n *Node, state State, exitCode int) {
	n.mu.Lock()
	n.state = state
	n.mu.Unlock()
	if st.sched.OnTransition != nil {
		st.sched.OnTransition(Transition{Node: n, State: state, ExitCode: exitCode})
	}
}

// complete records n's terminal state and dispatches every successor whose
// pending-predecessor count has just reached zero.
func (st *schedState) complete(ctx context.Context, n *Node, state State, exitCode int) {
	st.setState(n, state, exitCode)
	for _, succ := range n.successors {
		succ.mu.Lock()
		succ.pending--
		ready := succ.pending == 0
		succ.mu.Unlock()
		if ready {
			st.dispatch(ctx, succ)
		}
	}
}

// clampExitCode maps a negative child status (as produced by some signal
// terminations) into xgConsole's observed positive range.
func clampExitCode(code int) int {
	if code < 0 {
		return -code
	}
	return code
}
