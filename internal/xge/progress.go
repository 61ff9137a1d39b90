// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package xge

import (
	"fmt"
	"sync"
	"time"

	"github.com/octobuild/octobuild/internal/ui"
)

// ProgressWriter renders one line per terminal task transition through
// internal/ui, in the "N/total: caption @ elapsed (State, exit N)" shape
// xgConsole's own progress lines use. It picks an animated terminal
// renderer or a plain log line depending on whether stdout is a tty,
// exactly as ui.Default already decides for the rest of octobuild.
type ProgressWriter struct {
	total int

	mu        sync.Mutex
	started   map[string]time.Time
	completed int
}

// NewProgressWriter returns a ProgressWriter for a graph of the given total
// task count. Pass its OnTransition method as a Scheduler's OnTransition.
func NewProgressWriter(total int) *ProgressWriter {
	return &ProgressWriter{total: total, started: make(map[string]time.Time)}
}

func (p *ProgressWriter) OnTransition(t Transition) {
	switch t.State {
	case Running:
		p.mu.Lock()
		p.started[t.Node.Task.ID] = time.Now()
		p.mu.Unlock()
	case Succeeded, Failed, Cancelled, Skipped:
		p.mu.Lock()
		start, ran := p.started[t.Node.Task.ID]
		delete(p.started, t.Node.Task.ID)
		p.completed++
		completed := p.completed
		p.mu.Unlock()

		var elapsed time.Duration
		if ran {
			elapsed = time.Since(start)
		}
		line := fmt.Sprintf("%d/%d: %s @ %s (%s, exit %d)",
			completed, p.total, t.Node.Task.Caption, ui.FormatDuration(elapsed), t.State, t.ExitCode)
		if t.State == Failed {
			line = ui.SGR(ui.Red, line)
		} else if t.State == Succeeded {
			line = ui.SGR(ui.Green, line)
		}
		ui.Default.PrintLines("\n", line)
	}
}
