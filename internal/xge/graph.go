// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package xge

import (
	"fmt"
	"sync"
)

// Node is one Task placed in a Graph, carrying the mutable scheduling state
// the scheduler flips as the build progresses.
type Node struct {
	Task Task
	Tool Tool

	successors   []*Node
	predecessors []*Node

	mu       sync.Mutex
	state    State
	pending  int // predecessors not yet in a terminal state
}

func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Graph is a validated, acyclic set of Nodes built from a set of Tasks.
type Graph struct {
	Nodes []*Node
	byID  map[string]*Node
}

// Build resolves tool and dependency references, detects cycles, and
// returns a ready-to-schedule Graph. A Task referencing an unknown Tool or
// an unknown predecessor ID is a build error, not a runtime skip, since
// xgConsole rejects malformed graphs before starting any work.
func Build(tools map[string]Tool, tasks []Task) (*Graph, error) {
	g := &Graph{byID: make(map[string]*Node, len(tasks))}
	for _, t := range tasks {
		if _, dup := g.byID[t.ID]; dup {
			return nil, fmt.Errorf("xge: duplicate task id %q", t.ID)
		}
		tool, ok := tools[t.Tool]
		if !ok {
			return nil, fmt.Errorf("xge: task %q references unknown tool %q", t.ID, t.Tool)
		}
		n := &Node{Task: t, Tool: tool}
		g.byID[t.ID] = n
		g.Nodes = append(g.Nodes, n)
	}

	for _, n := range g.Nodes {
		for _, depID := range n.Task.DependsOn {
			dep, ok := g.byID[depID]
			if !ok {
				return nil, fmt.Errorf("xge: task %q depends on unknown task %q", n.Task.ID, depID)
			}
			dep.successors = append(dep.successors, n)
			n.predecessors = append(n.predecessors, dep)
		}
		n.pending = len(n.predecessors)
	}

	if cyc := findCycle(g.Nodes); cyc != "" {
		return nil, fmt.Errorf("xge: dependency cycle detected at task %q", cyc)
	}

	return g, nil
}

// findCycle runs a depth-first coloring search and returns the ID of a task
// on a cycle, or "" if the graph is acyclic.
func findCycle(nodes []*Node) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[*Node]int, len(nodes))

	var visit func(n *Node) string
	visit = func(n *Node) string {
		color[n] = gray
		for _, s := range n.successors {
			switch color[s] {
			case gray:
				return s.Task.ID
			case white:
				if id := visit(s); id != "" {
					return id
				}
			}
		}
		color[n] = black
		return ""
	}

	for _, n := range nodes {
		if color[n] == white {
			if id := visit(n); id != "" {
				return id
			}
		}
	}
	return ""
}

// Roots returns the Nodes with no predecessors: the initial Ready set.
func (g *Graph) Roots() []*Node {
	var roots []*Node
	for _, n := range g.Nodes {
		if len(n.predecessors) == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}
