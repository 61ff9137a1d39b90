// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package xge

import (
	"encoding/xml"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/octobuild/octobuild/internal/toolsupport/cmdutil"
)

// rawTool and rawTask mirror the subset of the .xge.xml element schema this
// parser understands. Unrecognized elements and attributes are ignored
// rather than rejected, the same skip-unknown-element tolerance the
// original parser (original_source/src/xg/parser.rs) applies so that graphs
// produced by newer IncrediBuild versions still load.
type rawTool struct {
	Name         string `xml:"Name,attr"`
	Path         string `xml:"Path,attr"`
	OutputPrefix string `xml:"OutputPrefix,attr"`
}

type rawTask struct {
	Name                 string `xml:"Name,attr"`
	Caption              string `xml:"Caption,attr"`
	Tool                 string `xml:"Tool,attr"`
	WorkingDir           string `xml:"WorkingDir,attr"`
	Params               string `xml:"Params,attr"`
	DependsOn            string `xml:"DependsOn,attr"`
	SkipIfProjectFailed  string `xml:"SkipIfProjectFailed,attr"`
	SkipIfAnyTaskFails   string `xml:"SkipIfAnyTaskFails,attr"`
}

// Parse reads a .xge.xml document and returns its declared tools and tasks.
// It streams the document with an xml.Decoder rather than xml.Unmarshal so
// that elements nested under build-specific wrapper tags (<BuildSet>,
// <Project>, vendor extensions) are found regardless of the root element's
// name.
func Parse(r io.Reader) (map[string]Tool, []Task, error) {
	tools := make(map[string]Tool)
	var tasks []Task

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("xge: decode: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "Tool":
			var rt rawTool
			if err := dec.DecodeElement(&rt, &start); err != nil {
				return nil, nil, fmt.Errorf("xge: decode Tool: %w", err)
			}
			if rt.Name == "" {
				return nil, nil, fmt.Errorf("xge: Tool element missing Name attribute")
			}
			tools[rt.Name] = Tool{ID: rt.Name, Path: rt.Path, OutputPrefix: rt.OutputPrefix}
		case "Task":
			var rt rawTask
			if err := dec.DecodeElement(&rt, &start); err != nil {
				return nil, nil, fmt.Errorf("xge: decode Task: %w", err)
			}
			id := rt.Name
			if id == "" {
				id = rt.Caption
			}
			if id == "" {
				return nil, nil, fmt.Errorf("xge: Task element missing both Name and Caption")
			}
			skip, err := parseBoolAttr(rt.SkipIfProjectFailed, rt.SkipIfAnyTaskFails)
			if err != nil {
				return nil, nil, fmt.Errorf("xge: Task %q: %w", id, err)
			}
			tasks = append(tasks, Task{
				ID:                  id,
				Caption:             firstNonEmpty(rt.Caption, rt.Name),
				WorkingDir:          rt.WorkingDir,
				Tool:                rt.Tool,
				Args:                splitParams(rt.Params),
				DependsOn:           splitDependsOn(rt.DependsOn),
				SkipIfProjectFailed: skip,
			})
		}
	}
	return tools, tasks, nil
}

// parseBoolAttr accepts either spelling the schema uses for "skip this task
// if an upstream dependency failed" (SPEC_FULL §3 notes both are seen in
// the wild) and treats an empty value on both as false.
func parseBoolAttr(primary, fallback string) (bool, error) {
	for _, v := range []string{primary, fallback} {
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("invalid boolean %q", v)
		}
		return b, nil
	}
	return false, nil
}

func splitDependsOn(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitParams splits a Task's Params attribute into argv. .xge.xml is an
// IncrediBuild format and quotes Params the way cmd.exe itself would, so on
// Windows this defers to cmdutil.Split (CommandLineToArgvW) for exact
// parity with how xgConsole's own command line would be parsed. Elsewhere,
// where that syscall isn't available, it falls back to a portable
// shell-like tokenizer that covers the common case (space-separated tokens,
// double-quoted spans).
func splitParams(s string) []string {
	if s == "" {
		return nil
	}
	if runtime.GOOS == "windows" {
		if args, err := cmdutil.Split(s); err == nil {
			return args
		}
	}
	var out []string
	var cur strings.Builder
	inQuote := false
	have := false
	flush := func() {
		if have {
			out = append(out, cur.String())
			cur.Reset()
			have = false
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			have = true
		case c == ' ' && !inQuote:
			flush()
		default:
			cur.WriteByte(c)
			have = true
		}
	}
	flush()
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
