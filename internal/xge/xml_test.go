// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package xge

import (
	"strings"
	"testing"
)

const sampleXML = `<BuildSet FormatVersion="1">
  <Tools>
    <Tool Name="cxx" Path="clang++" OutputPrefix="out: "/>
  </Tools>
  <Project Name="all">
    <Task Name="t1" Caption="compile a.cpp" Tool="cxx" WorkingDir="/src" Params="-c a.cpp -o a.o"/>
    <Task Name="t2" Caption="compile b.cpp" Tool="cxx" DependsOn="t1" Params="-c &quot;b file.cpp&quot; -o b.o"/>
    <Task Name="t3" Caption="link" Tool="cxx" DependsOn="t1,t2" SkipIfProjectFailed="true" Params="-o app a.o b.o"/>
  </Project>
</BuildSet>`

func TestParseTasksAndTools(t *testing.T) {
	tools, tasks, err := Parse(strings.NewReader(sampleXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tools) != 1 || tools["cxx"].Path != "clang++" {
		t.Fatalf("tools = %+v", tools)
	}
	if len(tasks) != 3 {
		t.Fatalf("len(tasks) = %d; want 3", len(tasks))
	}

	byID := make(map[string]Task, len(tasks))
	for _, ta := range tasks {
		byID[ta.ID] = ta
	}

	t2 := byID["t2"]
	if want := []string{"t1"}; !equalSlices(t2.DependsOn, want) {
		t.Errorf("t2.DependsOn = %v; want %v", t2.DependsOn, want)
	}
	if want := []string{"-c", "b file.cpp", "-o", "b.o"}; !equalSlices(t2.Args, want) {
		t.Errorf("t2.Args = %v; want %v", t2.Args, want)
	}

	t3 := byID["t3"]
	if !t3.SkipIfProjectFailed {
		t.Error("t3.SkipIfProjectFailed = false; want true")
	}
	if want := []string{"t1", "t2"}; !equalSlices(t3.DependsOn, want) {
		t.Errorf("t3.DependsOn = %v; want %v", t3.DependsOn, want)
	}
}

func TestParseTaskMissingIdentity(t *testing.T) {
	_, _, err := Parse(strings.NewReader(`<BuildSet><Task Tool="cxx"/></BuildSet>`))
	if err == nil {
		t.Fatal("Parse() = nil error; want error for Task with no Name or Caption")
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
