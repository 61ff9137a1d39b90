// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package msvcutil

import (
	"context"
	"testing"

	"github.com/octobuild/octobuild/internal/command"
)

func TestParseCacheable(t *testing.T) {
	ctx := context.Background()
	toolchain := command.Toolchain{Path: "cl.exe", Family: command.FamilyMSVC}
	args := []string{"cl.exe", "/c", "/FoC:\\out\\a.obj", "/IC:\\inc", "a.cpp"}

	info := Parse(ctx, toolchain, args)
	if !info.Cacheable {
		t.Fatalf("Cacheable = false; reason=%q", info.NonCacheableReason)
	}
	if info.OutputObject != `C:\out\a.obj` {
		t.Errorf("OutputObject = %q; want %q", info.OutputObject, `C:\out\a.obj`)
	}
	if len(info.InputSources) != 1 || info.InputSources[0] != "a.cpp" {
		t.Errorf("InputSources = %v; want [a.cpp]", info.InputSources)
	}
}

func TestParseAnalyzeNonCacheable(t *testing.T) {
	ctx := context.Background()
	toolchain := command.Toolchain{Path: "cl.exe", Family: command.FamilyMSVC}
	args := []string{"cl.exe", "/c", "/Fo", "a.obj", "/analyze", "a.cpp"}

	info := Parse(ctx, toolchain, args)
	if info.Cacheable {
		t.Fatal("Cacheable = true; want false for /analyze")
	}
}

func TestParseZiWithoutZ7NonCacheable(t *testing.T) {
	ctx := context.Background()
	toolchain := command.Toolchain{Path: "cl.exe", Family: command.FamilyMSVC}
	args := []string{"cl.exe", "/c", "/Zi", "/FoC:\\out\\a.obj", "a.cpp"}

	info := Parse(ctx, toolchain, args)
	if info.Cacheable {
		t.Fatal("Cacheable = true; want false for /Zi without /Z7")
	}
}

func TestParseZiWithZ7Cacheable(t *testing.T) {
	ctx := context.Background()
	toolchain := command.Toolchain{Path: "cl.exe", Family: command.FamilyMSVC}
	args := []string{"cl.exe", "/c", "/Zi", "/Z7", "/FoC:\\out\\a.obj", "a.cpp"}

	info := Parse(ctx, toolchain, args)
	if !info.Cacheable {
		t.Fatalf("Cacheable = false; reason=%q", info.NonCacheableReason)
	}
}

func TestParseUnknownFlagNonCacheable(t *testing.T) {
	ctx := context.Background()
	toolchain := command.Toolchain{Path: "cl.exe", Family: command.FamilyMSVC}
	args := []string{"cl.exe", "/c", "/Zorp", "/FoC:\\out\\a.obj", "a.cpp"}

	info := Parse(ctx, toolchain, args)
	if info.Cacheable {
		t.Fatal("Cacheable = true; want false for unrecognized flag")
	}
	if info.NonCacheableReason == "" {
		t.Error("NonCacheableReason is empty")
	}
}

func TestParsePrecompiledHeaderProduce(t *testing.T) {
	ctx := context.Background()
	toolchain := command.Toolchain{Path: "cl.exe", Family: command.FamilyMSVC}
	args := []string{"cl.exe", "/c", "/YcStdAfx.h", "/FpStdAfx.pch", "/FoStdAfx.obj", "StdAfx.cpp"}

	info := Parse(ctx, toolchain, args)
	if !info.Cacheable {
		t.Fatalf("Cacheable = false; reason=%q", info.NonCacheableReason)
	}
	if info.OutputPrecompiled != "StdAfx.pch" {
		t.Errorf("OutputPrecompiled = %q; want StdAfx.pch", info.OutputPrecompiled)
	}
	if info.MarkerPrecompiled != "StdAfx.h" {
		t.Errorf("MarkerPrecompiled = %q; want StdAfx.h", info.MarkerPrecompiled)
	}
}
