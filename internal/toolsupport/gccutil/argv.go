// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package gccutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/octobuild/octobuild/internal/command"
)

type slice int

const (
	sliceDiscard slice = iota
	slicePreprocessor
	sliceCompiler
)

type flagRule struct {
	slice slice
}

// table mirrors spec.md §4.A's GCC/Clang grammar: a flag-prefix to
// (slice) table, same shape as the MSVC table in toolsupport/msvcutil.
var table = map[string]flagRule{
	"-I":             {slicePreprocessor},
	"-D":             {slicePreprocessor},
	"-U":             {slicePreprocessor},
	"-isystem":       {slicePreprocessor},
	"-iquote":        {slicePreprocessor},
	"-include":       {slicePreprocessor},
	"-F":             {slicePreprocessor},
	"--sysroot=":     {slicePreprocessor},
	"-std=":          {slicePreprocessor},
	"-nostdinc++":    {slicePreprocessor},
	"-fPIC":          {sliceCompiler},
	"-fPIE":          {sliceCompiler},
	"-fstack-protector": {sliceCompiler},
	"-fdata-sections":   {sliceCompiler},
	"-ffunction-sections": {sliceCompiler},
	"-fno-rtti":      {sliceCompiler},
	"-fno-exceptions": {sliceCompiler},
	"-fsanitize=":    {sliceCompiler},
	"-fvisibility=":  {sliceCompiler},
	"-g":             {sliceCompiler},
	"-O":             {sliceCompiler},
	"-m":             {sliceCompiler},
	"-pipe":          {sliceDiscard},
	"-pthread":       {sliceCompiler},
	"-W":             {sliceDiscard},
	"-w":             {sliceDiscard},
	"-Xclang":        {sliceCompiler},
	"-sce-stdlib=":   {slicePreprocessor},
	"--driver-mode=": {sliceDiscard},
	"-emit-llvm":     {sliceCompiler},
}

// nonCacheableFlags are flags spec.md §4.A names as always non-cacheable.
var nonCacheableFlags = map[string]bool{
	"-E":        true,
	"--analyze": true,
}

// nonCacheablePrefixes are prefix-matched because they take a value glued to
// the flag ("-MMD" and friends produce depfiles via an orthogonal path, but
// "-M" alone and "-MM" mean "only output deps, don't compile" which this
// driver never wants to see).
var nonCacheablePrefixes = []string{"-M", "-save-temps"}

// Parse classifies a raw GCC/Clang-style argv into a command.Info. Like
// msvcutil.Parse, this never fails: unrecognized args just flip Cacheable to
// false.
func Parse(ctx context.Context, toolchain command.Toolchain, args []string) command.Info {
	info := command.Info{Toolchain: toolchain, Cacheable: true, RunSecondCpp: true}

	for i := 1; i < len(args); i++ {
		arg := args[i]

		if !strings.HasPrefix(arg, "-") {
			ext := extOf(arg)
			switch ext {
			case ".c", ".cc", ".cxx", ".cpp", ".m", ".mm", ".S":
				info.InputSources = append(info.InputSources, arg)
			}
			continue
		}

		switch {
		case arg == "-c":
			continue
		case arg == "-o":
			if i+1 >= len(args) {
				return command.NonCacheable(toolchain, "-o missing value")
			}
			i++
			info.OutputObject = args[i]
			continue
		case strings.HasPrefix(arg, "-o") && len(arg) > 2:
			info.OutputObject = strings.TrimPrefix(arg, "-o")
			continue
		case arg == "-MF" || arg == "-MT" || arg == "-MQ":
			if i+1 >= len(args) {
				return command.NonCacheable(toolchain, fmt.Sprintf("%s missing value", arg))
			}
			i++
			if arg == "-MF" {
				info.DepsFile = args[i]
			} else {
				info.DepsTarget = args[i]
			}
			continue
		case arg == "-MD" || arg == "-MMD":
			continue
		case arg == "-x":
			if i+1 >= len(args) {
				return command.NonCacheable(toolchain, "-x missing value")
			}
			i++
			info.Language = args[i]
			info.PreprocessorArgs = append(info.PreprocessorArgs, "-x", args[i])
			continue
		case arg == "-include-pch":
			if i+1 >= len(args) {
				return command.NonCacheable(toolchain, "-include-pch missing value")
			}
			i++
			info.InputPrecompiled = args[i]
			continue
		case strings.HasPrefix(arg, "-fpreprocessed"):
			info.RunSecondCpp = false
			info.PreprocessorArgs = append(info.PreprocessorArgs, arg)
			continue
		case arg == "-I" || arg == "-isystem" || arg == "-iquote" || arg == "-include" || arg == "-F":
			if i+1 >= len(args) {
				return command.NonCacheable(toolchain, fmt.Sprintf("%s missing value", arg))
			}
			i++
			info.PreprocessorArgs = append(info.PreprocessorArgs, arg, args[i])
			continue
		case arg == "-D" || arg == "-U":
			if i+1 >= len(args) {
				return command.NonCacheable(toolchain, fmt.Sprintf("%s missing value", arg))
			}
			i++
			info.PreprocessorArgs = append(info.PreprocessorArgs, arg, args[i])
			continue
		case arg == "-Xclang":
			if i+1 >= len(args) {
				return command.NonCacheable(toolchain, "-Xclang missing value")
			}
			i++
			info.CompilerArgs = append(info.CompilerArgs, arg, args[i])
			continue
		}

		if nonCacheableFlags[arg] {
			return command.NonCacheable(toolchain, fmt.Sprintf("flag %s is never cacheable", arg))
		}
		for _, prefix := range nonCacheablePrefixes {
			if strings.HasPrefix(arg, prefix) {
				return command.NonCacheable(toolchain, fmt.Sprintf("flag %s is never cacheable", arg))
			}
		}

		if rule, ok := lookupRule(arg); ok {
			switch rule.slice {
			case slicePreprocessor:
				info.PreprocessorArgs = append(info.PreprocessorArgs, arg)
			case sliceCompiler:
				info.CompilerArgs = append(info.CompilerArgs, arg)
			case sliceDiscard:
				// dropped
			}
			continue
		}

		return command.NonCacheable(toolchain, fmt.Sprintf("unrecognized flag %q", arg))
	}

	if len(info.InputSources) != 1 {
		return command.NonCacheable(toolchain, fmt.Sprintf("expected exactly one input source, got %d", len(info.InputSources)))
	}
	if info.OutputObject == "" {
		return command.NonCacheable(toolchain, "missing -o <path>")
	}
	return info
}

func lookupRule(arg string) (flagRule, bool) {
	best := ""
	for prefix := range table {
		if strings.HasPrefix(arg, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return flagRule{}, false
	}
	return table[best], true
}

func extOf(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return ""
	}
	return path[dot:]
}
