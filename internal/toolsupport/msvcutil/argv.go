// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package msvcutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/octobuild/octobuild/internal/command"
)

// slice names which bucket a classified flag belongs to.
type slice int

const (
	sliceDiscard slice = iota
	slicePreprocessor
	sliceCompiler
)

// flagRule is one entry of the cacheability classification table keyed by
// flag prefix, with the leading "-" already normalized to "/"; lookupRule
// picks the longest matching prefix.
type flagRule struct {
	slice slice
}

// table classifies flags that carry no extra structural meaning beyond
// "which slice does this go in": the rest (outputs, PCH, language, /Zi) are
// handled by the stateful switch in Parse below because they interact with
// each other.
var table = map[string]flagRule{
	"/I":                      {slicePreprocessor},
	"/D":                      {slicePreprocessor},
	"/U":                      {slicePreprocessor},
	"/FI":                     {slicePreprocessor},
	"/winsysroot":             {slicePreprocessor},
	"/imsvc":                  {slicePreprocessor},
	"/external:I":             {slicePreprocessor},
	"/external:W":             {sliceCompiler},
	"/std:":                   {slicePreprocessor},
	"/utf-8":                  {slicePreprocessor},
	"/permissive-":            {slicePreprocessor},
	"/permissive":             {slicePreprocessor},
	"/J":                      {slicePreprocessor},
	"/EH":                     {sliceCompiler},
	"/O":                      {sliceCompiler},
	"/G":                      {sliceCompiler},
	"/M":                      {sliceCompiler},
	"/arch:":                  {sliceCompiler},
	"/fp:":                    {sliceCompiler},
	"/fsanitize=":             {sliceCompiler},
	"/guard:":                 {sliceCompiler},
	"/Qspectre":                {sliceCompiler},
	"/RTC":                    {sliceCompiler},
	"/GR":                     {sliceCompiler},
	"/GS":                     {sliceCompiler},
	"/diagnostics:":           {sliceDiscard},
	"/FC":                     {sliceDiscard},
	"/nologo":                 {sliceDiscard},
	"/W":                      {sliceDiscard},
	"/wd":                     {sliceDiscard},
	"/w":                      {sliceDiscard},
	"/bigobj":                 {sliceCompiler},
	"/experimental:deterministic": {sliceCompiler},
	"/d2pattern-opt-disable:": {sliceCompiler},
	"/d2vzeroupper-":          {sliceCompiler},
	"/FS":                     {sliceDiscard},
	"/Gd":                     {sliceCompiler},
	"/Gy":                     {sliceCompiler},
	"/Gw":                     {sliceCompiler},
	"/MP":                     {sliceDiscard},
	"/errorReport:":           {sliceDiscard},
}

// nonCacheableFlags are flags that spec.md §4.A and §9 name explicitly as
// making an invocation non-cacheable.
var nonCacheableFlags = map[string]bool{
	"/analyze": true,
	"/E":       true,
	"/EP":      true,
	"/P":       true,
	"/ZW":      true,
}

// Parse classifies a raw MSVC-style argv into a command.Info. It never
// returns an error: an unrecognized argument makes the invocation
// non-cacheable, it does not fail parsing (spec.md §4.A, "Failure modes").
func Parse(ctx context.Context, toolchain command.Toolchain, args []string) command.Info {
	info := command.Info{Toolchain: toolchain, Cacheable: true, RunSecondCpp: false}

	args, err := command.ExpandResponseFiles(args)
	if err != nil {
		return command.NonCacheable(toolchain, fmt.Sprintf("response file expansion: %v", err))
	}

	var zi, z7, producesPCH, consumesPCH bool

	for i := 1; i < len(args); i++ {
		arg := args[i]

		if !strings.HasPrefix(arg, "/") && !strings.HasPrefix(arg, "-") {
			info.InputSources = append(info.InputSources, arg)
			continue
		}
		// Normalize the leading dash to a slash; cl.exe accepts both.
		norm := "/" + strings.TrimLeft(arg, "/-")

		switch {
		case norm == "/c":
			continue
		case norm == "/nologo":
			continue
		case strings.HasPrefix(norm, "/showIncludes"):
			continue
		case norm == "/Zi":
			zi = true
			continue
		case norm == "/Z7":
			z7 = true
			info.CompilerArgs = append(info.CompilerArgs, norm)
			continue
		case strings.HasPrefix(norm, "/Fo"):
			info.OutputObject = strings.TrimPrefix(norm, "/Fo")
			continue
		case strings.HasPrefix(norm, "/Fd"):
			// PDB path: discarded from the cache key, but /Zi-without-/Z7
			// makes the whole invocation non-cacheable (see below).
			continue
		case strings.HasPrefix(norm, "/Fp"):
			path := strings.TrimPrefix(norm, "/Fp")
			if producesPCH {
				info.OutputPrecompiled = path
			} else {
				info.InputPrecompiled = path
			}
			continue
		case strings.HasPrefix(norm, "/Yc"):
			producesPCH = true
			info.MarkerPrecompiled = strings.TrimPrefix(norm, "/Yc")
			continue
		case strings.HasPrefix(norm, "/Yu"):
			consumesPCH = true
			info.MarkerPrecompiled = strings.TrimPrefix(norm, "/Yu")
			continue
		case strings.HasPrefix(norm, "/Tc"):
			info.Language = "c"
			info.InputSources = append(info.InputSources, strings.TrimPrefix(norm, "/Tc"))
			continue
		case strings.HasPrefix(norm, "/Tp"):
			info.Language = "c++"
			info.InputSources = append(info.InputSources, strings.TrimPrefix(norm, "/Tp"))
			continue
		case norm == "/TC":
			info.Language = "c"
			continue
		case norm == "/TP":
			info.Language = "c++"
			continue
		}

		if nonCacheableFlags[norm] {
			return command.NonCacheable(toolchain, fmt.Sprintf("flag %s is never cacheable", norm))
		}
		// "/I <path>" and "/D MACRO" style: value is the next argv token.
		if norm == "/I" || norm == "/D" || norm == "/U" || norm == "/FI" {
			if i+1 >= len(args) {
				return command.NonCacheable(toolchain, fmt.Sprintf("flag %s missing value", norm))
			}
			i++
			info.PreprocessorArgs = append(info.PreprocessorArgs, norm, args[i])
			continue
		}

		if rule, ok := lookupRule(norm); ok {
			switch rule.slice {
			case slicePreprocessor:
				info.PreprocessorArgs = append(info.PreprocessorArgs, norm)
			case sliceCompiler:
				info.CompilerArgs = append(info.CompilerArgs, norm)
			case sliceDiscard:
				// dropped
			}
			continue
		}

		return command.NonCacheable(toolchain, fmt.Sprintf("unrecognized flag %q", arg))
	}

	if zi && !z7 {
		return command.NonCacheable(toolchain, "/Zi without /Z7 is non-cacheable (PDB write races)")
	}
	if consumesPCH {
		info.RunSecondCpp = false
	}
	if len(info.InputSources) != 1 {
		return command.NonCacheable(toolchain, fmt.Sprintf("expected exactly one input source, got %d", len(info.InputSources)))
	}
	if info.OutputObject == "" {
		return command.NonCacheable(toolchain, "missing /Fo<path>")
	}
	return info
}

// lookupRule finds the longest matching prefix in table for norm.
func lookupRule(norm string) (flagRule, bool) {
	best := ""
	for prefix := range table {
		if strings.HasPrefix(norm, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return flagRule{}, false
	}
	return table[best], true
}
