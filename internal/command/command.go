// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package command classifies a raw compiler argv into a typed CommandInfo,
// deciding cacheability the way the MSVC and GCC/Clang front ends
// (toolsupport/msvcutil, toolsupport/gccutil) each implement for their own
// grammar.
package command

// Family identifies which argument grammar a toolchain speaks.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyMSVC
	FamilyGCC
)

func (f Family) String() string {
	switch f {
	case FamilyMSVC:
		return "msvc"
	case FamilyGCC:
		return "gcc"
	default:
		return "unknown"
	}
}

// Toolchain is the compiler executable a CommandInfo was parsed against.
type Toolchain struct {
	// Path is the absolute (or as-invoked) path to the compiler executable.
	Path string

	// Family is the argument grammar this executable speaks.
	Family Family

	// Identity is a stable, memoized fingerprint of the compiler binary: see
	// Identity in toolchain.go. Two invocations with different Identity never
	// share a cache entry.
	Identity string
}

// Info is the result of parsing one compiler invocation. It is the typed
// counterpart of a raw argv: every argument from argv ends up in exactly one
// of PreprocessorArgs, CompilerArgs, a recognized input/output slot, or is
// discarded outright (see NonCacheableReason for the escape hatch).
type Info struct {
	Toolchain Toolchain

	// InputSources are the source files to compile, in argv order. Almost
	// always exactly one for a cacheable invocation.
	InputSources []string

	// InputPrecompiled is the PCH file this compile consumes (/Yu, -include-pch),
	// empty if none.
	InputPrecompiled string

	// OutputObject is where the compiler is expected to write its primary
	// artifact (.o/.obj).
	OutputObject string

	// OutputPrecompiled is where this compile produces a PCH (/Yc, -x c++-header),
	// empty if this compile does not produce one.
	OutputPrecompiled string

	// MarkerPrecompiled is the "through header" name bound to /Yc</Yu (or the
	// -include-pch header name on the GCC/Clang side). Needed to locate the
	// PCH boundary in preprocessed text during comment post-processing.
	MarkerPrecompiled string

	// Language is the explicit source-language hint (c, c++), forced onto the
	// second-stage invocation once the input has been renamed to a temp file.
	Language string

	// PreprocessorArgs affect preprocessed output: includes, defines,
	// language mode, sysroot.
	PreprocessorArgs []string

	// CompilerArgs affect code generation from an already-preprocessed input:
	// optimization, debug info, target, sanitizers.
	CompilerArgs []string

	// RunSecondCpp is true when the compile of the preprocessed file must
	// re-run the preprocessor (most GCC/Clang invocations); false when the
	// second stage should be told the input is already preprocessed (MSVC,
	// and GCC/Clang with -fpreprocessed).
	RunSecondCpp bool

	// DepsFile and DepsTarget are depfile emission parameters. They are
	// applied by the caller outside the cache path — present here purely so
	// the shim can still emit a depfile on a cache hit.
	DepsFile   string
	DepsTarget string

	// Cacheable is false when some argument made the invocation impossible to
	// classify confidently. A false Cacheable is never an error: the shim
	// falls through to direct invocation.
	Cacheable bool

	// NonCacheableReason explains why Cacheable is false, for logging.
	NonCacheableReason string
}

// NonCacheable returns an Info that records why the invocation was not
// classified as cacheable. It never panics and is the universal fallback for
// "argument I don't recognize" in both grammars.
func NonCacheable(toolchain Toolchain, reason string) Info {
	return Info{Toolchain: toolchain, Cacheable: false, NonCacheableReason: reason}
}
