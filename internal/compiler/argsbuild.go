// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compiler

import "github.com/octobuild/octobuild/internal/command"

// buildPreprocessArgs builds the child argv for the first phase: toolchain
// plus preprocessor_args plus the source file plus a force-to-stdout
// preprocess flag (spec.md §4.B step 1).
func buildPreprocessArgs(info command.Info) []string {
	args := []string{info.Toolchain.Path}
	switch info.Toolchain.Family {
	case command.FamilyMSVC:
		args = append(args, "/nologo", "/E")
		args = append(args, info.PreprocessorArgs...)
		args = append(args, info.InputSources[0])
	default:
		args = append(args, info.PreprocessorArgs...)
		args = append(args, "-E", info.InputSources[0])
	}
	return args
}

// buildCompileArgs builds the child argv for the second phase: toolchain
// plus compiler_args plus sourcePath. For the GCC/Clang family it adds an
// "already preprocessed" hint (-fpreprocessed) when info.RunSecondCpp is
// false; the MSVC argv gets no such hint (spec.md §4.B step 5).
func buildCompileArgs(info command.Info, sourcePath string) []string {
	args := []string{info.Toolchain.Path}
	switch info.Toolchain.Family {
	case command.FamilyMSVC:
		args = append(args, "/nologo", "/c")
		args = append(args, info.CompilerArgs...)
		args = append(args, "/Fo"+info.OutputObject)
		if info.OutputPrecompiled != "" {
			args = append(args, "/Fp"+info.OutputPrecompiled)
		}
		args = append(args, sourcePath)
	default:
		args = append(args, "-c")
		args = append(args, info.CompilerArgs...)
		if !info.RunSecondCpp {
			args = append(args, "-fpreprocessed")
			if info.Language != "" {
				args = append(args, "-x", info.Language)
			}
		}
		if info.InputPrecompiled != "" {
			args = append(args, "-include-pch", info.InputPrecompiled)
		}
		args = append(args, "-o", info.OutputObject, sourcePath)
	}
	return args
}
