// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command octo-clang is a drop-in replacement for clang/clang++/gcc/g++
// that runs compiles through octobuild's cache, falling back to a direct
// invocation for anything it can't classify.
package main

import (
	"context"
	"os"

	"github.com/octobuild/octobuild/internal/shim"
	"github.com/octobuild/octobuild/internal/toolsupport/gccutil"
)

func main() {
	os.Exit(shim.Run(context.Background(), "clang", gccutil.Parse, os.Args[1:]))
}
