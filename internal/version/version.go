// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package version reports octobuild's own build identity: the module
// version and VCS revision embedded by the Go toolchain, in the
// "version-arch-os revision" shape the original's version::full_version
// (original_source/src/version.rs) produced.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Full returns a one-line build identity string, falling back to "devel"
// when build info isn't available (e.g. `go run`).
func Full() string {
	v, revision := "devel", ""
	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				revision = s.Value
			}
		}
	}
	if revision == "" {
		return fmt.Sprintf("%s-%s-%s", v, runtime.GOARCH, runtime.GOOS)
	}
	if len(revision) > 9 {
		revision = revision[:9]
	}
	return fmt.Sprintf("%s-%s-%s %s", v, runtime.GOARCH, runtime.GOOS, revision)
}
