// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command octobuild is the management CLI: inspect and reset the compiler
// cache, dump the effective configuration, and report the build's own
// version (spec.md §6).
package main

import (
	"os"

	"github.com/maruel/subcommands"
)

var application = &subcommands.DefaultApplication{
	Name:  "octobuild",
	Title: "octobuild compiler cache management CLI",
	Commands: []*subcommands.Command{
		cmdCache(),
		cmdConfig(),
		cmdVersion(),
		subcommands.CmdHelp,
	},
}

func main() {
	os.Exit(subcommands.Run(application, os.Args[1:]))
}
