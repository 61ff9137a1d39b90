// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"os"

	"github.com/maruel/subcommands"

	"github.com/octobuild/octobuild/internal/config"
)

func cmdConfig() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "config",
		ShortDesc: "show the config file search paths and effective configuration",
		LongDesc:  "show the config file search paths and effective configuration, mirroring the original Config::help.",
		CommandRun: func() subcommands.CommandRun {
			return &configRun{}
		},
	}
}

type configRun struct {
	subcommands.CommandRunBase
}

func (c *configRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if err := config.Dump(os.Stdout); err != nil {
		os.Stderr.WriteString("octobuild: " + err.Error() + "\n")
		return 1
	}
	return 0
}
