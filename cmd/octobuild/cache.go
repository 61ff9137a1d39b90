// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/maruel/subcommands"

	"github.com/octobuild/octobuild/internal/cache"
	"github.com/octobuild/octobuild/internal/config"
)

func cmdCache() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "cache <subcommand>",
		ShortDesc: "inspect or reset the compiler cache",
		CommandRun: func() subcommands.CommandRun {
			c := &cacheRun{
				app: &subcommands.DefaultApplication{
					Name:  "octobuild cache",
					Title: "inspect or reset the compiler cache",
					Commands: []*subcommands.Command{
						cmdCacheStats(),
						cmdCacheReset(),
						subcommands.CmdHelp,
					},
				},
			}
			return c
		},
	}
}

type cacheRun struct {
	subcommands.CommandRunBase
	app *subcommands.DefaultApplication
}

func (c *cacheRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	return subcommands.Run(c.app, args)
}

func cmdCacheStats() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "stats",
		ShortDesc: "report entry count and total size of the cache directory",
		CommandRun: func() subcommands.CommandRun {
			return &cacheStatsRun{}
		},
	}
}

type cacheStatsRun struct {
	subcommands.CommandRunBase
}

func (c *cacheStatsRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "octobuild: load config: %v\n", err)
		return 1
	}
	mode, err := cache.ParseMode(cfg.CacheMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "octobuild: %v\n", err)
		return 1
	}
	store := cache.New(cfg.CacheDir, mode, int64(cfg.CacheLimitMB)*1024*1024)
	stats, err := store.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "octobuild: cache stats: %v\n", err)
		return 1
	}
	fmt.Printf("cache directory: %s\n", stats.Dir)
	fmt.Printf("mode:            %v\n", stats.Mode)
	fmt.Printf("entries:         %d\n", stats.Entries)
	fmt.Printf("total size:      %d bytes\n", stats.TotalBytes)
	fmt.Printf("size limit:      %d bytes\n", stats.LimitBytes)
	return 0
}

func cmdCacheReset() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "reset",
		ShortDesc: "delete the entire cache directory",
		CommandRun: func() subcommands.CommandRun {
			return &cacheResetRun{}
		},
	}
}

type cacheResetRun struct {
	subcommands.CommandRunBase
}

func (c *cacheResetRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "octobuild: load config: %v\n", err)
		return 1
	}
	fmt.Printf("Cleaning cache directory: %s...\n", cfg.CacheDir)
	if err := os.RemoveAll(cfg.CacheDir); err != nil {
		fmt.Fprintf(os.Stderr, "octobuild: %v\n", err)
		return 1
	}
	fmt.Println("Done!")
	return 0
}
