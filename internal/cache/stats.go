// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cache

import (
	"os"
	"strings"
)

// Stats summarizes a cache directory's current contents, for the
// `octobuild cache stats` introspection subcommand.
type Stats struct {
	Entries    int
	TotalBytes int64
	LimitBytes int64
	Dir        string
	Mode       Mode
}

// Stats scans the cache directory and reports its size. It never mutates
// anything, so it's safe to call regardless of Mode.
func (s *Store) Stats() (Stats, error) {
	out := Stats{Dir: s.Dir, LimitBytes: s.LimitBytes, Mode: s.Mode}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".lz4") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out.Entries++
		out.TotalBytes += info.Size()
	}
	return out, nil
}

func (s Stats) String() string {
	return "dir=" + s.Dir
}
