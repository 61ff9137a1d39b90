// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cache

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/octobuild/octobuild/internal/o11y/clog"
)

type sweepCandidate struct {
	path  string
	size  int64
	atime int64 // UnixNano
}

// Sweep enforces LimitBytes by deleting the oldest-atime entries until the
// total size of the cache directory is at or below the cap, per spec.md
// §4.D. It tolerates concurrent deletion (a file gone by the time Remove
// runs is not an error) and concurrent creation (files that appear mid-sweep
// are simply picked up by the next Sweep).
func (s *Store) Sweep(ctx context.Context) error {
	if s.Mode != ReadWrite {
		return nil
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var candidates []sweepCandidate
	var total int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".lz4") && !strings.HasPrefix(name, ".tmp-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed between ReadDir and Info: ignore (tolerate concurrent deletion)
		}
		// Stale temp files are purged on sight regardless of the size cap:
		// they only exist because a writer crashed mid-Put.
		if strings.HasPrefix(name, ".tmp-") {
			if isStaleTemp(info) {
				path := filepath.Join(s.Dir, name)
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					clog.Infof(ctx, "cache: sweep: remove stale temp %s: %v", path, err)
				}
			}
			continue
		}
		total += info.Size()
		candidates = append(candidates, sweepCandidate{
			path:  filepath.Join(s.Dir, name),
			size:  info.Size(),
			atime: fileAtime(info).UnixNano(),
		})
	}

	if total <= s.LimitBytes {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].atime < candidates[j].atime })

	for _, c := range candidates {
		if total <= s.LimitBytes {
			break
		}
		if err := os.Remove(c.path); err != nil {
			if os.IsNotExist(err) {
				continue // another process (or sweep) already evicted it
			}
			clog.Infof(ctx, "cache: sweep: remove %s: %v", c.path, err)
			continue
		}
		total -= c.size
	}
	return nil
}

// staleTempAge is how long a .tmp-* file must sit before Sweep considers it
// abandoned (a crash during Put, never renamed into place) rather than an
// in-flight write from a concurrent process.
const staleTempAge = 10 * time.Minute

func isStaleTemp(info os.FileInfo) bool {
	return time.Since(info.ModTime()) > staleTempAge
}
