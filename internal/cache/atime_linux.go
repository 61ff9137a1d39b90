// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build linux

package cache

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// fileAtime returns fi's last-access time. On Linux this reads st_atim
// directly rather than trusting a relatime/noatime-mounted filesystem to
// have updated it on open (spec.md §4.D explicitly calls this out).
func fileAtime(fi os.FileInfo) time.Time {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fi.ModTime()
	}
	return time.Unix(st.Atim.Sec, st.Atim.Nsec)
}

// touchAtime explicitly refreshes path's atime via utimensat, leaving mtime
// untouched, so a cache hit counts as "recently used" for LRU purposes even
// on filesystems mounted noatime.
func touchAtime(path string) error {
	now := unix.NsecToTimespec(time.Now().UnixNano())
	ts := [2]unix.Timespec{
		now,
		{Sec: 0, Nsec: unix.UTIME_OMIT},
	}
	return unix.UtimesNanoAt(unix.AT_FDCWD, path, ts[:], 0)
}
