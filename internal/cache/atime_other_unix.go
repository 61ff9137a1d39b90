// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix && !linux

package cache

import (
	"os"
	"time"
)

// fileAtime falls back to mtime on non-Linux Unixes: syscall.Stat_t's atime
// field is named differently per BSD/Darwin variant, and this store only
// ever needs a monotonically-increasing "last touched" signal, which mtime
// also provides since touchAtime below updates it.
func fileAtime(fi os.FileInfo) time.Time {
	return fi.ModTime()
}

func touchAtime(path string) error {
	now := time.Now()
	return os.Chtimes(path, now, now)
}
