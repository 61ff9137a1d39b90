// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build linux

package cache

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves size bytes for f using fallocate, so the kernel can
// place the file in as few extents as possible instead of growing it
// incrementally as Write progresses.
func preallocate(f *os.File, size int64) error {
	if size <= 0 {
		return nil
	}
	return unix.Fallocate(int(f.Fd()), 0, 0, size)
}
