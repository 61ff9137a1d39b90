// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !linux && !windows

package cache

import "os"

// preallocate is a no-op on platforms without a cheap pre-allocation
// syscall wired up here; Write still succeeds, just without the
// fragmentation-avoidance optimization.
func preallocate(f *os.File, size int64) error {
	return nil
}
