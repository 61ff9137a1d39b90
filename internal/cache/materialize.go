// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cache

import (
	"os"
	"path/filepath"
)

// WriteFile materializes a cache-hit payload at path in the caller's
// workspace, pre-allocating the destination size before writing the
// uncompressed bytes out. Pre-allocation avoids the fragmentation that
// writing large object files incrementally caused on some filesystems
// (spec.md §4.D).
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := preallocate(f, int64(len(data))); err != nil {
		// Pre-allocation is an optimization, not a correctness requirement:
		// keep going and let Write grow the file the normal way.
		_ = err
	}
	_, err = f.Write(data)
	return err
}
