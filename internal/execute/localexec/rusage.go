// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package localexec

// Rusage holds resource-usage counters for a finished local process, where
// available. On platforms without a native rusage API, none is collected
// and the result's Rusage is nil.
type Rusage struct {
	MaxRss  int64
	Majflt  int64
	Inblock int64
	Oublock int64
}
