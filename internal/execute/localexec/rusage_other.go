// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !unix

package localexec

import "os/exec"

func rusage(cmd *exec.Cmd) *Rusage {
	return nil
}
