// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build windows

package cache

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

// fileAtime returns fi's last-access time from the Win32 file attribute data
// NT already collects; unlike Linux's noatime mounts, NTFS records this by
// default.
func fileAtime(fi os.FileInfo) time.Time {
	d, ok := fi.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return fi.ModTime()
	}
	return time.Unix(0, d.LastAccessTime.Nanoseconds())
}

// touchAtime explicitly sets path's last-access time via SetFileTime,
// per spec.md §4.D ("do not rely on OS-level atime updates").
func touchAtime(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(p, windows.FILE_WRITE_ATTRIBUTES, windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE, nil, windows.OPEN_EXISTING, windows.FILE_ATTRIBUTE_NORMAL, 0)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)

	now := windows.NsecToFiletime(time.Now().UnixNano())
	return windows.SetFileTime(h, nil, &now, nil)
}
