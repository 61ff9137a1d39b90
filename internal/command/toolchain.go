// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package command

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"sync"

	"github.com/octobuild/octobuild/internal/execute"
	"github.com/octobuild/octobuild/internal/execute/localexec"
	"github.com/octobuild/octobuild/internal/o11y/clog"
	"github.com/octobuild/octobuild/internal/reapi/digest"
)

// DetectFamily dispatches on the executable basename, per spec.md §4.A: MSVC
// grammar for cl.exe/clang-cl, GCC/Clang grammar for clang/clang++/gcc/g++/
// cc/c++ and their target-prefixed forms, FamilyUnknown for anything else.
// Both '/' and '\' are treated as path separators, so a Windows path is
// recognized on any host.
func DetectFamily(execPath string) Family {
	base := filepath.Base(execPath)
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)
	switch base {
	case "cl", "clang-cl":
		return FamilyMSVC
	case "clang", "clang++", "gcc", "g++", "cc", "c++":
		return FamilyGCC
	default:
		if strings.HasSuffix(base, "-gcc") || strings.HasSuffix(base, "-g++") || strings.HasSuffix(base, "-clang") {
			return FamilyGCC
		}
		return FamilyUnknown
	}
}

// identityCache memoizes Identity per compiler path for the lifetime of the
// process, per spec.md §4.A ("The identity is memoized per process").
var identityCache sync.Map // map[string]string

// Identity returns a stable fingerprint for the compiler binary at path: a
// hash of its version banner plus its own content hash. A toolchain upgrade
// changes either input and therefore the identity, which forces a
// deterministic cache miss rather than silently reusing a stale entry.
func Identity(ctx context.Context, path string, family Family) (string, error) {
	if v, ok := identityCache.Load(path); ok {
		return v.(string), nil
	}
	id, err := computeIdentity(ctx, path, family)
	if err != nil {
		return "", err
	}
	identityCache.Store(path, id)
	return id, nil
}

func computeIdentity(ctx context.Context, path string, family Family) (string, error) {
	var hashSuffix string
	if d, err := digest.FromLocalFile(ctx, digest.LocalFileSource{Fname: path}); err != nil {
		clog.Infof(ctx, "toolchain identity: stat %s: %v", path, err)
	} else {
		hashSuffix = d.Digest().String()
	}

	var args []string
	switch family {
	case FamilyMSVC:
		// cl.exe prints its version banner to stderr and exits non-zero when
		// given no input files; that's the cheapest way to capture it.
		args = []string{path}
	default:
		args = []string{path, "--version"}
	}

	cmd := &execute.Cmd{ID: "toolchain-identity", Args: args}
	// The banner probe is expected to fail for cl.exe (no inputs) and to
	// succeed for --version; either way stdout+stderr is what we hash.
	_ = localexec.Run(ctx, cmd)
	banner := strings.TrimSpace(string(cmd.Stdout()) + "\x00" + string(cmd.Stderr()))

	h := sha256.New()
	h.Write([]byte(banner))
	h.Write([]byte{0})
	h.Write([]byte(hashSuffix))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ResolveToolchain builds a Toolchain value for execPath, detecting its
// family and computing its memoized identity.
func ResolveToolchain(ctx context.Context, execPath string) (Toolchain, error) {
	family := DetectFamily(execPath)
	id, err := Identity(ctx, execPath, family)
	if err != nil {
		return Toolchain{}, err
	}
	return Toolchain{Path: execPath, Family: family, Identity: id}, nil
}
