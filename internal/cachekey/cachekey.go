// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cachekey derives the 256-bit CacheKey from a toolchain identity, a
// normalized argument set, and the preprocessed-content hash, per
// spec.md §3/§4.C.
package cachekey

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strings"
)

// FormatVersion is the 4-byte prefix mixed into every key. Bumping it
// invalidates every existing cache entry on the next run.
const FormatVersion uint32 = 1

// Key is a 256-bit content fingerprint.
type Key [sha256.Size]byte

// String returns the hex encoding of k, the on-disk file stem (see
// internal/cache).
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// orderSensitivePrefixes marks flags whose relative order changes observable
// behavior (later -D overrides an earlier one with the same macro). These
// must not be reordered when canonicalizing the argument list.
var orderSensitivePrefixes = []string{"-D", "/D", "-U", "/U"}

func isOrderSensitive(arg string) bool {
	for _, p := range orderSensitivePrefixes {
		if strings.HasPrefix(arg, p) {
			return true
		}
	}
	return false
}

// Canonicalize splits args into order-insensitive flags (sorted, so two
// argvs differing only in their order collide) and order-sensitive flags
// (kept in original relative order), then returns the two concatenated:
// sorted-insensitive flags first, then sensitive flags in their original
// order. This matches spec.md §4.C's required behavior without
// needing a per-flag "order class" beyond the sensitive/insensitive split.
func Canonicalize(compilerArgs []string) []string {
	var insensitive, sensitive []string
	for _, arg := range compilerArgs {
		if isOrderSensitive(arg) {
			sensitive = append(sensitive, arg)
		} else {
			insensitive = append(insensitive, arg)
		}
	}
	sort.Strings(insensitive)
	return append(insensitive, sensitive...)
}

// zeroPrecompiledHash is the sentinel mixed in when the invocation has no
// precompiled-header input.
var zeroPrecompiledHash [sha256.Size]byte

// Derive computes the CacheKey for one invocation, per spec.md §3:
//
//  1. a 4-byte format version,
//  2. the toolchain identity string,
//  3. the sorted, canonicalized compiler_args (one length-prefixed string each),
//  4. the preprocessed-content hash (raw bytes),
//  5. the precompiled-header content hash when input_precompiled is set, else
//     a zero sentinel.
//
// precompiledHash may be nil when the invocation has no PCH input.
func Derive(toolchainIdentity string, compilerArgs []string, preprocessedHash [sha256.Size]byte, precompiledHash *[sha256.Size]byte) Key {
	h := sha256.New()

	var versionBuf [4]byte
	binary.BigEndian.PutUint32(versionBuf[:], FormatVersion)
	h.Write(versionBuf[:])

	h.Write([]byte(toolchainIdentity))

	for _, arg := range Canonicalize(compilerArgs) {
		writeLengthPrefixed(h, arg)
	}

	h.Write(preprocessedHash[:])

	if precompiledHash != nil {
		h.Write(precompiledHash[:])
	} else {
		h.Write(zeroPrecompiledHash[:])
	}

	var key Key
	copy(key[:], h.Sum(nil))
	return key
}

// writeLengthPrefixed writes a 4-byte big-endian length followed by s, so
// that "ab"+"c" and "a"+"bc" never collide when concatenated into the hash.
func writeLengthPrefixed(w interface{ Write([]byte) (int, error) }, s string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	w.Write(lenBuf[:])
	w.Write([]byte(s))
}
