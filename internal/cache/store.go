// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cache implements the on-disk content-addressed cache: LZ4-framed
// multi-file entries, atime-aware LRU size enforcement, and crash-safe
// writes, per spec.md §4.D.
package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/octobuild/octobuild/internal/cachekey"
	"github.com/octobuild/octobuild/internal/o11y/clog"
)

// Mode controls whether the Store reads, writes, both, or neither.
type Mode int

const (
	// ReadWrite is the default: hits replay, misses populate the cache.
	ReadWrite Mode = iota
	// ReadOnly never writes and never sweeps.
	ReadOnly
	// None always misses and never writes; used to disable caching entirely
	// without touching call sites.
	None
)

func (m Mode) String() string {
	switch m {
	case ReadWrite:
		return "ReadWrite"
	case ReadOnly:
		return "ReadOnly"
	case None:
		return "None"
	default:
		return "Unknown"
	}
}

// ParseMode parses the OCTOBUILD_CACHE_MODE values from spec.md §6.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "ReadWrite":
		return ReadWrite, nil
	case "ReadOnly":
		return ReadOnly, nil
	case "None":
		return None, nil
	default:
		return ReadWrite, fmt.Errorf("unknown cache mode %q", s)
	}
}

// DefaultLimitBytes is OCTOBUILD_CACHE_LIMIT_MB's default of 65536 MiB.
const DefaultLimitBytes = 65536 * 1024 * 1024

// sweepInterval throttles how often Put triggers an opportunistic Sweep.
const sweepInterval = 30 * time.Second

// Store is the local, directory-backed content-addressed cache. There is no
// cross-process locking: idempotence of Put (same key -> same content) plus
// atomic rename makes racing writers safe (spec.md §4.D "Concurrency").
type Store struct {
	Dir        string
	Mode       Mode
	LimitBytes int64

	mu        sync.Mutex
	lastSweep time.Time

	writes singleflight.Group
}

// New constructs a Store rooted at dir. dir must already exist.
func New(dir string, mode Mode, limitBytes int64) *Store {
	if limitBytes <= 0 {
		limitBytes = DefaultLimitBytes
	}
	return &Store{Dir: dir, Mode: mode, LimitBytes: limitBytes}
}

// path returns the on-disk file name for key, per spec.md §3's
// "<hex-key>.lz4" naming.
func (s *Store) path(key cachekey.Key) string {
	return filepath.Join(s.Dir, key.String()+".lz4")
}

// Get looks up key, returning the decompressed payloads keyed by tag. ok is
// false on a miss (file absent, corrupt, or version-mismatched — all are
// treated as a miss, never an error, per spec.md §7's IOError policy).
func (s *Store) Get(ctx context.Context, key cachekey.Key) (payloads map[uint32][]byte, ok bool, err error) {
	if s.Mode == None {
		return nil, false, nil
	}
	path := s.path(key)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, nil // unreadable cache file: treat as miss, not fatal
	}
	defer f.Close()

	entry, err := readEntry(f)
	if err != nil {
		clog.Infof(ctx, "cache: discarding unreadable entry %s: %v", path, err)
		return nil, false, nil
	}

	if err := touchAtime(path); err != nil {
		clog.Infof(ctx, "cache: touch atime %s: %v", path, err)
	}
	return entry, true, nil
}

// Put stores payloads under key. It is a no-op (returning nil) in ReadOnly
// or None mode. Concurrent Puts for the same key are deduplicated with
// singleflight — building the LZ4 frames for an entry that another worker
// is about to write is wasted work.
func (s *Store) Put(ctx context.Context, key cachekey.Key, payloads map[uint32][]byte) error {
	if s.Mode != ReadWrite {
		return nil
	}
	_, err, _ := s.writes.Do(key.String(), func() (interface{}, error) {
		return nil, s.put(ctx, key, payloads)
	})
	if err == nil {
		s.maybeSweep(ctx)
	}
	return err
}

func (s *Store) put(ctx context.Context, key cachekey.Key, payloads map[uint32][]byte) error {
	final := s.path(key)
	if _, err := os.Stat(final); err == nil {
		// Another writer already landed this key; content is deterministic
		// under key equality, so there is nothing to do.
		return nil
	}

	tmp, err := tempFile(s.Dir)
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	defer os.Remove(tmp) // no-op once the rename below succeeds

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("cache: open temp file: %w", err)
	}
	if err := writeEntry(f, payloads); err != nil {
		f.Close()
		return fmt.Errorf("cache: write entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		clog.Infof(ctx, "cache: fsync %s: %v (continuing, best-effort)", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cache: close temp file: %w", err)
	}

	if err := os.Rename(tmp, final); err != nil {
		if _, statErr := os.Stat(final); statErr == nil {
			// Lost the race to another writer; discard our temp file.
			return nil
		}
		return fmt.Errorf("cache: rename into place: %w", err)
	}
	return nil
}

// Reset deletes every entry in the cache directory (xgConsole's /reset,
// spec.md §6).
func (s *Store) Reset() error {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// maybeSweep runs Sweep opportunistically, throttled to at most once per
// sweepInterval, per spec.md §4.D.
func (s *Store) maybeSweep(ctx context.Context) {
	if s.Mode != ReadWrite {
		return
	}
	s.mu.Lock()
	due := time.Since(s.lastSweep) >= sweepInterval
	if due {
		s.lastSweep = time.Now()
	}
	s.mu.Unlock()
	if !due {
		return
	}
	if err := s.Sweep(ctx); err != nil {
		clog.Infof(ctx, "cache: sweep: %v", err)
	}
}

func tempFile(dir string) (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return filepath.Join(dir, ".tmp-"+hex.EncodeToString(b[:])), nil
}
