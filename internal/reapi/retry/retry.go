// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package retry provides retrying functionalities for local cache I/O:
// file operations that transiently fail under concurrent writers (EAGAIN,
// EMFILE, a rename racing another process's cleanup sweep) are worth a
// retry; anything else is not.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/octobuild/octobuild/internal/o11y/clog"
)

// retriable wraps an error to mark it safe to retry.
type retriable struct {
	err error
}

func (r *retriable) Error() string { return r.err.Error() }
func (r *retriable) Unwrap() error { return r.err }

// Retriable marks err as transient, worth retrying with backoff.
func Retriable(err error) error {
	if err == nil {
		return nil
	}
	return &retriable{err: err}
}

func isRetriable(err error) bool {
	var r *retriable
	return errors.As(err, &r)
}

const (
	initialBackoff = time.Millisecond
	maxBackoff     = 2 * time.Second
	maxAttempts    = 5
)

// Do calls f and retries with exponential backoff while f returns an error
// wrapped with Retriable, up to maxAttempts.
func Do(ctx context.Context, f func() error) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = f()
		if err == nil || !isRetriable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		clog.Warningf(ctx, "retry backoff:%s: %v", backoff, err)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return err
}
