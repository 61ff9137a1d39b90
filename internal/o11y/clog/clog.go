// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog provides context aware logging.
// It stores a build/task identifier and arbitrary labels in the context so
// every log line emitted while handling one compile or one XGE task carries
// that identity automatically, without threading a logger through every
// function signature.
package clog

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

type contextKeyType int

var contextKey contextKeyType

// Logger carries the id/labels of the current span and writes through to
// the process-wide charmbracelet/log logger.
type Logger struct {
	id     string
	labels map[string]string
}

// NewContext returns a context carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey, logger)
}

// FromContext returns the logger stored in ctx, or a root logger with no id
// or labels (it still logs, just without a prefix).
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey).(*Logger)
	if !ok || logger == nil {
		return &Logger{}
	}
	return logger
}

// NewSpan attaches a logger identified by id (e.g. a Cmd.ID or Task.ID) and
// labels to ctx, returning the derived context.
func NewSpan(ctx context.Context, id string, labels map[string]string) context.Context {
	return NewContext(ctx, &Logger{id: id, labels: labels})
}

func (l *Logger) prefix(msg string) string {
	if l == nil || l.id == "" {
		return msg
	}
	return fmt.Sprintf("[%s] %s", l.id, msg)
}

func (l *Logger) kv() []any {
	if l == nil || len(l.labels) == 0 {
		return nil
	}
	kv := make([]any, 0, len(l.labels)*2)
	for k, v := range l.labels {
		kv = append(kv, k, v)
	}
	return kv
}

// Infof logs at info level in the manner of fmt.Printf.
func (l *Logger) Infof(format string, args ...any) {
	log.Info(l.prefix(fmt.Sprintf(format, args...)), l.kv()...)
}

// Warningf logs at warn level in the manner of fmt.Printf.
func (l *Logger) Warningf(format string, args ...any) {
	log.Warn(l.prefix(fmt.Sprintf(format, args...)), l.kv()...)
}

// Errorf logs at error level in the manner of fmt.Printf.
func (l *Logger) Errorf(format string, args ...any) {
	log.Error(l.prefix(fmt.Sprintf(format, args...)), l.kv()...)
}

// Infof logs at info level using the logger stored in ctx.
func Infof(ctx context.Context, format string, args ...any) {
	log.Helper()
	FromContext(ctx).Infof(format, args...)
}

// Warningf logs at warn level using the logger stored in ctx.
func Warningf(ctx context.Context, format string, args ...any) {
	log.Helper()
	FromContext(ctx).Warningf(format, args...)
}

// Errorf logs at error level using the logger stored in ctx.
func Errorf(ctx context.Context, format string, args ...any) {
	log.Helper()
	FromContext(ctx).Errorf(format, args...)
}
