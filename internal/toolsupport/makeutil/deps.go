// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package makeutil parses Makefile-style dependency output, as produced by
// GCC/Clang's -M family of flags.
package makeutil

import (
	"bytes"
	"strings"
)

// ParseDeps parses the output of a GCC/Clang -M dependency run and returns
// the list of input files.
func ParseDeps(b []byte) []string {
	// deps contents
	// <output>: <input> ...
	// <input> is space separated
	// '\'+newline is space
	// '\'+space is escaped space (not separator)
	var token string
	// skip until ':'
	i := bytes.IndexByte(b, ':')
	if i < 0 {
		return nil
	}
	// collect inputs
	var inputs []string
	for s := b[i+1:]; len(s) > 0; {
		token, s = nextToken(s)
		// a token ending in ':' is the target of a later rule, not an input
		if token != "" && !strings.HasSuffix(token, ":") {
			inputs = append(inputs, token)
		}
	}
	return inputs
}

func nextToken(s []byte) (string, []byte) {
	var sb strings.Builder
skipSpaces:
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '\n' {
			i++
			continue
		}
		if s[i] == '\\' && i+2 < len(s) && s[i+1] == '\r' && s[i+2] == '\n' {
			i += 2
			continue
		}
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			s = s[i:]
			break skipSpaces
		}
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case ' ':
				sb.WriteByte(s[i])
			case '\r', '\n':
				// '\'+newline is space
				return sb.String(), s[i+1:]
			default:
				sb.WriteByte('\\')
				sb.WriteByte(s[i])
			}
			continue
		}
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			return sb.String(), s[i+1:]
		}
		sb.WriteByte(s[i])
	}
	return sb.String(), nil
}
