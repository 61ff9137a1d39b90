// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package digest computes and carries content digests used to derive cache
// keys and to address entries in the local cache store.
package digest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/octobuild/octobuild/internal/o11y/iometrics"
	"github.com/octobuild/octobuild/internal/reapi/retry"
)

// Digest identifies a blob by the SHA-256 hash of its content and its size
// in bytes.
type Digest struct {
	Hash      string
	SizeBytes int64
}

// IsZero reports whether d is the zero Digest.
func (d Digest) IsZero() bool {
	return d.Hash == ""
}

// String returns "hash/size", the canonical textual form used in log lines
// and cache file names.
func (d Digest) String() string {
	return fmt.Sprintf("%s/%d", d.Hash, d.SizeBytes)
}

// NewFromBlob computes the Digest of b.
func NewFromBlob(b []byte) Digest {
	h := sha256.Sum256(b)
	return Digest{Hash: hex.EncodeToString(h[:]), SizeBytes: int64(len(b))}
}

// NewFromReader computes the Digest of the entirety of r.
func NewFromReader(r io.Reader) (Digest, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return Digest{}, err
	}
	return Digest{Hash: hex.EncodeToString(h.Sum(nil)), SizeBytes: n}, nil
}

// Source is the interface that opens a data source, local to disk or held
// in memory.
type Source interface {
	// Open returns io.ReadCloser of the source.
	Open(context.Context) (io.ReadCloser, error)

	// String returns the name of the data source.
	String() string
}

// Data is a data instance that consists of a Digest and a Source.
type Data struct {
	digest Digest
	source Source
}

// NewData creates a Data from src and d.
func NewData(src Source, d Digest) Data {
	return Data{
		digest: d,
		source: src,
	}
}

// IsZero returns true when Data is the zero value.
func (d Data) IsZero() bool {
	return d.digest.Hash == ""
}

// Digest returns the Digest of the data.
func (d Data) Digest() Digest {
	return d.digest
}

// Open opens the data source.
func (d Data) Open(ctx context.Context) (io.ReadCloser, error) {
	return d.source.Open(ctx)
}

// String returns the digest and the source in string format.
func (d Data) String() string {
	return fmt.Sprintf("%v %v", d.digest, d.source)
}

// DataToBytes reads all content of d. It should not be used for large blobs.
func DataToBytes(ctx context.Context, d Data) ([]byte, error) {
	var buf []byte
	err := retry.Do(ctx, func() error {
		f, err := d.Open(ctx)
		if err != nil {
			return err
		}
		defer f.Close()
		buf, err = io.ReadAll(f)
		return err
	})
	return buf, err
}

// FromBytes creates Data from raw byte values already held in memory.
func FromBytes(name string, b []byte) Data {
	return Data{
		digest: NewFromBlob(b),
		source: byteSource{name: name, b: b},
	}
}

// byteSource implements Source for an in-memory source.
type byteSource struct {
	name string
	b    []byte
}

func (b byteSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.b)), nil
}

func (b byteSource) String() string {
	return b.name
}

// FromLocalFile creates Data from a local file source, hashing its content.
func FromLocalFile(ctx context.Context, src LocalFileSource) (Data, error) {
	f, err := src.Open(ctx)
	if err != nil {
		return Data{}, err
	}
	defer f.Close()
	d, err := NewFromReader(f)
	if err != nil {
		return Data{}, err
	}
	return Data{
		digest: d,
		source: src,
	}, nil
}

// LocalFileSource is a Source backed by a file on local disk.
type LocalFileSource struct {
	Fname     string
	IOMetrics *iometrics.IOMetrics
}

type localFile struct {
	*os.File
	m *iometrics.IOMetrics
	n int
}

// Read reads the content of the local file, tracking bytes read.
func (f *localFile) Read(buf []byte) (int, error) {
	n, err := f.File.Read(buf)
	f.n += n
	return n, err
}

// Close closes the local file and records the read in IOMetrics.
func (f *localFile) Close() error {
	err := f.File.Close()
	if f.m != nil {
		f.m.ReadDone(f.n, err)
	}
	return err
}

// Open opens the local file.
func (s LocalFileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	r, err := os.Open(s.Fname)
	return &localFile{File: r, m: s.IOMetrics}, err
}

// String returns the source name with a "file://" prefix.
func (s LocalFileSource) String() string {
	return fmt.Sprintf("file://%s", s.Fname)
}
