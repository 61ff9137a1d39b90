// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cache

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/pierrec/lz4/v4"
)

// magic is "octb" read as a big-endian uint32, per spec.md §3.
const magic uint32 = 0x6f637462

// formatVersion gates incompatible on-disk layout changes; a mismatch is
// treated as a miss (spec.md §6, "Cache file format").
const formatVersion uint32 = 1

// Tag identifies which kind of payload a stored blob is.
const (
	TagObject uint32 = 1
	TagPCH    uint32 = 2
	TagStdout uint32 = 3
	TagStderr uint32 = 4
)

// tocEntry is one row of the file-list header: a tag plus the length of its
// LZ4-framed payload on disk.
type tocEntry struct {
	Tag    uint32
	Length uint64
}

// writeEntry writes magic + version + TOC + concatenated LZ4-framed
// payloads, in a stable tag order so that identical payload sets always
// produce byte-identical files (the round-trip and key-stability properties
// in spec.md §8 depend on this).
func writeEntry(w io.Writer, payloads map[uint32][]byte) error {
	tags := sortedTags(payloads)

	framed := make([][]byte, len(tags))
	for i, tag := range tags {
		f, err := lz4Compress(payloads[tag])
		if err != nil {
			return fmt.Errorf("compress tag %d: %w", tag, err)
		}
		framed[i] = f
	}

	bw := bufio.NewWriter(w)
	if err := writeUint32(bw, magic); err != nil {
		return err
	}
	if err := writeUint32(bw, formatVersion); err != nil {
		return err
	}
	if err := writeUint32(bw, uint32(len(tags))); err != nil {
		return err
	}
	for i, tag := range tags {
		if err := writeUint32(bw, tag); err != nil {
			return err
		}
		if err := writeUint64(bw, uint64(len(framed[i]))); err != nil {
			return err
		}
	}
	for _, f := range framed {
		if _, err := bw.Write(f); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readEntry reads an entry written by writeEntry, returning the decompressed
// payload for each tag present.
func readEntry(r io.Reader) (map[uint32][]byte, error) {
	br := bufio.NewReader(r)

	gotMagic, err := readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("bad magic %#x, want %#x", gotMagic, magic)
	}
	version, err := readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported format version %d", version)
	}
	count, err := readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("read file count: %w", err)
	}

	toc := make([]tocEntry, count)
	for i := range toc {
		tag, err := readUint32(br)
		if err != nil {
			return nil, fmt.Errorf("read toc[%d] tag: %w", i, err)
		}
		length, err := readUint64(br)
		if err != nil {
			return nil, fmt.Errorf("read toc[%d] length: %w", i, err)
		}
		toc[i] = tocEntry{Tag: tag, Length: length}
	}

	payloads := make(map[uint32][]byte, count)
	for i, e := range toc {
		framed := make([]byte, e.Length)
		if _, err := io.ReadFull(br, framed); err != nil {
			return nil, fmt.Errorf("read payload[%d]: %w", i, err)
		}
		data, err := lz4Decompress(framed)
		if err != nil {
			return nil, fmt.Errorf("decompress payload[%d] (tag %d): %w", i, e.Tag, err)
		}
		payloads[e.Tag] = data
	}
	return payloads, nil
}

func sortedTags(payloads map[uint32][]byte) []uint32 {
	tags := make([]uint32, 0, len(payloads))
	for tag := range payloads {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func lz4Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4Decompress(framed []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(framed))
	return io.ReadAll(r)
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}
