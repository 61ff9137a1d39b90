// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package digest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

var digestPattern = regexp.MustCompile(`^([0-9a-fA-F]{64})/([0-9]+)$`)

// Parse parses a digest's string representation. It accepts either the
// canonical "hash/size_bytes" form or a JSON object with "Hash" and
// "SizeBytes" fields (key case is ignored; "size_bytes" is not recognized).
func Parse(s string) (Digest, error) {
	var d Digest
	if m := digestPattern.FindStringSubmatch(s); len(m) == 3 {
		d.Hash = m[1]
		size, err := strconv.ParseInt(m[2], 10, 64)
		if err == nil {
			d.SizeBytes = size
			return d, nil
		}
	}
	if err := json.Unmarshal([]byte(s), &d); err == nil {
		return d, nil
	}
	return d, fmt.Errorf("failed to parse digest %q", s)
}
