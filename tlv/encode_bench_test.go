// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"testing"
)

func BenchmarkAppendHeader(b *testing.B) {
	h := Header{tagOctetString, false, 1000}
	buf := make([]byte, 0, 16)
	for b.Loop() {
		buf = AppendHeader(buf[:0], h)
	}
}

func BenchmarkAppendTLV(b *testing.B) {
	contents := make([]byte, 200)
	buf := make([]byte, 0, 256)
	b.SetBytes(int64(len(contents)))
	for b.Loop() {
		buf = AppendTLV(buf[:0], Header{Tag: tagOctetString}, contents)
	}
}
