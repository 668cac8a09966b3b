// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package per

import (
	"math/bits"
	"slices"
)

// visibleAlphabet is the effective alphabet of an unconstrained
// VisibleString: the characters 0x20 to 0x7E.
var visibleAlphabet = func() []byte {
	a := make([]byte, 0, 0x7F-0x20)
	for c := byte(0x20); c < 0x7F; c++ {
		a = append(a, c)
	}
	return a
}()

// alphabet describes the encoding of the characters of a known-multiplier
// character string (X.691 clause 30.5).
type alphabet struct {
	chars []byte // sorted by character code
	bits  int    // bits per character
	index bool   // encode the position in chars instead of the code
}

// newAlphabet returns the alphabet for a VisibleString with the given
// permitted alphabet constraint. An empty constraint permits all visible
// characters.
func newAlphabet(permitted string, aligned bool) alphabet {
	chars := visibleAlphabet
	if permitted != "" {
		chars = []byte(permitted)
		slices.Sort(chars)
		chars = slices.Compact(chars)
	}
	b := bits.Len(uint(len(chars) - 1))
	if aligned && b > 0 {
		// ALIGNED rounds up to the next power of two.
		b = 1 << bits.Len(uint(b-1))
	}
	return alphabet{
		chars: chars,
		bits:  b,
		index: uint64(chars[len(chars)-1]) > 1<<b-1,
	}
}

// encode returns the value encoded for c and whether c is permitted.
func (a alphabet) encode(c byte) (uint64, bool) {
	i, ok := slices.BinarySearch(a.chars, c)
	if !ok {
		return 0, false
	}
	if a.index {
		return uint64(i), true
	}
	return uint64(c), true
}

// decode returns the character encoded as v and whether v is valid.
func (a alphabet) decode(v uint64) (byte, bool) {
	if a.index {
		if v >= uint64(len(a.chars)) {
			return 0, false
		}
		return a.chars[v], true
	}
	_, ok := slices.BinarySearch(a.chars, byte(v))
	return byte(v), ok && v <= 0xFF
}
