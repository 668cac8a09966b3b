// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"math/bits"
)

// LengthLen returns the number of length octets needed to encode the length
// l, using the short form for lengths below 128 and the minimal long form
// otherwise. An indefinite length takes a single octet.
func LengthLen(l int) int {
	if l < 0x80 {
		return 1
	}
	return 1 + (bits.Len(uint(l))+7)/8
}

// HeaderLen returns the number of octets needed to encode h.
func HeaderLen(h Header) int {
	return h.Tag.IdentifierLen() + LengthLen(h.Length)
}

// AppendLength appends the length octets for the length l to dst and returns
// the extended slice. Lengths below 128 use the short form, larger lengths the
// minimal long form. [LengthIndefinite] is encoded as a single 0x80 octet.
func AppendLength(dst []byte, l int) []byte {
	if l == LengthIndefinite {
		return append(dst, 0x80)
	}
	if l < 0x80 {
		return append(dst, byte(l))
	}
	n := (bits.Len(uint(l)) + 7) / 8
	dst = append(dst, 0x80|byte(n))
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(l>>(i*8)))
	}
	return dst
}

// AppendHeader appends the identifier and length octets of h to dst and
// returns the extended slice. If h is [EndOfContents] the end-of-contents
// octets are appended. It is the caller's responsibility to use
// [LengthIndefinite] only with constructed headers.
func AppendHeader(dst []byte, h Header) []byte {
	if h == EndOfContents {
		return AppendEndOfContents(dst)
	}
	dst = h.Tag.AppendIdentifier(dst, h.Constructed)
	return AppendLength(dst, h.Length)
}

// AppendEndOfContents appends the end-of-contents octets 0x00 0x00 to dst and
// returns the extended slice.
func AppendEndOfContents(dst []byte) []byte {
	return append(dst, 0x00, 0x00)
}

// AppendTLV appends a complete definite-length TLV with the given tag and
// contents to dst and returns the extended slice.
func AppendTLV(dst []byte, h Header, contents []byte) []byte {
	h.Length = len(contents)
	dst = AppendHeader(dst, h)
	return append(dst, contents...)
}
