// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package per implements the BASIC variants of the ASN.1 Packed Encoding Rules
// (PER) as defined in [Rec. ITU-T X.691]: the ALIGNED variant (APER) and the
// UNALIGNED variant (UPER).
//
// PER encodings carry no tags. Values are encoded according to the shape and
// the PER-visible constraints of a [schema.Schema]:
//
//   - The presence of OPTIONAL and DEFAULT fields is recorded in a preamble
//     with one bit per field. DEFAULT fields whose value equals the default
//     are omitted.
//   - The members of a SET are encoded as a SEQUENCE of its members in
//     canonical tag order. The alternatives of a CHOICE are numbered in
//     canonical tag order as well.
//   - INTEGER values are encoded as constrained, semi-constrained or
//     unconstrained whole numbers depending on their value constraint.
//   - Lengths use the length determinants of X.691 clause 11.9 including
//     fragmentation into 16K blocks.
//   - VisibleString characters use the minimal number of bits for the
//     effective alphabet, rounded up to a power of two in the ALIGNED variant.
//
// Tags and delegates contribute nothing to the encoding. Extensibility
// markers are not supported.
//
// [Rec. ITU-T X.691]: https://www.itu.int/rec/T-REC-X.691
package per

import (
	"math/big"

	"github.com/rs/zerolog"

	"codello.dev/asn1codec/schema"
)

// Variant selects one of the variants of PER.
//
//go:generate stringer -type=Variant
type Variant uint8

const (
	Aligned   Variant = iota // BASIC-PER ALIGNED
	Unaligned                // BASIC-PER UNALIGNED
)

// DefaultMaxDepth is the nesting limit used when no MaxDepth is configured.
const DefaultMaxDepth = 64

// DefaultMaxElements is the limit on items encoded in zero bits used when no
// MaxElements is configured.
const DefaultMaxElements = 64 * 1024

// Ranges at which the ALIGNED variant changes the encoding of constrained
// whole numbers (X.691 clause 11.5.7) and lengths (X.691 clause 11.9).
const (
	fragmentSize = 16 * 1024
	maxFragments = 4
	limit64K     = 64 * 1024
)

var (
	bigOne = big.NewInt(1)
	big256 = big.NewInt(256)
	big64K = big.NewInt(limit64K)
)

var nopLogger = zerolog.Nop()

func loggerOrNop(l *zerolog.Logger) *zerolog.Logger {
	if l == nil {
		return &nopLogger
	}
	return l
}

func maxDepthOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxDepth
	}
	return n
}

func maxElementsOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxElements
	}
	return n
}

// mayBeEmpty reports whether a value of s can be encoded in zero bits. It
// reports true whenever it cannot rule that out.
func mayBeEmpty(s *schema.Schema) bool {
	switch s.Kind {
	case schema.KindPrimitive:
		c := s.Constraints
		switch s.Leaf {
		case schema.LeafInteger:
			return c.Value.IsFixed()
		case schema.LeafOctetString, schema.LeafGeneralString:
			return c.Size.IsFixed() && c.Size.Upper == 0
		case schema.LeafVisibleString:
			return c.Size.IsFixed() && (c.Size.Upper == 0 || newAlphabet(c.Alphabet, false).bits == 0)
		}
	case schema.KindStructured:
		for _, f := range s.Fields {
			if f.IsOptional() || !mayBeEmpty(f.Schema) {
				return false
			}
		}
		return true
	case schema.KindSequenceOf:
		return s.Constraints.Size.IsFixed() && (s.Constraints.Size.Upper == 0 || mayBeEmpty(s.Elem))
	case schema.KindChoice:
		return len(s.Fields) == 1 && mayBeEmpty(s.Fields[0].Schema)
	case schema.KindDelegate:
		return mayBeEmpty(s.Elem)
	}
	return true
}
