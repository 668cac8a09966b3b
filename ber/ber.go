// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ber implements the ASN.1 Basic Encoding Rules (BER) and their
// canonical variants CER and DER. The encoding rules are defined in
// [Rec. ITU-T X.690].
// See also “[A Layman's Guide to a Subset of ASN.1, BER, and DER]”.
//
// Values are encoded and decoded according to a [schema.Schema]. The three
// variants differ as follows:
//
//   - BER uses definite lengths. The decoder accepts definite and indefinite
//     lengths, non-minimal length octets and constructed strings.
//   - CER uses the indefinite-length form for all constructed values. Strings
//     longer than 1000 octets are split into 1000-octet segments. The decoder
//     rejects other uses of constructed strings.
//   - DER uses definite lengths and rejects indefinite lengths, non-minimal
//     lengths and constructed strings during decoding.
//
// All variants encode the members of a SET in canonical tag order and omit
// DEFAULT fields whose value equals the default. Under BER the
// [Encoder.EncodeDefaults] option keeps them. Constraints of a schema are not
// checked by this package.
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
// [A Layman's Guide to a Subset of ASN.1, BER, and DER]: http://luca.ntop.org/Teaching/Appunti/asn1.html
package ber

import (
	"github.com/rs/zerolog"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/schema"
)

// Rules selects one of the variants of the Basic Encoding Rules.
//
//go:generate stringer -type=Rules
type Rules uint8

const (
	BER Rules = iota // Basic Encoding Rules
	CER              // Canonical Encoding Rules
	DER              // Distinguished Encoding Rules
)

// DefaultMaxDepth is the nesting limit used when no MaxDepth is configured.
const DefaultMaxDepth = 64

// cerSegmentSize is the maximum number of contents octets of a primitive
// string encoding under CER.
const cerSegmentSize = 1000

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

// Marshal returns the BER encoding of v according to s. See [Encoder.Encode]
// for details.
func Marshal(v asn1codec.Value, s *schema.Schema) ([]byte, error) {
	return (&Encoder{}).Encode(v, s)
}

// Unmarshal parses the BER-encoded data according to s and returns the
// decoded value. Trailing data after the value results in an error. See
// [Decoder.Decode] for details.
func Unmarshal(data []byte, s *schema.Schema) (asn1codec.Value, error) {
	return (&Decoder{}).Decode(data, s)
}
