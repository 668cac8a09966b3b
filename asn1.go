// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asn1codec implements the data model shared by the schema-driven ASN.1
// codecs in its subpackages. It defines ASN.1 tags as specified in
// [Rec. ITU-T X.680], the identifier octets used to encode them in
// [Rec. ITU-T X.690], the runtime representation of ASN.1 values and the errors
// reported by all encoders and decoders.
//
// # Schemas and Values
//
// Types are not derived from Go types via reflection. Instead an ASN.1 type is
// described by a schema (see package [codello.dev/asn1codec/schema]) that is
// built once and shared between any number of encode and decode calls. A value
// of such a type is represented by the closed set of [Value] variants defined
// in this package:
//
//	ASN.1 type        Go representation
//	INTEGER           *Integer
//	OCTET STRING      OctetString
//	VisibleString     VisibleString
//	GeneralString     GeneralString
//	SEQUENCE, SET     Struct (one slot per declared field, nil if absent)
//	SEQUENCE OF       List
//	CHOICE            *Choice
//
// A delegate type (a type defined as another type, possibly with a different
// tag) has no representation of its own. Its values are the values of the
// underlying type.
//
// Typed Go structs can implement [Marshaler] and [Unmarshaler] to convert
// themselves to and from a [Value].
//
// # Encoding Rules
//
// The following encoding rules are implemented in subpackages:
//
//   - BER, CER and DER in package [codello.dev/asn1codec/ber]
//   - Aligned and Unaligned PER in package [codello.dev/asn1codec/per]
//
// Package [codello.dev/asn1codec/codec] offers a single entry point for all of
// them.
//
// [Rec. ITU-T X.680]: https://www.itu.int/rec/T-REC-X.680
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
package asn1codec

import (
	"cmp"
	"errors"
	"strconv"
	"strings"

	"codello.dev/asn1codec/internal/vlq"
)

// Tag constitutes an ASN.1 tag, consisting of its class and number. For
// details, see Section 8 of Rec. ITU-T X.680.
type Tag struct {
	Class  Class
	Number uint
}

// Class holds the class part of an ASN.1 tag. The class acts as a namespace for
// the tag number. A Class value is an unsigned 2-bit integer. Class values
// whose value exceeds 2 bits are invalid.
//
//go:generate stringer -type=Class -trimprefix=Class
type Class uint8

// IsValid reports whether c is a valid Class value.
func (c Class) IsValid() bool {
	return c <= 3
}

// Predefined [Class] constants. These are all the possible values that can be
// encoded in the [Class] type.
const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

// UniversalTag returns the tag with number n in the [ClassUniversal] namespace.
func UniversalTag(n uint) Tag { return Tag{ClassUniversal, n} }

// ApplicationTag returns the tag with number n in the [ClassApplication]
// namespace.
func ApplicationTag(n uint) Tag { return Tag{ClassApplication, n} }

// ContextTag returns the tag with number n in the [ClassContextSpecific]
// namespace.
func ContextTag(n uint) Tag { return Tag{ClassContextSpecific, n} }

// PrivateTag returns the tag with number n in the [ClassPrivate] namespace.
func PrivateTag(n uint) Tag { return Tag{ClassPrivate, n} }

// String returns a string representation t in a format similar to the one used
// in ASN.1 notation. The tag number is enclosed by square brackets and prefixed
// with the class used. To avoid ambiguity the UNIVERSAL word is used for
// universal tags, although this is not valid ASN.1 syntax.
func (t Tag) String() string {
	if t.Class == ClassContextSpecific {
		return "[" + strconv.FormatUint(uint64(t.Number), 10) + "]"
	}
	return "[" + strings.ToUpper(t.Class.String()) + " " + strconv.FormatUint(uint64(t.Number), 10) + "]"
}

// Compare returns -1, 0 or +1 depending on whether t sorts before, equal to or
// after u. Tags are ordered by class first (UNIVERSAL, APPLICATION, CONTEXT
// SPECIFIC, PRIVATE) and then by number. This is the canonical order of Rec.
// ITU-T X.680, Section 8.6 used to sort the members of a SET.
func (t Tag) Compare(u Tag) int {
	if c := cmp.Compare(t.Class, u.Class); c != 0 {
		return c
	}
	return cmp.Compare(t.Number, u.Number)
}

// CompareTags is [Tag.Compare] as a function, suitable for [slices.SortFunc].
func CompareTags(t, u Tag) int {
	return t.Compare(u)
}

// maxIdentifierNumberLen is the maximum number of subsequent octets accepted in
// the high-tag-number form.
const maxIdentifierNumberLen = 5

// IdentifierLen returns the number of identifier octets needed to encode t.
func (t Tag) IdentifierLen() int {
	if t.Number < 31 {
		return 1
	}
	return 1 + vlq.Length(t.Number)
}

// AppendIdentifier appends the identifier octets of t to dst as specified in
// Rec. ITU-T X.690, Section 8.1.2 and returns the extended slice. The
// constructed flag sets bit 6 of the initial octet. Tag numbers of 31 and
// above use the high-tag-number form.
func (t Tag) AppendIdentifier(dst []byte, constructed bool) []byte {
	b := byte(t.Class) << 6
	if constructed {
		b |= 0x20
	}
	if t.Number < 31 {
		return append(dst, b|byte(t.Number))
	}
	dst = append(dst, b|0x1f)
	return vlq.Append(dst, t.Number)
}

// ParseIdentifier parses the identifier octets at the start of b. It returns
// the tag, whether the constructed bit is set and the number of octets
// consumed.
//
// If b ends before the identifier is complete, [TruncatedInput] is returned.
// A high-tag-number form that does not terminate within five subsequent
// octets, that is not minimally encoded or that encodes a number below 31
// results in [MalformedIdentifier].
func ParseIdentifier(b []byte) (t Tag, constructed bool, n int, err error) {
	if len(b) == 0 {
		return t, false, 0, TruncatedInput
	}
	t.Class = Class(b[0] >> 6)
	constructed = b[0]&0x20 != 0
	t.Number = uint(b[0] & 0x1f)
	if t.Number < 31 {
		return t, constructed, 1, nil
	}

	rest := b[1:]
	limited := len(rest) > maxIdentifierNumberLen
	if limited {
		rest = rest[:maxIdentifierNumberLen]
	}
	num, m, err := vlq.Parse[uint64](rest, true)
	switch {
	case errors.Is(err, vlq.ErrTruncated) && !limited:
		return t, constructed, 1 + m, TruncatedInput
	case err != nil:
		return t, constructed, 1 + m, MalformedIdentifier
	case num < 31:
		return t, constructed, 1 + m, MalformedIdentifier
	case num > uint64(^uint(0)):
		return t, constructed, 1 + m, MalformedIdentifier
	}
	t.Number = uint(num)
	return t, constructed, 1 + m, nil
}

// These are some ASN.1 tag numbers are defined in the [ClassUniversal]
// namespace. These assignments are defined in Rec. ITU-T X.680, Section 8, Table
// 1. Only the types supported by the codecs of this module are listed.
const (
	TagEndOfContents uint = 0
	TagInteger       uint = 2
	TagOctetString   uint = 4
	TagSequence      uint = 16
	TagSet           uint = 17
	TagVisibleString uint = 26
	TagGeneralString uint = 27
)
