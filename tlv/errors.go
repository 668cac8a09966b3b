// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"strconv"

	"codello.dev/asn1codec"
)

// kindError is a syntax error detail classified by an [asn1codec.ErrorKind].
type kindError struct {
	kind asn1codec.ErrorKind
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

var (
	errUnexpectedEOC      = &kindError{asn1codec.InvalidLength, "unexpected end of contents"}
	errInvalidEOC         = &kindError{asn1codec.MalformedIdentifier, "invalid end of contents"}
	errTruncated          = &kindError{asn1codec.TruncatedInput, "truncated data value"}
	errExceedsParent      = &kindError{asn1codec.InvalidLength, "data value exceeds parent"}
	errIndefinitePrim     = &kindError{asn1codec.InvalidLength, "indefinite-length primitive data value"}
	errIndefiniteCanon    = &kindError{asn1codec.InvalidLength, "indefinite length not permitted"}
	errLengthNotMinimal   = &kindError{asn1codec.InvalidLength, "length not minimally encoded"}
	errLengthTooLarge     = &kindError{asn1codec.InvalidLength, "length too large"}
	errLengthReserved     = &kindError{asn1codec.InvalidLength, "reserved length octet"}
	errMalformedIdent     = &kindError{asn1codec.MalformedIdentifier, "malformed identifier octets"}
	errNoConstructedValue = &kindError{asn1codec.InvalidLength, "no constructed value to skip"}
)

// SyntaxError represents an error in the TLV encoding. The error value contains
// the location of the error within the input as well as the [Header] of the
// surrounding data value. The Err of a SyntaxError wraps an
// [asn1codec.ErrorKind] that classifies the error.
type SyntaxError struct {
	requireKeyedLiterals
	nonComparable

	Err error // underlying error

	// ByteOffset is the location of the error. The location is usually the start of
	// the TLV header containing the error.
	ByteOffset int

	// Header is the TLV header of the constructed TLV whose value contained the
	// malformed data.
	Header Header
}

func (e *SyntaxError) Unwrap() error { return e.Err }
func (e *SyntaxError) Error() string {
	b := []byte("tlv: syntax error")
	if e.Header != (Header{}) {
		b = append(b, " within "...)
		b = append(b, e.Header.String()...)
	}
	b = strconv.AppendInt(append(b, " for TLV beginning at offset "...), int64(e.ByteOffset), 10)
	if e.Err != nil {
		b = append(b, ": "...)
		b = append(b, e.Err.Error()...)
	}
	return string(b)
}

// Kind returns the classification of e. If e does not wrap an
// [asn1codec.ErrorKind], [asn1codec.InvalidLength] is returned.
func (e *SyntaxError) Kind() asn1codec.ErrorKind {
	switch err := e.Err.(type) {
	case asn1codec.ErrorKind:
		return err
	case *kindError:
		return err.kind
	}
	return asn1codec.InvalidLength
}
