// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1codec

import (
	"strconv"
	"strings"
)

// ErrorKind classifies the errors reported by the encoders and decoders of
// this module. An ErrorKind is itself an error so that it can be used as a
// target for [errors.Is]:
//
//	if errors.Is(err, asn1codec.UnexpectedTag) {
//		// ...
//	}
//
//go:generate stringer -type=ErrorKind
type ErrorKind uint8

const (
	// MalformedIdentifier indicates invalid identifier octets.
	MalformedIdentifier ErrorKind = iota + 1
	// UnexpectedTag indicates that a decoder found a tag that does not match
	// any expected field or alternative.
	UnexpectedTag
	// TruncatedInput indicates that a declared length exceeds the available
	// bytes or bits.
	TruncatedInput
	// TrailingData indicates that a decoder found unused data after a complete
	// top-level value.
	TrailingData
	// ConstraintViolation indicates a value outside its declared bounds, an
	// invalid string character or a size outside the permitted range.
	ConstraintViolation
	// RecursionLimitExceeded indicates that a value is nested deeper than
	// allowed by the configured maximum depth.
	RecursionLimitExceeded
	// InvalidConstructedString indicates a constructed string encoding where
	// the encoding rules do not permit one, or a malformed segment.
	InvalidConstructedString
	// InvalidLength indicates length octets that are not permitted by the
	// encoding rules or that do not match the enclosing value.
	InvalidLength
	// InvalidValue indicates contents octets or a runtime value that do not
	// represent a valid value of the expected type.
	InvalidValue
	// InvalidSchema indicates a schema that cannot be used for encoding or
	// decoding.
	InvalidSchema
)

// Error returns a short description of k.
func (k ErrorKind) Error() string {
	switch k {
	case MalformedIdentifier:
		return "malformed identifier"
	case UnexpectedTag:
		return "unexpected tag"
	case TruncatedInput:
		return "truncated input"
	case TrailingData:
		return "trailing data"
	case ConstraintViolation:
		return "constraint violation"
	case RecursionLimitExceeded:
		return "recursion limit exceeded"
	case InvalidConstructedString:
		return "invalid constructed string"
	case InvalidLength:
		return "invalid length"
	case InvalidValue:
		return "invalid value"
	case InvalidSchema:
		return "invalid schema"
	}
	return k.String()
}

// An EncodeError is returned by encoders when a value cannot be encoded. Path
// identifies the offending value by the dotted chain of field names leading
// to it, for example "PersonnelRecord.children[1].name.givenName".
type EncodeError struct {
	Kind ErrorKind
	Path string
	Err  error // optional details
}

func (e *EncodeError) Error() string {
	var sb strings.Builder
	sb.WriteString("asn1: encode")
	if e.Path != "" {
		sb.WriteString(" " + e.Path)
	}
	sb.WriteString(": " + e.Kind.Error())
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

// Is reports whether target is the Kind of e.
func (e *EncodeError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// A DecodeError is returned by decoders when the input cannot be decoded.
// Offset is the byte offset in the input at which the error was detected.
// Decoders of bit-oriented encodings additionally report the exact BitOffset;
// for byte-oriented encodings BitOffset is 8*Offset.
type DecodeError struct {
	Kind      ErrorKind
	Offset    int
	BitOffset int
	Path      string
	Err       error // optional details
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString("asn1: decode")
	if e.Path != "" {
		sb.WriteString(" " + e.Path)
	}
	sb.WriteString(": " + e.Kind.Error() + " at offset " + strconv.Itoa(e.Offset))
	if e.BitOffset%8 != 0 {
		sb.WriteString(" (bit " + strconv.Itoa(e.BitOffset) + ")")
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

// Is reports whether target is the Kind of e.
func (e *DecodeError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Path is a builder for the dotted field paths reported in [EncodeError] and
// [DecodeError]. Paths are built lazily so that no allocations happen on the
// success path.
type Path struct {
	parent *Path
	name   string
	index  int // -1 unless this is a list element
}

// Root returns the root of a path. name is usually the name of the top-level
// type.
func Root(name string) *Path {
	return &Path{name: name, index: -1}
}

// Field returns the path of the named field below p.
func (p *Path) Field(name string) *Path {
	return &Path{parent: p, name: name, index: -1}
}

// Index returns the path of the i-th element below p.
func (p *Path) Index(i int) *Path {
	return &Path{parent: p, index: i}
}

// String formats p as a dotted path.
func (p *Path) String() string {
	if p == nil {
		return ""
	}
	var parts []*Path
	for q := p; q != nil; q = q.parent {
		parts = append(parts, q)
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		q := parts[i]
		switch {
		case q.index >= 0:
			sb.WriteString("[" + strconv.Itoa(q.index) + "]")
		case q.name == "":
		case sb.Len() > 0:
			sb.WriteString("." + q.name)
		default:
			sb.WriteString(q.name)
		}
	}
	return sb.String()
}
