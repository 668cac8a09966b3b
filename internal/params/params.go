// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package params parses the compact field notation used by the schema
// builders, for example "explicit,tag:0" or "application,tag:2,optional".
package params

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"codello.dev/asn1codec"
)

var (
	errExplicitWithoutTag = errors.New("explicit requires a tag")
	errMultipleClasses    = errors.New("multiple tag classes")
)

// Parameters is the parsed representation of a field notation string.
type Parameters struct {
	Tag      asn1codec.Tag // the EXPLICIT or IMPLICIT class and tag number, if HasTag
	HasTag   bool          // true iff a tag number is given
	Explicit bool          // true iff an EXPLICIT tag is in use
	Optional bool          // true iff the field is OPTIONAL
}

// Parse parses str into a Parameters structure. The following parts are
// recognized, separated by commas:
//
//	tag:x       specifies the ASN.1 tag number; implies ASN.1 CONTEXT SPECIFIC
//	application specifies that an APPLICATION tag is used
//	private     specifies that a PRIVATE tag is used
//	universal   specifies that a UNIVERSAL tag is used
//	explicit    mark the tag as explicit
//	implicit    mark the tag as implicit (the default)
//	optional    marks the field as ASN.1 OPTIONAL
//
// Empty parts are ignored. Unknown parts result in an error.
func Parse(str string) (ret Parameters, err error) {
	hasClass := false
	for part := range strings.SplitSeq(str, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "optional":
			ret.Optional = true
		case part == "explicit":
			ret.Explicit = true
		case part == "implicit":
			ret.Explicit = false
		case strings.HasPrefix(part, "tag:"):
			i, err := strconv.ParseUint(part[4:], 10, bits.UintSize)
			if err != nil {
				return ret, fmt.Errorf("invalid tag number %q: %w", part[4:], err)
			}
			if !hasClass {
				ret.Tag.Class = asn1codec.ClassContextSpecific
			}
			ret.Tag.Number = uint(i)
			ret.HasTag = true
		case part == "application", part == "private", part == "universal":
			if hasClass {
				return ret, errMultipleClasses
			}
			hasClass = true
			switch part {
			case "application":
				ret.Tag.Class = asn1codec.ClassApplication
			case "private":
				ret.Tag.Class = asn1codec.ClassPrivate
			default:
				ret.Tag.Class = asn1codec.ClassUniversal
			}
		default:
			return ret, fmt.Errorf("unknown field parameter %q", part)
		}
	}
	if ret.Explicit && !ret.HasTag {
		return ret, errExplicitWithoutTag
	}
	return ret, nil
}
