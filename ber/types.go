// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"fmt"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/schema"
)

var (
	errEmptyInteger      = errors.New("empty integer")
	errIntegerNotMinimal = errors.New("integer not minimally encoded")
	errInvalidCharacter  = errors.New("invalid character in VisibleString")
)

// encodeLeaf returns the contents octets of the primitive value v of the given
// leaf kind.
func encodeLeaf(v asn1codec.Value, leaf schema.Leaf) ([]byte, error) {
	switch leaf {
	case schema.LeafInteger:
		i, err := asn1codec.As[*asn1codec.Integer](v)
		if err != nil {
			return nil, err
		}
		return i.AppendTwosComplement(nil), nil
	case schema.LeafOctetString:
		s, err := asn1codec.As[asn1codec.OctetString](v)
		return s, err
	case schema.LeafVisibleString:
		s, err := asn1codec.As[asn1codec.VisibleString](v)
		if err != nil {
			return nil, err
		}
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: %w", asn1codec.ConstraintViolation, errInvalidCharacter)
		}
		return []byte(s), nil
	case schema.LeafGeneralString:
		s, err := asn1codec.As[asn1codec.GeneralString](v)
		return []byte(s), err
	}
	return nil, fmt.Errorf("%w: unknown leaf %v", asn1codec.InvalidSchema, leaf)
}

// decodeLeaf returns the value of the given leaf kind represented by the
// contents octets b. The returned value does not share memory with b.
func decodeLeaf(b []byte, leaf schema.Leaf, rules Rules) (asn1codec.Value, error) {
	switch leaf {
	case schema.LeafInteger:
		if len(b) == 0 {
			return nil, fmt.Errorf("%w: %w", asn1codec.InvalidValue, errEmptyInteger)
		}
		if rules != BER && !asn1codec.IsMinimalTwosComplement(b) {
			return nil, fmt.Errorf("%w: %w", asn1codec.InvalidValue, errIntegerNotMinimal)
		}
		return new(asn1codec.Integer).SetTwosComplement(b), nil
	case schema.LeafOctetString:
		return asn1codec.OctetString(append([]byte{}, b...)), nil
	case schema.LeafVisibleString:
		s := asn1codec.VisibleString(b)
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: %w", asn1codec.ConstraintViolation, errInvalidCharacter)
		}
		return s, nil
	case schema.LeafGeneralString:
		return asn1codec.GeneralString(b), nil
	}
	return nil, fmt.Errorf("%w: unknown leaf %v", asn1codec.InvalidSchema, leaf)
}
