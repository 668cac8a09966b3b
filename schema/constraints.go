// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"math/big"
	"strconv"

	"golang.org/x/exp/constraints"
)

// Constraints holds the PER-visible constraints of a type. BER, CER and DER
// ignore constraints.
type Constraints struct {
	Value    *Range // permitted values of an INTEGER
	Size     *Range // permitted number of characters, octets or elements
	Alphabet string // permitted characters of a VisibleString, empty for all
}

// Range is an integer interval with optional bounds. A nil *Range is
// unconstrained.
type Range struct {
	Lower, Upper       int64
	HasLower, HasUpper bool
}

// Between returns the range [lb, ub].
func Between[T constraints.Integer](lb, ub T) *Range {
	return &Range{Lower: int64(lb), Upper: int64(ub), HasLower: true, HasUpper: true}
}

// AtLeast returns the semi-constrained range [lb, MAX].
func AtLeast[T constraints.Integer](lb T) *Range {
	return &Range{Lower: int64(lb), HasLower: true}
}

// AtMost returns the range [MIN, ub]. PER encodes integers with this
// constraint as unconstrained. Sizes are never negative, so a size constraint
// with an upper bound only should be written as Between(0, ub).
func AtMost[T constraints.Integer](ub T) *Range {
	return &Range{Upper: int64(ub), HasUpper: true}
}

// Exactly returns the range [n, n]. As a size constraint this indicates a
// fixed size.
func Exactly[T constraints.Integer](n T) *Range {
	return Between(n, n)
}

// IsConstrained reports whether both bounds of r are known.
func (r *Range) IsConstrained() bool {
	return r != nil && r.HasLower && r.HasUpper
}

// IsFixed reports whether r contains exactly one value.
func (r *Range) IsFixed() bool {
	return r.IsConstrained() && r.Lower == r.Upper
}

// Contains reports whether v lies within r.
func (r *Range) Contains(v int64) bool {
	if r == nil {
		return true
	}
	return (!r.HasLower || v >= r.Lower) && (!r.HasUpper || v <= r.Upper)
}

// ContainsBig reports whether v lies within r.
func (r *Range) ContainsBig(v *big.Int) bool {
	if r == nil {
		return true
	}
	if r.HasLower && v.Cmp(big.NewInt(r.Lower)) < 0 {
		return false
	}
	if r.HasUpper && v.Cmp(big.NewInt(r.Upper)) > 0 {
		return false
	}
	return true
}

// Span returns the number of values in a constrained range, that is
// ub - lb + 1. The result does not overflow for any pair of int64 bounds.
func (r *Range) Span() *big.Int {
	span := new(big.Int).Sub(big.NewInt(r.Upper), big.NewInt(r.Lower))
	return span.Add(span, big.NewInt(1))
}

// String formats r in ASN.1 notation, for example "(0..255)" or "(1..MAX)".
func (r *Range) String() string {
	if r == nil {
		return "(MIN..MAX)"
	}
	lb, ub := "MIN", "MAX"
	if r.HasLower {
		lb = strconv.FormatInt(r.Lower, 10)
	}
	if r.HasUpper {
		ub = strconv.FormatInt(r.Upper, 10)
	}
	if r.IsFixed() {
		return "(" + lb + ")"
	}
	return "(" + lb + ".." + ub + ")"
}
