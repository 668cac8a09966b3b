// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1codec

import (
	"bytes"
	"fmt"
	"math/big"
)

// Value is a runtime ASN.1 value. The set of implementations is closed: only
// the types defined in this package implement Value.
type Value interface {
	value()
}

// Marshaler is implemented by Go types that can convert themselves into a
// [Value] of a specific schema.
type Marshaler interface {
	MarshalValue() (Value, error)
}

// Unmarshaler is implemented by Go types that can populate themselves from a
// [Value] of a specific schema.
type Unmarshaler interface {
	UnmarshalValue(Value) error
}

//region [UNIVERSAL 2] INTEGER

// Integer represents an ASN.1 INTEGER of arbitrary size. The methods of
// [big.Int] are available on an *Integer.
//
// See also section 19 of Rec. ITU-T X.680.
type Integer struct {
	big.Int
}

// NewInteger returns an *Integer holding i.
func NewInteger(i int64) *Integer {
	v := new(Integer)
	v.SetInt64(i)
	return v
}

// NewBigInteger returns an *Integer holding a copy of i.
func NewBigInteger(i *big.Int) *Integer {
	v := new(Integer)
	v.Set(i)
	return v
}

// Big returns the value of i as a *big.Int. The result shares memory with i.
func (i *Integer) Big() *big.Int {
	return &i.Int
}

func (*Integer) value() {}

var bigOne = big.NewInt(1)

// TwosComplementLen returns the number of octets in the minimal two's
// complement representation of i. Zero takes a single octet.
func (i *Integer) TwosComplementLen() int {
	switch i.Sign() {
	case 0:
		return 1
	case 1:
		return i.BitLen()/8 + 1
	}
	// -2^(8k-1) fits into k octets.
	nMinus1 := new(big.Int).Neg(&i.Int)
	nMinus1.Sub(nMinus1, bigOne)
	return nMinus1.BitLen()/8 + 1
}

// AppendTwosComplement appends the minimal big-endian two's complement
// representation of i to dst and returns the extended slice. This is the
// contents octets of an INTEGER in BER and the unconstrained integer encoding
// of PER.
func (i *Integer) AppendTwosComplement(dst []byte) []byte {
	switch i.Sign() {
	case 0:
		// Zero is written as a single 0 zero rather than no bytes.
		return append(dst, 0x00)
	case 1:
		bs := i.Bytes()
		if bs[0]&0x80 != 0 {
			// We'll have to pad this with 0x00 in order to stop it
			// looking like a negative number.
			dst = append(dst, 0x00)
		}
		return append(dst, bs...)
	}
	// A negative number has to be converted to two's-complement
	// form. So we'll invert and subtract 1. If the
	// most-significant-bit isn't set then we'll need to pad the
	// beginning with 0xff in order to keep the number negative.
	nMinus1 := new(big.Int).Neg(&i.Int)
	nMinus1.Sub(nMinus1, bigOne)
	bs := nMinus1.Bytes()
	for j := range bs {
		bs[j] ^= 0xff
	}
	if len(bs) == 0 || bs[0]&0x80 == 0 {
		dst = append(dst, 0xff)
	}
	return append(dst, bs...)
}

// SetTwosComplement sets i to the value of the big-endian two's complement
// representation bs and returns i. An empty bs yields zero.
func (i *Integer) SetTwosComplement(bs []byte) *Integer {
	if len(bs) == 0 || bs[0]&0x80 == 0 {
		i.SetBytes(bs)
		return i
	}
	// negative integer, calculate 2s complement
	inv := make([]byte, len(bs))
	for j := range bs {
		inv[j] = ^bs[j]
	}
	i.SetBytes(inv)
	i.Add(&i.Int, bigOne)
	i.Neg(&i.Int)
	return i
}

// IsMinimalTwosComplement reports whether bs is a minimal two's complement
// representation, that is whether the first nine bits are neither all zero
// nor all one.
func IsMinimalTwosComplement(bs []byte) bool {
	return len(bs) < 2 || !((bs[0] == 0x00 && bs[1]&0x80 == 0x00) || (bs[0] == 0xFF && bs[1]&0x80 == 0x80))
}

//endregion

//region [UNIVERSAL 4] OCTET STRING

// OctetString represents an ASN.1 OCTET STRING.
//
// See also section 23 of Rec. ITU-T X.680.
type OctetString []byte

func (OctetString) value() {}

//endregion

//region [UNIVERSAL 26] VisibleString

// VisibleString represents the corresponding ASN.1 type. It is limited to
// visible ASCII characters. In particular this does not include ASCII control
// characters. Note that it is possible to create VisibleString values in
// Go that violate this constraint. Use the IsValid method to check whether a
// string's contents are visible ASCII only.
//
// See also section 41 of Rec. ITU-T X.680.
type VisibleString string

// IsValid reports whether s only consists of visible ASCII characters.
func (s VisibleString) IsValid() bool {
	for i := 0; i < len(s); i++ {
		if s[i] < ' ' || s[i] >= 0x7F {
			return false
		}
	}
	return true
}

func (VisibleString) value() {}

//endregion

//region [UNIVERSAL 27] GeneralString

// GeneralString represents the corresponding ASN.1 type. The contents are
// treated as opaque octets. Escape sequences of ISO/IEC 2022 are not
// interpreted.
type GeneralString string

func (GeneralString) value() {}

//endregion

//region SEQUENCE, SET and SEQUENCE OF

// Struct represents the value of an ASN.1 SEQUENCE or SET. It holds exactly one
// slot per field declared in the schema, in declaration order. A nil slot
// indicates an absent OPTIONAL or DEFAULT field.
//
// Decoders never produce a nil slot for a DEFAULT field: a DEFAULT field that
// is absent from the encoding decodes to a copy of its default value. A Struct
// with a nil DEFAULT slot therefore decodes to a Struct that is not [Equal] to
// it, although both encode identically.
type Struct []Value

func (Struct) value() {}

// List represents the value of an ASN.1 SEQUENCE OF.
type List []Value

func (List) value() {}

//endregion

//region CHOICE

// Choice represents the value of an ASN.1 CHOICE. Index refers to the
// alternative in declaration order.
type Choice struct {
	Index int
	Value Value
}

func (*Choice) value() {}

//endregion

// Equal reports whether a and b are deeply equal. A nil *Integer or *Choice
// equals an untyped nil Value.
func Equal(a, b Value) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	switch a := a.(type) {
	case *Integer:
		b, ok := b.(*Integer)
		return ok && a.Cmp(&b.Int) == 0
	case OctetString:
		b, ok := b.(OctetString)
		return ok && bytes.Equal(a, b)
	case VisibleString:
		b, ok := b.(VisibleString)
		return ok && a == b
	case GeneralString:
		b, ok := b.(GeneralString)
		return ok && a == b
	case Struct:
		b, ok := b.(Struct)
		return ok && equalSlices(a, b)
	case List:
		b, ok := b.(List)
		return ok && equalSlices(a, b)
	case *Choice:
		b, ok := b.(*Choice)
		return ok && a.Index == b.Index && Equal(a.Value, b.Value)
	}
	return false
}

func equalSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func isNil(v Value) bool {
	switch v := v.(type) {
	case nil:
		return true
	case *Integer:
		return v == nil
	case *Choice:
		return v == nil
	}
	return false
}

// Clone returns a deep copy of v. Strings are immutable and are returned as
// is.
func Clone(v Value) Value {
	if isNil(v) {
		return v
	}
	switch v := v.(type) {
	case *Integer:
		return NewBigInteger(v.Big())
	case OctetString:
		if v == nil {
			return v
		}
		return OctetString(bytes.Clone(v))
	case Struct:
		return Struct(cloneSlice(v))
	case List:
		return List(cloneSlice(v))
	case *Choice:
		return &Choice{Index: v.Index, Value: Clone(v.Value)}
	}
	return v
}

func cloneSlice(vs []Value) []Value {
	if vs == nil {
		return nil
	}
	c := make([]Value, len(vs))
	for i, v := range vs {
		c[i] = Clone(v)
	}
	return c
}

// IsAbsent reports whether v represents an absent value.
func IsAbsent(v Value) bool {
	return isNil(v)
}

// As returns v as the variant T. If v holds a different variant, an
// [InvalidValue] error is returned.
func As[T Value](v Value) (T, error) {
	t, ok := v.(T)
	if !ok || isNil(v) {
		var zero T
		return zero, fmt.Errorf("%w: expected %T, got %T", InvalidValue, zero, v)
	}
	return t, nil
}
