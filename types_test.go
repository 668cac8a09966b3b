// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1codec

import (
	"errors"
	"math/big"
	"testing"
)

func TestVisibleString_IsValid(t *testing.T) {
	tests := map[string]struct {
		s    VisibleString
		want bool
	}{
		"Empty":   {"", true},
		"Name":    {"John P Smith", true},
		"Tilde":   {"~", true},
		"Newline": {"a\nb", false},
		"Delete":  {"\x7f", false},
		"Umlaut":  {"ä", false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tc.s.IsValid(); got != tc.want {
				t.Errorf("IsValid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	tests := map[string]struct {
		a, b Value
		want bool
	}{
		"Integers":         {NewInteger(51), NewInteger(51), true},
		"DifferentInts":    {NewInteger(51), NewInteger(-51), false},
		"BigIntegers":      {NewBigInteger(huge), NewBigInteger(huge), true},
		"Octets":           {OctetString{1, 2}, OctetString{1, 2}, true},
		"OctetsVsString":   {OctetString("ab"), VisibleString("ab"), false},
		"StringKinds":      {VisibleString("ab"), GeneralString("ab"), false},
		"Absent":           {nil, (*Integer)(nil), true},
		"AbsentVsPresent":  {nil, NewInteger(0), false},
		"Structs":          {Struct{NewInteger(1), nil}, Struct{NewInteger(1), nil}, true},
		"StructSlot":       {Struct{NewInteger(1), nil}, Struct{NewInteger(1), NewInteger(2)}, false},
		"EmptyLists":       {List{}, List(nil), true},
		"ListVsStruct":     {List{}, Struct{}, false},
		"Choices":          {&Choice{1, VisibleString("x")}, &Choice{1, VisibleString("x")}, true},
		"ChoiceAlternates": {&Choice{0, VisibleString("x")}, &Choice{1, VisibleString("x")}, false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if got := Equal(tc.b, tc.a); got != tc.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	tests := map[string]Value{
		"Nil":     nil,
		"Integer": NewInteger(-7),
		"Octets":  OctetString{1, 2},
		"String":  VisibleString("x"),
		"Struct":  Struct{NewInteger(1), nil, OctetString{3}},
		"List":    List{Struct{NewInteger(2)}, List{}},
		"Choice":  &Choice{1, Struct{NewInteger(3)}},
	}
	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Clone(v); !Equal(got, v) {
				t.Errorf("Clone(%v) = %v", v, got)
			}
		})
	}

	orig := Struct{NewInteger(1), OctetString{1}, &Choice{0, List{NewInteger(2)}}}
	c := Clone(orig).(Struct)
	c[0].(*Integer).SetInt64(5)
	c[1].(OctetString)[0] = 9
	c[2].(*Choice).Value.(List)[0].(*Integer).SetInt64(6)
	want := Struct{NewInteger(1), OctetString{1}, &Choice{0, List{NewInteger(2)}}}
	if !Equal(orig, want) {
		t.Errorf("modifying a clone changed the original to %v", orig)
	}
}

func TestAs(t *testing.T) {
	if s, err := As[VisibleString](VisibleString("x")); err != nil || s != "x" {
		t.Errorf("As[VisibleString]() = %q, %v", s, err)
	}
	if _, err := As[*Integer](VisibleString("x")); !errors.Is(err, InvalidValue) {
		t.Errorf("As[*Integer]() error = %v, want %v", err, InvalidValue)
	}
	if _, err := As[*Integer](nil); !errors.Is(err, InvalidValue) {
		t.Errorf("As[*Integer](nil) error = %v, want %v", err, InvalidValue)
	}
}

func TestInteger_TwosComplement(t *testing.T) {
	tests := map[string]struct {
		i    int64
		want []byte
	}{
		"Zero":  {0, []byte{0x00}},
		"51":    {51, []byte{0x33}},
		"127":   {127, []byte{0x7F}},
		"128":   {128, []byte{0x00, 0x80}},
		"-1":    {-1, []byte{0xFF}},
		"-128":  {-128, []byte{0x80}},
		"-129":  {-129, []byte{0xFF, 0x7F}},
		"65535": {65535, []byte{0x00, 0xFF, 0xFF}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			i := NewInteger(tc.i)
			got := i.AppendTwosComplement(nil)
			if string(got) != string(tc.want) {
				t.Errorf("AppendTwosComplement() = % X, want % X", got, tc.want)
			}
			if n := i.TwosComplementLen(); n != len(tc.want) {
				t.Errorf("TwosComplementLen() = %d, want %d", n, len(tc.want))
			}
			if !IsMinimalTwosComplement(got) {
				t.Errorf("IsMinimalTwosComplement(% X) = false", got)
			}
			if back := new(Integer).SetTwosComplement(got); back.Int64() != tc.i {
				t.Errorf("SetTwosComplement(% X) = %v, want %d", got, back, tc.i)
			}
		})
	}
}

func TestIsMinimalTwosComplement(t *testing.T) {
	tests := map[string]struct {
		b    []byte
		want bool
	}{
		"Empty":       {nil, true},
		"LeadingZero": {[]byte{0x00, 0x05}, false},
		"LeadingOnes": {[]byte{0xFF, 0x80}, false},
		"Padded":      {[]byte{0x00, 0x80}, true},
		"Negative":    {[]byte{0xFF, 0x7F}, true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := IsMinimalTwosComplement(tc.b); got != tc.want {
				t.Errorf("IsMinimalTwosComplement(% X) = %v, want %v", tc.b, got, tc.want)
			}
		})
	}
}
