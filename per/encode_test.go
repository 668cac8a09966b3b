// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package per

import (
	"errors"
	"fmt"
	"testing"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/schema"
)

func ExampleEncoder_Encode() {
	s := schema.Sequence("S",
		schema.NewField("a", schema.Integer().WithRange(schema.Between(0, 7)), "tag:0,optional"),
		schema.NewField("b", schema.VisibleString(), "tag:1"),
	)
	enc := &Encoder{Variant: Unaligned}
	b, _ := enc.Encode(asn1codec.Struct{asn1codec.NewInteger(5), asn1codec.VisibleString("Hi")}, s)
	fmt.Printf("% X\n", b)
	// Output: D0 29 1A 40
}

func TestEncoder_Errors(t *testing.T) {
	seq := schema.Sequence("S",
		schema.NewField("a", schema.Integer(), ""),
		schema.NewField("b", schema.Sequence("T", schema.NewField("name", schema.VisibleString(), "")), ""),
	)
	nested := schema.SequenceOf(schema.SequenceOf(schema.SequenceOf(schema.Integer())))
	tests := map[string]struct {
		enc      Encoder
		schema   *schema.Schema
		val      asn1codec.Value
		wantKind asn1codec.ErrorKind
		wantPath string
	}{
		"ValueRange":       {Encoder{}, bits3(), int_(8), asn1codec.ConstraintViolation, "INTEGER"},
		"BelowLowerBound":  {Encoder{}, schema.Integer().WithRange(schema.AtLeast(0)), int_(-1), asn1codec.ConstraintViolation, "INTEGER"},
		"StringSize":       {Encoder{}, schema.VisibleString().WithSize(schema.Exactly(3)), asn1codec.VisibleString("ab"), asn1codec.ConstraintViolation, "VisibleString"},
		"OctetStringSize":  {Encoder{}, schema.OctetString().WithSize(schema.Between(1, 2)), asn1codec.OctetString{}, asn1codec.ConstraintViolation, "OCTET STRING"},
		"Alphabet":         {Encoder{}, schema.VisibleString().WithAlphabet("AB"), asn1codec.VisibleString("C"), asn1codec.ConstraintViolation, "VisibleString"},
		"InvalidCharacter": {Encoder{Variant: Unaligned}, seq, asn1codec.Struct{int_(1), asn1codec.Struct{asn1codec.VisibleString("\n")}}, asn1codec.ConstraintViolation, "S.b.name"},
		"ListSize":         {Encoder{}, schema.SequenceOf(schema.Integer()).WithSize(schema.Between(1, 2)), asn1codec.List{}, asn1codec.ConstraintViolation, "SEQUENCE OF"},
		"MissingField":     {Encoder{}, seq, asn1codec.Struct{nil, asn1codec.Struct{asn1codec.VisibleString("")}}, asn1codec.InvalidValue, "S.a"},
		"WrongVariant":     {Encoder{}, schema.Integer(), asn1codec.OctetString{}, asn1codec.InvalidValue, "INTEGER"},
		"ChoiceIndex":      {Encoder{}, schema.Choice("C", schema.NewField("a", schema.Integer(), "")), &asn1codec.Choice{Index: 1, Value: int_(1)}, asn1codec.InvalidValue, "C"},
		"InvalidSchema":    {Encoder{}, schema.Choice("C"), &asn1codec.Choice{}, asn1codec.InvalidSchema, "C"},
		"RecursionLimit":   {Encoder{MaxDepth: 2}, nested, asn1codec.List{asn1codec.List{asn1codec.List{}}}, asn1codec.RecursionLimitExceeded, "SEQUENCE OF[0][0]"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tc.enc.Encode(tc.val, tc.schema)
			if !errors.Is(err, tc.wantKind) {
				t.Fatalf("Encode() error = %v, want %v", err, tc.wantKind)
			}
			var encErr *asn1codec.EncodeError
			if !errors.As(err, &encErr) {
				t.Fatalf("Encode() error = %T, want *EncodeError", err)
			}
			if encErr.Path != tc.wantPath {
				t.Errorf("EncodeError.Path = %q, want %q", encErr.Path, tc.wantPath)
			}
		})
	}
}

func TestEncoder_PresenceBit(t *testing.T) {
	s := schema.Sequence("S", schema.NewField("a", schema.OctetString(), "optional"))
	tests := map[string]struct {
		val  asn1codec.Value
		want []byte
	}{
		"Present": {asn1codec.Struct{asn1codec.OctetString{0xFF}}, []byte{0x80, 0x01, 0xFF}},
		"Absent":  {asn1codec.Struct{nil}, []byte{0x00}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := (&Encoder{}).Encode(tc.val, s)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got[0]&0x80 != tc.want[0]&0x80 {
				t.Errorf("presence bit = %d, want %d", got[0]>>7, tc.want[0]>>7)
			}
			if string(got) != string(tc.want) {
				t.Errorf("Encode() = % X, want % X", got, tc.want)
			}
		})
	}
}

func BenchmarkEncoder_Encode(b *testing.B) {
	s := schema.Sequence("S",
		schema.NewField("a", schema.Integer(), ""),
		schema.NewField("b", schema.SequenceOf(schema.VisibleString()), ""),
	)
	val := asn1codec.Struct{int_(1 << 40), asn1codec.List{asn1codec.VisibleString("hello"), asn1codec.VisibleString("world")}}
	for _, variant := range []Variant{Aligned, Unaligned} {
		b.Run(variant.String(), func(b *testing.B) {
			enc := &Encoder{Variant: variant}
			b.ReportAllocs()
			for b.Loop() {
				if _, err := enc.Encode(val, s); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
