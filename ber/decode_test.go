// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"testing"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/schema"
)

func TestDecoder_Decode(t *testing.T) {
	seq := schema.Sequence("S",
		schema.NewField("a", schema.Integer(), ""),
		schema.NewField("b", schema.Integer(), "tag:0,optional"),
		schema.NewField("c", schema.Integer(), "tag:1").WithDefault(int_(9)),
	)
	set := schema.Set("S",
		schema.NewField("a", schema.Integer(), "tag:0"),
		schema.NewField("b", schema.Integer(), "tag:1"),
	)
	tests := map[string]struct {
		dec    Decoder
		schema *schema.Schema
		data   []byte
		want   asn1codec.Value
	}{
		"IndefiniteLength": {Decoder{}, seq, []byte{0x30, 0x80, 0x02, 0x01, 0x05, 0x00, 0x00}, asn1codec.Struct{int_(5), nil, int_(9)}},
		"NonMinimalLength": {Decoder{}, seq, []byte{0x30, 0x81, 0x03, 0x02, 0x01, 0x05}, asn1codec.Struct{int_(5), nil, int_(9)}},
		"AllFields":        {Decoder{Rules: DER}, seq, []byte{0x30, 0x09, 0x02, 0x01, 0x05, 0x80, 0x01, 0x06, 0x81, 0x01, 0x07}, asn1codec.Struct{int_(5), int_(6), int_(7)}},
		"SkipOptional":     {Decoder{Rules: DER}, seq, []byte{0x30, 0x06, 0x02, 0x01, 0x05, 0x81, 0x01, 0x07}, asn1codec.Struct{int_(5), nil, int_(7)}},
		"NonMinimalInt":    {Decoder{}, schema.Integer(), []byte{0x02, 0x02, 0x00, 0x05}, int_(5)},
		"SetAnyOrder":      {Decoder{}, set, []byte{0x31, 0x06, 0x81, 0x01, 0x01, 0x80, 0x01, 0x02}, asn1codec.Struct{int_(2), int_(1)}},
		"ConstructedString": {
			Decoder{}, schema.OctetString(),
			[]byte{0x24, 0x80, 0x04, 0x01, 0x41, 0x04, 0x01, 0x42, 0x00, 0x00},
			asn1codec.OctetString("AB"),
		},
		"NestedConstructedString": {
			Decoder{}, schema.OctetString(),
			[]byte{0x24, 0x08, 0x24, 0x03, 0x04, 0x01, 0x41, 0x04, 0x01, 0x42},
			asn1codec.OctetString("AB"),
		},
		"ConstructedVisibleString": {
			Decoder{}, schema.VisibleString(),
			[]byte{0x3A, 0x06, 0x1A, 0x01, 0x41, 0x04, 0x01, 0x42},
			asn1codec.VisibleString("AB"),
		},
		"ImplicitConstructedString": {
			Decoder{}, schema.OctetString().Tagged("tag:2"),
			[]byte{0xA2, 0x03, 0x04, 0x01, 0x41},
			asn1codec.OctetString("A"),
		},
		"TrailingDataAllowed": {Decoder{AllowTrailingData: true}, schema.Integer(), []byte{0x02, 0x01, 0x05, 0x00}, int_(5)},
		"DefaultPresentBER":   {Decoder{}, seq, []byte{0x30, 0x06, 0x02, 0x01, 0x05, 0x81, 0x01, 0x09}, asn1codec.Struct{int_(5), nil, int_(9)}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := tc.dec.Decode(tc.data, tc.schema)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !asn1codec.Equal(got, tc.want) {
				t.Errorf("Decode() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecoder_Errors(t *testing.T) {
	nested := schema.Sequence("S",
		schema.NewField("inner", schema.Sequence("T", schema.NewField("x", schema.Integer(), "")), ""),
	)
	set := schema.Set("S",
		schema.NewField("a", schema.Integer(), "tag:0"),
		schema.NewField("b", schema.Integer(), "tag:1"),
	)
	choice := schema.Choice("C",
		schema.NewField("a", schema.Integer(), "tag:0"),
		schema.NewField("b", schema.OctetString(), ""),
	)
	deep := schema.SequenceOf(schema.SequenceOf(schema.SequenceOf(schema.Integer())))
	withDefault := schema.Sequence("S",
		schema.NewField("a", schema.Integer(), ""),
		schema.NewField("c", schema.Integer(), "tag:1").WithDefault(int_(9)),
	)
	setDefault := schema.Set("S",
		schema.NewField("a", schema.Integer(), "tag:0"),
		schema.NewField("b", schema.Integer(), "tag:1").WithDefault(int_(1)),
	)
	tests := map[string]struct {
		dec        Decoder
		schema     *schema.Schema
		data       []byte
		wantKind   asn1codec.ErrorKind
		wantOffset int
		wantPath   string
	}{
		"Empty":              {Decoder{}, schema.Integer(), []byte{}, asn1codec.TruncatedInput, 0, "INTEGER"},
		"Truncated":          {Decoder{}, schema.Integer(), []byte{0x02, 0x05, 0x00}, asn1codec.TruncatedInput, 0, "INTEGER"},
		"UnexpectedTag":      {Decoder{}, schema.Integer(), []byte{0x04, 0x01, 0x00}, asn1codec.UnexpectedTag, 0, "INTEGER"},
		"NestedField":        {Decoder{}, nested, []byte{0x30, 0x05, 0x30, 0x03, 0x04, 0x01, 0x00}, asn1codec.UnexpectedTag, 4, "S.inner.x"},
		"MissingField":       {Decoder{}, nested, []byte{0x30, 0x02, 0x30, 0x00}, asn1codec.UnexpectedTag, 4, "S.inner.x"},
		"ExtraField":         {Decoder{}, nested, []byte{0x30, 0x07, 0x30, 0x03, 0x02, 0x01, 0x00, 0x05, 0x00}, asn1codec.UnexpectedTag, 7, "S"},
		"TrailingData":       {Decoder{}, schema.Integer(), []byte{0x02, 0x01, 0x05, 0x00}, asn1codec.TrailingData, 3, "INTEGER"},
		"EmptyInteger":       {Decoder{}, schema.Integer(), []byte{0x02, 0x00}, asn1codec.InvalidValue, 0, "INTEGER"},
		"NonMinimalDER":      {Decoder{Rules: DER}, schema.Integer(), []byte{0x02, 0x02, 0x00, 0x05}, asn1codec.InvalidValue, 0, "INTEGER"},
		"NonMinimalCER":      {Decoder{Rules: CER}, schema.Integer(), []byte{0x02, 0x02, 0xFF, 0x80}, asn1codec.InvalidValue, 0, "INTEGER"},
		"ConstructedInteger": {Decoder{}, schema.Integer(), []byte{0x22, 0x03, 0x02, 0x01, 0x00}, asn1codec.InvalidValue, 0, "INTEGER"},
		"InvalidCharacter":   {Decoder{}, schema.VisibleString(), []byte{0x1A, 0x01, 0x07}, asn1codec.ConstraintViolation, 0, "VisibleString"},
		"IndefiniteDER":      {Decoder{Rules: DER}, set, []byte{0x31, 0x80, 0x00, 0x00}, asn1codec.InvalidLength, 0, "S"},
		"LengthNotMinimal":   {Decoder{Rules: DER}, set, []byte{0x31, 0x81, 0x00}, asn1codec.InvalidLength, 0, "S"},
		"SetMissing":         {Decoder{}, set, []byte{0x31, 0x03, 0x80, 0x01, 0x01}, asn1codec.UnexpectedTag, 5, "S.b"},
		"SetDuplicate":       {Decoder{}, set, []byte{0x31, 0x06, 0x80, 0x01, 0x01, 0x80, 0x01, 0x01}, asn1codec.UnexpectedTag, 5, "S.a"},
		"SetUnknown":         {Decoder{}, set, []byte{0x31, 0x03, 0x82, 0x01, 0x01}, asn1codec.UnexpectedTag, 2, "S"},
		"SetOrderDER":        {Decoder{Rules: DER}, set, []byte{0x31, 0x06, 0x81, 0x01, 0x01, 0x80, 0x01, 0x02}, asn1codec.UnexpectedTag, 5, "S.a"},
		"NoAlternative":      {Decoder{}, choice, []byte{0x81, 0x01, 0x00}, asn1codec.UnexpectedTag, 0, "C"},
		"ExplicitPrimitive":  {Decoder{}, schema.Integer().Tagged("explicit,tag:0"), []byte{0x80, 0x01, 0x00}, asn1codec.UnexpectedTag, 0, "INTEGER"},
		"ConstructedDER":     {Decoder{Rules: DER}, schema.OctetString(), []byte{0x24, 0x03, 0x04, 0x01, 0x41}, asn1codec.InvalidConstructedString, 0, "OCTET STRING"},
		"ShortSegmentedCER":  {Decoder{Rules: CER}, schema.OctetString(), []byte{0x24, 0x80, 0x04, 0x01, 0x41, 0x00, 0x00}, asn1codec.InvalidConstructedString, 0, "OCTET STRING"},
		"NestedSegmentCER":   {Decoder{Rules: CER}, schema.OctetString(), []byte{0x24, 0x80, 0x24, 0x80, 0x04, 0x01, 0x41, 0x00, 0x00, 0x00, 0x00}, asn1codec.InvalidConstructedString, 2, "OCTET STRING"},
		"SegmentTag":         {Decoder{}, schema.OctetString(), []byte{0x24, 0x03, 0x02, 0x01, 0x41}, asn1codec.UnexpectedTag, 2, "OCTET STRING"},
		"RecursionLimit":     {Decoder{MaxDepth: 2}, deep, []byte{0x30, 0x04, 0x30, 0x02, 0x30, 0x00}, asn1codec.RecursionLimitExceeded, 4, "SEQUENCE OF[0][0]"},
		"DefaultDER":         {Decoder{Rules: DER}, withDefault, []byte{0x30, 0x06, 0x02, 0x01, 0x05, 0x81, 0x01, 0x09}, asn1codec.InvalidValue, 5, "S.c"},
		"DefaultCER":         {Decoder{Rules: CER}, withDefault, []byte{0x30, 0x80, 0x02, 0x01, 0x05, 0x81, 0x01, 0x09, 0x00, 0x00}, asn1codec.InvalidValue, 5, "S.c"},
		"SetDefaultDER":      {Decoder{Rules: DER}, setDefault, []byte{0x31, 0x06, 0x80, 0x01, 0x02, 0x81, 0x01, 0x01}, asn1codec.InvalidValue, 5, "S.b"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tc.dec.Decode(tc.data, tc.schema)
			if !errors.Is(err, tc.wantKind) {
				t.Fatalf("Decode() error = %v, want %v", err, tc.wantKind)
			}
			var decErr *asn1codec.DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("Decode() error = %T, want *DecodeError", err)
			}
			if decErr.Offset != tc.wantOffset {
				t.Errorf("DecodeError.Offset = %d, want %d", decErr.Offset, tc.wantOffset)
			}
			if decErr.Path != tc.wantPath {
				t.Errorf("DecodeError.Path = %q, want %q", decErr.Path, tc.wantPath)
			}
		})
	}
}

func TestDecoder_DefaultCopy(t *testing.T) {
	def := int_(7)
	s := schema.Sequence("S", schema.NewField("a", schema.Integer(), "").WithDefault(def))
	for _, rules := range []Rules{BER, CER, DER} {
		t.Run(rules.String(), func(t *testing.T) {
			data := []byte{0x30, 0x00}
			if rules == CER {
				data = []byte{0x30, 0x80, 0x00, 0x00}
			}
			v, err := (&Decoder{Rules: rules}).Decode(data, s)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			got := v.(asn1codec.Struct)[0].(*asn1codec.Integer)
			if !asn1codec.Equal(got, def) {
				t.Fatalf("Decode() = %v, want %v", v, asn1codec.Struct{def})
			}
			got.SetInt64(9)
			if def.Int64() != 7 {
				t.Errorf("default = %v after modifying the decoded value, want 7", def)
			}
		})
	}
}

func BenchmarkDecoder_Decode(b *testing.B) {
	s := schema.Sequence("S",
		schema.NewField("a", schema.Integer(), ""),
		schema.NewField("b", schema.SequenceOf(schema.OctetString()), "explicit,tag:0"),
	)
	data := []byte{0x30, 0x15, 0x02, 0x01, 0x01, 0xA0, 0x10, 0x30, 0x0E,
		0x04, 0x05, 'h', 'e', 'l', 'l', 'o',
		0x04, 0x05, 'w', 'o', 'r', 'l', 'd'}
	dec := &Decoder{Rules: DER}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := dec.Decode(data, s); err != nil {
			b.Fatal(err)
		}
	}
}
