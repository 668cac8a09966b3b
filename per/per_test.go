// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package per

import (
	"bytes"
	"testing"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/schema"
)

// testCase is a value with its expected ALIGNED and UNALIGNED encodings.
type testCase struct {
	schema *schema.Schema
	val    asn1codec.Value
	aper   []byte
	uper   []byte
}

// testCodec tests that every test case encodes to its data in both variants
// and that the data decodes to the value again.
func testCodec(t *testing.T, tests map[string]testCase) {
	t.Helper()
	for name, tc := range tests {
		for _, variant := range []Variant{Aligned, Unaligned} {
			want := tc.aper
			if variant == Unaligned {
				want = tc.uper
			}
			t.Run(name+"/"+variant.String(), func(t *testing.T) {
				got, err := (&Encoder{Variant: variant}).Encode(tc.val, tc.schema)
				if err != nil {
					t.Fatalf("Encode() error = %v", err)
				}
				if !bytes.Equal(got, want) {
					t.Errorf("Encode() = % X, want % X", got, want)
				}
				val, err := (&Decoder{Variant: variant}).Decode(want, tc.schema)
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				if !asn1codec.Equal(val, tc.val) {
					t.Errorf("Decode() = %v, want %v", val, tc.val)
				}
			})
		}
	}
}

func int_(i int64) *asn1codec.Integer { return asn1codec.NewInteger(i) }

func bits3() *schema.Schema { return schema.Integer().WithRange(schema.Between(0, 7)) }

func TestCodec_Integer(t *testing.T) {
	testCodec(t, map[string]testCase{
		"Unconstrained":   {schema.Integer(), int_(51), []byte{0x01, 0x33}, []byte{0x01, 0x33}},
		"Negative":        {schema.Integer(), int_(-129), []byte{0x02, 0xFF, 0x7F}, []byte{0x02, 0xFF, 0x7F}},
		"BitField":        {bits3(), int_(5), []byte{0xA0}, []byte{0xA0}},
		"NegativeLower":   {schema.Integer().WithRange(schema.Between(-5, 2)), int_(-5), []byte{0x00}, []byte{0x00}},
		"OneOctet":        {schema.Integer().WithRange(schema.Between(0, 255)), int_(200), []byte{0xC8}, []byte{0xC8}},
		"TwoOctets":       {schema.Integer().WithRange(schema.Between(0, 1000)), int_(1), []byte{0x00, 0x01}, []byte{0x00, 0x40}},
		"LargeRange":      {schema.Integer().WithRange(schema.Between(0, 4294967295)), int_(256), []byte{0x40, 0x01, 0x00}, []byte{0x00, 0x00, 0x01, 0x00}},
		"SemiConstrained": {schema.Integer().WithRange(schema.AtLeast(10)), int_(300), []byte{0x02, 0x01, 0x22}, []byte{0x02, 0x01, 0x22}},
		"SingleValue":     {schema.Integer().WithRange(schema.Exactly(7)), int_(7), []byte{0x00}, []byte{0x00}},
		"EmployeeNumber":  {schema.Delegate("EmployeeNumber", schema.Integer()).Tagged("application,tag:2"), int_(51), []byte{0x01, 0x33}, []byte{0x01, 0x33}},
	})
}

func TestCodec_Strings(t *testing.T) {
	name := schema.Sequence("Name",
		schema.NewField("givenName", schema.VisibleString(), ""),
		schema.NewField("initial", schema.VisibleString(), "tag:0"),
		schema.NewField("familyName", schema.VisibleString(), "tag:1"),
	)
	testCodec(t, map[string]testCase{
		"Name": {
			name,
			asn1codec.Struct{asn1codec.VisibleString("John"), asn1codec.VisibleString("P"), asn1codec.VisibleString("Smith")},
			[]byte{0x04, 0x4A, 0x6F, 0x68, 0x6E, 0x01, 0x50, 0x05, 0x53, 0x6D, 0x69, 0x74, 0x68},
			[]byte{0x04, 0x95, 0xBF, 0x46, 0xE0, 0x1A, 0x00, 0xB4, 0xF6, 0xE9, 0xE9, 0xA0},
		},
		"Title": {
			schema.VisibleString(),
			asn1codec.VisibleString("Director"),
			[]byte{0x08, 0x44, 0x69, 0x72, 0x65, 0x63, 0x74, 0x6F, 0x72},
			[]byte{0x08, 0x89, 0xA7, 0x96, 0x5C, 0x7D, 0x37, 0xF2},
		},
		"Alphabet": {
			schema.VisibleString().WithAlphabet("ABCD").WithSize(schema.Exactly(3)),
			asn1codec.VisibleString("CAB"),
			[]byte{0x84}, []byte{0x84},
		},
		"Digits": {
			schema.VisibleString().WithAlphabet("0123456789").WithSize(schema.Exactly(8)),
			asn1codec.VisibleString("19710917"),
			[]byte{0x19, 0x71, 0x09, 0x17}, []byte{0x19, 0x71, 0x09, 0x17},
		},
		"SizeConstrained": {
			schema.VisibleString().WithSize(schema.Between(1, 4)),
			asn1codec.VisibleString("ab"),
			[]byte{0x40, 0x61, 0x62}, []byte{0x70, 0xE2},
		},
		"EmptyVisibleString": {schema.VisibleString(), asn1codec.VisibleString(""), []byte{0x00}, []byte{0x00}},
		"OctetString":        {schema.OctetString(), asn1codec.OctetString{0xAB, 0xCD}, []byte{0x02, 0xAB, 0xCD}, []byte{0x02, 0xAB, 0xCD}},
		"FixedShort":         {schema.OctetString().WithSize(schema.Exactly(2)), asn1codec.OctetString{0x01, 0x02}, []byte{0x01, 0x02}, []byte{0x01, 0x02}},
		"FixedAligned": {
			schema.Sequence("S",
				schema.NewField("a", schema.Integer().WithRange(schema.Between(0, 1)), ""),
				schema.NewField("b", schema.OctetString().WithSize(schema.Exactly(3)), ""),
			),
			asn1codec.Struct{int_(1), asn1codec.OctetString{0xAA, 0xBB, 0xCC}},
			[]byte{0x80, 0xAA, 0xBB, 0xCC},
			[]byte{0xD5, 0x5D, 0xE6, 0x00},
		},
		"GeneralString": {
			schema.GeneralString(),
			asn1codec.GeneralString("ATHENA"),
			[]byte{0x06, 0x41, 0x54, 0x48, 0x45, 0x4E, 0x41},
			[]byte{0x06, 0x41, 0x54, 0x48, 0x45, 0x4E, 0x41},
		},
	})
}

func TestCodec_Structured(t *testing.T) {
	opt := schema.Sequence("S",
		schema.NewField("a", bits3(), "tag:0,optional"),
		schema.NewField("b", bits3(), "tag:1"),
	)
	def := schema.Sequence("S",
		schema.NewField("a", bits3(), "tag:0").WithDefault(int_(3)),
		schema.NewField("b", bits3(), "tag:1"),
	)
	set := schema.Set("S",
		schema.NewField("x", schema.Integer().WithRange(schema.Between(0, 15)), "tag:1"),
		schema.NewField("y", schema.Integer().WithRange(schema.Between(0, 15)), "tag:0"),
	)
	choice := schema.Choice("C",
		schema.NewField("a", bits3(), "tag:1"),
		schema.NewField("b", bits3(), "tag:0"),
	)
	testCodec(t, map[string]testCase{
		"OptionalPresent": {opt, asn1codec.Struct{int_(3), int_(5)}, []byte{0xBA}, []byte{0xBA}},
		"OptionalAbsent":  {opt, asn1codec.Struct{nil, int_(5)}, []byte{0x50}, []byte{0x50}},
		"DefaultOmitted":  {def, asn1codec.Struct{int_(3), int_(5)}, []byte{0x50}, []byte{0x50}},
		"DefaultPresent":  {def, asn1codec.Struct{int_(4), int_(5)}, []byte{0xCA}, []byte{0xCA}},
		"SetOrder":        {set, asn1codec.Struct{int_(1), int_(2)}, []byte{0x21}, []byte{0x21}},
		"ChoiceSecond":    {choice, &asn1codec.Choice{Index: 0, Value: int_(6)}, []byte{0xE0}, []byte{0xE0}},
		"ChoiceFirst":     {choice, &asn1codec.Choice{Index: 1, Value: int_(2)}, []byte{0x20}, []byte{0x20}},
		"Empty":           {schema.Sequence("S"), asn1codec.Struct{}, []byte{0x00}, []byte{0x00}},
		"SizedList": {
			schema.SequenceOf(bits3()).WithSize(schema.Between(0, 3)),
			asn1codec.List{int_(1), int_(2)},
			[]byte{0x8A}, []byte{0x8A},
		},
		"List": {schema.SequenceOf(schema.Integer()), asn1codec.List{int_(5)}, []byte{0x01, 0x01, 0x05}, []byte{0x01, 0x01, 0x05}},
	})
}

func TestCodec_Fragmentation(t *testing.T) {
	tests := map[string]struct {
		n      int
		header []byte // header of each fragment
	}{
		"200":   {200, []byte{0x80, 0xC8}},
		"16383": {16383, []byte{0xBF, 0xFF}},
		"16384": {16384, []byte{0xC1, 0x00}},
		"16385": {16385, []byte{0xC1, 0x01}},
		"70000": {70000, []byte{0xC4, 0x91, 0x70}},
	}
	for name, tc := range tests {
		data := bytes.Repeat([]byte{0x5A}, tc.n)
		for _, variant := range []Variant{Aligned, Unaligned} {
			t.Run(name+"/"+variant.String(), func(t *testing.T) {
				got, err := (&Encoder{Variant: variant}).Encode(asn1codec.OctetString(data), schema.OctetString())
				if err != nil {
					t.Fatalf("Encode() error = %v", err)
				}
				if len(got) != tc.n+len(tc.header) {
					t.Fatalf("len(Encode()) = %d, want %d", len(got), tc.n+len(tc.header))
				}
				if got[0] != tc.header[0] {
					t.Errorf("Encode()[0] = %02X, want %02X", got[0], tc.header[0])
				}
				val, err := (&Decoder{Variant: variant}).Decode(got, schema.OctetString())
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				if !asn1codec.Equal(val, asn1codec.OctetString(data)) {
					t.Errorf("Decode() returned %d octets, want %d", len(val.(asn1codec.OctetString)), tc.n)
				}
			})
		}
	}
}
