// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package personnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/codec"
	"codello.dev/asn1codec/schema"
)

var (
	recordBER = []byte{
		0x60, 0x81, 0x85, 0x61, 0x10, 0x1A, 0x04, 0x4A, 0x6F, 0x68, 0x6E, 0x1A,
		0x01, 0x50, 0x1A, 0x05, 0x53, 0x6D, 0x69, 0x74, 0x68, 0x42, 0x01, 0x33,
		0xA0, 0x0A, 0x1A, 0x08, 0x44, 0x69, 0x72, 0x65, 0x63, 0x74, 0x6F, 0x72,
		0xA1, 0x0A, 0x43, 0x08, 0x31, 0x39, 0x37, 0x31, 0x30, 0x39, 0x31, 0x37,
		0xA2, 0x12, 0x61, 0x10, 0x1A, 0x04, 0x4D, 0x61, 0x72, 0x79, 0x1A, 0x01,
		0x54, 0x1A, 0x05, 0x53, 0x6D, 0x69, 0x74, 0x68, 0xA3, 0x42, 0x31, 0x1F,
		0x61, 0x11, 0x1A, 0x05, 0x52, 0x61, 0x6C, 0x70, 0x68, 0x1A, 0x01, 0x54,
		0x1A, 0x05, 0x53, 0x6D, 0x69, 0x74, 0x68, 0xA0, 0x0A, 0x43, 0x08, 0x31,
		0x39, 0x35, 0x37, 0x31, 0x31, 0x31, 0x31, 0x31, 0x1F, 0x61, 0x11, 0x1A,
		0x05, 0x53, 0x75, 0x73, 0x61, 0x6E, 0x1A, 0x01, 0x42, 0x1A, 0x05, 0x4A,
		0x6F, 0x6E, 0x65, 0x73, 0xA0, 0x0A, 0x43, 0x08, 0x31, 0x39, 0x35, 0x39,
		0x30, 0x37, 0x31, 0x37,
	}
	recordAPER = []byte{
		0x80, 0x04, 0x4A, 0x6F, 0x68, 0x6E, 0x01, 0x50, 0x05, 0x53, 0x6D, 0x69,
		0x74, 0x68, 0x01, 0x33, 0x08, 0x44, 0x69, 0x72, 0x65, 0x63, 0x74, 0x6F,
		0x72, 0x08, 0x31, 0x39, 0x37, 0x31, 0x30, 0x39, 0x31, 0x37, 0x04, 0x4D,
		0x61, 0x72, 0x79, 0x01, 0x54, 0x05, 0x53, 0x6D, 0x69, 0x74, 0x68, 0x02,
		0x05, 0x52, 0x61, 0x6C, 0x70, 0x68, 0x01, 0x54, 0x05, 0x53, 0x6D, 0x69,
		0x74, 0x68, 0x08, 0x31, 0x39, 0x35, 0x37, 0x31, 0x31, 0x31, 0x31, 0x05,
		0x53, 0x75, 0x73, 0x61, 0x6E, 0x01, 0x42, 0x05, 0x4A, 0x6F, 0x6E, 0x65,
		0x73, 0x08, 0x31, 0x39, 0x35, 0x39, 0x30, 0x37, 0x31, 0x37,
	}
	recordUPER = []byte{
		0x82, 0x4A, 0xDF, 0xA3, 0x70, 0x0D, 0x00, 0x5A, 0x7B, 0x74, 0xF4, 0xD0,
		0x02, 0x66, 0x11, 0x13, 0x4F, 0x2C, 0xB8, 0xFA, 0x6F, 0xE4, 0x10, 0xC5,
		0xCB, 0x76, 0x2C, 0x1C, 0xB1, 0x6E, 0x09, 0x37, 0x0F, 0x2F, 0x20, 0x35,
		0x01, 0x69, 0xED, 0xD3, 0xD3, 0x40, 0x10, 0x2D, 0x2C, 0x3B, 0x38, 0x68,
		0x01, 0xA8, 0x0B, 0x4F, 0x6E, 0x9E, 0x9A, 0x02, 0x18, 0xB9, 0x6A, 0xDD,
		0x8B, 0x16, 0x2C, 0x41, 0x69, 0xF5, 0xE7, 0x87, 0x70, 0x0C, 0x20, 0x59,
		0x5B, 0xF7, 0x65, 0xE6, 0x10, 0xC5, 0xCB, 0x57, 0x2C, 0x1B, 0xB1, 0x6E,
	}
)

func TestRecord(t *testing.T) {
	tests := map[string]struct {
		mode codec.Mode
		want []byte
	}{
		"BER":  {codec.BER, recordBER},
		"DER":  {codec.DER, recordBER},
		"APER": {codec.APER, recordAPER},
		"UPER": {codec.UPER, recordUPER},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			b, err := codec.Marshal(tc.mode, Default(), PersonnelRecord)
			require.NoError(t, err)
			assert.Equal(t, tc.want, b)

			var got Record
			require.NoError(t, codec.Unmarshal(tc.mode, tc.want, PersonnelRecord, &got))
			assert.Equal(t, Default(), &got)
		})
	}
}

func TestRecord_CER(t *testing.T) {
	b, err := codec.Marshal(codec.CER, Default(), PersonnelRecord)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x80, 0x61, 0x80}, b[:4])
	assert.Equal(t, []byte{0x00, 0x00}, b[len(b)-2:])

	var got Record
	require.NoError(t, codec.Unmarshal(codec.CER, b, PersonnelRecord, &got))
	assert.Equal(t, Default(), &got)
}

func TestRecord_NoChildren(t *testing.T) {
	r := Default()
	r.Children = []ChildInformation{}

	b, err := codec.Marshal(codec.DER, r, PersonnelRecord)
	require.NoError(t, err)
	// [3] is gone and the outer length fits into a single octet
	assert.Len(t, b, len(recordBER)-0x44-1)
	assert.NotContains(t, b, byte(0xA3))

	b, err = codec.Marshal(codec.APER, r, PersonnelRecord)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), b[0], "presence bit of children")
	assert.Equal(t, recordAPER[1:47], b[1:])

	var got Record
	require.NoError(t, codec.Unmarshal(codec.APER, b, PersonnelRecord, &got))
	assert.Equal(t, r, &got)
}

func TestRecord_MarshalErrors(t *testing.T) {
	tests := map[string]struct {
		modify  func(r *Record)
		wantMsg string
	}{
		"Name":   {func(r *Record) { r.Name.GivenName = "J\tohn" }, "name: givenName"},
		"Spouse": {func(r *Record) { r.NameOfSpouse.Initial = "\x7f" }, "nameOfSpouse: initial"},
		"Child":  {func(r *Record) { r.Children[1].Name.FamilyName = "Jönes" }, "children[1]: name: familyName"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r := Default()
			tc.modify(r)
			_, err := codec.Marshal(codec.DER, r, PersonnelRecord)
			require.ErrorIs(t, err, asn1codec.InvalidValue)
			assert.ErrorContains(t, err, tc.wantMsg)
		})
	}
}

func TestName_UPER(t *testing.T) {
	tests := map[string]struct {
		schema *schema.Schema
		val    asn1codec.Marshaler
		want   []byte
	}{
		"Name":           {NameSchema, Default().Name, []byte{0x04, 0x95, 0xBF, 0x46, 0xE0, 0x1A, 0x00, 0xB4, 0xF6, 0xE9, 0xE9, 0xA0}},
		"ChildName":      {NameSchema, Name{"Ralph", "T", "Smith"}, []byte{0x05, 0xA5, 0x87, 0x67, 0x0D, 0x00, 0x35, 0x01, 0x69, 0xED, 0xD3, 0xD3, 0x40}},
		"EmployeeNumber": {EmployeeNumber, intValue(DefaultEmployeeNumber), []byte{0x01, 0x33}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			b, err := codec.Marshal(codec.UPER, tc.val, tc.schema)
			require.NoError(t, err)
			assert.Equal(t, tc.want, b)
		})
	}
}

func TestTitle_UPER(t *testing.T) {
	title := asn1codec.VisibleString(Default().Title)
	want := []byte{0x08, 0x89, 0xA7, 0x96, 0x5C, 0x7D, 0x37, 0xF2}

	b, err := codec.Encode(codec.UPER, title, schema.VisibleString())
	require.NoError(t, err)
	assert.Equal(t, want, b)

	v, err := codec.Decode(codec.UPER, want, schema.VisibleString())
	require.NoError(t, err)
	assert.Equal(t, title, v)
}

// intValue is an INTEGER that marshals itself.
type intValue int64

func (i intValue) MarshalValue() (asn1codec.Value, error) {
	return asn1codec.NewInteger(int64(i)), nil
}
