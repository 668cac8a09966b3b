// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"bytes"
	"fmt"
	"testing"

	"codello.dev/asn1codec"
)

func TestAppendHeader(t *testing.T) {
	tests := map[string]struct {
		h    Header
		want []byte
	}{
		"SingleValue":      {Header{tagInteger, false, 1}, []byte{0x02, 0x01}},
		"Constructed":      {Header{tagSequence, true, 3}, []byte{0x30, 0x03}},
		"IndefiniteLength": {Header{tagSequence, true, LengthIndefinite}, []byte{0x30, 0x80}},
		"EndOfContents":    {EndOfContents, []byte{0x00, 0x00}},
		"LargeTag":         {Header{asn1codec.UniversalTag(215), false, 0}, []byte{0x1f, 0x81, 0x57, 0x00}},
		"ShortLength127":   {Header{tagOctetString, false, 127}, []byte{0x04, 0x7F}},
		"LongLength128":    {Header{tagOctetString, false, 128}, []byte{0x04, 0x81, 0x80}},
		"LargeLength":      {Header{asn1codec.UniversalTag(asn1codec.TagSet), true, 1000}, []byte{0x31, 0x82, 0x03, 0xE8}},
		"Application":      {Header{asn1codec.ApplicationTag(11), true, 194}, []byte{0x6B, 0x81, 0xC2}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := AppendHeader(nil, tc.h)
			if !bytes.Equal(got, tc.want) {
				t.Errorf("AppendHeader(%s) = % X, want % X", tc.h, got, tc.want)
			}
			if tc.h != EndOfContents && HeaderLen(tc.h) != len(tc.want) {
				t.Errorf("HeaderLen(%s) = %d, want %d", tc.h, HeaderLen(tc.h), len(tc.want))
			}
		})
	}
}

func TestLengthLen(t *testing.T) {
	tests := map[int]int{0: 1, 127: 1, 128: 2, 255: 2, 256: 3, 65535: 3, 65536: 4, LengthIndefinite: 1}
	for l, want := range tests {
		if got := LengthLen(l); got != want {
			t.Errorf("LengthLen(%d) = %d, want %d", l, got, want)
		}
		if got := len(AppendLength(nil, l)); got != want {
			t.Errorf("len(AppendLength(%d)) = %d, want %d", l, got, want)
		}
	}
}

func TestAppendTLV_RoundTrip(t *testing.T) {
	contents := bytes.Repeat([]byte{0xAB}, 300)
	data := AppendTLV(nil, Header{Tag: tagOctetString}, contents)
	d := NewDecoder(data)
	d.Canonical = true
	h, got, err := d.ReadHeader()
	if err != nil {
		t.Fatalf("d.ReadHeader() returned an unexpected error: %s", err)
	}
	if h.Length != 300 || !bytes.Equal(got, contents) {
		t.Errorf("d.ReadHeader() = %s, % X", h, got)
	}
}

func ExampleAppendHeader() {
	var out []byte
	out = AppendHeader(out, Header{asn1codec.UniversalTag(asn1codec.TagSequence), true, 3})
	out = AppendHeader(out, Header{asn1codec.UniversalTag(asn1codec.TagInteger), false, 1})
	out = append(out, 0x15)
	fmt.Printf("%# x\n", out)
	// Output: 0x30 0x03 0x02 0x01 0x15
}

func ExampleCombinedLength() {
	fmt.Println(CombinedLength(42, LengthIndefinite))
	fmt.Println(CombinedLength(3, 4))

	// Output:
	// -1
	// 7
}
