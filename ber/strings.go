// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"iter"
	"slices"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/tlv"
)

var (
	errConstructedDER   = errors.New("constructed string not permitted")
	errShortSegmented   = errors.New("constructed encoding of string with at most 1000 octets")
	errLongPrimitive    = errors.New("primitive encoding of string with more than 1000 octets")
	errNestedSegment    = errors.New("nested constructed string")
	errSegmentTag       = errors.New("non-matching encoding in constructed string")
	errSegmentTooLarge  = errors.New("string segment exceeds 1000 octets")
	errConstructedValue = errors.New("constructed encoding of primitive type")
)

// appendSegmented appends the CER encoding of a string whose contents exceed
// cerSegmentSize octets: a constructed, indefinite-length TLV with the given
// tag holding primitive OCTET STRING segments of cerSegmentSize octets each.
// Only the last segment may be shorter.
func appendSegmented(dst []byte, tag asn1codec.Tag, content []byte) []byte {
	dst = tlv.AppendHeader(dst, tlv.Header{Tag: tag, Constructed: true, Length: tlv.LengthIndefinite})
	for seg := range slices.Chunk(content, cerSegmentSize) {
		dst = tlv.AppendTLV(dst, tlv.Header{Tag: asn1codec.UniversalTag(asn1codec.TagOctetString)}, seg)
	}
	return tlv.AppendEndOfContents(dst)
}

// segments returns a sequence of the contents octets of the primitive
// segments of the constructed string whose header was just read from d. Each
// segment must be tagged with either the universal OCTET STRING tag or the
// universal tag of the string type itself. Segments may be nested if nested is
// true. There will be no further items after an item with a non-nil error.
func segments(d *tlv.Decoder, leaf asn1codec.Tag, nested bool) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			offset := d.InputOffset()
			h, contents, err := d.ReadHeader()
			if err != nil {
				yield(nil, err)
				return
			}
			if h.IsEndOfContents() {
				return
			}
			if h.Tag != leaf && h.Tag != asn1codec.UniversalTag(asn1codec.TagOctetString) {
				yield(nil, &segmentError{offset, asn1codec.UnexpectedTag, errSegmentTag})
				return
			}
			if !h.Constructed {
				if !yield(contents, nil) {
					return
				}
				continue
			}
			if !nested {
				yield(nil, &segmentError{offset, asn1codec.InvalidConstructedString, errNestedSegment})
				return
			}
			for seg, err := range segments(d, leaf, nested) {
				if !yield(seg, err) || err != nil {
					return
				}
			}
		}
	}
}

// segmentError is an error within a constructed string at a byte offset.
type segmentError struct {
	offset int
	kind   asn1codec.ErrorKind
	err    error
}

func (e *segmentError) Error() string { return e.err.Error() }
func (e *segmentError) Unwrap() error { return e.err }

// readString returns the contents of a string value whose header h was just
// read from d. For the primitive encoding contents is returned unchanged. For
// the constructed encoding the segments are concatenated into a new slice.
func (st *decodeState) readString(h tlv.Header, contents []byte, leaf asn1codec.Tag) ([]byte, error) {
	offset := st.offset
	if !h.Constructed {
		if st.rules == CER && len(contents) > cerSegmentSize {
			return nil, &segmentError{offset, asn1codec.InvalidConstructedString, errLongPrimitive}
		}
		return contents, nil
	}
	if st.rules == DER {
		return nil, &segmentError{offset, asn1codec.InvalidConstructedString, errConstructedDER}
	}
	var buf []byte
	if h.Length != tlv.LengthIndefinite {
		buf = make([]byte, 0, h.Length)
	}
	for seg, err := range segments(st.d, leaf, st.rules == BER) {
		if err != nil {
			return nil, err
		}
		if st.rules == CER && len(seg) > cerSegmentSize {
			return nil, &segmentError{offset, asn1codec.InvalidConstructedString, errSegmentTooLarge}
		}
		buf = append(buf, seg...)
	}
	if st.rules == CER && len(buf) <= cerSegmentSize {
		return nil, &segmentError{offset, asn1codec.InvalidConstructedString, errShortSegmented}
	}
	return buf, nil
}
