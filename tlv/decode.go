// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"errors"
	"io"
	"math"

	"codello.dev/asn1codec"
)

// Decoder decodes the TLV format used by ASN.1 encoding rules such as BER, DER
// or CER from an in-memory encoding. It is used to read a sequence of
// top-level tag-length-value (TLV) constructs.
//
// The Decoder maintains a stack of the constructed TLVs that are currently
// being read. It validates that nested TLVs do not exceed their parents and
// that indefinite-length values are terminated correctly.
type Decoder struct {
	state
	data   []byte
	offset int // offset of the next unread byte

	// Canonical restricts the accepted encodings to those permitted by DER:
	// the indefinite-length form is rejected, as are length octets that are
	// not minimally encoded.
	Canonical bool
}

// NewDecoder creates a new Decoder reading from data.
func NewDecoder(data []byte) *Decoder {
	d := new(Decoder)
	d.Reset(data)
	return d
}

// Reset resets the state of d to read from data. Reset reuses the allocated
// stack of d. The Canonical setting is retained.
func (d *Decoder) Reset(data []byte) {
	d.state.reset(len(data))
	d.data = data
	d.offset = 0
}

// ReadHeader reads the next TLV header from the input. At the end of
// constructed TLVs a Header with [TagEndOfContents] will be returned (for both
// definite and indefinite-length encodings). If an error occurs during decoding
// the TLV header, or it is detected that the TLV structure is invalid, an error
// is returned. At the end of the input at the root level [io.EOF] is
// returned.
//
// If the header indicates the primitive encoding, the second return value
// holds the contents octets of the TLV which are consumed together with the
// header. The slice shares memory with the input.
func (d *Decoder) ReadHeader() (Header, []byte, error) {
	h, n, err := d.parseHeader()
	if err != nil {
		return h, nil, err
	}
	start := d.offset
	d.offset += n
	switch {
	case h == EndOfContents:
		d.state.pop()
		return h, nil, nil
	case h.Constructed:
		d.state.push(h, start, d.offset)
		return h, nil, nil
	}
	contents := d.data[d.offset : d.offset+h.Length]
	d.offset += h.Length
	return h, contents, nil
}

// PeekHeader reads the next TLV header from the input without advancing d. You
// can consume the peeked header using the ReadHeader method.
//
// PeekHeader shares the same semantics as ReadHeader. In particular at the end
// of constructed data values there is always an EndOfContents (even for
// definite-length data values).
func (d *Decoder) PeekHeader() (Header, error) {
	h, _, err := d.parseHeader()
	return h, err
}

// parseHeader decodes the TLV header at the current offset without modifying
// the state of d. It returns the header and the number of header octets. If
// decoding fails or an invalid TLV structure is detected, a *SyntaxError is
// returned.
func (d *Decoder) parseHeader() (Header, int, error) {
	if d.curr.definite() && d.offset == d.curr.Limit {
		return EndOfContents, 0, nil
	}
	if d.root() && d.offset == len(d.data) {
		return Header{}, 0, io.EOF
	}

	h, n, err := d.decodeHeader(d.data[d.offset:d.curr.Limit])
	if err == nil {
		switch {
		case h == EndOfContents && !d.root() && !d.curr.definite():
			// The end-of-contents marker is 0x0000, coinciding with the empty header.
		case h == EndOfContents:
			err = errUnexpectedEOC
		case h.Tag == TagEndOfContents:
			// end-of-contents is a reserved tag
			err = errInvalidEOC
		case !h.Constructed && h.Length == LengthIndefinite:
			err = errIndefinitePrim
		case h.Length == LengthIndefinite && d.Canonical:
			err = errIndefiniteCanon
		case h.Length != LengthIndefinite && h.Length > len(d.data)-d.offset-n:
			err = errTruncated
		case h.Length != LengthIndefinite && h.Length > d.curr.Limit-d.offset-n:
			err = errExceedsParent
		}
	}
	if err != nil {
		if d.curr.Limit < len(d.data) && errors.Is(err, asn1codec.TruncatedInput) {
			// the header itself extends past the end of the parent
			err = errExceedsParent
		}
		return h, n, &SyntaxError{ByteOffset: d.offset, Header: d.curr.Header, Err: err}
	}
	return h, n, nil
}

// decodeHeader decodes a TLV header from the start of b. If the encoded TLV
// header is invalid or incomplete, an error is returned. An error is also
// returned if the header is syntactically valid but cannot be represented by
// the [Header] type.
func (d *Decoder) decodeHeader(b []byte) (h Header, n int, err error) {
	if len(b) >= 2 && b[0] == 0 && b[1] == 0 {
		return EndOfContents, 2, nil
	}
	h.Tag, h.Constructed, n, err = asn1codec.ParseIdentifier(b)
	switch {
	case errors.Is(err, asn1codec.TruncatedInput):
		return h, n, errTruncated
	case err != nil:
		return h, n, errMalformedIdent
	case n >= len(b):
		return h, n, errTruncated
	}

	l := b[n]
	n++
	switch {
	case l&0x80 == 0:
		// The length is encoded in the bottom 7 bits.
		h.Length = int(l & 0x7f)
	case l == 0x80:
		h.Length = LengthIndefinite
	case l == 0xff:
		return h, n, errLengthReserved
	default:
		// Bottom 7 bits give the number of length bytes to follow.
		numBytes := int(l & 0x7f)
		if len(b)-n < numBytes {
			return h, len(b), errTruncated
		}
		if b[n] == 0 && d.Canonical {
			return h, n, errLengthNotMinimal
		}
		for ; numBytes > 0; numBytes-- {
			if h.Length > math.MaxInt>>8 {
				// We can't shift h.Length up without overflowing.
				return h, n, errLengthTooLarge
			}
			h.Length = h.Length<<8 | int(b[n])
			n++
		}
		if h.Length < 0x80 && d.Canonical {
			return h, n, errLengthNotMinimal
		}
	}
	return h, n, nil
}

// Skip discards the remainder of the current constructed data value,
// everything until and including the matching end-of-contents. It must be
// called after ReadHeader returned a constructed header.
//
// If at any point an error is encountered, the skipping will be stopped and the
// error returned.
func (d *Decoder) Skip() error {
	if d.root() {
		return &SyntaxError{ByteOffset: d.offset, Err: errNoConstructedValue}
	}
	if d.curr.definite() {
		d.offset = d.curr.Limit
		d.state.pop()
		return nil
	}
	depth := d.StackDepth()
	for d.StackDepth() >= depth {
		if _, _, err := d.ReadHeader(); err != nil {
			return err
		}
	}
	return nil
}

// SkipValue reads and discards the next complete TLV, including all nested
// values of a constructed TLV.
func (d *Decoder) SkipValue() error {
	h, _, err := d.ReadHeader()
	if err != nil || !h.Constructed {
		return err
	}
	return d.Skip()
}

// DataValueOffset returns the input byte offset where the current constructed
// data value starts. This is the first byte of the identifier octets of the
// value.
func (d *Decoder) DataValueOffset() int {
	return d.curr.Start
}

// InputOffset returns the current input byte offset. This is the location of
// the first byte of the next TLV header in the input.
func (d *Decoder) InputOffset() int {
	return d.offset
}

// Rest returns the unread portion of the input. The slice shares memory with
// the input.
func (d *Decoder) Rest() []byte {
	return d.data[d.offset:]
}

// StackDepth returns the number of nested constructed TLVs of the current
// location of d. Each level represents a constructed TLV. It is incremented
// whenever a constructed TLV is encountered and decremented whenever a
// constructed TLV ends. The depth is zero-indexed, where zero represents the
// (virtual) top-level TLV.
func (d *Decoder) StackDepth() int { return len(d.stack) }

// StackIndex returns information about the specified stack level. It must be a
// number between 0 and [Decoder.StackDepth], inclusive.
//
// The TLV header at level 0 represents the top level and is not present in the
// input data. The top-level TLV header is a constructed, indefinite-length
// data value with tag 0.
func (d *Decoder) StackIndex(i int) Header {
	if i == len(d.stack) {
		return d.curr.Header
	}
	return d.stack[i].Header
}
