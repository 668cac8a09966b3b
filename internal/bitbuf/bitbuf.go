// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitbuf implements bit-granular writing and reading of byte slices.
// Bits are written and read most significant bit first, as required by the
// Packed Encoding Rules.
package bitbuf

import "errors"

// ErrTruncated indicates that a read requested more bits than available.
var ErrTruncated = errors.New("bitbuf: not enough bits")

// Writer is a growable bit buffer. The zero value is an empty buffer ready to
// use.
type Writer struct {
	buf []byte
	n   int // number of bits written
}

// Len returns the number of bits written to w.
func (w *Writer) Len() int { return w.n }

// Bytes returns the contents of w. A trailing partial octet is padded with
// zero bits. The returned slice shares memory with w.
func (w *Writer) Bytes() []byte { return w.buf }

// WriteBit appends a single bit.
func (w *Writer) WriteBit(b bool) {
	if w.n%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if b {
		w.buf[w.n/8] |= 0x80 >> (w.n % 8)
	}
	w.n++
}

// WriteBits appends the n least significant bits of v. n must not exceed 64.
func (w *Writer) WriteBits(v uint64, n int) {
	for n > 0 {
		if w.n%8 == 0 && n >= 8 {
			n -= 8
			w.buf = append(w.buf, byte(v>>n))
			w.n += 8
			continue
		}
		n--
		w.WriteBit(v>>n&1 == 1)
	}
}

// WriteBytes appends all bits of b. The octets are not aligned.
func (w *Writer) WriteBytes(b []byte) {
	if w.n%8 == 0 {
		w.buf = append(w.buf, b...)
		w.n += 8 * len(b)
		return
	}
	for _, c := range b {
		w.WriteBits(uint64(c), 8)
	}
}

// Align pads w with zero bits up to the next octet boundary.
func (w *Writer) Align() {
	if r := w.n % 8; r != 0 {
		w.n += 8 - r
	}
}

// Reader reads bits from a byte slice.
type Reader struct {
	data []byte
	pos  int // bit position of the next unread bit
}

// NewReader returns a Reader reading from data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the number of bits consumed so far.
func (r *Reader) Offset() int { return r.pos }

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int { return 8*len(r.data) - r.pos }

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (bool, error) {
	if r.Remaining() < 1 {
		return false, ErrTruncated
	}
	b := r.data[r.pos/8]&(0x80>>(r.pos%8)) != 0
	r.pos++
	return b, nil
}

// ReadBits reads n bits and returns them as the n least significant bits of
// the result. n must not exceed 64.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if r.Remaining() < n {
		return 0, ErrTruncated
	}
	var v uint64
	for n > 0 {
		if r.pos%8 == 0 && n >= 8 {
			v = v<<8 | uint64(r.data[r.pos/8])
			r.pos += 8
			n -= 8
			continue
		}
		b, _ := r.ReadBit()
		v <<= 1
		if b {
			v |= 1
		}
		n--
	}
	return v, nil
}

// ReadBytes reads n octets starting at the current bit position. The result
// shares memory with the input if the Reader is aligned.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining()/8 < n {
		return nil, ErrTruncated
	}
	if r.pos%8 == 0 {
		b := r.data[r.pos/8 : r.pos/8+n]
		r.pos += 8 * n
		return b, nil
	}
	b := make([]byte, n)
	for i := range b {
		v, _ := r.ReadBits(8)
		b[i] = byte(v)
	}
	return b, nil
}

// Align skips the bits up to the next octet boundary.
func (r *Reader) Align() {
	if rem := r.pos % 8; rem != 0 {
		r.pos += 8 - rem
	}
}
