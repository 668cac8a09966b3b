// Package vlq implements [Variable-length quantity] encoding as used in the
// high-tag-number form of BER identifier octets. A VLQ is a base-128
// representation of an unsigned integer where the eighth bit of every byte
// except the last marks a continuation. VLQ is identical to [LEB128] except in
// endianness.
//
// The functions of this package operate on byte slices because the codecs of
// this module always hold the complete input in memory.
//
// [Variable-length quantity]: https://en.wikipedia.org/wiki/Variable-length_quantity
// [LEB128]: https://en.wikipedia.org/wiki/LEB128
package vlq

import (
	"errors"
	"math/bits"
	"unsafe"
)

var (
	ErrNotMinimal = errors.New("vlq is not minimally encoded")
	ErrOverflow   = errors.New("vlq too large for target type")
	ErrTruncated  = errors.New("vlq is not terminated")
)

// Unsigned is the set of types a VLQ can be decoded into.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Parse decodes an unsigned VLQ from the start of b and returns the value
// together with the number of bytes consumed. The maximum allowed value is
// limited by the size of T. Bytes following the VLQ are ignored.
//
// If minimal is true the VLQ must not start with a 0x80 byte. If b ends before
// a byte without the continuation bit is found, ErrTruncated is returned.
func Parse[T Unsigned](b []byte, minimal bool) (ret T, n int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}
	if b[0] == 0x80 && minimal {
		return 0, 1, ErrNotMinimal
	}

	numBits := 0
	for n < len(b) {
		c := b[n]
		n++
		if numBits == 0 {
			numBits = bits.Len8(c & 0x7f)
		} else {
			numBits += 7
		}
		if numBits > int(unsafe.Sizeof(ret)*8) {
			return 0, n, ErrOverflow
		}
		ret = ret<<7 | T(c&0x7f)
		if c&0x80 == 0 {
			return ret, n, nil
		}
	}
	return 0, n, ErrTruncated
}

// Length returns the number of bytes needed to encode i as a VLQ.
func Length[T Unsigned](i T) int {
	if i == 0 {
		return 1
	}
	return (bits.Len64(uint64(i)) + 6) / 7
}

// Append appends the VLQ encoding of i to dst and returns the extended slice.
func Append[T Unsigned](dst []byte, i T) []byte {
	for j := Length(i) - 1; j >= 0; j-- {
		b := byte(uint64(i)>>(j*7)) & 0x7f
		if j > 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}
