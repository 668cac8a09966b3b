// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package per

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/internal/bitbuf"
	"codello.dev/asn1codec/schema"
)

// Decoder decodes values according to a schema. The zero value decodes the
// ALIGNED variant and rejects trailing data. A Decoder is stateless and may be
// used concurrently.
type Decoder struct {
	Variant Variant

	// AllowTrailingData permits unused octets after the top-level value. The
	// padding bits of the last octet are never considered trailing data.
	AllowTrailingData bool

	// MaxDepth limits the nesting of values. Zero means DefaultMaxDepth.
	MaxDepth int

	// MaxElements limits the number of elements of a SEQUENCE OF value whose
	// elements may be encoded in zero bits, and the number of characters of a
	// string whose permitted alphabet has a single character. Other counts are
	// bounded by the length of the input. Zero means DefaultMaxElements.
	MaxElements int

	// Logger receives trace events for every decoded field. If nil, nothing is
	// logged.
	Logger *zerolog.Logger
}

type decodeState struct {
	r        *bitbuf.Reader
	aligned  bool
	maxDepth int
	maxElems int
	log      *zerolog.Logger
}

// Decode parses data according to s and returns the decoded value. If data is
// not a valid encoding of a value of s, a *[asn1codec.DecodeError] is
// returned. Offsets of the error refer to the bit at which decoding failed.
//
// DEFAULT fields whose presence bit is not set decode to a copy of their
// default value. OPTIONAL fields that are absent decode to nil.
func (dec *Decoder) Decode(data []byte, s *schema.Schema) (asn1codec.Value, error) {
	if s == nil {
		return nil, &asn1codec.DecodeError{Kind: asn1codec.InvalidSchema, Err: errors.New("nil schema")}
	}
	if err := s.Validate(); err != nil {
		return nil, &asn1codec.DecodeError{Kind: asn1codec.InvalidSchema, Path: s.TypeName(), Err: err}
	}
	path := asn1codec.Root(s.TypeName())
	if len(data) == 0 {
		return nil, &asn1codec.DecodeError{Kind: asn1codec.TruncatedInput, Path: path.String(), Err: errors.New("empty input")}
	}
	st := &decodeState{
		r:        bitbuf.NewReader(data),
		aligned:  dec.Variant == Aligned,
		maxDepth: maxDepthOrDefault(dec.MaxDepth),
		maxElems: maxElementsOrDefault(dec.MaxElements),
		log:      loggerOrNop(dec.Logger),
	}
	v, err := st.decodeSchema(s, path, 0)
	if err != nil {
		st.log.Debug().Err(err).Stringer("variant", dec.Variant).Msg("decode failed")
		return nil, err
	}
	if st.r.Offset() == 0 && len(data) == 1 && data[0] == 0 {
		// the single octet of an empty encoding
		return v, nil
	}
	st.r.Align()
	if rest := st.r.Remaining() / 8; rest > 0 && !dec.AllowTrailingData {
		return nil, st.errorf(asn1codec.TrailingData, path, fmt.Errorf("%d unused bytes", rest))
	}
	return v, nil
}

// errorf returns a *DecodeError at the current bit position.
func (st *decodeState) errorf(kind asn1codec.ErrorKind, path *asn1codec.Path, err error) error {
	bit := st.r.Offset()
	return &asn1codec.DecodeError{Kind: kind, Offset: bit / 8, BitOffset: bit, Path: path.String(), Err: err}
}

// error converts err into a *DecodeError for the value at path.
func (st *decodeState) error(err error, path *asn1codec.Path) error {
	var (
		kind asn1codec.ErrorKind
		dErr *asn1codec.DecodeError
	)
	switch {
	case errors.As(err, &dErr):
		return err
	case errors.Is(err, bitbuf.ErrTruncated):
		kind = asn1codec.TruncatedInput
	case errors.As(err, &kind):
	default:
		kind = asn1codec.InvalidValue
	}
	return st.errorf(kind, path, err)
}

func (st *decodeState) decodeSchema(s *schema.Schema, path *asn1codec.Path, depth int) (asn1codec.Value, error) {
	if depth >= st.maxDepth {
		return nil, st.errorf(asn1codec.RecursionLimitExceeded, path, nil)
	}
	switch s.Kind {
	case schema.KindPrimitive:
		v, err := st.decodePrimitive(s)
		if err != nil {
			return nil, st.error(err, path)
		}
		return v, nil
	case schema.KindStructured:
		return st.decodeStructured(s, path, depth+1)
	case schema.KindSequenceOf:
		elems := asn1codec.List{}
		empty := mayBeEmpty(s.Elem)
		err := st.readLength(s.Constraints.Size, func(n int) error {
			if err := st.checkCount(len(elems), n, empty); err != nil {
				return err
			}
			for range n {
				v, err := st.decodeSchema(s.Elem, path.Index(len(elems)), depth+1)
				if err != nil {
					return err
				}
				elems = append(elems, v)
			}
			return nil
		})
		if err != nil {
			return nil, st.error(err, path)
		}
		if !s.Constraints.Size.Contains(int64(len(elems))) {
			return nil, st.errorf(asn1codec.ConstraintViolation, path, fmt.Errorf("%d elements not in SIZE%v", len(elems), s.Constraints.Size))
		}
		return elems, nil
	case schema.KindChoice:
		order := s.CanonicalOrder()
		pos, err := st.readConstrainedInt(len(order))
		if err != nil {
			return nil, st.error(err, path)
		}
		i := order[pos]
		f := s.Fields[i]
		v, err := st.decodeSchema(f.Schema, path.Field(f.Name), depth+1)
		if err != nil {
			return nil, err
		}
		return &asn1codec.Choice{Index: i, Value: v}, nil
	case schema.KindDelegate:
		return st.decodeSchema(s.Elem, path, depth+1)
	}
	return nil, st.errorf(asn1codec.InvalidSchema, path, fmt.Errorf("unknown kind %v", s.Kind))
}

func (st *decodeState) decodeStructured(s *schema.Schema, path *asn1codec.Path, depth int) (asn1codec.Value, error) {
	order := memberOrder(s)
	fields := make(asn1codec.Struct, len(s.Fields))

	present := make([]bool, len(s.Fields))
	for _, i := range order {
		if !s.Fields[i].IsOptional() {
			present[i] = true
			continue
		}
		bit, err := st.r.ReadBit()
		if err != nil {
			return nil, st.error(err, path)
		}
		present[i] = bit
	}

	for _, i := range order {
		f := s.Fields[i]
		if !present[i] {
			fields[i] = asn1codec.Clone(f.Default)
			continue
		}
		fpath := path.Field(f.Name)
		st.log.Trace().Stringer("path", fpath).Int("bit", st.r.Offset()).Msg("decode field")
		v, err := st.decodeSchema(f.Schema, fpath, depth)
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	return fields, nil
}

func (st *decodeState) decodePrimitive(s *schema.Schema) (asn1codec.Value, error) {
	switch s.Leaf {
	case schema.LeafInteger:
		return st.decodeInteger(s.Constraints.Value)
	case schema.LeafOctetString:
		b, err := st.decodeOctets(s.Constraints.Size)
		return asn1codec.OctetString(b), err
	case schema.LeafVisibleString:
		str, err := st.decodeKnownMultiplier(s.Constraints)
		return asn1codec.VisibleString(str), err
	case schema.LeafGeneralString:
		b, err := st.decodeOctets(s.Constraints.Size)
		return asn1codec.GeneralString(b), err
	}
	return nil, fmt.Errorf("%w: unknown leaf %v", asn1codec.InvalidSchema, s.Leaf)
}

func (st *decodeState) decodeInteger(r *schema.Range) (*asn1codec.Integer, error) {
	i := new(asn1codec.Integer)
	switch {
	case r.IsConstrained():
		x, err := st.readConstrained(r.Span())
		if err != nil {
			return nil, err
		}
		i.Add(x, big.NewInt(r.Lower))
	case r != nil && r.HasLower:
		b, err := st.readOctets()
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			return nil, errors.New("empty integer")
		}
		i.SetBytes(b)
		i.Add(&i.Int, big.NewInt(r.Lower))
	default:
		b, err := st.readOctets()
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			return nil, errors.New("empty integer")
		}
		i.SetTwosComplement(b)
	}
	if !r.ContainsBig(i.Big()) {
		return nil, fmt.Errorf("%w: %v not in %v", asn1codec.ConstraintViolation, i.Big(), r)
	}
	return i, nil
}

// readOctets reads octets preceded by an unconstrained length determinant.
func (st *decodeState) readOctets() ([]byte, error) {
	var b []byte
	err := st.readLength(nil, func(n int) error {
		p, err := st.r.ReadBytes(n)
		b = append(b, p...)
		return err
	})
	return b, err
}

func (st *decodeState) decodeOctets(size *schema.Range) ([]byte, error) {
	if size.IsFixed() && size.Upper < limit64K {
		n := int(size.Upper)
		if st.aligned && n > 2 {
			st.r.Align()
		}
		b, err := st.r.ReadBytes(n)
		return bytes.Clone(b), err
	}
	b := []byte{}
	err := st.readLength(size, func(n int) error {
		if st.aligned && n > 0 {
			st.r.Align()
		}
		p, err := st.r.ReadBytes(n)
		b = append(b, p...)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !size.Contains(int64(len(b))) {
		return nil, fmt.Errorf("%w: size %d not in SIZE%v", asn1codec.ConstraintViolation, len(b), size)
	}
	return b, nil
}

func (st *decodeState) decodeKnownMultiplier(c schema.Constraints) (string, error) {
	a := newAlphabet(c.Alphabet, st.aligned)
	var str []byte
	read := func(n int) error {
		if err := st.checkCount(len(str), n, a.bits == 0); err != nil {
			return err
		}
		for range n {
			code, err := st.r.ReadBits(a.bits)
			if err != nil {
				return err
			}
			ch, ok := a.decode(code)
			if !ok {
				return fmt.Errorf("%w: character code %d not in permitted alphabet", asn1codec.ConstraintViolation, code)
			}
			str = append(str, ch)
		}
		return nil
	}
	if c.Size.IsFixed() && c.Size.Upper < limit64K {
		n := int(c.Size.Upper)
		if st.aligned && n*a.bits > 16 {
			st.r.Align()
		}
		err := read(n)
		return string(str), err
	}
	alignChars := st.aligned && (!c.Size.IsConstrained() || c.Size.Upper*int64(a.bits) > 16)
	err := st.readLength(c.Size, func(n int) error {
		if alignChars && n > 0 {
			st.r.Align()
		}
		return read(n)
	})
	if err != nil {
		return "", err
	}
	if !c.Size.Contains(int64(len(str))) {
		return "", fmt.Errorf("%w: size %d not in SIZE%v", asn1codec.ConstraintViolation, len(str), c.Size)
	}
	return string(str), nil
}

// checkCount checks that n more items can follow the have items already
// read. An item that is not empty occupies at least one bit of the remaining
// input.
func (st *decodeState) checkCount(have, n int, empty bool) error {
	if empty {
		if have+n > st.maxElems {
			return fmt.Errorf("%w: %d items exceed the limit of %d", asn1codec.InvalidLength, have+n, st.maxElems)
		}
		return nil
	}
	if rest := st.r.Remaining(); n > rest {
		return fmt.Errorf("%d items need more than the remaining %d bits: %w", n, rest, bitbuf.ErrTruncated)
	}
	return nil
}

// readConstrained reads a constrained whole number for a range of n values.
func (st *decodeState) readConstrained(n *big.Int) (*big.Int, error) {
	if n.Cmp(bigOne) <= 0 {
		return new(big.Int), nil
	}
	bits := new(big.Int).Sub(n, bigOne).BitLen()
	var (
		x   *big.Int
		err error
	)
	switch {
	case !st.aligned || n.Cmp(big256) < 0:
		x, err = readBig(st.r, bits)
	case n.Cmp(big256) == 0:
		st.r.Align()
		x, err = readBig(st.r, 8)
	case n.Cmp(big64K) <= 0:
		st.r.Align()
		x, err = readBig(st.r, 16)
	default:
		var octets int
		if octets, err = st.readConstrainedInt((bits + 7) / 8); err != nil {
			return nil, err
		}
		st.r.Align()
		x, err = readBig(st.r, 8*(octets+1))
	}
	if err != nil {
		return nil, err
	}
	if x.Cmp(n) >= 0 {
		return nil, fmt.Errorf("%w: constrained number %v exceeds range of %v values", asn1codec.ConstraintViolation, x, n)
	}
	return x, nil
}

func (st *decodeState) readConstrainedInt(n int) (int, error) {
	x, err := st.readConstrained(big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(x.Int64()), nil
}

// readBig reads a bit-field of the given width.
func readBig(r *bitbuf.Reader, bits int) (*big.Int, error) {
	if bits <= 64 {
		v, err := r.ReadBits(bits)
		return new(big.Int).SetUint64(v), err
	}
	var head uint64
	if rem := bits % 8; rem != 0 {
		var err error
		if head, err = r.ReadBits(rem); err != nil {
			return nil, err
		}
	}
	b, err := r.ReadBytes(bits / 8)
	if err != nil {
		return nil, err
	}
	x := new(big.Int).SetUint64(head)
	x.Lsh(x, uint(8*len(b)))
	return x.Or(x, new(big.Int).SetBytes(b)), nil
}

// readLength reads a length determinant and calls items with the number of
// units of each fragment. Fragment headers announcing fewer than one or more
// than four blocks of 16K are rejected.
func (st *decodeState) readLength(size *schema.Range, items func(n int) error) error {
	if size.IsConstrained() && size.Upper < limit64K {
		n, err := st.readConstrainedInt(int(size.Upper - size.Lower + 1))
		if err != nil {
			return err
		}
		return items(n + int(size.Lower))
	}
	for {
		if st.aligned {
			st.r.Align()
		}
		b, err := st.r.ReadBits(8)
		if err != nil {
			return err
		}
		switch {
		case b&0x80 == 0:
			return items(int(b))
		case b&0xC0 == 0x80:
			lo, err := st.r.ReadBits(8)
			if err != nil {
				return err
			}
			return items(int(b&0x3F)<<8 | int(lo))
		default:
			m := int(b & 0x3F)
			if m < 1 || m > maxFragments {
				return fmt.Errorf("%w: fragment of %d blocks", asn1codec.InvalidLength, m)
			}
			if err := items(m * fragmentSize); err != nil {
				return err
			}
		}
	}
}
