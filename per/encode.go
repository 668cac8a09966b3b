// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package per

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/internal/bitbuf"
	"codello.dev/asn1codec/schema"
)

// Encoder encodes values according to a schema. The zero value encodes using
// the ALIGNED variant. An Encoder is stateless and may be used concurrently.
type Encoder struct {
	Variant Variant

	// MaxDepth limits the nesting of values. Zero means DefaultMaxDepth.
	MaxDepth int

	// Logger receives trace events for every encoded field. If nil, nothing is
	// logged.
	Logger *zerolog.Logger
}

type encodeState struct {
	w        bitbuf.Writer
	aligned  bool
	maxDepth int
	log      *zerolog.Logger
}

// Encode returns the encoding of v according to s. A complete encoding is
// always at least one octet long: if v encodes to no bits at all, a single
// zero octet is returned. Values that violate a PER-visible constraint of s
// result in an *[asn1codec.EncodeError] of kind
// [asn1codec.ConstraintViolation].
func (e *Encoder) Encode(v asn1codec.Value, s *schema.Schema) ([]byte, error) {
	if s == nil {
		return nil, &asn1codec.EncodeError{Kind: asn1codec.InvalidSchema, Err: errors.New("nil schema")}
	}
	if err := s.Validate(); err != nil {
		return nil, &asn1codec.EncodeError{Kind: asn1codec.InvalidSchema, Path: s.TypeName(), Err: err}
	}
	st := &encodeState{
		aligned:  e.Variant == Aligned,
		maxDepth: maxDepthOrDefault(e.MaxDepth),
		log:      loggerOrNop(e.Logger),
	}
	if err := st.encodeSchema(v, s, asn1codec.Root(s.TypeName()), 0); err != nil {
		return nil, err
	}
	st.log.Debug().Stringer("variant", e.Variant).Str("type", s.TypeName()).Int("bits", st.w.Len()).Msg("encoded value")
	if st.w.Len() == 0 {
		// X.691 11.1: an empty bit string is replaced by a single octet.
		return []byte{0x00}, nil
	}
	return st.w.Bytes(), nil
}

func encodeError(kind asn1codec.ErrorKind, path *asn1codec.Path, err error) error {
	return &asn1codec.EncodeError{Kind: kind, Path: path.String(), Err: err}
}

// kindOf returns the ErrorKind wrapped by err or def.
func kindOf(err error, def asn1codec.ErrorKind) asn1codec.ErrorKind {
	var kind asn1codec.ErrorKind
	if errors.As(err, &kind) {
		return kind
	}
	return def
}

func (st *encodeState) encodeSchema(v asn1codec.Value, s *schema.Schema, path *asn1codec.Path, depth int) error {
	if depth >= st.maxDepth {
		return encodeError(asn1codec.RecursionLimitExceeded, path, nil)
	}
	switch s.Kind {
	case schema.KindPrimitive:
		if err := st.encodePrimitive(v, s); err != nil {
			return encodeError(kindOf(err, asn1codec.InvalidValue), path, err)
		}
		return nil
	case schema.KindStructured:
		return st.encodeStructured(v, s, path, depth+1)
	case schema.KindSequenceOf:
		elems, err := asn1codec.As[asn1codec.List](v)
		if err != nil {
			return encodeError(asn1codec.InvalidValue, path, err)
		}
		size := s.Constraints.Size
		if !size.Contains(int64(len(elems))) {
			return encodeError(asn1codec.ConstraintViolation, path, fmt.Errorf("%d elements not in SIZE%v", len(elems), size))
		}
		return st.writeLength(len(elems), size, func(from, to int) error {
			for i := from; i < to; i++ {
				if err := st.encodeSchema(elems[i], s.Elem, path.Index(i), depth+1); err != nil {
					return err
				}
			}
			return nil
		})
	case schema.KindChoice:
		c, err := asn1codec.As[*asn1codec.Choice](v)
		if err != nil {
			return encodeError(asn1codec.InvalidValue, path, err)
		}
		order := s.CanonicalOrder()
		pos := -1
		for p, i := range order {
			if i == c.Index {
				pos = p
			}
		}
		if pos < 0 {
			return encodeError(asn1codec.InvalidValue, path, fmt.Errorf("alternative %d out of range", c.Index))
		}
		st.writeConstrainedInt(pos, len(order))
		f := s.Fields[c.Index]
		return st.encodeSchema(c.Value, f.Schema, path.Field(f.Name), depth+1)
	case schema.KindDelegate:
		return st.encodeSchema(v, s.Elem, path, depth+1)
	}
	return encodeError(asn1codec.InvalidSchema, path, fmt.Errorf("unknown kind %v", s.Kind))
}

// memberOrder returns the order in which the fields of s are encoded.
func memberOrder(s *schema.Schema) []int {
	if s.Set {
		return s.CanonicalOrder()
	}
	order := make([]int, len(s.Fields))
	for i := range order {
		order[i] = i
	}
	return order
}

func (st *encodeState) encodeStructured(v asn1codec.Value, s *schema.Schema, path *asn1codec.Path, depth int) error {
	fields, err := asn1codec.As[asn1codec.Struct](v)
	if err != nil {
		return encodeError(asn1codec.InvalidValue, path, err)
	}
	if len(fields) != len(s.Fields) {
		return encodeError(asn1codec.InvalidValue, path, fmt.Errorf("%d field values for %d fields", len(fields), len(s.Fields)))
	}
	order := memberOrder(s)

	// preamble
	present := make([]bool, len(fields))
	for _, i := range order {
		f, fv := s.Fields[i], fields[i]
		present[i] = !asn1codec.IsAbsent(fv)
		if !f.IsOptional() {
			if !present[i] {
				return encodeError(asn1codec.InvalidValue, path.Field(f.Name), errors.New("missing required field"))
			}
			continue
		}
		if f.Presence == schema.Default && present[i] && asn1codec.Equal(fv, f.Default) {
			present[i] = false
		}
		st.w.WriteBit(present[i])
	}

	for _, i := range order {
		if !present[i] {
			continue
		}
		f := s.Fields[i]
		fpath := path.Field(f.Name)
		st.log.Trace().Stringer("path", fpath).Int("bit", st.w.Len()).Msg("encode field")
		if err := st.encodeSchema(fields[i], f.Schema, fpath, depth); err != nil {
			return err
		}
	}
	return nil
}

func (st *encodeState) encodePrimitive(v asn1codec.Value, s *schema.Schema) error {
	switch s.Leaf {
	case schema.LeafInteger:
		i, err := asn1codec.As[*asn1codec.Integer](v)
		if err != nil {
			return err
		}
		return st.encodeInteger(i, s.Constraints.Value)
	case schema.LeafOctetString:
		b, err := asn1codec.As[asn1codec.OctetString](v)
		if err != nil {
			return err
		}
		return st.encodeOctets(b, s.Constraints.Size)
	case schema.LeafVisibleString:
		str, err := asn1codec.As[asn1codec.VisibleString](v)
		if err != nil {
			return err
		}
		return st.encodeKnownMultiplier(string(str), s.Constraints)
	case schema.LeafGeneralString:
		str, err := asn1codec.As[asn1codec.GeneralString](v)
		if err != nil {
			return err
		}
		return st.encodeOctets([]byte(str), s.Constraints.Size)
	}
	return fmt.Errorf("%w: unknown leaf %v", asn1codec.InvalidSchema, s.Leaf)
}

// encodeInteger encodes i as a constrained, semi-constrained or unconstrained
// whole number (X.691 clause 13).
func (st *encodeState) encodeInteger(i *asn1codec.Integer, r *schema.Range) error {
	if !r.ContainsBig(i.Big()) {
		return fmt.Errorf("%w: %v not in %v", asn1codec.ConstraintViolation, i.Big(), r)
	}
	switch {
	case r.IsConstrained():
		x := new(big.Int).Sub(i.Big(), big.NewInt(r.Lower))
		st.writeConstrained(x, r.Span())
		return nil
	case r != nil && r.HasLower:
		x := new(big.Int).Sub(i.Big(), big.NewInt(r.Lower))
		b := x.Bytes()
		if len(b) == 0 {
			b = []byte{0}
		}
		return st.writeOctets(b)
	default:
		return st.writeOctets(i.AppendTwosComplement(nil))
	}
}

// writeOctets writes b preceded by an unconstrained length determinant.
func (st *encodeState) writeOctets(b []byte) error {
	return st.writeLength(len(b), nil, func(from, to int) error {
		st.w.WriteBytes(b[from:to])
		return nil
	})
}

// encodeOctets encodes an OCTET STRING (X.691 clause 17).
func (st *encodeState) encodeOctets(b []byte, size *schema.Range) error {
	n := len(b)
	if !size.Contains(int64(n)) {
		return fmt.Errorf("%w: size %d not in SIZE%v", asn1codec.ConstraintViolation, n, size)
	}
	if size.IsFixed() && size.Upper < limit64K {
		if st.aligned && n > 2 {
			st.w.Align()
		}
		st.w.WriteBytes(b)
		return nil
	}
	return st.writeLength(n, size, func(from, to int) error {
		if st.aligned && to > from {
			st.w.Align()
		}
		st.w.WriteBytes(b[from:to])
		return nil
	})
}

// encodeKnownMultiplier encodes a VisibleString (X.691 clause 30).
func (st *encodeState) encodeKnownMultiplier(str string, c schema.Constraints) error {
	a := newAlphabet(c.Alphabet, st.aligned)
	n := len(str)
	if !c.Size.Contains(int64(n)) {
		return fmt.Errorf("%w: size %d not in SIZE%v", asn1codec.ConstraintViolation, n, c.Size)
	}
	codes := make([]uint64, n)
	for i := 0; i < n; i++ {
		code, ok := a.encode(str[i])
		if !ok {
			return fmt.Errorf("%w: character %q not in permitted alphabet", asn1codec.ConstraintViolation, str[i])
		}
		codes[i] = code
	}
	write := func(from, to int) error {
		for _, code := range codes[from:to] {
			st.w.WriteBits(code, a.bits)
		}
		return nil
	}
	if c.Size.IsFixed() && c.Size.Upper < limit64K {
		if st.aligned && n*a.bits > 16 {
			st.w.Align()
		}
		return write(0, n)
	}
	alignChars := st.aligned && (!c.Size.IsConstrained() || c.Size.Upper*int64(a.bits) > 16)
	return st.writeLength(n, c.Size, func(from, to int) error {
		if alignChars && to > from {
			st.w.Align()
		}
		return write(from, to)
	})
}

// writeConstrained writes the constrained whole number x for a range of n
// values, 0 <= x < n (X.691 clause 11.5.7).
func (st *encodeState) writeConstrained(x, n *big.Int) {
	if n.Cmp(bigOne) <= 0 {
		return
	}
	bits := new(big.Int).Sub(n, bigOne).BitLen()
	if !st.aligned || n.Cmp(big256) < 0 {
		writeBig(&st.w, x, bits)
		return
	}
	switch {
	case n.Cmp(big256) == 0:
		st.w.Align()
		writeBig(&st.w, x, 8)
	case n.Cmp(big64K) <= 0:
		st.w.Align()
		writeBig(&st.w, x, 16)
	default:
		// indefinite-length case: number of octets, then the octets
		octets := max((x.BitLen()+7)/8, 1)
		st.writeConstrainedInt(octets-1, (bits+7)/8)
		st.w.Align()
		writeBig(&st.w, x, 8*octets)
	}
}

func (st *encodeState) writeConstrainedInt(x, n int) {
	st.writeConstrained(big.NewInt(int64(x)), big.NewInt(int64(n)))
}

// writeBig writes x as a bit-field of the given width.
func writeBig(w *bitbuf.Writer, x *big.Int, bits int) {
	if bits <= 64 {
		w.WriteBits(x.Uint64(), bits)
		return
	}
	b := x.FillBytes(make([]byte, (bits+7)/8))
	if r := bits % 8; r != 0 {
		w.WriteBits(uint64(b[0]), r)
		b = b[1:]
	}
	w.WriteBytes(b)
}

// writeLength writes the length determinant for n units (X.691 clause 11.9)
// and calls items for the units in each fragment. If size is constrained with
// an upper bound below 64K, the length is a constrained whole number and no
// fragmentation happens.
func (st *encodeState) writeLength(n int, size *schema.Range, items func(from, to int) error) error {
	if size.IsConstrained() && size.Upper < limit64K {
		st.writeConstrainedInt(n-int(size.Lower), int(size.Upper-size.Lower+1))
		return items(0, n)
	}
	from := 0
	for {
		if st.aligned {
			st.w.Align()
		}
		switch rem := n - from; {
		case rem < 128:
			st.w.WriteBits(uint64(rem), 8)
			return items(from, n)
		case rem < fragmentSize:
			st.w.WriteBits(0x8000|uint64(rem), 16)
			return items(from, n)
		default:
			m := min(rem/fragmentSize, maxFragments)
			st.w.WriteBits(0xC0|uint64(m), 8)
			if err := items(from, from+m*fragmentSize); err != nil {
				return err
			}
			from += m * fragmentSize
		}
	}
}
