// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/schema"
	"codello.dev/asn1codec/tlv"
)

var (
	errMissingField   = errors.New("missing required field")
	errDuplicateField = errors.New("duplicate field")
	errUnknownField   = errors.New("no matching field")
	errExtraContents  = errors.New("unexpected data value after last field")
	errSetOrder       = errors.New("SET members not in canonical order")
	errNoAlternative  = errors.New("no matching alternative")
	errPrimitiveValue = errors.New("primitive encoding of constructed type")
	errDefaultValue   = errors.New("DEFAULT field encoded with its default value")
)

// Decoder decodes values according to a schema. The zero value decodes BER
// and rejects trailing data. A Decoder is stateless and may be used
// concurrently.
type Decoder struct {
	// Rules selects BER, CER or DER. BER accepts every valid encoding of a
	// value. CER and DER additionally reject encodings that are not permitted
	// by the respective rules.
	Rules Rules

	// AllowTrailingData permits unused data after the top-level value.
	AllowTrailingData bool

	// MaxDepth limits the nesting of values. Zero means DefaultMaxDepth.
	MaxDepth int

	// Logger receives trace events for every decoded field. If nil, nothing is
	// logged.
	Logger *zerolog.Logger
}

// decodeState holds the state of a single Decode call.
type decodeState struct {
	d        *tlv.Decoder
	rules    Rules
	maxDepth int
	log      *zerolog.Logger

	offset int // start of the data value being decoded
}

// Decode parses data according to s and returns the decoded value. The schema
// is validated first. If the input is not a valid encoding of a value of s, a
// *[asn1codec.DecodeError] is returned.
//
// DEFAULT fields that are absent from the input decode to a copy of their
// default value. CER and DER reject a DEFAULT field that is present with its
// default value. OPTIONAL fields that are absent decode to nil.
func (dec *Decoder) Decode(data []byte, s *schema.Schema) (asn1codec.Value, error) {
	if s == nil {
		return nil, &asn1codec.DecodeError{Kind: asn1codec.InvalidSchema, Err: errors.New("nil schema")}
	}
	if err := s.Validate(); err != nil {
		return nil, &asn1codec.DecodeError{Kind: asn1codec.InvalidSchema, Path: s.TypeName(), Err: err}
	}
	st := &decodeState{
		d:        tlv.NewDecoder(data),
		rules:    dec.Rules,
		maxDepth: maxDepthOrDefault(dec.MaxDepth),
		log:      loggerOrNop(dec.Logger),
	}
	st.d.Canonical = dec.Rules == DER
	path := asn1codec.Root(s.TypeName())
	v, err := st.decodeSchema(s, nil, path, 0)
	if err != nil {
		st.log.Debug().Err(err).Stringer("rules", dec.Rules).Msg("decode failed")
		return nil, err
	}
	if rest := st.d.Rest(); len(rest) > 0 && !dec.AllowTrailingData {
		offset := st.d.InputOffset()
		return nil, &asn1codec.DecodeError{
			Kind:      asn1codec.TrailingData,
			Offset:    offset,
			BitOffset: offset * 8,
			Path:      path.String(),
			Err:       fmt.Errorf("%d unused bytes", len(rest)),
		}
	}
	return v, nil
}

// error converts err into a *DecodeError for the value at path.
func (st *decodeState) error(err error, path *asn1codec.Path) error {
	var (
		kind   asn1codec.ErrorKind
		offset = st.offset
		sErr   *tlv.SyntaxError
		segErr *segmentError
		dErr   *asn1codec.DecodeError
	)
	switch {
	case errors.As(err, &dErr):
		return err
	case err == io.EOF:
		kind, offset, err = asn1codec.TruncatedInput, st.d.InputOffset(), io.ErrUnexpectedEOF
	case errors.As(err, &sErr):
		kind, offset = sErr.Kind(), sErr.ByteOffset
	case errors.As(err, &segErr):
		kind, offset, err = segErr.kind, segErr.offset, segErr.err
	case errors.As(err, &kind):
	default:
		kind = asn1codec.InvalidValue
	}
	return &asn1codec.DecodeError{Kind: kind, Offset: offset, BitOffset: offset * 8, Path: path.String(), Err: err}
}

// errorf returns a *DecodeError of the given kind at the current offset.
func (st *decodeState) errorf(kind asn1codec.ErrorKind, path *asn1codec.Path, err error) error {
	return &asn1codec.DecodeError{Kind: kind, Offset: st.offset, BitOffset: st.offset * 8, Path: path.String(), Err: err}
}

// peek returns the header of the next data value without consuming it.
func (st *decodeState) peek(path *asn1codec.Path) (tlv.Header, error) {
	st.offset = st.d.InputOffset()
	h, err := st.d.PeekHeader()
	if err != nil {
		return h, st.error(err, path)
	}
	return h, nil
}

// expect reads the header of the next data value which must carry the given
// tag. For primitive data values the contents octets are returned as well.
func (st *decodeState) expect(tag asn1codec.Tag, path *asn1codec.Path) (tlv.Header, []byte, error) {
	st.offset = st.d.InputOffset()
	h, contents, err := st.d.ReadHeader()
	if err != nil {
		return h, nil, st.error(err, path)
	}
	if h.IsEndOfContents() {
		return h, nil, st.errorf(asn1codec.UnexpectedTag, path, fmt.Errorf("expected %v, found end of contents", tag))
	}
	if h.Tag != tag {
		return h, nil, st.errorf(asn1codec.UnexpectedTag, path, fmt.Errorf("expected %v, found %v", tag, h.Tag))
	}
	return h, contents, nil
}

// expectConstructed is like expect but requires the constructed encoding.
func (st *decodeState) expectConstructed(tag asn1codec.Tag, path *asn1codec.Path) error {
	h, _, err := st.expect(tag, path)
	if err == nil && !h.Constructed {
		err = st.errorf(asn1codec.UnexpectedTag, path, errPrimitiveValue)
	}
	return err
}

// end consumes the end of the current constructed data value. If another data
// value follows instead, an error is returned.
func (st *decodeState) end(path *asn1codec.Path) error {
	st.offset = st.d.InputOffset()
	h, _, err := st.d.ReadHeader()
	if err != nil {
		return st.error(err, path)
	}
	if !h.IsEndOfContents() {
		return st.errorf(asn1codec.UnexpectedTag, path, fmt.Errorf("%w: %v", errExtraContents, h.Tag))
	}
	return nil
}

// decodeTagged decodes a value of s with the additional tagging t of a field.
func (st *decodeState) decodeTagged(s *schema.Schema, t schema.Tagging, path *asn1codec.Path, depth int) (asn1codec.Value, error) {
	switch t.Mode {
	case schema.Explicit:
		if err := st.expectConstructed(t.Tag, path); err != nil {
			return nil, err
		}
		v, err := st.decodeSchema(s, nil, path, depth)
		if err != nil {
			return nil, err
		}
		return v, st.end(path)
	case schema.Implicit:
		return st.decodeSchema(s, &t.Tag, path, depth)
	default:
		return st.decodeSchema(s, nil, path, depth)
	}
}

// decodeSchema decodes a value of s. If override is non-nil, it replaces the
// outermost tag of s.
func (st *decodeState) decodeSchema(s *schema.Schema, override *asn1codec.Tag, path *asn1codec.Path, depth int) (asn1codec.Value, error) {
	if depth >= st.maxDepth {
		st.offset = st.d.InputOffset()
		return nil, st.errorf(asn1codec.RecursionLimitExceeded, path, nil)
	}
	switch s.Tagging.Mode {
	case schema.Explicit:
		tag := s.Tagging.Tag
		if override != nil {
			tag = *override
		}
		if err := st.expectConstructed(tag, path); err != nil {
			return nil, err
		}
		v, err := st.decodeBase(s, nil, path, depth+1)
		if err != nil {
			return nil, err
		}
		return v, st.end(path)
	case schema.Implicit:
		if override == nil {
			override = &s.Tagging.Tag
		}
	}
	return st.decodeBase(s, override, path, depth+1)
}

// decodeBase decodes a value according to the kind of s, ignoring the tagging
// of s itself.
func (st *decodeState) decodeBase(s *schema.Schema, override *asn1codec.Tag, path *asn1codec.Path, depth int) (asn1codec.Value, error) {
	switch s.Kind {
	case schema.KindPrimitive:
		return st.decodePrimitive(s, override, path)
	case schema.KindStructured:
		tag := asn1codec.UniversalTag(asn1codec.TagSequence)
		if s.Set {
			tag = asn1codec.UniversalTag(asn1codec.TagSet)
		}
		if override != nil {
			tag = *override
		}
		if err := st.expectConstructed(tag, path); err != nil {
			return nil, err
		}
		if s.Set {
			return st.decodeSet(s, path, depth)
		}
		return st.decodeSequence(s, path, depth)
	case schema.KindSequenceOf:
		tag := asn1codec.UniversalTag(asn1codec.TagSequence)
		if override != nil {
			tag = *override
		}
		if err := st.expectConstructed(tag, path); err != nil {
			return nil, err
		}
		return st.decodeSequenceOf(s, path, depth)
	case schema.KindChoice:
		h, err := st.peek(path)
		if err != nil {
			return nil, err
		}
		for i, f := range s.Fields {
			if h.IsEndOfContents() || !f.HasTag(h.Tag) {
				continue
			}
			v, err := st.decodeTagged(f.Schema, f.Tagging, path.Field(f.Name), depth)
			if err != nil {
				return nil, err
			}
			return &asn1codec.Choice{Index: i, Value: v}, nil
		}
		return nil, st.errorf(asn1codec.UnexpectedTag, path, fmt.Errorf("%w for %v", errNoAlternative, h.Tag))
	case schema.KindDelegate:
		return st.decodeSchema(s.Elem, override, path, depth)
	}
	return nil, st.errorf(asn1codec.InvalidSchema, path, fmt.Errorf("unknown kind %v", s.Kind))
}

func (st *decodeState) decodePrimitive(s *schema.Schema, override *asn1codec.Tag, path *asn1codec.Path) (asn1codec.Value, error) {
	leafTag := s.Leaf.UniversalTag()
	tag := leafTag
	if override != nil {
		tag = *override
	}
	h, contents, err := st.expect(tag, path)
	if err != nil {
		return nil, err
	}
	switch {
	case s.Leaf == schema.LeafInteger && h.Constructed:
		return nil, st.errorf(asn1codec.InvalidValue, path, errConstructedValue)
	case s.Leaf != schema.LeafInteger:
		if contents, err = st.readString(h, contents, leafTag); err != nil {
			return nil, st.error(err, path)
		}
	}
	v, err := decodeLeaf(contents, s.Leaf, st.rules)
	if err != nil {
		return nil, st.error(err, path)
	}
	return v, nil
}

func (st *decodeState) decodeSequence(s *schema.Schema, path *asn1codec.Path, depth int) (asn1codec.Value, error) {
	fields := make(asn1codec.Struct, len(s.Fields))
	for i, f := range s.Fields {
		fpath := path.Field(f.Name)
		h, err := st.peek(fpath)
		if err != nil {
			return nil, err
		}
		if h.IsEndOfContents() || !f.HasTag(h.Tag) {
			if !f.IsOptional() {
				if h.IsEndOfContents() {
					return nil, st.errorf(asn1codec.UnexpectedTag, fpath, errMissingField)
				}
				return nil, st.errorf(asn1codec.UnexpectedTag, fpath, fmt.Errorf("expected %v, found %v", f.Tags(), h.Tag))
			}
			fields[i] = asn1codec.Clone(f.Default)
			continue
		}
		start := st.offset
		st.log.Trace().Stringer("path", fpath).Stringer("tag", h.Tag).Int("offset", start).Msg("decode field")
		if fields[i], err = st.decodeTagged(f.Schema, f.Tagging, fpath, depth); err != nil {
			return nil, err
		}
		if err = st.checkDefault(f, fields[i], fpath, start); err != nil {
			return nil, err
		}
	}
	return fields, st.end(path)
}

func (st *decodeState) decodeSet(s *schema.Schema, path *asn1codec.Path, depth int) (asn1codec.Value, error) {
	fields := make(asn1codec.Struct, len(s.Fields))
	seen := make([]bool, len(s.Fields))
	var prev *asn1codec.Tag
	for {
		h, err := st.peek(path)
		if err != nil {
			return nil, err
		}
		if h.IsEndOfContents() {
			break
		}
		i := -1
		for j, f := range s.Fields {
			if f.HasTag(h.Tag) {
				i = j
				break
			}
		}
		switch {
		case i < 0:
			return nil, st.errorf(asn1codec.UnexpectedTag, path, fmt.Errorf("%w for %v", errUnknownField, h.Tag))
		case seen[i]:
			return nil, st.errorf(asn1codec.UnexpectedTag, path.Field(s.Fields[i].Name), errDuplicateField)
		case st.rules != BER && prev != nil && prev.Compare(h.Tag) > 0:
			return nil, st.errorf(asn1codec.UnexpectedTag, path.Field(s.Fields[i].Name), errSetOrder)
		}
		f := s.Fields[i]
		fpath := path.Field(f.Name)
		start := st.offset
		st.log.Trace().Stringer("path", fpath).Stringer("tag", h.Tag).Int("offset", start).Msg("decode field")
		if fields[i], err = st.decodeTagged(f.Schema, f.Tagging, fpath, depth); err != nil {
			return nil, err
		}
		if err = st.checkDefault(f, fields[i], fpath, start); err != nil {
			return nil, err
		}
		seen[i] = true
		prev = &h.Tag
	}
	for i, f := range s.Fields {
		if seen[i] {
			continue
		}
		if !f.IsOptional() {
			return nil, st.errorf(asn1codec.UnexpectedTag, path.Field(f.Name), errMissingField)
		}
		fields[i] = asn1codec.Clone(f.Default)
	}
	return fields, st.end(path)
}

// checkDefault rejects a DEFAULT field that is encoded with its default value.
// CER and DER require such fields to be omitted. offset is the offset of the
// field's encoding.
func (st *decodeState) checkDefault(f *schema.Field, v asn1codec.Value, path *asn1codec.Path, offset int) error {
	if st.rules == BER || f.Presence != schema.Default || !asn1codec.Equal(v, f.Default) {
		return nil
	}
	st.offset = offset
	return st.errorf(asn1codec.InvalidValue, path, errDefaultValue)
}

func (st *decodeState) decodeSequenceOf(s *schema.Schema, path *asn1codec.Path, depth int) (asn1codec.Value, error) {
	elems := asn1codec.List{}
	for i := 0; ; i++ {
		h, err := st.peek(path)
		if err != nil {
			return nil, err
		}
		if h.IsEndOfContents() {
			break
		}
		epath := path.Index(i)
		st.log.Trace().Stringer("path", epath).Int("offset", st.offset).Msg("decode element")
		v, err := st.decodeSchema(s.Elem, nil, epath, depth)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return elems, st.end(path)
}
