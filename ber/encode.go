// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/schema"
	"codello.dev/asn1codec/tlv"
)

// Encoder encodes values according to a schema. The zero value encodes using
// BER. An Encoder is stateless and may be used concurrently.
type Encoder struct {
	// Rules selects BER, CER or DER.
	Rules Rules

	// EncodeDefaults keeps DEFAULT fields whose value equals the default.
	// This only has an effect under BER. CER and DER always omit them.
	EncodeDefaults bool

	// MaxDepth limits the nesting of values. Zero means DefaultMaxDepth.
	MaxDepth int

	// Logger receives trace events for every encoded field. If nil, nothing is
	// logged.
	Logger *zerolog.Logger
}

// encodeState holds the configuration of a single Encode call.
type encodeState struct {
	rules    Rules
	defaults bool
	maxDepth int
	log      *zerolog.Logger
}

// Encode returns the encoding of v according to s. The schema is validated
// first. If v does not match the shape of s, or a value cannot be represented,
// an *[asn1codec.EncodeError] is returned.
func (e *Encoder) Encode(v asn1codec.Value, s *schema.Schema) ([]byte, error) {
	if s == nil {
		return nil, &asn1codec.EncodeError{Kind: asn1codec.InvalidSchema, Err: errors.New("nil schema")}
	}
	if err := s.Validate(); err != nil {
		return nil, &asn1codec.EncodeError{Kind: asn1codec.InvalidSchema, Path: s.TypeName(), Err: err}
	}
	st := &encodeState{
		rules:    e.Rules,
		defaults: e.EncodeDefaults && e.Rules == BER,
		maxDepth: maxDepthOrDefault(e.MaxDepth),
		log:      loggerOrNop(e.Logger),
	}
	b, err := st.encodeSchema(v, s, nil, asn1codec.Root(s.TypeName()), 0)
	if err != nil {
		return nil, err
	}
	st.log.Debug().Stringer("rules", e.Rules).Str("type", s.TypeName()).Int("length", len(b)).Msg("encoded value")
	return b, nil
}

func encodeError(kind asn1codec.ErrorKind, path *asn1codec.Path, err error) error {
	return &asn1codec.EncodeError{Kind: kind, Path: path.String(), Err: err}
}

// encodeTagged encodes v according to s with the additional tagging t of a
// field.
func (st *encodeState) encodeTagged(v asn1codec.Value, s *schema.Schema, t schema.Tagging, path *asn1codec.Path, depth int) ([]byte, error) {
	switch t.Mode {
	case schema.Explicit:
		inner, err := st.encodeSchema(v, s, nil, path, depth)
		if err != nil {
			return nil, err
		}
		return st.wrap(t.Tag, inner), nil
	case schema.Implicit:
		return st.encodeSchema(v, s, &t.Tag, path, depth)
	default:
		return st.encodeSchema(v, s, nil, path, depth)
	}
}

// encodeSchema encodes v according to s. If override is non-nil, it replaces
// the outermost tag of the encoding.
func (st *encodeState) encodeSchema(v asn1codec.Value, s *schema.Schema, override *asn1codec.Tag, path *asn1codec.Path, depth int) ([]byte, error) {
	if depth >= st.maxDepth {
		return nil, encodeError(asn1codec.RecursionLimitExceeded, path, nil)
	}
	switch s.Tagging.Mode {
	case schema.Explicit:
		tag := s.Tagging.Tag
		if override != nil {
			tag = *override
		}
		inner, err := st.encodeBase(v, s, nil, path, depth+1)
		if err != nil {
			return nil, err
		}
		return st.wrap(tag, inner), nil
	case schema.Implicit:
		if override == nil {
			override = &s.Tagging.Tag
		}
	}
	return st.encodeBase(v, s, override, path, depth+1)
}

// encodeBase encodes v according to the kind of s, ignoring the tagging of s
// itself.
func (st *encodeState) encodeBase(v asn1codec.Value, s *schema.Schema, override *asn1codec.Tag, path *asn1codec.Path, depth int) ([]byte, error) {
	switch s.Kind {
	case schema.KindPrimitive:
		return st.encodePrimitive(v, s, override, path)
	case schema.KindStructured:
		return st.encodeStructured(v, s, override, path, depth)
	case schema.KindSequenceOf:
		return st.encodeSequenceOf(v, s, override, path, depth)
	case schema.KindChoice:
		c, err := asn1codec.As[*asn1codec.Choice](v)
		if err != nil {
			return nil, encodeError(asn1codec.InvalidValue, path, err)
		}
		if c.Index < 0 || c.Index >= len(s.Fields) {
			return nil, encodeError(asn1codec.InvalidValue, path, fmt.Errorf("alternative %d out of range", c.Index))
		}
		f := s.Fields[c.Index]
		return st.encodeTagged(c.Value, f.Schema, f.Tagging, path.Field(f.Name), depth)
	case schema.KindDelegate:
		return st.encodeSchema(v, s.Elem, override, path, depth)
	}
	return nil, encodeError(asn1codec.InvalidSchema, path, fmt.Errorf("unknown kind %v", s.Kind))
}

// encodedField is the encoding of a single member of a SEQUENCE or SET.
type encodedField struct {
	tag  asn1codec.Tag
	data []byte
}

func (st *encodeState) encodeStructured(v asn1codec.Value, s *schema.Schema, override *asn1codec.Tag, path *asn1codec.Path, depth int) ([]byte, error) {
	fields, err := asn1codec.As[asn1codec.Struct](v)
	if err != nil {
		return nil, encodeError(asn1codec.InvalidValue, path, err)
	}
	if len(fields) != len(s.Fields) {
		return nil, encodeError(asn1codec.InvalidValue, path, fmt.Errorf("%d field values for %d fields", len(fields), len(s.Fields)))
	}

	encoded := make([]encodedField, 0, len(fields))
	for i, f := range s.Fields {
		fpath := path.Field(f.Name)
		fv := fields[i]
		if asn1codec.IsAbsent(fv) {
			if f.Presence == schema.Required {
				return nil, encodeError(asn1codec.InvalidValue, fpath, errors.New("missing required field"))
			}
			continue
		}
		if f.Presence == schema.Default && !st.defaults && asn1codec.Equal(fv, f.Default) {
			st.log.Trace().Stringer("path", fpath).Msg("omit default")
			continue
		}
		b, err := st.encodeTagged(fv, f.Schema, f.Tagging, fpath, depth)
		if err != nil {
			return nil, err
		}
		tag, _, _, err := asn1codec.ParseIdentifier(b)
		if err != nil {
			return nil, encodeError(asn1codec.InvalidValue, fpath, err)
		}
		st.log.Trace().Stringer("path", fpath).Stringer("tag", tag).Int("length", len(b)).Msg("encode field")
		encoded = append(encoded, encodedField{tag, b})
	}
	if s.Set {
		// X.690 9.3 and 10.3: SET members in canonical order of their tags.
		slices.SortStableFunc(encoded, func(a, b encodedField) int {
			return a.tag.Compare(b.tag)
		})
	}

	var content []byte
	for _, f := range encoded {
		content = append(content, f.data...)
	}
	tag := asn1codec.UniversalTag(asn1codec.TagSequence)
	if s.Set {
		tag = asn1codec.UniversalTag(asn1codec.TagSet)
	}
	if override != nil {
		tag = *override
	}
	return st.wrap(tag, content), nil
}

func (st *encodeState) encodeSequenceOf(v asn1codec.Value, s *schema.Schema, override *asn1codec.Tag, path *asn1codec.Path, depth int) ([]byte, error) {
	elems, err := asn1codec.As[asn1codec.List](v)
	if err != nil {
		return nil, encodeError(asn1codec.InvalidValue, path, err)
	}
	var content []byte
	for i, ev := range elems {
		b, err := st.encodeSchema(ev, s.Elem, nil, path.Index(i), depth)
		if err != nil {
			return nil, err
		}
		content = append(content, b...)
	}
	tag := asn1codec.UniversalTag(asn1codec.TagSequence)
	if override != nil {
		tag = *override
	}
	return st.wrap(tag, content), nil
}

func (st *encodeState) encodePrimitive(v asn1codec.Value, s *schema.Schema, override *asn1codec.Tag, path *asn1codec.Path) ([]byte, error) {
	tag := s.Leaf.UniversalTag()
	if override != nil {
		tag = *override
	}
	content, err := encodeLeaf(v, s.Leaf)
	if err != nil {
		var kind asn1codec.ErrorKind
		if !errors.As(err, &kind) {
			kind = asn1codec.InvalidValue
		}
		return nil, encodeError(kind, path, err)
	}
	if st.rules == CER && s.Leaf != schema.LeafInteger && len(content) > cerSegmentSize {
		return appendSegmented(nil, tag, content), nil
	}
	return tlv.AppendTLV(nil, tlv.Header{Tag: tag}, content), nil
}

// wrap returns the constructed TLV with the given tag and contents. Under CER
// the indefinite-length form is used.
func (st *encodeState) wrap(tag asn1codec.Tag, content []byte) []byte {
	if st.rules == CER {
		b := make([]byte, 0, tag.IdentifierLen()+1+len(content)+2)
		b = tlv.AppendHeader(b, tlv.Header{Tag: tag, Constructed: true, Length: tlv.LengthIndefinite})
		b = append(b, content...)
		return tlv.AppendEndOfContents(b)
	}
	h := tlv.Header{Tag: tag, Constructed: true, Length: len(content)}
	b := make([]byte, 0, tlv.HeaderLen(h)+len(content))
	b = tlv.AppendHeader(b, h)
	return append(b, content...)
}
