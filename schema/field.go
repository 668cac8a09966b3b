// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"sync"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/internal/params"
)

// Presence indicates whether a field must be present in a value.
type Presence uint8

const (
	Required Presence = iota
	Optional          // ASN.1 OPTIONAL
	Default           // ASN.1 DEFAULT, see [Field.Default]
)

// Field is a member of a SEQUENCE or SET or an alternative of a CHOICE.
type Field struct {
	Name     string
	Schema   *Schema
	Tagging  Tagging
	Presence Presence
	Default  asn1codec.Value // the default value if Presence is Default

	err error // deferred builder error

	once sync.Once
	tags []asn1codec.Tag
}

// NewField returns a field with the given name and schema. The field notation
// p specifies the tag and the presence of the field, see the package
// documentation for details.
func NewField(name string, s *Schema, p string) *Field {
	f := &Field{Name: name, Schema: s}
	ps, err := params.Parse(p)
	if err != nil {
		f.err = fmt.Errorf("field parameters %q: %w", p, err)
		return f
	}
	f.Tagging = tagging(ps)
	if ps.Optional {
		f.Presence = Optional
	}
	return f
}

// WithDefault marks f as ASN.1 DEFAULT with the default value v and returns f.
func (f *Field) WithDefault(v asn1codec.Value) *Field {
	f.Presence = Default
	f.Default = v
	return f
}

// IsOptional reports whether f may be absent from a value, that is if f is
// OPTIONAL or DEFAULT.
func (f *Field) IsOptional() bool {
	return f.Presence != Required
}

// Tags returns the set of tags an encoding of f can start with, sorted in
// canonical order.
func (f *Field) Tags() []asn1codec.Tag {
	f.once.Do(func() {
		if f.Tagging.IsSet() {
			f.tags = []asn1codec.Tag{f.Tagging.Tag}
		} else {
			f.tags = outerTags(f.Schema, 0)
		}
	})
	return f.tags
}

// HasTag reports whether an encoding of f can start with t.
func (f *Field) HasTag(t asn1codec.Tag) bool {
	for _, u := range f.Tags() {
		if u == t {
			return true
		}
	}
	return false
}

// CanonicalTag returns the smallest tag in f.Tags(). This is the tag used to
// order f among its siblings.
func (f *Field) CanonicalTag() asn1codec.Tag {
	tags := f.Tags()
	if len(tags) == 0 {
		return asn1codec.Tag{}
	}
	return tags[0]
}

func (f *Field) validate(alternative bool, path *asn1codec.Path) error {
	switch {
	case f.err != nil:
		return fmt.Errorf("%w: %s: %w", asn1codec.InvalidSchema, path, f.err)
	case f.Schema == nil:
		return fmt.Errorf("%w: %s: missing schema", asn1codec.InvalidSchema, path)
	case alternative && f.Presence != Required:
		return fmt.Errorf("%w: %s: CHOICE alternatives cannot be optional", asn1codec.InvalidSchema, path)
	case f.Tagging.Mode == Implicit && f.Schema.IsUntaggedChoice():
		return fmt.Errorf("%w: %s: untagged CHOICE cannot be tagged implicitly", asn1codec.InvalidSchema, path)
	case f.Presence == Default && f.Default == nil:
		return fmt.Errorf("%w: %s: missing DEFAULT value", asn1codec.InvalidSchema, path)
	case f.Presence == Default && !Conforms(f.Default, f.Schema):
		return fmt.Errorf("%w: %s: DEFAULT value does not conform to %s", asn1codec.InvalidSchema, path, f.Schema.TypeName())
	}
	return nil
}

// Conforms reports whether the shape of v matches s. Only the value variants
// are checked, constraints are not.
func Conforms(v asn1codec.Value, s *Schema) bool {
	return conforms(v, s, 0)
}

func conforms(v asn1codec.Value, s *Schema, depth int) bool {
	if depth > maxChain*4 {
		return false
	}
	s = s.Underlying()
	if s == nil || asn1codec.IsAbsent(v) {
		return false
	}
	switch s.Kind {
	case KindPrimitive:
		switch v.(type) {
		case *asn1codec.Integer:
			return s.Leaf == LeafInteger
		case asn1codec.OctetString:
			return s.Leaf == LeafOctetString
		case asn1codec.VisibleString:
			return s.Leaf == LeafVisibleString
		case asn1codec.GeneralString:
			return s.Leaf == LeafGeneralString
		}
	case KindSequenceOf:
		l, ok := v.(asn1codec.List)
		if !ok {
			return false
		}
		for _, e := range l {
			if !conforms(e, s.Elem, depth+1) {
				return false
			}
		}
		return true
	case KindStructured:
		st, ok := v.(asn1codec.Struct)
		if !ok || len(st) != len(s.Fields) {
			return false
		}
		for i, f := range s.Fields {
			if asn1codec.IsAbsent(st[i]) {
				if f.Presence == Required {
					return false
				}
				continue
			}
			if !conforms(st[i], f.Schema, depth+1) {
				return false
			}
		}
		return true
	case KindChoice:
		c, ok := v.(*asn1codec.Choice)
		return ok && c.Index >= 0 && c.Index < len(s.Fields) && conforms(c.Value, s.Fields[c.Index].Schema, depth+1)
	}
	return false
}
