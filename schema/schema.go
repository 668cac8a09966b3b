// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schema describes the shape of ASN.1 types for the schema-driven
// codecs of this module. A [Schema] is built once, usually as a package-level
// variable, and is read-only afterward. Schemas are safe for concurrent use by
// any number of encoders and decoders.
//
// The following example describes the Name type of Rec. ITU-T X.691, Annex A:
//
//	Name ::= [APPLICATION 1] IMPLICIT SEQUENCE {
//		givenName  VisibleString,
//		initial    VisibleString,
//		familyName VisibleString }
//
// This could be translated into the following schema:
//
//	var Name = schema.Sequence("Name",
//		schema.NewField("givenName", schema.VisibleString(), ""),
//		schema.NewField("initial", schema.VisibleString(), ""),
//		schema.NewField("familyName", schema.VisibleString(), ""),
//	).Tagged("application,tag:1")
//
// Fields and types are tagged using a compact notation of comma separated
// parts:
//
//	tag:x       specifies the ASN.1 tag number; implies ASN.1 CONTEXT SPECIFIC
//	application specifies that an APPLICATION tag is used
//	private     specifies that a PRIVATE tag is used
//	universal   specifies that a UNIVERSAL tag is used
//	explicit    mark the tag as EXPLICIT
//	implicit    mark the tag as IMPLICIT (the default)
//	optional    marks the field as ASN.1 OPTIONAL
//
// An IMPLICIT tag replaces the outermost tag of the tagged type. An EXPLICIT
// tag adds a constructed wrapper around the complete encoding of the type.
package schema

import (
	"fmt"
	"slices"
	"sync"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/internal/params"
)

// Kind identifies the structural category of a [Schema].
//
//go:generate stringer -type=Kind -trimprefix=Kind
type Kind uint8

const (
	KindPrimitive  Kind = iota // a leaf type, see [Leaf]
	KindSequenceOf             // SEQUENCE OF
	KindStructured             // SEQUENCE or SET
	KindChoice                 // CHOICE
	KindDelegate               // a type defined as another type
)

// Leaf identifies the primitive type of a [KindPrimitive] schema.
type Leaf uint8

const (
	LeafInteger Leaf = iota
	LeafOctetString
	LeafVisibleString
	LeafGeneralString
)

// UniversalTag returns the universal tag of the leaf type.
func (l Leaf) UniversalTag() asn1codec.Tag {
	switch l {
	case LeafInteger:
		return asn1codec.UniversalTag(asn1codec.TagInteger)
	case LeafOctetString:
		return asn1codec.UniversalTag(asn1codec.TagOctetString)
	case LeafVisibleString:
		return asn1codec.UniversalTag(asn1codec.TagVisibleString)
	default:
		return asn1codec.UniversalTag(asn1codec.TagGeneralString)
	}
}

// String returns the ASN.1 name of l.
func (l Leaf) String() string {
	switch l {
	case LeafInteger:
		return "INTEGER"
	case LeafOctetString:
		return "OCTET STRING"
	case LeafVisibleString:
		return "VisibleString"
	case LeafGeneralString:
		return "GeneralString"
	}
	return fmt.Sprintf("Leaf(%d)", uint8(l))
}

// TagMode indicates how a tag is applied to a type.
type TagMode uint8

const (
	NoTag TagMode = iota
	Implicit
	Explicit
)

// Tagging is a tag applied to a type or a field.
type Tagging struct {
	Mode TagMode
	Tag  asn1codec.Tag
}

// IsSet reports whether t specifies a tag.
func (t Tagging) IsSet() bool {
	return t.Mode != NoTag
}

func (t Tagging) String() string {
	switch t.Mode {
	case Implicit:
		return t.Tag.String() + " IMPLICIT"
	case Explicit:
		return t.Tag.String() + " EXPLICIT"
	}
	return ""
}

// Schema describes an ASN.1 type. Use the builder functions of this package to
// create a Schema. A Schema must not be modified after it has been used for
// encoding or decoding.
type Schema struct {
	Name    string  // type name used in error paths, optional
	Kind    Kind    // structural category
	Leaf    Leaf    // the primitive type if Kind is KindPrimitive
	Set     bool    // SET instead of SEQUENCE if Kind is KindStructured
	Tagging Tagging // tag of the type itself; for a delegate this overrides the inner tag
	Fields  []*Field
	Elem    *Schema // element type of a SEQUENCE OF or the underlying type of a delegate

	Constraints Constraints

	err error // deferred builder error

	once    sync.Once
	tags    []asn1codec.Tag
	order   []int
	invalid error
}

// TypeName returns s.Name or, if s is unnamed, the ASN.1 name of its type.
func (s *Schema) TypeName() string {
	if s.Name != "" {
		return s.Name
	}
	switch s.Kind {
	case KindPrimitive:
		return s.Leaf.String()
	case KindSequenceOf:
		return "SEQUENCE OF"
	case KindStructured:
		if s.Set {
			return "SET"
		}
		return "SEQUENCE"
	case KindChoice:
		return "CHOICE"
	}
	if s.Elem != nil {
		return s.Elem.TypeName()
	}
	return s.Kind.String()
}

//region Builders

func primitive(l Leaf) *Schema {
	return &Schema{Kind: KindPrimitive, Leaf: l}
}

// Integer returns a schema for the ASN.1 INTEGER type.
func Integer() *Schema { return primitive(LeafInteger) }

// OctetString returns a schema for the ASN.1 OCTET STRING type.
func OctetString() *Schema { return primitive(LeafOctetString) }

// VisibleString returns a schema for the ASN.1 VisibleString type.
func VisibleString() *Schema { return primitive(LeafVisibleString) }

// GeneralString returns a schema for the ASN.1 GeneralString type.
func GeneralString() *Schema { return primitive(LeafGeneralString) }

// Sequence returns a schema for a SEQUENCE type with the given fields.
func Sequence(name string, fields ...*Field) *Schema {
	return &Schema{Name: name, Kind: KindStructured, Fields: fields}
}

// Set returns a schema for a SET type with the given fields.
func Set(name string, fields ...*Field) *Schema {
	return &Schema{Name: name, Kind: KindStructured, Set: true, Fields: fields}
}

// SequenceOf returns a schema for a SEQUENCE OF elem.
func SequenceOf(elem *Schema) *Schema {
	return &Schema{Kind: KindSequenceOf, Elem: elem}
}

// Choice returns a schema for a CHOICE type with the given alternatives.
// Alternatives must not be optional.
func Choice(name string, alternatives ...*Field) *Schema {
	return &Schema{Name: name, Kind: KindChoice, Fields: alternatives}
}

// Delegate returns a schema for a type that is defined as the inner type. Use
// [Schema.Tagged] to give the delegate its own tag.
func Delegate(name string, inner *Schema) *Schema {
	return &Schema{Name: name, Kind: KindDelegate, Elem: inner}
}

// Tagged sets the tag of s from the field notation p, for example
// "application,tag:1" or "explicit,application,tag:11", and returns s.
func (s *Schema) Tagged(p string) *Schema {
	ps, err := params.Parse(p)
	if err == nil && ps.Optional {
		err = fmt.Errorf("optional is not allowed on a type")
	}
	if err != nil {
		s.err = fmt.Errorf("tag %q: %w", p, err)
		return s
	}
	s.Tagging = tagging(ps)
	return s
}

// Named sets the name of s and returns s.
func (s *Schema) Named(name string) *Schema {
	s.Name = name
	return s
}

// WithRange sets the value constraint of an INTEGER schema and returns s.
func (s *Schema) WithRange(r *Range) *Schema {
	s.Constraints.Value = r
	return s
}

// WithSize sets the size constraint of a string or SEQUENCE OF schema and
// returns s.
func (s *Schema) WithSize(r *Range) *Schema {
	s.Constraints.Size = r
	return s
}

// WithAlphabet sets the permitted alphabet of a VisibleString schema and
// returns s.
func (s *Schema) WithAlphabet(alphabet string) *Schema {
	s.Constraints.Alphabet = alphabet
	return s
}

func tagging(ps params.Parameters) Tagging {
	switch {
	case !ps.HasTag:
		return Tagging{}
	case ps.Explicit:
		return Tagging{Explicit, ps.Tag}
	default:
		return Tagging{Implicit, ps.Tag}
	}
}

//endregion

// Underlying follows the delegate chain of s and returns the first schema
// that is not a delegate. Tags along the chain are ignored.
func (s *Schema) Underlying() *Schema {
	for i := 0; s != nil && s.Kind == KindDelegate && i < maxChain; i++ {
		s = s.Elem
	}
	return s
}

// maxChain bounds the traversal of delegate chains in malformed schemas.
const maxChain = 64

// IsUntaggedChoice reports whether s is a CHOICE without a tag of its own,
// possibly behind untagged delegates. An untagged CHOICE has no outermost tag
// of its own and can therefore not be tagged implicitly.
func (s *Schema) IsUntaggedChoice() bool {
	for i := 0; s != nil && i < maxChain; i++ {
		if s.Tagging.IsSet() {
			return false
		}
		switch s.Kind {
		case KindChoice:
			return true
		case KindDelegate:
			s = s.Elem
		default:
			return false
		}
	}
	return false
}

// Tags returns the set of tags an encoding of s can start with, sorted in
// canonical order. For all types except an untagged CHOICE this is a single
// tag.
func (s *Schema) Tags() []asn1codec.Tag {
	s.derive()
	return s.tags
}

// CanonicalOrder returns the indices of s.Fields sorted by the canonical tag
// of each field. Fields with equal tags keep their declaration order. This is
// the order in which the members of a SET are encoded under canonical
// encoding rules and the order in which PER numbers the alternatives of a
// CHOICE.
func (s *Schema) CanonicalOrder() []int {
	s.derive()
	return s.order
}

// Validate checks s and all schemas reachable from it for consistency. The
// result is computed once. Validate reports an error wrapping
// [asn1codec.InvalidSchema] if
//
//   - a builder received an invalid field notation,
//   - the fields of a SEQUENCE or SET or the alternatives of a CHOICE do not
//     have distinct outermost tags,
//   - an untagged CHOICE is tagged implicitly,
//   - a delegate or SEQUENCE OF has no inner schema,
//   - a DEFAULT value does not conform to the field's schema.
func (s *Schema) Validate() error {
	s.derive()
	return s.invalid
}

func (s *Schema) derive() {
	s.once.Do(func() {
		s.tags = outerTags(s, 0)
		s.order = make([]int, len(s.Fields))
		for i := range s.order {
			s.order[i] = i
		}
		slices.SortStableFunc(s.order, func(i, j int) int {
			return s.Fields[i].CanonicalTag().Compare(s.Fields[j].CanonicalTag())
		})
		s.invalid = validate(s, asn1codec.Root(s.TypeName()), make(map[*Schema]bool))
	})
}

func outerTags(s *Schema, depth int) []asn1codec.Tag {
	if s == nil || depth > maxChain {
		return nil
	}
	if s.Tagging.IsSet() {
		return []asn1codec.Tag{s.Tagging.Tag}
	}
	switch s.Kind {
	case KindPrimitive:
		return []asn1codec.Tag{s.Leaf.UniversalTag()}
	case KindSequenceOf:
		return []asn1codec.Tag{asn1codec.UniversalTag(asn1codec.TagSequence)}
	case KindStructured:
		if s.Set {
			return []asn1codec.Tag{asn1codec.UniversalTag(asn1codec.TagSet)}
		}
		return []asn1codec.Tag{asn1codec.UniversalTag(asn1codec.TagSequence)}
	case KindChoice:
		var tags []asn1codec.Tag
		for _, f := range s.Fields {
			if f.Tagging.IsSet() {
				tags = append(tags, f.Tagging.Tag)
			} else {
				tags = append(tags, outerTags(f.Schema, depth+1)...)
			}
		}
		slices.SortFunc(tags, asn1codec.CompareTags)
		return slices.Compact(tags)
	default:
		return outerTags(s.Elem, depth+1)
	}
}

// validateTags checks that the fields of s can be told apart by their tags.
// The alternatives of a CHOICE and the members of a SET must have distinct
// tags. In a SEQUENCE the tags of an OPTIONAL or DEFAULT field must differ
// from the tags of the following fields up to and including the next required
// field (Rec. ITU-T X.680, clause 25.5).
func validateTags(s *Schema, path *asn1codec.Path) error {
	if s.Kind == KindChoice || s.Set {
		var tags []asn1codec.Tag
		for _, f := range s.Fields {
			for _, t := range f.Tags() {
				if slices.Contains(tags, t) {
					return fmt.Errorf("%w: %s: duplicate tag %v", asn1codec.InvalidSchema, path.Field(f.Name), t)
				}
				tags = append(tags, t)
			}
		}
		return nil
	}
	for i, f := range s.Fields {
		if !f.IsOptional() {
			continue
		}
		for _, g := range s.Fields[i+1:] {
			for _, t := range g.Tags() {
				if f.HasTag(t) {
					return fmt.Errorf("%w: %s: duplicate tag %v", asn1codec.InvalidSchema, path.Field(g.Name), t)
				}
			}
			if !g.IsOptional() {
				break
			}
		}
	}
	return nil
}

func validate(s *Schema, path *asn1codec.Path, seen map[*Schema]bool) error {
	if s == nil {
		return fmt.Errorf("%w: %s: missing schema", asn1codec.InvalidSchema, path)
	}
	if seen[s] {
		return nil
	}
	seen[s] = true
	if s.err != nil {
		return fmt.Errorf("%w: %s: %w", asn1codec.InvalidSchema, path, s.err)
	}
	if s.Tagging.Mode == Implicit && s.Kind == KindChoice {
		return fmt.Errorf("%w: %s: CHOICE cannot be tagged implicitly", asn1codec.InvalidSchema, path)
	}
	switch s.Kind {
	case KindPrimitive:
		if s.Leaf > LeafGeneralString {
			return fmt.Errorf("%w: %s: unknown leaf type %v", asn1codec.InvalidSchema, path, s.Leaf)
		}
		if s.Constraints.Value != nil && s.Leaf != LeafInteger {
			return fmt.Errorf("%w: %s: value constraint on %v", asn1codec.InvalidSchema, path, s.Leaf)
		}
		if r := s.Constraints.Value; r != nil && r.HasLower && r.HasUpper && r.Lower > r.Upper {
			return fmt.Errorf("%w: %s: empty value range %v", asn1codec.InvalidSchema, path, r)
		}
		if s.Constraints.Alphabet != "" && (s.Leaf != LeafVisibleString || !asn1codec.VisibleString(s.Constraints.Alphabet).IsValid()) {
			return fmt.Errorf("%w: %s: invalid permitted alphabet", asn1codec.InvalidSchema, path)
		}
	case KindSequenceOf, KindDelegate:
		if s.Elem == nil {
			return fmt.Errorf("%w: %s: missing inner schema", asn1codec.InvalidSchema, path)
		}
		if err := validate(s.Elem, path, seen); err != nil {
			return err
		}
	case KindStructured, KindChoice:
		if s.Kind == KindChoice && len(s.Fields) == 0 {
			return fmt.Errorf("%w: %s: CHOICE without alternatives", asn1codec.InvalidSchema, path)
		}
		for _, f := range s.Fields {
			fpath := path.Field(f.Name)
			if err := f.validate(s.Kind == KindChoice, fpath); err != nil {
				return err
			}
			if err := validate(f.Schema, fpath, seen); err != nil {
				return err
			}
		}
		if err := validateTags(s, path); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s: unknown kind %v", asn1codec.InvalidSchema, path, s.Kind)
	}
	if r := s.Constraints.Size; r != nil && r.HasLower && r.Lower < 0 {
		return fmt.Errorf("%w: %s: negative size constraint", asn1codec.InvalidSchema, path)
	}
	return nil
}
