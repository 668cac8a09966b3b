// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package personnel defines the PersonnelRecord example of Rec. ITU-T X.691
// Annex A together with Go types that convert themselves to and from values
// of these schemas.
//
//	PersonnelRecord ::= [APPLICATION 0] IMPLICIT SET {
//	    name         Name,
//	    title        [0] VisibleString,
//	    number       EmployeeNumber,
//	    dateOfHire   [1] Date,
//	    nameOfSpouse [2] Name,
//	    children     [3] IMPLICIT SEQUENCE OF ChildInformation DEFAULT {} }
//
// The module uses the unconstrained variant of the example: none of the
// strings carry size or alphabet constraints.
package personnel

import (
	"fmt"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/schema"
)

var (
	// EmployeeNumber ::= [APPLICATION 2] IMPLICIT INTEGER
	EmployeeNumber = schema.Delegate("EmployeeNumber", schema.Integer()).Tagged("application,tag:2")

	// Date ::= [APPLICATION 3] IMPLICIT VisibleString -- YYYYMMDD
	Date = schema.Delegate("Date", schema.VisibleString()).Tagged("application,tag:3")

	NameSchema = schema.Sequence("Name",
		schema.NewField("givenName", schema.VisibleString(), ""),
		schema.NewField("initial", schema.VisibleString(), ""),
		schema.NewField("familyName", schema.VisibleString(), ""),
	).Tagged("application,tag:1")

	ChildInformationSchema = schema.Set("ChildInformation",
		schema.NewField("name", NameSchema, ""),
		schema.NewField("dateOfBirth", Date, "explicit,tag:0"),
	)

	PersonnelRecord = schema.Set("PersonnelRecord",
		schema.NewField("name", NameSchema, ""),
		schema.NewField("title", schema.VisibleString(), "explicit,tag:0"),
		schema.NewField("number", EmployeeNumber, ""),
		schema.NewField("dateOfHire", Date, "explicit,tag:1"),
		schema.NewField("nameOfSpouse", NameSchema, "explicit,tag:2"),
		schema.NewField("children", schema.SequenceOf(ChildInformationSchema), "tag:3").WithDefault(asn1codec.List{}),
	).Tagged("application,tag:0")
)

// DefaultEmployeeNumber is the employee number of the example record.
const DefaultEmployeeNumber = 51

// Name is a Go representation of a value of [NameSchema].
type Name struct {
	GivenName  string
	Initial    string
	FamilyName string
}

// MarshalValue returns the value of n. It fails if a part of n is not a valid
// VisibleString.
func (n Name) MarshalValue() (asn1codec.Value, error) {
	v := asn1codec.Struct{
		asn1codec.VisibleString(n.GivenName),
		asn1codec.VisibleString(n.Initial),
		asn1codec.VisibleString(n.FamilyName),
	}
	for i, part := range v {
		if !part.(asn1codec.VisibleString).IsValid() {
			return nil, fmt.Errorf("%s: invalid VisibleString %q", nameFields[i], part)
		}
	}
	return v, nil
}

var nameFields = [...]string{"givenName", "initial", "familyName"}

func (n *Name) UnmarshalValue(v asn1codec.Value) error {
	fields, err := structOf(v, 3)
	if err != nil {
		return err
	}
	for i, dst := range []*string{&n.GivenName, &n.Initial, &n.FamilyName} {
		if *dst, err = stringOf(fields[i]); err != nil {
			return err
		}
	}
	return nil
}

func (n Name) String() string {
	return n.GivenName + " " + n.Initial + " " + n.FamilyName
}

// ChildInformation is a Go representation of a value of [ChildInformationSchema].
type ChildInformation struct {
	Name        Name
	DateOfBirth string
}

func (c ChildInformation) MarshalValue() (asn1codec.Value, error) {
	name, err := c.Name.MarshalValue()
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	return asn1codec.Struct{name, asn1codec.VisibleString(c.DateOfBirth)}, nil
}

func (c *ChildInformation) UnmarshalValue(v asn1codec.Value) error {
	fields, err := structOf(v, 2)
	if err != nil {
		return err
	}
	if err = c.Name.UnmarshalValue(fields[0]); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if c.DateOfBirth, err = stringOf(fields[1]); err != nil {
		return fmt.Errorf("dateOfBirth: %w", err)
	}
	return nil
}

// Record is a Go representation of a value of [PersonnelRecord].
type Record struct {
	Name         Name
	Title        string
	Number       int64
	DateOfHire   string
	NameOfSpouse Name
	Children     []ChildInformation
}

// Default returns the example record of X.691 Annex A.
func Default() *Record {
	return &Record{
		Name:         Name{"John", "P", "Smith"},
		Title:        "Director",
		Number:       DefaultEmployeeNumber,
		DateOfHire:   "19710917",
		NameOfSpouse: Name{"Mary", "T", "Smith"},
		Children: []ChildInformation{
			{Name{"Ralph", "T", "Smith"}, "19571111"},
			{Name{"Susan", "B", "Jones"}, "19590717"},
		},
	}
}

func (r *Record) MarshalValue() (asn1codec.Value, error) {
	name, err := r.Name.MarshalValue()
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	spouse, err := r.NameOfSpouse.MarshalValue()
	if err != nil {
		return nil, fmt.Errorf("nameOfSpouse: %w", err)
	}
	children := make(asn1codec.List, len(r.Children))
	for i, c := range r.Children {
		if children[i], err = c.MarshalValue(); err != nil {
			return nil, fmt.Errorf("children[%d]: %w", i, err)
		}
	}
	return asn1codec.Struct{
		name,
		asn1codec.VisibleString(r.Title),
		asn1codec.NewInteger(r.Number),
		asn1codec.VisibleString(r.DateOfHire),
		spouse,
		children,
	}, nil
}

func (r *Record) UnmarshalValue(v asn1codec.Value) error {
	fields, err := structOf(v, 6)
	if err != nil {
		return err
	}
	if err = r.Name.UnmarshalValue(fields[0]); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if r.Title, err = stringOf(fields[1]); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	number, err := asn1codec.As[*asn1codec.Integer](fields[2])
	if err != nil {
		return fmt.Errorf("number: %w", err)
	}
	if !number.IsInt64() {
		return fmt.Errorf("number: %v out of range", number)
	}
	r.Number = number.Int64()
	if r.DateOfHire, err = stringOf(fields[3]); err != nil {
		return fmt.Errorf("dateOfHire: %w", err)
	}
	if err = r.NameOfSpouse.UnmarshalValue(fields[4]); err != nil {
		return fmt.Errorf("nameOfSpouse: %w", err)
	}
	children, err := asn1codec.As[asn1codec.List](fields[5])
	if err != nil {
		return fmt.Errorf("children: %w", err)
	}
	r.Children = make([]ChildInformation, len(children))
	for i, c := range children {
		if err = r.Children[i].UnmarshalValue(c); err != nil {
			return fmt.Errorf("children[%d]: %w", i, err)
		}
	}
	return nil
}

func structOf(v asn1codec.Value, n int) (asn1codec.Struct, error) {
	fields, err := asn1codec.As[asn1codec.Struct](v)
	if err == nil && len(fields) != n {
		err = fmt.Errorf("got %d fields, want %d", len(fields), n)
	}
	return fields, err
}

func stringOf(v asn1codec.Value) (string, error) {
	s, err := asn1codec.As[asn1codec.VisibleString](v)
	return string(s), err
}
