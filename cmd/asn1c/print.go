// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"io"

	"github.com/ansel1/merry"
	"gopkg.in/yaml.v3"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/schema"
)

// printValue writes v as a YAML document to w. Fields and alternatives are
// named after the schema s. Absent fields are omitted.
func printValue(w io.Writer, v asn1codec.Value, s *schema.Schema) error {
	n, err := valueNode(v, s)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err = enc.Encode(n); err != nil {
		return merry.Wrap(err)
	}
	return merry.Wrap(enc.Close())
}

func valueNode(v asn1codec.Value, s *schema.Schema) (*yaml.Node, error) {
	s = s.Underlying()
	switch s.Kind {
	case schema.KindStructured:
		st, err := asn1codec.As[asn1codec.Struct](v)
		if err != nil || len(st) != len(s.Fields) {
			return nil, merry.Errorf("%s: unexpected value %T", s.TypeName(), v)
		}
		n := &yaml.Node{Kind: yaml.MappingNode}
		for i, f := range s.Fields {
			if asn1codec.IsAbsent(st[i]) {
				continue
			}
			c, err := valueNode(st[i], f.Schema)
			if err != nil {
				return nil, merry.Prepend(err, f.Name)
			}
			n.Content = append(n.Content, scalar("!!str", f.Name), c)
		}
		return n, nil
	case schema.KindSequenceOf:
		l, err := asn1codec.As[asn1codec.List](v)
		if err != nil {
			return nil, merry.Errorf("%s: unexpected value %T", s.TypeName(), v)
		}
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for i, e := range l {
			c, err := valueNode(e, s.Elem)
			if err != nil {
				return nil, merry.Prependf(err, "[%d]", i)
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case schema.KindChoice:
		ch, err := asn1codec.As[*asn1codec.Choice](v)
		if err != nil || ch.Index < 0 || ch.Index >= len(s.Fields) {
			return nil, merry.Errorf("%s: unexpected value %v", s.TypeName(), v)
		}
		f := s.Fields[ch.Index]
		c, err := valueNode(ch.Value, f.Schema)
		if err != nil {
			return nil, merry.Prepend(err, f.Name)
		}
		return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{scalar("!!str", f.Name), c}}, nil
	}

	switch v := v.(type) {
	case *asn1codec.Integer:
		return scalar("!!int", v.Big().String()), nil
	case asn1codec.OctetString:
		return scalar("!!str", hex.EncodeToString(v)), nil
	case asn1codec.VisibleString:
		return scalar("!!str", string(v)), nil
	case asn1codec.GeneralString:
		return scalar("!!str", string(v)), nil
	}
	return nil, merry.Errorf("%s: unexpected value %T", s.TypeName(), v)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

