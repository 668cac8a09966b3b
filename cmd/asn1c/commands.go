// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/ansel1/merry"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/codec"
	"codello.dev/asn1codec/internal/fixtures/kerberos"
	"codello.dev/asn1codec/internal/fixtures/personnel"
	"codello.dev/asn1codec/schema"
	"codello.dev/asn1codec/tlv"
)

// builtin is a type known to the command together with its example value.
type builtin struct {
	schema  *schema.Schema
	example func() asn1codec.Marshaler
}

var builtins = map[string]builtin{
	"PersonnelRecord":  {personnel.PersonnelRecord, func() asn1codec.Marshaler { return personnel.Default() }},
	"ChildInformation": {personnel.ChildInformationSchema, func() asn1codec.Marshaler { return personnel.Default().Children[0] }},
	"Name":             {personnel.NameSchema, func() asn1codec.Marshaler { return personnel.Default().Name }},
	"EmployeeNumber":   {personnel.EmployeeNumber, func() asn1codec.Marshaler { return integer(personnel.DefaultEmployeeNumber) }},
	"AS-REP":           {kerberos.AsRepSchema, func() asn1codec.Marshaler { return kerberos.Example() }},
	"Ticket":           {kerberos.TicketSchema, func() asn1codec.Marshaler { return kerberos.Example().Ticket }},
	"PrincipalName":    {kerberos.PrincipalNameSchema, func() asn1codec.Marshaler { return kerberos.Example().CName }},
}

type integer int64

func (i integer) MarshalValue() (asn1codec.Value, error) {
	return asn1codec.NewInteger(int64(i)), nil
}

// lookup returns the builtin type with the given name. Names are matched case
// insensitively.
func lookup(name string) (string, builtin, error) {
	for n, b := range builtins {
		if strings.EqualFold(n, name) {
			return n, b, nil
		}
	}
	return "", builtin{}, merry.Errorf("unknown type %q, see the types command", name)
}

// cmdTypes handles the types command.
func cmdTypes(w io.Writer) error {
	for _, name := range slices.Sorted(maps.Keys(builtins)) {
		fmt.Fprintf(w, "%-18s %v\n", name, builtins[name].schema.Tags())
	}
	return nil
}

// cmdEncode handles the encode command.
func cmdEncode(w io.Writer, cfg *config, c *codec.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("type required (see the types command)")
	}
	name, b, err := lookup(args[0])
	if err != nil {
		return err
	}
	_, mode, err := cfg.modes()
	if err != nil {
		return err
	}
	data, err := c.Marshal(mode, b.example(), b.schema)
	if err != nil {
		return merry.Prependf(err, "encode %s as %v", name, mode)
	}
	return output(w, data)
}

// cmdDecode handles the decode command.
func cmdDecode(w io.Writer, cfg *config, c *codec.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("type required (see the types command)")
	}
	name, b, err := lookup(args[0])
	if err != nil {
		return err
	}
	data, err := input(args[1:])
	if err != nil {
		return err
	}
	mode, _, err := cfg.modes()
	if err != nil {
		return err
	}
	v, err := c.Decode(mode, data, b.schema)
	if err != nil {
		return merry.Prependf(err, "decode %s as %v", name, mode)
	}
	return printValue(w, v, b.schema)
}

// cmdTranscode handles the transcode command.
func cmdTranscode(w io.Writer, cfg *config, c *codec.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("type required (see the types command)")
	}
	name, b, err := lookup(args[0])
	if err != nil {
		return err
	}
	data, err := input(args[1:])
	if err != nil {
		return err
	}
	from, to, err := cfg.modes()
	if err != nil {
		return err
	}
	v, err := c.Decode(from, data, b.schema)
	if err != nil {
		return merry.Prependf(err, "decode %s as %v", name, from)
	}
	if data, err = c.Encode(to, v, b.schema); err != nil {
		return merry.Prependf(err, "encode %s as %v", name, to)
	}
	return output(w, data)
}

// cmdDump handles the dump command.
func cmdDump(w io.Writer, args []string) error {
	data, err := input(args)
	if err != nil {
		return err
	}
	d := tlv.NewDecoder(data)
	for {
		depth := d.StackDepth()
		h, contents, err := d.ReadHeader()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return merry.Wrap(err)
		}
		if h.IsEndOfContents() {
			continue
		}
		fmt.Fprintf(w, "%s%v", strings.Repeat("  ", depth), h)
		if !h.Constructed {
			fmt.Fprintf(w, " % X", contents)
		}
		fmt.Fprintln(w)
	}
}

// input returns the binary input of a command. It is read from the file
// given by the --in flag or else decoded from the hex arguments.
func input(args []string) ([]byte, error) {
	if flags.input != "" {
		b, err := os.ReadFile(flags.input)
		return b, merry.Prependf(err, "read input")
	}
	if len(args) == 0 {
		return nil, errors.New("hex input or --in required")
	}
	b, err := hex.DecodeString(strings.Join(strings.Fields(strings.Join(args, "")), ""))
	if err != nil {
		return nil, merry.Prependf(err, "parse hex input")
	}
	return b, nil
}

// output writes data to the file given by the --out flag or as hex to w.
func output(w io.Writer, data []byte) error {
	if flags.outfile != "" {
		return merry.Prependf(os.WriteFile(flags.outfile, data, 0o644), "write output")
	}
	_, err := fmt.Fprintf(w, "%X\n", data)
	return err
}
