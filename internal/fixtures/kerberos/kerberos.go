// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kerberos defines the schemas of the Kerberos V5 messages needed to
// decode an AS-REP or TGS-REP as specified in [RFC 4120], together with Go
// types that convert themselves to and from values of these schemas.
//
// The module uses EXPLICIT TAGS: every context-specific tag of a field adds a
// constructed wrapper.
//
// [RFC 4120]: https://www.rfc-editor.org/rfc/rfc4120#section-5
package kerberos

import (
	"errors"
	"fmt"
	"math"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/schema"
)

// Message types of the KDC replies.
const (
	MsgTypeAsRep  = 11
	MsgTypeTgsRep = 13
)

// ProtocolVersion is the only valid value of the pvno and tkt-vno fields.
const ProtocolVersion = 5

var (
	// Int32 ::= INTEGER (-2147483648..2147483647)
	Int32 = schema.Delegate("Int32", schema.Integer().WithRange(schema.Between[int64](math.MinInt32, math.MaxInt32)))

	// UInt32 ::= INTEGER (0..4294967295)
	UInt32 = schema.Delegate("UInt32", schema.Integer().WithRange(schema.Between[int64](0, math.MaxUint32)))

	// KerberosString ::= GeneralString (IA5String)
	KerberosString = schema.Delegate("KerberosString", schema.GeneralString())

	PrincipalNameSchema = schema.Sequence("PrincipalName",
		schema.NewField("name-type", Int32, "explicit,tag:0"),
		schema.NewField("name-string", schema.SequenceOf(KerberosString), "explicit,tag:1"),
	)

	PaDataSchema = schema.Sequence("PA-DATA",
		schema.NewField("padata-type", Int32, "explicit,tag:1"),
		schema.NewField("padata-value", schema.OctetString(), "explicit,tag:2"),
	)

	EncryptedDataSchema = schema.Sequence("EncryptedData",
		schema.NewField("etype", Int32, "explicit,tag:0"),
		schema.NewField("kvno", UInt32, "explicit,tag:1,optional"),
		schema.NewField("cipher", schema.OctetString(), "explicit,tag:2"),
	)

	TicketSchema = schema.Sequence("Ticket",
		schema.NewField("tkt-vno", schema.Integer().WithRange(schema.Exactly(ProtocolVersion)), "explicit,tag:0"),
		schema.NewField("realm", KerberosString, "explicit,tag:1"),
		schema.NewField("sname", PrincipalNameSchema, "explicit,tag:2"),
		schema.NewField("enc-part", EncryptedDataSchema, "explicit,tag:3"),
	).Tagged("explicit,application,tag:1")

	KdcRepSchema = schema.Sequence("KDC-REP",
		schema.NewField("pvno", schema.Integer().WithRange(schema.Exactly(ProtocolVersion)), "explicit,tag:0"),
		schema.NewField("msg-type", schema.Integer().WithRange(schema.Between(MsgTypeAsRep, MsgTypeTgsRep)), "explicit,tag:1"),
		schema.NewField("padata", schema.SequenceOf(PaDataSchema), "explicit,tag:2,optional"),
		schema.NewField("crealm", KerberosString, "explicit,tag:3"),
		schema.NewField("cname", PrincipalNameSchema, "explicit,tag:4"),
		schema.NewField("ticket", TicketSchema, "explicit,tag:5"),
		schema.NewField("enc-part", EncryptedDataSchema, "explicit,tag:6"),
	)

	AsRepSchema  = schema.Delegate("AS-REP", KdcRepSchema).Tagged("explicit,application,tag:11")
	TgsRepSchema = schema.Delegate("TGS-REP", KdcRepSchema).Tagged("explicit,application,tag:13")
)

//region Go Types

// PrincipalName is a Go representation of a value of [PrincipalNameSchema].
type PrincipalName struct {
	NameType   int32
	NameString []string
}

func (p PrincipalName) MarshalValue() (asn1codec.Value, error) {
	names := make(asn1codec.List, len(p.NameString))
	for i, s := range p.NameString {
		names[i] = asn1codec.GeneralString(s)
	}
	return asn1codec.Struct{asn1codec.NewInteger(int64(p.NameType)), names}, nil
}

func (p *PrincipalName) UnmarshalValue(v asn1codec.Value) error {
	fields, err := structOf(v, 2)
	if err != nil {
		return err
	}
	if p.NameType, err = int32Of(fields[0]); err != nil {
		return fmt.Errorf("name-type: %w", err)
	}
	names, err := asn1codec.As[asn1codec.List](fields[1])
	if err != nil {
		return fmt.Errorf("name-string: %w", err)
	}
	p.NameString = make([]string, len(names))
	for i, n := range names {
		if p.NameString[i], err = stringOf(n); err != nil {
			return fmt.Errorf("name-string[%d]: %w", i, err)
		}
	}
	return nil
}

// PaData is a Go representation of a value of [PaDataSchema].
type PaData struct {
	Type  int32
	Value []byte
}

func (p PaData) MarshalValue() (asn1codec.Value, error) {
	return asn1codec.Struct{asn1codec.NewInteger(int64(p.Type)), asn1codec.OctetString(p.Value)}, nil
}

func (p *PaData) UnmarshalValue(v asn1codec.Value) error {
	fields, err := structOf(v, 2)
	if err != nil {
		return err
	}
	if p.Type, err = int32Of(fields[0]); err != nil {
		return fmt.Errorf("padata-type: %w", err)
	}
	value, err := asn1codec.As[asn1codec.OctetString](fields[1])
	if err != nil {
		return fmt.Errorf("padata-value: %w", err)
	}
	p.Value = value
	return nil
}

// EncryptedData is a Go representation of a value of [EncryptedDataSchema].
// A nil KVNO indicates an absent key version number.
type EncryptedData struct {
	EType  int32
	KVNO   *uint32
	Cipher []byte
}

func (e EncryptedData) MarshalValue() (asn1codec.Value, error) {
	var kvno asn1codec.Value
	if e.KVNO != nil {
		kvno = asn1codec.NewInteger(int64(*e.KVNO))
	}
	return asn1codec.Struct{asn1codec.NewInteger(int64(e.EType)), kvno, asn1codec.OctetString(e.Cipher)}, nil
}

func (e *EncryptedData) UnmarshalValue(v asn1codec.Value) error {
	fields, err := structOf(v, 3)
	if err != nil {
		return err
	}
	if e.EType, err = int32Of(fields[0]); err != nil {
		return fmt.Errorf("etype: %w", err)
	}
	e.KVNO = nil
	if !asn1codec.IsAbsent(fields[1]) {
		i, err := asn1codec.As[*asn1codec.Integer](fields[1])
		if err != nil {
			return fmt.Errorf("kvno: %w", err)
		}
		if !i.IsUint64() || i.Uint64() > math.MaxUint32 {
			return fmt.Errorf("kvno: %v out of range", i)
		}
		kvno := uint32(i.Uint64())
		e.KVNO = &kvno
	}
	cipher, err := asn1codec.As[asn1codec.OctetString](fields[2])
	if err != nil {
		return fmt.Errorf("cipher: %w", err)
	}
	e.Cipher = cipher
	return nil
}

// Ticket is a Go representation of a value of [TicketSchema].
type Ticket struct {
	TktVNO  int
	Realm   string
	SName   PrincipalName
	EncPart EncryptedData
}

func (t Ticket) MarshalValue() (asn1codec.Value, error) {
	sname, err := t.SName.MarshalValue()
	if err != nil {
		return nil, fmt.Errorf("sname: %w", err)
	}
	encPart, err := t.EncPart.MarshalValue()
	if err != nil {
		return nil, fmt.Errorf("enc-part: %w", err)
	}
	return asn1codec.Struct{
		asn1codec.NewInteger(int64(t.TktVNO)),
		asn1codec.GeneralString(t.Realm),
		sname,
		encPart,
	}, nil
}

func (t *Ticket) UnmarshalValue(v asn1codec.Value) error {
	fields, err := structOf(v, 4)
	if err != nil {
		return err
	}
	vno, err := int32Of(fields[0])
	if err != nil {
		return fmt.Errorf("tkt-vno: %w", err)
	}
	t.TktVNO = int(vno)
	if t.Realm, err = stringOf(fields[1]); err != nil {
		return fmt.Errorf("realm: %w", err)
	}
	if err = t.SName.UnmarshalValue(fields[2]); err != nil {
		return fmt.Errorf("sname: %w", err)
	}
	if err = t.EncPart.UnmarshalValue(fields[3]); err != nil {
		return fmt.Errorf("enc-part: %w", err)
	}
	return nil
}

// KdcRep holds the fields shared by [AsRep] and [TgsRep] as described by
// [KdcRepSchema]. A nil PaData indicates an absent padata field.
type KdcRep struct {
	PVNO    int
	MsgType int
	PaData  []PaData
	CRealm  string
	CName   PrincipalName
	Ticket  Ticket
	EncPart EncryptedData
}

func (k KdcRep) MarshalValue() (asn1codec.Value, error) {
	var padata asn1codec.Value
	if k.PaData != nil {
		list := make(asn1codec.List, len(k.PaData))
		for i, p := range k.PaData {
			var err error
			if list[i], err = p.MarshalValue(); err != nil {
				return nil, fmt.Errorf("padata[%d]: %w", i, err)
			}
		}
		padata = list
	}
	cname, err := k.CName.MarshalValue()
	if err != nil {
		return nil, fmt.Errorf("cname: %w", err)
	}
	ticket, err := k.Ticket.MarshalValue()
	if err != nil {
		return nil, fmt.Errorf("ticket: %w", err)
	}
	encPart, err := k.EncPart.MarshalValue()
	if err != nil {
		return nil, fmt.Errorf("enc-part: %w", err)
	}
	return asn1codec.Struct{
		asn1codec.NewInteger(int64(k.PVNO)),
		asn1codec.NewInteger(int64(k.MsgType)),
		padata,
		asn1codec.GeneralString(k.CRealm),
		cname,
		ticket,
		encPart,
	}, nil
}

func (k *KdcRep) UnmarshalValue(v asn1codec.Value) error {
	fields, err := structOf(v, 7)
	if err != nil {
		return err
	}
	pvno, err := int32Of(fields[0])
	if err != nil {
		return fmt.Errorf("pvno: %w", err)
	}
	msgType, err := int32Of(fields[1])
	if err != nil {
		return fmt.Errorf("msg-type: %w", err)
	}
	k.PVNO, k.MsgType = int(pvno), int(msgType)
	k.PaData = nil
	if !asn1codec.IsAbsent(fields[2]) {
		list, err := asn1codec.As[asn1codec.List](fields[2])
		if err != nil {
			return fmt.Errorf("padata: %w", err)
		}
		k.PaData = make([]PaData, len(list))
		for i, p := range list {
			if err = k.PaData[i].UnmarshalValue(p); err != nil {
				return fmt.Errorf("padata[%d]: %w", i, err)
			}
		}
	}
	if k.CRealm, err = stringOf(fields[3]); err != nil {
		return fmt.Errorf("crealm: %w", err)
	}
	if err = k.CName.UnmarshalValue(fields[4]); err != nil {
		return fmt.Errorf("cname: %w", err)
	}
	if err = k.Ticket.UnmarshalValue(fields[5]); err != nil {
		return fmt.Errorf("ticket: %w", err)
	}
	if err = k.EncPart.UnmarshalValue(fields[6]); err != nil {
		return fmt.Errorf("enc-part: %w", err)
	}
	return nil
}

// AsRep is a Go representation of a value of [AsRepSchema].
type AsRep struct {
	KdcRep
}

func (a *AsRep) UnmarshalValue(v asn1codec.Value) error {
	if err := a.KdcRep.UnmarshalValue(v); err != nil {
		return err
	}
	if a.MsgType != MsgTypeAsRep {
		return fmt.Errorf("msg-type %d is not an AS-REP", a.MsgType)
	}
	return nil
}

// TgsRep is a Go representation of a value of [TgsRepSchema].
type TgsRep struct {
	KdcRep
}

func (t *TgsRep) UnmarshalValue(v asn1codec.Value) error {
	if err := t.KdcRep.UnmarshalValue(v); err != nil {
		return err
	}
	if t.MsgType != MsgTypeTgsRep {
		return fmt.Errorf("msg-type %d is not a TGS-REP", t.MsgType)
	}
	return nil
}

//endregion

// Example returns the sample AS-REP of user@COMPANY.INT used throughout the
// tests of this module.
func Example() *AsRep {
	ticketKVNO, replyKVNO := uint32(2), uint32(13)
	cipher := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	return &AsRep{KdcRep{
		PVNO:    ProtocolVersion,
		MsgType: MsgTypeAsRep,
		PaData: []PaData{{
			Type: 19,
			Value: []byte{
				0x30, 0x1D, 0x30, 0x1B, 0xA0, 0x03, 0x02, 0x01, 0x12, 0xA1, 0x14, 0x1B, 0x12, 0x43,
				0x4F, 0x4D, 0x50, 0x41, 0x4E, 0x59, 0x2E, 0x49, 0x4E, 0x54, 0x75, 0x73, 0x65, 0x72,
			},
		}},
		CRealm: "COMPANY.INT",
		CName:  PrincipalName{NameType: 1, NameString: []string{"user"}},
		Ticket: Ticket{
			TktVNO:  ProtocolVersion,
			Realm:   "COMPANY.INT",
			SName:   PrincipalName{NameType: 2, NameString: []string{"krbtgt", "COMPANY.INT"}},
			EncPart: EncryptedData{EType: 18, KVNO: &ticketKVNO, Cipher: cipher},
		},
		EncPart: EncryptedData{EType: 18, KVNO: &replyKVNO, Cipher: cipher},
	}}
}

//region Helpers

var errFieldCount = errors.New("unexpected number of fields")

func structOf(v asn1codec.Value, n int) (asn1codec.Struct, error) {
	fields, err := asn1codec.As[asn1codec.Struct](v)
	if err == nil && len(fields) != n {
		err = fmt.Errorf("%w: got %d, want %d", errFieldCount, len(fields), n)
	}
	return fields, err
}

func int32Of(v asn1codec.Value) (int32, error) {
	i, err := asn1codec.As[*asn1codec.Integer](v)
	if err != nil {
		return 0, err
	}
	if !i.IsInt64() || i.Int64() < math.MinInt32 || i.Int64() > math.MaxInt32 {
		return 0, fmt.Errorf("%v out of range", i)
	}
	return int32(i.Int64()), nil
}

func stringOf(v asn1codec.Value) (string, error) {
	s, err := asn1codec.As[asn1codec.GeneralString](v)
	return string(s), err
}

//endregion
