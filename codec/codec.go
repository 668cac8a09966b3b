// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codec provides a single entry point to all encoding rules
// implemented by this module. A [Mode] selects BER, CER, DER or one of the
// variants of PER:
//
//	b, err := codec.Encode(codec.UPER, v, s)
//	v, err := codec.Decode(codec.UPER, b, s)
//
// The package level functions use the default configuration. Use a [Config]
// to change limits, strictness or logging.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"codello.dev/asn1codec"
	"codello.dev/asn1codec/ber"
	"codello.dev/asn1codec/per"
	"codello.dev/asn1codec/schema"
)

// Mode selects a set of encoding rules.
//
//go:generate stringer -type=Mode
type Mode uint8

const (
	BER  Mode = iota // Basic Encoding Rules
	CER              // Canonical Encoding Rules
	DER              // Distinguished Encoding Rules
	APER             // BASIC-PER, ALIGNED variant
	UPER             // BASIC-PER, UNALIGNED variant
)

// Modes lists all modes.
var Modes = []Mode{BER, CER, DER, APER, UPER}

// ErrUnknownMode indicates that a mode is not supported.
var ErrUnknownMode = errors.New("unknown encoding mode")

// ParseMode returns the mode with the given name. Names are matched case
// insensitively.
func ParseMode(name string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(name, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// Config holds the options shared by all encoding rules. The zero value is
// the default configuration. A Config may be used concurrently.
type Config struct {
	// MaxDepth limits the nesting of values. Zero means 64.
	MaxDepth int

	// MaxElements limits the number of PER encoded items that occupy no bits,
	// such as the elements of a SEQUENCE OF a single-valued INTEGER. Zero means
	// per.DefaultMaxElements.
	MaxElements int

	// AllowTrailingData permits unused data after the top-level value when
	// decoding.
	AllowTrailingData bool

	// EncodeDefaults keeps DEFAULT fields equal to their default value under
	// BER. The canonical rules and PER ignore this option.
	EncodeDefaults bool

	// Logger receives trace events of the engines. If nil, nothing is logged.
	Logger *zerolog.Logger
}

var defaultConfig Config

// Encode returns the encoding of v according to s using mode.
func (c *Config) Encode(mode Mode, v asn1codec.Value, s *schema.Schema) ([]byte, error) {
	switch mode {
	case BER, CER, DER:
		enc := &ber.Encoder{Rules: berRules(mode), EncodeDefaults: c.EncodeDefaults, MaxDepth: c.MaxDepth, Logger: c.Logger}
		return enc.Encode(v, s)
	case APER, UPER:
		enc := &per.Encoder{Variant: perVariant(mode), MaxDepth: c.MaxDepth, Logger: c.Logger}
		return enc.Encode(v, s)
	}
	return nil, &asn1codec.EncodeError{Kind: asn1codec.InvalidSchema, Err: fmt.Errorf("%w: %v", ErrUnknownMode, mode)}
}

// Decode parses data according to s using mode.
func (c *Config) Decode(mode Mode, data []byte, s *schema.Schema) (asn1codec.Value, error) {
	switch mode {
	case BER, CER, DER:
		dec := &ber.Decoder{Rules: berRules(mode), AllowTrailingData: c.AllowTrailingData, MaxDepth: c.MaxDepth, Logger: c.Logger}
		return dec.Decode(data, s)
	case APER, UPER:
		dec := &per.Decoder{
			Variant:           perVariant(mode),
			AllowTrailingData: c.AllowTrailingData,
			MaxDepth:          c.MaxDepth,
			MaxElements:       c.MaxElements,
			Logger:            c.Logger,
		}
		return dec.Decode(data, s)
	}
	return nil, &asn1codec.DecodeError{Kind: asn1codec.InvalidSchema, Err: fmt.Errorf("%w: %v", ErrUnknownMode, mode)}
}

// Marshal converts m into a value and encodes it according to s.
func (c *Config) Marshal(mode Mode, m asn1codec.Marshaler, s *schema.Schema) ([]byte, error) {
	v, err := m.MarshalValue()
	if err != nil {
		return nil, &asn1codec.EncodeError{Kind: asn1codec.InvalidValue, Path: typeName(s), Err: err}
	}
	return c.Encode(mode, v, s)
}

// Unmarshal decodes data according to s and stores the result in u.
func (c *Config) Unmarshal(mode Mode, data []byte, s *schema.Schema, u asn1codec.Unmarshaler) error {
	v, err := c.Decode(mode, data, s)
	if err != nil {
		return err
	}
	if err = u.UnmarshalValue(v); err != nil {
		return &asn1codec.DecodeError{Kind: asn1codec.InvalidValue, Path: typeName(s), Err: err}
	}
	return nil
}

// Encode returns the encoding of v according to s using mode and the default
// configuration.
func Encode(mode Mode, v asn1codec.Value, s *schema.Schema) ([]byte, error) {
	return defaultConfig.Encode(mode, v, s)
}

// Decode parses data according to s using mode and the default
// configuration.
func Decode(mode Mode, data []byte, s *schema.Schema) (asn1codec.Value, error) {
	return defaultConfig.Decode(mode, data, s)
}

// Marshal is like [Encode] but takes a Go value that converts itself.
func Marshal(mode Mode, m asn1codec.Marshaler, s *schema.Schema) ([]byte, error) {
	return defaultConfig.Marshal(mode, m, s)
}

// Unmarshal is like [Decode] but stores the result in u.
func Unmarshal(mode Mode, data []byte, s *schema.Schema, u asn1codec.Unmarshaler) error {
	return defaultConfig.Unmarshal(mode, data, s, u)
}

func berRules(m Mode) ber.Rules {
	switch m {
	case CER:
		return ber.CER
	case DER:
		return ber.DER
	}
	return ber.BER
}

func perVariant(m Mode) per.Variant {
	if m == UPER {
		return per.Unaligned
	}
	return per.Aligned
}

func typeName(s *schema.Schema) string {
	if s == nil {
		return ""
	}
	return s.TypeName()
}
