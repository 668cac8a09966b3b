// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/ansel1/merry"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"codello.dev/asn1codec/codec"
)

// config holds the settings of a run. Values are read from an optional YAML
// file first and then overridden by command line flags.
type config struct {
	Mode              string `yaml:"mode"`
	From              string `yaml:"from"`
	To                string `yaml:"to"`
	MaxDepth          int    `yaml:"maxDepth"`
	AllowTrailingData bool   `yaml:"allowTrailingData"`
	EncodeDefaults    bool   `yaml:"encodeDefaults"`
	LogLevel          string `yaml:"logLevel"`
}

func defaultConfig() *config {
	return &config{Mode: codec.DER.String(), LogLevel: zerolog.LevelWarnValue}
}

// loadConfig reads the config file at path. An empty path yields the default
// configuration.
func loadConfig(path string) (*config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, merry.Prependf(err, "read config %s", path)
	}
	if err = parseConfig(b, cfg); err != nil {
		return nil, merry.Prependf(err, "config %s", path)
	}
	return cfg, nil
}

// parseConfig decodes the YAML document b into cfg. Unknown keys are an
// error.
func parseConfig(b []byte, cfg *config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return merry.Wrap(err)
	}
	if _, _, err := cfg.modes(); err != nil {
		return err
	}
	if cfg.MaxDepth < 0 {
		return merry.Errorf("maxDepth must not be negative, got %d", cfg.MaxDepth)
	}
	return nil
}

// override applies the command line flags that have been set.
func (c *config) override() {
	if flags.mode != "" {
		c.Mode = flags.mode
	}
	if flags.from != "" {
		c.From = flags.from
	}
	if flags.to != "" {
		c.To = flags.to
	}
	if flags.maxDepth != 0 {
		c.MaxDepth = flags.maxDepth
	}
	c.AllowTrailingData = c.AllowTrailingData || flags.trailing
	c.EncodeDefaults = c.EncodeDefaults || flags.defaults
	if flags.logLevel != "" {
		c.LogLevel = flags.logLevel
	}
}

// modes returns the input and output modes. Both fall back to Mode.
func (c *config) modes() (from, to codec.Mode, err error) {
	parse := func(name string) (codec.Mode, error) {
		if name == "" {
			name = c.Mode
		}
		m, err := codec.ParseMode(name)
		return m, merry.Wrap(err)
	}
	if from, err = parse(c.From); err != nil {
		return from, to, err
	}
	to, err = parse(c.To)
	return from, to, err
}

// logger returns a console logger writing to w at the configured level.
func (c *config) logger(w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.Nop(), merry.Prependf(err, "log level")
	}
	if c.LogLevel == "" {
		lvl = zerolog.WarnLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func (c *config) codecConfig(log *zerolog.Logger) *codec.Config {
	return &codec.Config{
		MaxDepth:          c.MaxDepth,
		AllowTrailingData: c.AllowTrailingData,
		EncodeDefaults:    c.EncodeDefaults,
		Logger:            log,
	}
}
