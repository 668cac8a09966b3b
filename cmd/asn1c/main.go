// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command asn1c encodes, decodes and transcodes the ASN.1 types built into
// this module using BER, CER, DER and both variants of PER.
package main

import (
	"fmt"
	"os"

	"github.com/ansel1/merry"
	"github.com/mjwhitta/cli"
)

// Version info
var version = "0.1.0"

// Exit codes
const (
	ExitSuccess = iota
	ExitError
	ExitMissingArg
)

// Global flags
var flags struct {
	config   string
	mode     string
	from     string
	to       string
	input    string
	outfile  string
	maxDepth int
	trailing bool
	defaults bool
	logLevel string
	verbose  bool
	version  bool
}

// Command to run
var command string
var cmdArgs []string

func parseFlags() {
	// Configure cli
	cli.Align = true
	cli.Authors = []string{"Kim Wittenburg"}
	cli.Banner = fmt.Sprintf("%s [OPTIONS] <command> [args...]", os.Args[0])
	cli.Info(
		"asn1c - schema-driven ASN.1 codec",
		"",
		"Encodes the built-in example values and decodes hex input",
		"using BER, CER, DER, APER or UPER.",
	)
	cli.ExitStatus(
		"0 - Success",
		"1 - Error",
		"2 - Missing argument",
	)

	// Define flags (short, long, default, description)
	cli.Flag(&flags.config, "c", "config", "", "YAML config file")
	cli.Flag(&flags.mode, "m", "mode", "", "Encoding rules (BER, CER, DER, APER, UPER)")
	cli.Flag(&flags.from, "f", "from", "", "Input encoding rules for transcode")
	cli.Flag(&flags.to, "t", "to", "", "Output encoding rules for transcode")
	cli.Flag(&flags.input, "i", "in", "", "Read binary input from file")
	cli.Flag(&flags.outfile, "o", "out", "", "Write binary output to file")
	cli.Flag(&flags.maxDepth, "d", "depth", 0, "Maximum nesting depth")
	cli.Flag(&flags.trailing, "a", "allow-trailing", false, "Accept data after the top-level value")
	cli.Flag(&flags.defaults, "e", "encode-defaults", false, "Encode DEFAULT values under BER")
	cli.Flag(&flags.logLevel, "l", "log-level", "", "Log level (trace, debug, info, ...)")
	cli.Flag(&flags.verbose, "v", "verbose", false, "Show error details")
	cli.Flag(&flags.version, "V", "version", false, "Show version")

	// Commands section
	cli.Section("Commands",
		"  types      List built-in types\n",
		"  encode     Encode the example value of a type\n",
		"  decode     Decode hex input as a type\n",
		"  transcode  Convert an encoding between rules\n",
		"  dump       Print the TLV structure of BER input",
	)

	cli.Parse()

	if flags.version {
		fmt.Println(version)
		os.Exit(ExitSuccess)
	}

	// Get command from args
	if cli.NArg() == 0 {
		cli.Usage(ExitMissingArg)
	}

	command = cli.Arg(0)
	if cli.NArg() > 1 {
		cmdArgs = cli.Args()[1:]
	}
}

func main() {
	parseFlags()

	cfg, err := loadConfig(flags.config)
	if err == nil {
		cfg.override()
		err = run(cfg)
	}

	if err != nil {
		if flags.verbose {
			fmt.Fprintf(os.Stderr, "Error: %s\n", merry.Details(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(ExitError)
	}
}

func run(cfg *config) error {
	log, err := cfg.logger(os.Stderr)
	if err != nil {
		return err
	}
	c := cfg.codecConfig(&log)

	switch command {
	case "types":
		return cmdTypes(os.Stdout)
	case "encode":
		return cmdEncode(os.Stdout, cfg, c, cmdArgs)
	case "decode":
		return cmdDecode(os.Stdout, cfg, c, cmdArgs)
	case "transcode":
		return cmdTranscode(os.Stdout, cfg, c, cmdArgs)
	case "dump":
		return cmdDump(os.Stdout, cmdArgs)
	case "help":
		cli.Usage(ExitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		cli.Usage(ExitError)
	}
	return nil
}
