// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command rpslpolicy parses an IRR database into a persisted policy dump
// and evaluates BGP routes observed in an MRT table dump against it.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	rpslerrors "github.com/SichangHe/parse-rpsl-policy/internal/errors"
	"github.com/SichangHe/parse-rpsl-policy/internal/querydump"
	"github.com/SichangHe/parse-rpsl-policy/internal/rpsl"
	"github.com/SichangHe/parse-rpsl-policy/internal/serialize"
)

func main() {
	flag.Parse()
	configureLogging()

	args := flag.Args()
	if len(args) == 0 {
		log.SetOutput(os.Stderr)
		log.Fatal("Usage: rpslpolicy <parse|read> ...")
	}

	var err error
	switch args[0] {
	case "parse":
		err = parse(args)
	case "read":
		err = read(args)
	default:
		log.SetOutput(os.Stderr)
		log.Fatalf("Unknown command: %s", args[0])
	}
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("%v", err)
	}
}

// configureLogging gates verbose output on RPSLPOLICY_LOG, the standard
// environment-variable convention for a plain stdlib-log setup: no level
// beyond on/off.
func configureLogging() {
	if os.Getenv("RPSLPOLICY_LOG") == "" {
		log.SetOutput(io.Discard)
	}
}

// RPSLParser is the external collaborator spec §1/§6 calls for: the core
// consumes a populated rpsl.Dump and does not care how it was produced.
// This command's job is to invoke one and persist its output, not to
// implement RPSL grammar.
type RPSLParser interface {
	Parse(r io.Reader) (*rpsl.Dump, error)
}

func parse(args []string) error {
	if len(args) < 3 {
		return rpslerrors.New(rpslerrors.KindValidation, "usage: rpslpolicy parse <input-file> <output-dir>")
	}
	inputFile, outputDir := args[1], args[2]

	log.Printf("Will read from %s.", inputFile)
	f, err := os.Open(inputFile)
	if err != nil {
		return rpslerrors.Wrapf(err, rpslerrors.KindNotFound, "opening %s", inputFile)
	}
	defer f.Close()

	// IRR databases are conventionally Latin-1 (spec §6); decode to UTF-8
	// before handing the bytes to the parser so it never has to know.
	reader := transform.NewReader(f, charmap.ISO8859_1.NewDecoder())

	dump, err := defaultParser().Parse(reader)
	if err != nil {
		return rpslerrors.Wrapf(err, rpslerrors.KindMalformedDump, "parsing %s", inputFile)
	}
	log.Printf("Parsed %d aut-nums, %d as-sets, %d route-sets.", len(dump.AutNums), len(dump.AsSets), len(dump.RouteSets))

	log.Printf("Will dump to %s.", outputDir)
	if err := serialize.Save(outputDir, dump); err != nil {
		return rpslerrors.Wrap(err, rpslerrors.KindUnavailable, "writing parsed dump")
	}
	log.Print("Wrote the parsed dump.")
	return nil
}

func read(args []string) error {
	if len(args) < 2 {
		return rpslerrors.New(rpslerrors.KindValidation, "usage: rpslpolicy read <input-dir>")
	}
	inputDir := args[1]

	log.Printf("Will read from %s.", inputDir)
	dump, err := serialize.Load(inputDir)
	if err != nil {
		return rpslerrors.Wrapf(err, rpslerrors.KindUnavailable, "reading %s", inputDir)
	}
	log.Printf("Loaded %d aut-nums, %d as-sets, %d as-routes.", len(dump.AutNums), len(dump.AsSets), len(dump.AsRoutes))

	qd, err := querydump.Build(dump)
	if err != nil {
		return rpslerrors.Wrap(err, rpslerrors.KindInternal, "building query dump")
	}

	var recorded, unrecorded int
	for _, asr := range qd.AsSetRoutes {
		recorded += len(asr.Routes)
		unrecorded += len(asr.UnrecordedNums) + len(asr.SetMembers)
	}
	fmt.Printf("as_set_routes: %d recorded routes, %d unrecorded references across %d as-sets\n",
		recorded, unrecorded, len(qd.AsSetRoutes))
	return nil
}

// defaultParser returns the RPSLParser this binary is wired to. No RPSL
// lexer/grammar ships with this module (spec §1 scopes it out); a real
// deployment plugs one in here.
func defaultParser() RPSLParser {
	return unimplementedParser{}
}

type unimplementedParser struct{}

func (unimplementedParser) Parse(io.Reader) (*rpsl.Dump, error) {
	return nil, fmt.Errorf("no RPSL parser wired into this build; implement RPSLParser and swap defaultParser")
}
