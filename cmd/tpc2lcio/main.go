// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tpc2lcio converts a TPC raw data file to an LCIO one.
package main // import "github.com/go-lpc/pdsp/cmd/tpc2lcio"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/pdsp"
	"github.com/go-lpc/pdsp/internal/mmap"
	"github.com/go-lpc/pdsp/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

var (
	msg = log.New(os.Stdout, "tpc2lcio: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("tpc2lcio", flag.ExitOnError)

		oname = fset.String("o", "out.lcio", "path to output LCIO file")
		compr = fset.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		run   = fset.Int("run", -1, "run number (default: inferred from the input file name)")
		freq  = fset.Int("freq", 100, "frequency of progress messages, in streams")
		vers  = fset.Bool("version", false, "display version and exit")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: tpc2lcio [OPTIONS] file.raw

ex:
 $> tpc2lcio -o out.lcio -lvl=9 ./run_004242.raw
 $> tpc2lcio -o out.lcio -run=42 ./input.raw

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}

	if *vers {
		msg.Print(pdsp.VersionString())
		return
	}

	if fset.NArg() != 1 {
		fset.Usage()
		msg.Fatalf("missing input TPC raw file")
	}

	if *oname == "" {
		fset.Usage()
		msg.Fatalf("invalid output LCIO file name")
	}

	err = process(*oname, *compr, *run, *freq, fset.Arg(0))
	if err != nil {
		msg.Fatalf("could not convert TPC file: %+v", err)
	}
}

func process(oname string, lvl, run, freq int, fname string) error {
	if run < 0 {
		v, err := runNbrFrom(fname)
		if err != nil {
			return fmt.Errorf("could not infer run from %q: %w", fname, err)
		}
		run = int(v)
	}

	f, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open TPC file: %w", err)
	}
	defer f.Close()

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	err = xcnv.TPC2LCIO(w, f.Bytes(), int32(run), freq, msg)
	if err != nil {
		return fmt.Errorf("could not convert TPC to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return nil
}

func runNbrFrom(fname string) (int32, error) {
	var (
		name = filepath.Base(fname)
		run  int32
	)
	_, err := fmt.Sscanf(name, "run_%d", &run)
	return run, err
}
