// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// penn-dump decodes and displays PENN trigger board micro-slices.
//
// Usage: penn-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//  $> penn-dump -split=0x100000040 -overlap=0x60 ./penn.raw
//  === micro-slice[0000] Header{size=80, seq=0, version=1} ===
//  payloads: 7
//    Payload{id=0, off=4, type=Counter, ts=0xfffff00, body=000000000000000000000000}
//    Payload{id=1, off=20, type=Trigger, ts=0x0000010, body=01000000}
//  [...]
//  split:   boundary=0x100000040 overlap=0x60 anchor=0x100000100 checksum=0xcafe
//    before:  Counts{counter=1, trigger=1, checksum=0, warning=1, timestamp=0, payloads=3, bytes=32}
//    overlap: Counts{counter=0, trigger=1, checksum=0, warning=0, timestamp=0, payloads=1, bytes=8}
//    after:   Counts{counter=1, trigger=1, checksum=1, warning=0, timestamp=1, payloads=4, bytes=44}
//    offsets: split=36 overlap=44
package main // import "github.com/go-lpc/pdsp/cmd/penn-dump"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-lpc/pdsp"
	"github.com/go-lpc/pdsp/internal/mmap"
	"github.com/go-lpc/pdsp/penn"
)

const usage = `penn-dump decodes and displays PENN trigger board micro-slices.

Usage: penn-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> penn-dump ./penn.raw
 $> penn-dump -q -split=0x100000040 -overlap=0x60 ./penn.raw

options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

type options struct {
	quiet    bool   // do not display individual payloads
	split    bool   // split micro-slices at boundary
	boundary uint64 // split time boundary
	overlap  uint64 // overlap window following the boundary

	msg tlog.MsgStream
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("penn-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("penn-dump", flag.ExitOnError)

		quiet    = fset.Bool("q", false, "do not display individual payloads")
		boundary = fset.Uint64("split", 0, "time boundary to split micro-slices at")
		overlap  = fset.Uint64("overlap", 0, "overlap window following the split boundary")
		vers     = fset.Bool("version", false, "display version and exit")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if *vers {
		fmt.Fprintln(w, pdsp.VersionString())
		return
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input PENN file")
	}

	opts := options{
		quiet:    *quiet,
		boundary: *boundary,
		overlap:  *overlap,
		msg:      tlog.NewMsgStream("penn-dump", tlog.LvlInfo, os.Stderr),
	}
	fset.Visit(func(f *flag.Flag) {
		if f.Name == "split" {
			opts.split = true
		}
	})

	for _, fname := range fset.Args() {
		err := process(w, fname, opts)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, opts options) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	f, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open PENN file: %w", err)
	}
	defer f.Close()

	raw := f.Bytes()
	for i := 0; len(raw) > 0; i++ {
		ms, err := penn.NewMicroSlice(raw, penn.WithMsgStream(opts.msg))
		if err != nil {
			return fmt.Errorf("could not decode micro-slice %d: %w", i, err)
		}
		raw = raw[len(ms.Bytes()):]

		err = dump(wbuf, i, ms, opts)
		if err != nil {
			return fmt.Errorf("could not dump micro-slice %d: %w", i, err)
		}
	}

	return wbuf.Flush()
}

func dump(w io.Writer, i int, ms *penn.MicroSlice, opts options) error {
	fmt.Fprintf(w, "=== micro-slice[%04d] %v ===\n", i, ms.Header())

	n, err := ms.NumPayloads()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "payloads: %d\n", n)

	if !opts.quiet {
		for {
			p, err := ms.NextPayload()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %v\n", p)
		}
	}

	if !opts.split {
		return nil
	}

	split, err := ms.SplitAndCount(opts.boundary, opts.overlap)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "split:   boundary=0x%x overlap=0x%x anchor=0x%x checksum=0x%x\n",
		opts.boundary, opts.overlap, split.Anchor, split.Checksum,
	)
	fmt.Fprintf(w, "  before:  %v\n", split.Before)
	fmt.Fprintf(w, "  overlap: %v\n", split.Overlap)
	fmt.Fprintf(w, "  after:   %v\n", split.After)
	fmt.Fprintf(w, "  offsets: split=%d overlap=%d\n", split.SplitOffset, split.OverlapOffset)

	return nil
}
