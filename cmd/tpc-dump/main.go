// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// tpc-dump decodes and displays TPC raw data files.
//
// Usage: tpc-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//  $> tpc-dump -digest ./run_004242.raw
//  === Stream{id=1-2-3, format=2, n64=169, packets=3, frames=5} ===
//  ranges:  window=[5000, 5125) trigger=5050
//  toc:     format=0 packets=3
//    pkt[000] WibFrame    off64=     0 n64=    60 frames=   2
//    pkt[001] WibFrame    off64=    60 n64=    90 frames=   3
//    pkt[002] Compressed  off64=   150 n64=     2 frames=   0
//  digest:  0x1b8f3a0c5d7e9f21
//  [...]
//
// With -i, tpc-dump opens an interactive browser over the streams of a
// single file.
package main // import "github.com/go-lpc/pdsp/cmd/tpc-dump"

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dgryski/go-farm"
	"github.com/go-lpc/pdsp"
	"github.com/go-lpc/pdsp/internal/mmap"
	"github.com/go-lpc/pdsp/tpc"
	"github.com/go-lpc/pdsp/wib"
)

const usage = `tpc-dump decodes and displays TPC raw data files.

Usage: tpc-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> tpc-dump -digest ./run_004242.raw
 $> tpc-dump -frames ./run_004242.raw
 $> tpc-dump -i ./run_004242.raw

options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

type options struct {
	frames bool // display the header of every WIB frame
	digest bool // display a fingerprint of the decoded waveforms
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("tpc-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("tpc-dump", flag.ExitOnError)

		frames = fset.Bool("frames", false, "display WIB frame headers")
		digest = fset.Bool("digest", false, "display waveform fingerprints")
		interp = fset.Bool("i", false, "enable interactive mode")
		vers   = fset.Bool("version", false, "display version and exit")
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
		log.Fatalf("missing path to input TPC file")
	}

	if *interp {
		if fset.NArg() != 1 {
			fset.Usage()
			log.Fatalf("interactive mode needs exactly one input file")
		}
		err := interactive(w, fset.Arg(0))
		if err != nil {
			log.Fatalf("could not browse file %q: %+v", fset.Arg(0), err)
		}
		return
	}

	opts := options{frames: *frames, digest: *digest}
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
		return fmt.Errorf("could not open TPC file: %w", err)
	}
	defer f.Close()

	raw := f.Bytes()
	for len(raw) > 0 {
		var s *tpc.Stream
		s, raw, err = tpc.NextStream(raw)
		if err != nil {
			return fmt.Errorf("could not decode TPC stream: %w", err)
		}
		err = dump(wbuf, s, opts)
		if err != nil {
			return err
		}
	}

	return wbuf.Flush()
}

func dump(w io.Writer, s *tpc.Stream, opts options) error {
	fmt.Fprintf(w, "=== %v ===\n", s)
	if rng := s.Ranges(); rng != nil {
		fmt.Fprintf(w, "ranges:  window=[%d, %d) trigger=%d\n",
			rng.Window.Begin, rng.Window.End, rng.Window.Trigger,
		)
		fmt.Fprintf(w, "  untrimmed: %v\n", rng.Untrimmed)
		fmt.Fprintf(w, "  trimmed:   %v\n", rng.Trimmed)
	}

	toc := s.Toc()
	if toc == nil {
		fmt.Fprintf(w, "toc:     none\n")
		return nil
	}
	fmt.Fprintf(w, "toc:     format=%d packets=%d\n", toc.Format(), toc.NumPackets())
	for i := 0; i < toc.NumPackets(); i++ {
		dsc := toc.Dsc(i)
		fmt.Fprintf(w, "  pkt[%03d] %-11v off64=%6d n64=%6d frames=%4d\n",
			i, dsc.Type(), dsc.Offset64(), toc.Len64(i), toc.NWibFrames(i),
		)
		if !opts.frames || !dsc.IsWibFrame() {
			continue
		}
		frames, err := s.Frames(i)
		if err != nil {
			return fmt.Errorf("could not read frames of packet %d: %w", i, err)
		}
		for j := range frames {
			fmt.Fprintf(w, "    frame[%04d] %v\n", j, &frames[j])
		}
	}

	if opts.digest {
		sum, err := digest(s)
		if err != nil {
			return fmt.Errorf("could not compute digest: %w", err)
		}
		fmt.Fprintf(w, "digest:  0x%016x\n", sum)
	}

	return nil
}

// digest returns the fingerprint of the channel-major waveforms of a stream.
func digest(s *tpc.Stream) (uint64, error) {
	frames, err := s.AllFrames()
	if err != nil {
		return 0, err
	}
	adcs := wib.AppendTransposed(nil, frames)

	buf := make([]byte, 0, 2*len(frames)*wib.NumChans)
	for _, wf := range adcs {
		for _, v := range wf {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(v))
		}
	}
	return farm.Hash64(buf), nil
}
