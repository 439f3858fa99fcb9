// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// tpc-assess checks the consistency of the WIB frames of TPC raw data files.
//
// Usage: tpc-assess [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//  $> tpc-assess -cfg ./assess.yaml ./run_004242.raw
//  stream[0000] 1-2-3: frames=   5 anomalies=   0
//  stream[0001] 1-2-4: frames=   5 anomalies=   2 bad-timestamp=1 bad-convert-count=1
//  file ./run_004242.raw: streams=2 frames=10 anomalies=2
//
// Individual anomalies are logged to the message stream, which can be
// routed to a rotating log file from the configuration file:
//
//	tick: 25
//	max-reports: 100
//	level: warning
//	log:
//	  file: /var/log/tpc-assess.log
//	  max-size: 10     # megabytes
//	  max-backups: 5
//	  max-age: 28      # days
//	  compress: true
package main // import "github.com/go-lpc/pdsp/cmd/tpc-assess"

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
	"github.com/go-lpc/pdsp/tpc"
	"gopkg.in/natefinch/lumberjack.v2"
)

const usage = `tpc-assess checks the consistency of the WIB frames of TPC raw data files.

Usage: tpc-assess [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> tpc-assess ./run_004242.raw
 $> tpc-assess -cfg ./assess.yaml -strict ./run_004242.raw

options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("tpc-assess: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("tpc-assess", flag.ExitOnError)

		fcfg   = fset.String("cfg", "", "path to YAML configuration file")
		tick   = fset.Uint64("tick", 0, "timestamp step between frames (overrides configuration)")
		nmax   = fset.Int("max", -1, "maximum number of reported anomalies per stream (overrides configuration)")
		lvl    = fset.String("lvl", "", "message stream level (overrides configuration)")
		strict = fset.Bool("strict", false, "exit with an error when anomalies are found")
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

	cfg := newConfig()
	if *fcfg != "" {
		cfg, err = loadConfig(*fcfg)
		if err != nil {
			log.Fatalf("could not load configuration: %+v", err)
		}
	}
	if *tick != 0 {
		cfg.Tick = *tick
	}
	if *nmax >= 0 {
		cfg.MaxReports = *nmax
	}
	if *lvl != "" {
		cfg.Level = *lvl
	}

	msg, closer, err := cfg.msgStream(os.Stderr)
	if err != nil {
		log.Fatalf("could not create message stream: %+v", err)
	}
	defer closer.Close()

	assess := tpc.NewAssessor(
		tpc.WithTick(cfg.Tick),
		tpc.WithMaxReports(cfg.MaxReports),
		tpc.WithMsgStream(msg),
	)

	total := 0
	for _, fname := range fset.Args() {
		n, err := process(w, assess, fname)
		if err != nil {
			log.Fatalf("could not assess file %q: %+v", fname, err)
		}
		total += n
	}

	if *strict && total > 0 {
		_ = closer.Close()
		log.Fatalf("found %d anomalies", total)
	}
}

// process assesses all the streams of a file and returns the number
// of anomalies found.
func process(w io.Writer, assess *tpc.Assessor, fname string) (int, error) {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	f, err := mmap.Open(fname)
	if err != nil {
		return 0, fmt.Errorf("could not open TPC file: %w", err)
	}
	defer f.Close()

	var (
		raw     = f.Bytes()
		nstream = 0
		nframes = 0
		total   = 0
	)
	for ; len(raw) > 0; nstream++ {
		var s *tpc.Stream
		s, raw, err = tpc.NextStream(raw)
		if err != nil {
			return total, fmt.Errorf("could not decode TPC stream %d: %w", nstream, err)
		}

		rep, err := assess.Assess(s)
		if err != nil {
			return total, fmt.Errorf("could not assess TPC stream %d: %w", nstream, err)
		}

		fmt.Fprintf(wbuf, "stream[%04d] %v: frames=%4d anomalies=%4d",
			nstream, rep.ID, rep.NumFrames, rep.Total(),
		)
		for k := tpc.Kind(0); k < tpc.NumKinds; k++ {
			if n := rep.Count(k); n > 0 {
				fmt.Fprintf(wbuf, " %v=%d", k, n)
			}
		}
		fmt.Fprintf(wbuf, "\n")

		nframes += rep.NumFrames
		total += rep.Total()
	}
	fmt.Fprintf(wbuf, "file %s: streams=%d frames=%d anomalies=%d\n",
		fname, nstream, nframes, total,
	)

	return total, wbuf.Flush()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// msgStream creates the message stream anomalies are logged to.
// Messages go to stderr unless a log file is configured.
func (cfg config) msgStream(stderr io.Writer) (tlog.MsgStream, io.Closer, error) {
	lvl, err := levelFrom(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Log.File == "" {
		return tlog.NewMsgStream("tpc-assess", lvl, stderr), nopCloser{}, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
	return tlog.NewMsgStream("tpc-assess", lvl, rotator), rotator, nil
}
