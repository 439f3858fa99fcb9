// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-lpc/pdsp/internal/mmap"
	"github.com/go-lpc/pdsp/tpc"
	"github.com/go-lpc/pdsp/wib"
	"github.com/peterh/liner"
)

var cmds = []string{
	"adc", "digest", "frame", "help",
	"next", "prev", "quit", "ranges",
	"stream", "toc",
}

const help = `commands:
  next, n            go to the next stream
  prev, p            go to the previous stream
  stream, s I        go to stream I
  toc                display the table of contents of the current stream
  ranges             display the ranges of the current stream
  frame, f PKT IDX   display frame IDX of packet PKT
  adc CH             display the waveform of channel CH
  digest             display the waveform fingerprint of the current stream
  quit, q            quit
`

func interactive(w io.Writer, fname string) error {
	f, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open TPC file: %w", err)
	}
	defer f.Close()

	br, err := newBrowser(w, f.Bytes())
	if err != nil {
		return err
	}

	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	term.SetCompleter(func(line string) []string {
		var o []string
		for _, c := range cmds {
			if strings.HasPrefix(c, line) {
				o = append(o, c)
			}
		}
		return o
	})

	fmt.Fprintf(w, "%d streams. type 'help' for the list of commands.\n", len(br.streams))
	for {
		line, err := term.Prompt(fmt.Sprintf("tpc[%d]> ", br.cur))
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		term.AppendHistory(line)

		quit, err := br.exec(line)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

type browser struct {
	w       io.Writer
	streams []*tpc.Stream
	cur     int
}

func newBrowser(w io.Writer, raw []byte) (*browser, error) {
	br := &browser{w: w}
	for len(raw) > 0 {
		var (
			s   *tpc.Stream
			err error
		)
		s, raw, err = tpc.NextStream(raw)
		if err != nil {
			return nil, fmt.Errorf("could not decode TPC stream %d: %w", len(br.streams), err)
		}
		br.streams = append(br.streams, s)
	}
	if len(br.streams) == 0 {
		return nil, fmt.Errorf("no TPC stream")
	}
	return br, nil
}

func (br *browser) exec(line string) (bool, error) {
	toks := strings.Fields(line)
	cmd, args := toks[0], toks[1:]
	s := br.streams[br.cur]

	switch cmd {
	case "quit", "q":
		return true, nil

	case "help", "h":
		fmt.Fprint(br.w, help)

	case "next", "n":
		if br.cur+1 >= len(br.streams) {
			return false, fmt.Errorf("no more streams")
		}
		br.cur++
		fmt.Fprintf(br.w, "%v\n", br.streams[br.cur])

	case "prev", "p":
		if br.cur == 0 {
			return false, fmt.Errorf("already at first stream")
		}
		br.cur--
		fmt.Fprintf(br.w, "%v\n", br.streams[br.cur])

	case "stream", "s":
		vs, err := atoi(args, 1)
		if err != nil {
			return false, err
		}
		if vs[0] < 0 || vs[0] >= len(br.streams) {
			return false, fmt.Errorf("stream %d out of range [0, %d)", vs[0], len(br.streams))
		}
		br.cur = vs[0]
		fmt.Fprintf(br.w, "%v\n", br.streams[br.cur])

	case "toc":
		return false, dump(br.w, s, options{})

	case "ranges":
		rng := s.Ranges()
		if rng == nil {
			return false, fmt.Errorf("stream has no ranges")
		}
		fmt.Fprintf(br.w, "%v\n", rng)

	case "frame", "f":
		vs, err := atoi(args, 2)
		if err != nil {
			return false, err
		}
		frames, err := s.Frames(vs[0])
		if err != nil {
			return false, err
		}
		if vs[1] < 0 || vs[1] >= len(frames) {
			return false, fmt.Errorf("frame %d out of range [0, %d)", vs[1], len(frames))
		}
		f := &frames[vs[1]]
		fmt.Fprintf(br.w, "%v\n", f)
		for i := range f.ColdData {
			cd := &f.ColdData[i]
			fmt.Fprintf(br.w, "  cd[%d]: errs=0x%x/0x%x convert=%d\n",
				i, cd.StreamErr1(), cd.StreamErr2(), cd.ConvertCount(),
			)
		}
		fmt.Fprintf(br.w, "  adcs: %v\n", f.ADCs())

	case "adc":
		vs, err := atoi(args, 1)
		if err != nil {
			return false, err
		}
		if vs[0] < 0 || vs[0] >= wib.NumChans {
			return false, fmt.Errorf("channel %d out of range [0, %d)", vs[0], wib.NumChans)
		}
		frames, err := s.AllFrames()
		if err != nil {
			return false, err
		}
		adcs := wib.AppendTransposed(nil, frames)
		fmt.Fprintf(br.w, "ch[%03d]: %v\n", vs[0], adcs[vs[0]])

	case "digest":
		sum, err := digest(s)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(br.w, "0x%016x\n", sum)

	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}

	return false, nil
}

func atoi(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("invalid number of arguments (got=%d, want=%d)", len(args), n)
	}
	vs := make([]int, n)
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid argument %q: %w", arg, err)
		}
		vs[i] = v
	}
	return vs, nil
}
