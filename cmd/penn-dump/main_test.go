// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-lpc/pdsp/penn"
)

func u32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func microSlice(seq uint8, chksum uint32) []byte {
	raw := make([]byte, penn.HeaderSize)
	for _, pl := range []struct {
		typ  penn.PayloadType
		ts   uint32
		body []byte
	}{
		{penn.Counter, 0xfff_ff00, make([]byte, 12)},
		{penn.Trigger, 0x10, u32(0x1)},
		{penn.Warning, 0x80, u32(0x2)},
		{penn.Trigger, 0x50, u32(0x3)},
		{penn.Counter, 0xf0, bytes.Repeat([]byte{0xff}, 12)},
		{penn.Timestamp, 0x100, binary.LittleEndian.AppendUint64(nil, 0x1_0000_0100)},
		{penn.Checksum, 0x100, u32(chksum)},
	} {
		raw = append(raw, u32(uint32(penn.NewPayloadHeader(pl.typ, pl.ts)))...)
		raw = append(raw, pl.body...)
	}
	binary.LittleEndian.PutUint32(raw, uint32(penn.NewHeader(uint16(len(raw)), seq, 1)))
	return raw
}

func writeFile(t *testing.T, raw []byte) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "penn.raw")
	err := os.WriteFile(fname, raw, 0644)
	if err != nil {
		t.Fatalf("could not write PENN file: %+v", err)
	}
	return fname
}

func TestDump(t *testing.T) {
	fname := writeFile(t, microSlice(0, 0xcafe))
	xmain(io.Discard, []string{"-split=0x100000040", "-overlap=0x60", fname})

	out := new(strings.Builder)
	xmain(out, []string{"-version"})
	if got := out.String(); !strings.HasPrefix(got, "pdsp ") {
		t.Fatalf("invalid version output: %q", got)
	}
}

func TestProcess(t *testing.T) {
	var (
		raw   = append(microSlice(0, 0xcafe), microSlice(1, 0xbeef)...)
		fname = writeFile(t, raw)
		msg   = tlog.NewMsgStream("penn-dump", tlog.LvlInfo, io.Discard)
	)

	for _, tc := range []struct {
		name string
		opts options
		want string
	}{
		{
			name: "quiet",
			opts: options{quiet: true, msg: msg},
			want: `=== micro-slice[0000] Header{size=80, seq=0, version=1} ===
payloads: 7
=== micro-slice[0001] Header{size=80, seq=1, version=1} ===
payloads: 7
`,
		},
		{
			name: "split",
			opts: options{quiet: true, split: true, boundary: 0x1_0000_0040, overlap: 0x60, msg: msg},
			want: `=== micro-slice[0000] Header{size=80, seq=0, version=1} ===
payloads: 7
split:   boundary=0x100000040 overlap=0x60 anchor=0x100000100 checksum=0xcafe
  before:  Counts{counter=1, trigger=1, checksum=0, warning=1, timestamp=0, payloads=3, bytes=32}
  overlap: Counts{counter=0, trigger=1, checksum=0, warning=0, timestamp=0, payloads=1, bytes=8}
  after:   Counts{counter=1, trigger=1, checksum=1, warning=0, timestamp=1, payloads=4, bytes=44}
  offsets: split=36 overlap=44
=== micro-slice[0001] Header{size=80, seq=1, version=1} ===
payloads: 7
split:   boundary=0x100000040 overlap=0x60 anchor=0x100000100 checksum=0xbeef
  before:  Counts{counter=1, trigger=1, checksum=0, warning=1, timestamp=0, payloads=3, bytes=32}
  overlap: Counts{counter=0, trigger=1, checksum=0, warning=0, timestamp=0, payloads=1, bytes=8}
  after:   Counts{counter=1, trigger=1, checksum=1, warning=0, timestamp=1, payloads=4, bytes=44}
  offsets: split=36 overlap=44
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := new(strings.Builder)
			err := process(out, fname, tc.opts)
			if err != nil {
				t.Fatalf("could not dump file: %+v", err)
			}
			if got, want := out.String(), tc.want; got != want {
				t.Fatalf("invalid output:\ngot:\n%s\nwant:\n%s\n", got, want)
			}
		})
	}

	t.Run("payloads", func(t *testing.T) {
		out := new(strings.Builder)
		err := process(out, fname, options{msg: msg})
		if err != nil {
			t.Fatalf("could not dump file: %+v", err)
		}
		for _, want := range []string{
			"  Payload{id=0, off=4, type=Counter, ts=0xfffff00, body=000000000000000000000000}\n",
			"  Payload{id=6, off=72, type=Checksum, ts=0x0000100, body=efbe0000}\n",
		} {
			if !strings.Contains(out.String(), want) {
				t.Fatalf("missing %q in output:\n%s", want, out.String())
			}
		}
	})

	t.Run("unknown-type", func(t *testing.T) {
		bad := microSlice(0, 0xcafe)
		binary.LittleEndian.PutUint32(bad[penn.HeaderSize:], uint32(penn.NewPayloadHeader(0x3, 0)))

		err := process(io.Discard, writeFile(t, bad), options{msg: msg})
		if err == nil {
			t.Fatalf("expected an error")
		}
	})

	t.Run("truncated", func(t *testing.T) {
		err := process(io.Discard, writeFile(t, raw[:len(raw)-4]), options{msg: msg})
		if err == nil {
			t.Fatalf("expected an error")
		}
	})
}
