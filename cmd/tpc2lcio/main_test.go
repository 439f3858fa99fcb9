// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"compress/flate"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/pdsp/internal/xcnv"
	"github.com/go-lpc/pdsp/tpc"
	"github.com/go-lpc/pdsp/wib"
	"go-hep.org/x/hep/lcio"
)

func TestRunNbrFrom(t *testing.T) {
	for _, tc := range []struct {
		fname string
		run   int32
	}{
		{
			fname: "./run_000063.raw",
			run:   63,
		},
		{
			fname: "/some/dir/run_663_dl1.raw",
			run:   663,
		},
		{
			fname: "../some/dir/run_009.raw",
			run:   9,
		},
	} {
		t.Run(tc.fname, func(t *testing.T) {
			got, err := runNbrFrom(tc.fname)
			if err != nil {
				t.Fatalf("could not infer run-nbr: %+v", err)
			}
			if got != tc.run {
				t.Fatalf("invalid run: got=%d, want=%d", got, tc.run)
			}
		})
	}

	_, err := runNbrFrom("input.raw")
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestTPC2LCIO(t *testing.T) {
	tmp := t.TempDir()

	id := wib.NewID(2, 4, 1)
	frames := make([]wib.Frame, 4)
	for i := range frames {
		frames[i].SetHeader(3, id, 0)
		frames[i].SetTimestamp(uint64(7000 + wib.Ticks*i))
	}

	var raw []byte
	for i := 0; i < 3; i++ {
		var err error
		raw, err = tpc.Append(raw, &tpc.Data{
			ID:      id,
			Packets: []tpc.PacketData{{Type: tpc.WibFrame, Frames: frames}},
		})
		if err != nil {
			t.Fatalf("could not encode TPC stream: %+v", err)
		}
	}

	fname := filepath.Join(tmp, "run_000042.raw")
	err := os.WriteFile(fname, raw, 0644)
	if err != nil {
		t.Fatalf("could not write TPC file: %+v", err)
	}

	for _, tc := range []struct {
		name string
		run  int
		want int32
	}{
		{name: "inferred", run: -1, want: 42},
		{name: "explicit", run: 7, want: 7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			oname := filepath.Join(tmp, tc.name+".lcio")
			err := process(oname, flate.BestSpeed, tc.run, 1, fname)
			if err != nil {
				t.Fatalf("could not convert TPC file: %+v", err)
			}

			r, err := lcio.Open(oname)
			if err != nil {
				t.Fatalf("could not open LCIO file: %+v", err)
			}
			defer r.Close()

			n := 0
			for r.Next() {
				evt := r.Event()
				if got, want := evt.RunNumber, tc.want; got != want {
					t.Fatalf("invalid run number: got=%d, want=%d", got, want)
				}
				adcs := evt.Get(xcnv.ADCCollection).(*lcio.TrackerRawDataContainer)
				if got, want := len(adcs.Data[0].ADCs), len(frames); got != want {
					t.Fatalf("invalid number of samples: got=%d, want=%d", got, want)
				}
				n++
			}
			if got, want := n, 3; got != want {
				t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
			}
		})
	}

	xmain([]string{"-o", filepath.Join(tmp, "xmain.lcio"), fname})
}
