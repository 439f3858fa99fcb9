// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/pdsp/tpc"
	"github.com/go-lpc/pdsp/wib"
	"go-hep.org/x/hep/lcio"
)

func newFrames(id wib.ID, i0, n int) []wib.Frame {
	frames := make([]wib.Frame, n)
	var adcs [wib.NumChans]int16
	for i := range frames {
		j := i0 + i
		for ch := range adcs {
			adcs[ch] = int16((j*11 + 3*ch) & 0xfff)
		}
		f := &frames[i]
		f.SetHeader(3, id, 0)
		f.SetTimestamp(uint64(1000 + wib.Ticks*j))
		f.SetADCs(adcs[:])
	}
	return frames
}

func TestTPC2LCIO(t *testing.T) {
	tmp := t.TempDir()

	ids := []wib.ID{wib.NewID(1, 2, 3), wib.NewID(4, 5, 6)}

	var raw []byte
	for _, id := range ids {
		var err error
		raw, err = tpc.Append(raw, &tpc.Data{
			ID:     id,
			Format: 1,
			Packets: []tpc.PacketData{
				{Type: tpc.WibFrame, Frames: newFrames(id, 0, 5)},
				{Type: tpc.Compressed, Words: []uint64{1, 2, 3}},
				{Type: tpc.WibFrame, Frames: newFrames(id, 5, 9)},
			},
		})
		if err != nil {
			t.Fatalf("could not encode TPC stream: %+v", err)
		}
	}

	const run = 42
	msg := log.New(io.Discard, "", 0)
	fname := filepath.Join(tmp, "tpc.lcio")

	lw, err := lcio.Create(fname)
	if err != nil {
		t.Fatalf("could not create LCIO file: %+v", err)
	}
	defer lw.Close()

	err = TPC2LCIO(lw, raw, run, 1, msg)
	if err != nil {
		t.Fatalf("could not convert to LCIO: %+v", err)
	}
	err = lw.Close()
	if err != nil {
		t.Fatalf("could not close LCIO file: %+v", err)
	}

	t.Run("waveforms", func(t *testing.T) {
		lr, err := lcio.Open(fname)
		if err != nil {
			t.Fatalf("could not open LCIO file: %+v", err)
		}
		defer lr.Close()

		i := 0
		for lr.Next() {
			evt := lr.Event()
			if got, want := evt.RunNumber, int32(run); got != want {
				t.Fatalf("invalid run number: got=%d, want=%d", got, want)
			}
			if got, want := evt.EventNumber, int32(i); got != want {
				t.Fatalf("invalid event number: got=%d, want=%d", got, want)
			}
			if got, want := evt.TimeStamp, int64(1000); got != want {
				t.Fatalf("invalid event timestamp: got=%d, want=%d", got, want)
			}

			adcs := evt.Get(ADCCollection).(*lcio.TrackerRawDataContainer)
			if got, want := len(adcs.Data), wib.NumChans; got != want {
				t.Fatalf("invalid number of channels: got=%d, want=%d", got, want)
			}
			frames := newFrames(ids[i], 0, 14)
			for ch, data := range adcs.Data {
				if got, want := data.CellID0, CellID(ids[i], ch); got != want {
					t.Fatalf("evt %d, ch %d: invalid cell id: got=%d, want=%d", i, ch, got, want)
				}
				if got, want := len(data.ADCs), len(frames); got != want {
					t.Fatalf("evt %d, ch %d: invalid number of samples: got=%d, want=%d", i, ch, got, want)
				}
				for j := range frames {
					adc := frames[j].ADCs()
					if got, want := data.ADCs[j], uint16(adc[ch]); got != want {
						t.Fatalf("evt %d, ch %d, sample %d: got=%d, want=%d", i, ch, j, got, want)
					}
				}
			}
			i++
		}
		if got, want := i, len(ids); got != want {
			t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
		}
	})

	t.Run("round-trip", func(t *testing.T) {
		lr, err := lcio.Open(fname)
		if err != nil {
			t.Fatalf("could not open LCIO file: %+v", err)
		}
		defer lr.Close()

		out := new(bytes.Buffer)
		err = LCIO2TPC(out, lr, 1, msg)
		if err != nil {
			t.Fatalf("could not convert to TPC: %+v", err)
		}

		if !bytes.Equal(out.Bytes(), raw) {
			t.Fatalf("round-trip failed")
		}
	})
}

func TestTPC2LCIOTruncated(t *testing.T) {
	raw, err := tpc.Append(nil, &tpc.Data{
		ID:      wib.NewID(1, 1, 1),
		Packets: []tpc.PacketData{{Type: tpc.WibFrame, Frames: newFrames(wib.NewID(1, 1, 1), 0, 2)}},
	})
	if err != nil {
		t.Fatalf("could not encode TPC stream: %+v", err)
	}

	lw, err := lcio.Create(filepath.Join(t.TempDir(), "bad.lcio"))
	if err != nil {
		t.Fatalf("could not create LCIO file: %+v", err)
	}
	defer lw.Close()

	err = TPC2LCIO(lw, raw[:len(raw)-8], 1, 1, log.New(os.Stderr, "", 0))
	if err == nil {
		t.Fatalf("expected an error")
	}
}
