// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/go-lpc/pdsp/tpc"
	"github.com/go-lpc/pdsp/wib"
	"go-hep.org/x/hep/lcio"
	"golang.org/x/sync/errgroup"
)

// CellID returns the LCIO cell identifier of a channel of a WIB.
func CellID(id wib.ID, channel int) int32 {
	return int32(id)<<8 | int32(channel)
}

// TPC2LCIO converts the concatenated TPC streams held in raw into LCIO
// events, one event per stream.
func TPC2LCIO(w *lcio.Writer, raw []byte, run int32, freq int, msg *log.Logger) error {
	if freq <= 0 {
		freq = 1
	}

	err := w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  detector,
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Ticks": {wib.Ticks},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("could not write run header: %w", err)
	}

	for i := 0; len(raw) > 0; i++ {
		if i%freq == 0 {
			msg.Printf("processing stream %d...", i)
		}
		var s *tpc.Stream
		s, raw, err = tpc.NextStream(raw)
		if err != nil {
			return fmt.Errorf("could not read stream %d: %w", i, err)
		}

		adcs, ts, err := waveforms(s)
		if err != nil {
			return fmt.Errorf("could not transpose stream %d: %w", i, err)
		}

		evt := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(i),
			TimeStamp:   int64(ts),
			Detector:    detector,
		}
		evt.Add(RawCollection, &lcio.GenericObject{
			Data: []lcio.GenericObjectData{
				{I32s: i32sFrom(s.Bytes())},
			},
		})
		evt.Add(ADCCollection, trackerData(s.ID(), int32(ts), adcs))

		err = w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("could not write event %d: %w", i, err)
		}
	}

	return nil
}

// waveforms transposes all the WIB frames of a stream into channel-major
// waveforms, one goroutine per packet. It also returns the timestamp of
// the first frame.
func waveforms(s *tpc.Stream) ([][]int16, uint64, error) {
	var (
		n    = s.NumFrames()
		adcs = make([][]int16, wib.NumChans)
		grp  errgroup.Group
		ts   uint64
		off  = 0
	)
	for ch := range adcs {
		adcs[ch] = make([]int16, n)
	}

	for i := 0; i < s.NumPackets(); i++ {
		if !s.Toc().Dsc(i).IsWibFrame() {
			continue
		}
		frames, err := s.Frames(i)
		if err != nil {
			return nil, 0, err
		}
		if off == 0 && len(frames) > 0 {
			ts = frames[0].Timestamp()
		}
		beg := off
		grp.Go(func() error {
			wib.TransposeChannels(adcs, beg, frames)
			return nil
		})
		off += len(frames)
	}

	err := grp.Wait()
	if err != nil {
		return nil, 0, err
	}
	return adcs, ts, nil
}

func trackerData(id wib.ID, time int32, adcs [][]int16) *lcio.TrackerRawDataContainer {
	o := &lcio.TrackerRawDataContainer{
		Data: make([]lcio.TrackerRawData, len(adcs)),
	}
	for ch, wf := range adcs {
		vs := make([]uint16, len(wf))
		for i, v := range wf {
			vs[i] = uint16(v)
		}
		o.Data[ch] = lcio.TrackerRawData{
			CellID0: CellID(id, ch),
			Time:    time,
			ADCs:    vs,
		}
	}
	return o
}

func i32sFrom(p []byte) []int32 {
	const i32sz = 4
	o := make([]int32, (len(p)+i32sz-1)/i32sz)
	for i := range o {
		var w [i32sz]byte
		copy(w[:], p[i32sz*i:])
		o[i] = int32(binary.LittleEndian.Uint32(w[:]))
	}
	return o
}
