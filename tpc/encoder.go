// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpc

import (
	"encoding/binary"
	"io"

	"github.com/go-lpc/pdsp/header"
	"github.com/go-lpc/pdsp/internal/bitfield"
	"github.com/go-lpc/pdsp/wib"
	"golang.org/x/xerrors"
)

const (
	maxPackets = 1<<8 - 1  // descriptor count field of the toc
	maxN64     = 1<<24 - 1 // n64 field of Header0 and Header1
)

// Data is the content of a TPC stream.
type Data struct {
	ID      wib.ID
	Format  uint8   // stream format version
	Ranges  *Ranges // optional
	Packets []PacketData
}

// PacketData is the content of a packet.
// WibFrame packets hold frames, the other packet types hold raw words.
type PacketData struct {
	Type   PacketType
	Frames []wib.Frame
	Words  []uint64
}

func (pkt *PacketData) len64() int {
	if pkt.Type == WibFrame {
		return len(pkt.Frames) * wib.N64
	}
	return len(pkt.Words)
}

// Encoder writes TPC streams to an output stream.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 8),
	}
}

func tocN64(npkts int) int {
	return (4 + 4*(npkts+1) + 7) / 8
}

// Encode writes data as a single TPC stream.
func (enc *Encoder) Encode(data *Data) error {
	if data == nil {
		return nil
	}
	if len(data.Packets) > maxPackets {
		return xerrors.Errorf(
			"tpc: too many packets (%d > %d): %w", len(data.Packets), maxPackets, ErrTooLarge,
		)
	}

	var (
		npkts = len(data.Packets)
		pkt64 = 1
		rgs64 = 0
		toc64 = tocN64(npkts)
	)
	for i := range data.Packets {
		pkt64 += data.Packets[i].len64()
	}
	if data.Ranges != nil {
		rgs64 = rangesN64
	}
	n64 := 1 + rgs64 + toc64 + pkt64
	if n64 > maxN64 {
		return xerrors.Errorf("tpc: stream of %d words (max=%d): %w", n64, maxN64, ErrTooLarge)
	}

	enc.writeU64(header.NewHeader1(RecStream, uint32(n64), 0, data.Format, uint32(data.ID)).Word())
	if enc.err != nil {
		return xerrors.Errorf("tpc: could not write stream header: %w", enc.err)
	}

	if rgs := data.Ranges; rgs != nil {
		enc.writeU64(header.NewHeader0(RecRanges, rangesN64, rgs.Format).Word())
		enc.writeU64(rgs.Window.Begin)
		enc.writeU64(rgs.Window.End)
		enc.writeU64(rgs.Window.Trigger)
		enc.writeRange(rgs.Untrimmed)
		enc.writeRange(rgs.Trimmed)
		if enc.err != nil {
			return xerrors.Errorf("tpc: could not write ranges: %w", enc.err)
		}
	}

	bridge := bitfield.Set(uint32(0), fTocCount, uint32(npkts))
	enc.writeU32(uint32(header.NewHeader2(RecToc, uint32(toc64), bridge)))
	off := 0
	for i := range data.Packets {
		pkt := &data.Packets[i]
		enc.writeU32(uint32(NewPacketDsc(0, pkt.Type, uint32(off))))
		off += pkt.len64()
	}
	enc.writeU32(uint32(NewPacketDsc(0, 0, uint32(off))))
	if (npkts+2)%2 != 0 {
		enc.writeU32(0) // padding
	}
	if enc.err != nil {
		return xerrors.Errorf("tpc: could not write toc: %w", enc.err)
	}

	enc.writeU64(header.NewHeader0(RecPacket, uint32(pkt64), 0).Word())
	for i := range data.Packets {
		pkt := &data.Packets[i]
		switch pkt.Type {
		case WibFrame:
			enc.buf = wib.Append(enc.buf[:0], pkt.Frames...)
			enc.write(enc.buf)
		default:
			for _, w := range pkt.Words {
				enc.writeU64(w)
			}
		}
		if enc.err != nil {
			return xerrors.Errorf("tpc: could not write packet %d: %w", i, enc.err)
		}
	}

	return enc.err
}

func (enc *Encoder) writeRange(rng Range) {
	enc.writeU32(uint32(rng.Indices.Begin))
	enc.writeU32(uint32(rng.Indices.End))
	enc.writeU32(uint32(rng.Indices.Trigger))
	enc.writeU32(0) // padding
	enc.writeU64(rng.Timestamps.Begin)
	enc.writeU64(rng.Timestamps.End)
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
}

func (enc *Encoder) writeU32(v uint32) {
	const n = 4
	enc.reserve(n)
	binary.LittleEndian.PutUint32(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU64(v uint64) {
	const n = 8
	enc.reserve(n)
	binary.LittleEndian.PutUint64(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) reserve(n int) {
	if cap(enc.buf) < n {
		enc.buf = append(enc.buf[:len(enc.buf)], make([]byte, n-cap(enc.buf))...)
	}
}

// Append appends the encoded stream of data to p.
func Append(p []byte, data *Data) ([]byte, error) {
	w := appender{p: p}
	err := NewEncoder(&w).Encode(data)
	return w.p, err
}

type appender struct {
	p []byte
}

func (w *appender) Write(p []byte) (int, error) {
	w.p = append(w.p, p...)
	return len(p), nil
}
