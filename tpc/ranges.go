// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpc

import (
	"encoding/binary"
	"fmt"

	"github.com/go-lpc/pdsp/header"
	"github.com/go-lpc/pdsp/internal/bitfield"
	"golang.org/x/xerrors"
)

const (
	rangesBody64 = 11               // size of the ranges body, in 64-bit words
	rangesN64    = 1 + rangesBody64 // size of the ranges record, in 64-bit words
)

var (
	fIdxOffset = bitfield.Field{Width: 12, Offset: 0}
	fIdxPacket = bitfield.Field{Width: 20, Offset: 12}
)

// Index locates a WIB frame within a stream.
//
//	offset(12) packet(20)
type Index uint32

// NewIndex creates an index pointing at the offset-th frame of a packet.
func NewIndex(packet, offset uint32) Index {
	w := bitfield.Set(uint32(0), fIdxOffset, offset)
	w = bitfield.Set(w, fIdxPacket, packet)
	return Index(w)
}

func (idx Index) Packet() uint32 { return bitfield.Get(uint32(idx), fIdxPacket) }
func (idx Index) Offset() uint32 { return bitfield.Get(uint32(idx), fIdxOffset) }

func (idx Index) String() string {
	return fmt.Sprintf("%d:%d", idx.Packet(), idx.Offset())
}

// Indices gives the frames delimiting a range.
type Indices struct {
	Begin   Index
	End     Index
	Trigger Index
}

// Timestamps gives the time span of a range.
type Timestamps struct {
	Begin uint64
	End   uint64
}

// Range is a span of frames within a stream.
type Range struct {
	Indices    Indices
	Timestamps Timestamps
}

// Window is the trigger window, in WIB timestamp units.
type Window struct {
	Begin   uint64
	End     uint64
	Trigger uint64
}

// Ranges describes which part of a stream was requested by the trigger
// (Trimmed) and which part was actually read out (Untrimmed).
type Ranges struct {
	Format    uint32
	Window    Window
	Untrimmed Range
	Trimmed   Range
}

func newRanges(rec []byte) (*Ranges, error) {
	if len(rec) < 8*rangesN64 {
		return nil, xerrors.Errorf(
			"tpc: ranges record too short (%d bytes): %w", len(rec), ErrOverrun,
		)
	}
	var (
		hdr = header.Header0(binary.LittleEndian.Uint64(rec))
		r   = reader{p: rec[8:]}
		rgs = Ranges{Format: hdr.Bridge()}
	)
	rgs.Window.Begin = r.u64()
	rgs.Window.End = r.u64()
	rgs.Window.Trigger = r.u64()
	r.rng(&rgs.Untrimmed)
	r.rng(&rgs.Trimmed)
	return &rgs, nil
}

// Duration returns the length of the trigger window.
func (w Window) Duration() uint64 { return w.End - w.Begin }

func (rgs *Ranges) String() string {
	return fmt.Sprintf(
		"Ranges{format=%d, window=[%d, %d) trigger=%d, untrimmed=%v, trimmed=%v}",
		rgs.Format, rgs.Window.Begin, rgs.Window.End, rgs.Window.Trigger,
		rgs.Untrimmed, rgs.Trimmed,
	)
}

func (rng Range) String() string {
	return fmt.Sprintf(
		"[%v, %v) trigger=%v ts=[%d, %d)",
		rng.Indices.Begin, rng.Indices.End, rng.Indices.Trigger,
		rng.Timestamps.Begin, rng.Timestamps.End,
	)
}

// reader reads little-endian words from a bounds-checked buffer.
type reader struct {
	p []byte
	c int
}

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.p[r.c:])
	r.c += 4
	return v
}

func (r *reader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.p[r.c:])
	r.c += 8
	return v
}

func (r *reader) rng(rng *Range) {
	rng.Indices.Begin = Index(r.u32())
	rng.Indices.End = Index(r.u32())
	rng.Indices.Trigger = Index(r.u32())
	_ = r.u32() // padding
	rng.Timestamps.Begin = r.u64()
	rng.Timestamps.End = r.u64()
}
