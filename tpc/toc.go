// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpc

import (
	"encoding/binary"
	"fmt"

	"github.com/go-lpc/pdsp/header"
	"github.com/go-lpc/pdsp/internal/bitfield"
	"github.com/go-lpc/pdsp/wib"
	"golang.org/x/xerrors"
)

// PacketType describes the content of a packet.
type PacketType uint8

const (
	WibFrame   PacketType = 1 // array of WIB frames
	Transposed PacketType = 2 // channel-major ADCs
	Compressed PacketType = 3 // compressed ADCs
)

func (t PacketType) String() string {
	switch t {
	case WibFrame:
		return "WibFrame"
	case Transposed:
		return "Transposed"
	case Compressed:
		return "Compressed"
	}
	return fmt.Sprintf("PacketType(%d)", uint8(t))
}

var (
	fDscFormat = bitfield.Field{Width: 4, Offset: 0}
	fDscType   = bitfield.Field{Width: 4, Offset: 4}
	fDscOffset = bitfield.Field{Width: 24, Offset: 8}

	fTocFormat = bitfield.Field{Width: 4, Offset: 0}
	fTocCount  = bitfield.Field{Width: 8, Offset: 4}
)

// PacketDsc describes a packet: its type and its offset, in 64-bit words,
// from the start of the packet record body.
//
//	format(4) type(4) offset64(24)
type PacketDsc uint32

// NewPacketDsc creates a packet descriptor.
func NewPacketDsc(format uint8, typ PacketType, offset64 uint32) PacketDsc {
	w := bitfield.Set(uint32(0), fDscFormat, format)
	w = bitfield.Set(w, fDscType, uint8(typ))
	w = bitfield.Set(w, fDscOffset, offset64)
	return PacketDsc(w)
}

func (d PacketDsc) Format() uint8      { return uint8(bitfield.Get(uint32(d), fDscFormat)) }
func (d PacketDsc) Type() PacketType   { return PacketType(bitfield.Get(uint32(d), fDscType)) }
func (d PacketDsc) Offset64() uint32   { return bitfield.Get(uint32(d), fDscOffset) }
func (d PacketDsc) IsWibFrame() bool   { return d.Type() == WibFrame }
func (d PacketDsc) IsTransposed() bool { return d.Type() == Transposed }
func (d PacketDsc) IsCompressed() bool { return d.Type() == Compressed }

func (d PacketDsc) String() string {
	return fmt.Sprintf("PacketDsc{format=%d, type=%v, offset64=%d}", d.Format(), d.Type(), d.Offset64())
}

// Toc is the table of contents of a TPC stream.
//
// It holds N+1 packet descriptors: the length of packet i is the
// difference between the offsets of descriptors i+1 and i. The last
// descriptor is a terminator, only used to compute lengths.
type Toc struct {
	hdr  header.Header2
	dscs []byte // N+1 32-bit descriptors
}

func newToc(rec []byte) (*Toc, error) {
	var (
		hdr = header.Header2(binary.LittleEndian.Uint32(rec))
		n   = int(bitfield.Get(hdr.Bridge(), fTocCount))
		end = 4 + 4*(n+1)
	)
	if end > len(rec) {
		return nil, xerrors.Errorf(
			"tpc: toc with %d descriptors does not fit in %d bytes: %w",
			n, len(rec), ErrOverrun,
		)
	}
	toc := &Toc{hdr: hdr, dscs: rec[4:end]}
	for i := 0; i < n; i++ {
		lo, hi := toc.Dsc(i).Offset64(), toc.Dsc(i+1).Offset64()
		if hi < lo {
			return nil, xerrors.Errorf(
				"tpc: toc descriptor %d: offset64 %d before offset64 %d of descriptor %d: %w",
				i+1, hi, lo, i, ErrOverrun,
			)
		}
	}
	return toc, nil
}

// len64 returns the length, in 64-bit words, spanned by all the packets.
func (toc *Toc) len64() int {
	return int(toc.Dsc(toc.NumPackets()).Offset64())
}

// Header returns the record header of the table of contents.
func (toc *Toc) Header() header.Header2 { return toc.hdr }

// Format returns the format version of the table of contents.
func (toc *Toc) Format() uint8 { return uint8(bitfield.Get(toc.hdr.Bridge(), fTocFormat)) }

// NumPackets returns the number of packets described by the table of contents.
func (toc *Toc) NumPackets() int { return len(toc.dscs)/4 - 1 }

// Dsc returns the i-th packet descriptor, in [0, NumPackets()].
// Descriptor NumPackets() is the terminator.
// Dsc returns a zero descriptor outside that range.
func (toc *Toc) Dsc(i int) PacketDsc {
	if i < 0 || i > toc.NumPackets() {
		return 0
	}
	return PacketDsc(binary.LittleEndian.Uint32(toc.dscs[4*i:]))
}

// Len64 returns the length of the i-th packet, in 64-bit words.
// Len64 returns 0 outside [0, NumPackets()).
func (toc *Toc) Len64(i int) int {
	if i < 0 || i >= toc.NumPackets() {
		return 0
	}
	return int(toc.Dsc(i+1).Offset64()) - int(toc.Dsc(i).Offset64())
}

// NWibFrames returns the number of WIB frames held by the i-th packet.
// It returns 0 when the packet does not hold WIB frames.
func (toc *Toc) NWibFrames(i int) int {
	if !toc.Dsc(i).IsWibFrame() {
		return 0
	}
	return toc.Len64(i) / wib.N64
}

// Packet is the record holding the data of all the packets of a stream.
type Packet struct {
	hdr  header.Header0
	body []byte
}

func newPacket(rec []byte) *Packet {
	return &Packet{
		hdr:  header.Header0(binary.LittleEndian.Uint64(rec)),
		body: rec[8:],
	}
}

// Header returns the record header of the packet record.
func (pkt *Packet) Header() header.Header0 { return pkt.hdr }

// Body returns the packet data, addressed by the descriptors' offsets.
func (pkt *Packet) Body() []byte { return pkt.body }

// Data returns the n64 words starting at word off64 of the packet body.
func (pkt *Packet) Data(off64, n64 int) ([]byte, error) {
	beg := 8 * off64
	end := beg + 8*n64
	if off64 < 0 || n64 < 0 || end > len(pkt.body) {
		return nil, xerrors.Errorf(
			"tpc: packet data [%d, %d) out of body range (%d words): %w",
			off64, off64+n64, len(pkt.body)/8, ErrOverrun,
		)
	}
	return pkt.body[beg:end], nil
}
