// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wib describes the frames sent by the Warm Interface Boards (WIB)
// and provides the ADC expansion and transposition routines.
//
// A WIB frame is a fixed-size record of 30 64-bit words:
//
//	word  0:     header: comma(8) version(5) fiber(3) crate(5) slot(3) rsvd(24) wib-errors(16)
//	word  1:     timestamp
//	words 2-15:  cold data stream #0: 2 header words + 12 packed ADC words
//	words 16-29: cold data stream #1: 2 header words + 12 packed ADC words
//
// Each cold data stream packs 64 ADCs of 12 bits with no padding:
// ADC k occupies the bits [12k, 12k+12) of the little-endian concatenation
// of its 12 ADC words.
package wib // import "github.com/go-lpc/pdsp/wib"

import (
	"fmt"
	"unsafe"

	"github.com/go-lpc/pdsp/internal/bitfield"
)

const (
	N64  = 30      // size of a frame in 64-bit words
	Size = 8 * N64 // size of a frame in bytes

	NumStreams        = 2                                // number of cold data streams per frame
	NumChansPerStream = 64                               // number of channels per cold data stream
	NumChans          = NumStreams * NumChansPerStream   // number of channels per frame
	NumADCWords       = NumChansPerStream * 12 / 64      // number of packed ADC words per stream
	NumASICs          = 8                                // number of ASICs per cold data stream
	NumChansPerASIC   = NumChansPerStream / NumASICs     // number of channels per ASIC

	CommaChar = 0xbc // K28.5
	Ticks     = 25   // timestamp increment between two consecutive frames
)

// Frame is a WIB frame, laid out exactly as it sits in memory.
type Frame struct {
	Hdr      uint64
	TS       uint64
	ColdData [NumStreams]ColdData
}

// ColdData is one of the two cold data streams of a frame.
type ColdData struct {
	Hdr  [2]uint64
	ADCs [NumADCWords]uint64
}

// compile-time checks of the memory layout.
var (
	_ [unsafe.Sizeof(Frame{}) - Size]struct{}
	_ [Size - unsafe.Sizeof(Frame{})]struct{}
)

var (
	fComma     = bitfield.Field{Width: 8, Offset: 0}
	fVersion   = bitfield.Field{Width: 5, Offset: 8}
	fID        = bitfield.Field{Width: 11, Offset: 13}
	fFiber     = bitfield.Field{Width: 3, Offset: 13}
	fCrate     = bitfield.Field{Width: 5, Offset: 16}
	fSlot      = bitfield.Field{Width: 3, Offset: 21}
	fReserved  = bitfield.Field{Width: 24, Offset: 24}
	fWibErrors = bitfield.Field{Width: 16, Offset: 48}

	// cold data header, word 0.
	fStreamErr1   = bitfield.Field{Width: 4, Offset: 0}
	fStreamErr2   = bitfield.Field{Width: 4, Offset: 4}
	fChecksumA    = bitfield.Field{Width: 16, Offset: 16}
	fChecksumB    = bitfield.Field{Width: 16, Offset: 32}
	fConvertCount = bitfield.Field{Width: 16, Offset: 48}

	// cold data header, word 1.
	fErrRegister = bitfield.Field{Width: 16, Offset: 0}
)

// ID identifies the WIB fiber a frame was received on.
// It is stored as 11 bits: fiber(3) crate(5) slot(3).
type ID uint16

// NewID creates an ID from its crate, slot and fiber numbers.
func NewID(crate, slot, fiber uint8) ID {
	return ID(uint16(fiber&0x7) | uint16(crate&0x1f)<<3 | uint16(slot&0x7)<<8)
}

func (id ID) Fiber() uint8 { return uint8(id & 0x7) }
func (id ID) Crate() uint8 { return uint8(id>>3) & 0x1f }
func (id ID) Slot() uint8  { return uint8(id>>8) & 0x7 }

func (id ID) String() string {
	return fmt.Sprintf("%d-%d-%d", id.Crate(), id.Slot(), id.Fiber())
}

// CommaChar returns the comma character of the frame header.
// It is CommaChar for a well-formed frame.
func (f *Frame) CommaChar() uint8 { return uint8(bitfield.Get(f.Hdr, fComma)) }

// Version returns the format version of the frame.
func (f *Frame) Version() uint8 { return uint8(bitfield.Get(f.Hdr, fVersion)) }

// ID returns the crate/slot/fiber identifier of the frame.
func (f *Frame) ID() ID { return ID(bitfield.Get(f.Hdr, fID)) }

func (f *Frame) Fiber() uint8 { return uint8(bitfield.Get(f.Hdr, fFiber)) }
func (f *Frame) Crate() uint8 { return uint8(bitfield.Get(f.Hdr, fCrate)) }
func (f *Frame) Slot() uint8  { return uint8(bitfield.Get(f.Hdr, fSlot)) }

// Reserved returns the reserved bits of the frame header.
func (f *Frame) Reserved() uint32 { return uint32(bitfield.Get(f.Hdr, fReserved)) }

// WibErrors returns the WIB error flags.
func (f *Frame) WibErrors() uint16 { return uint16(bitfield.Get(f.Hdr, fWibErrors)) }

// Timestamp returns the absolute sample time of the frame.
func (f *Frame) Timestamp() uint64 { return f.TS }

// SetHeader fills the frame header word. The comma character is set to CommaChar.
func (f *Frame) SetHeader(version uint8, id ID, wibErrors uint16) {
	w := uint64(CommaChar)
	w = bitfield.Set(w, fVersion, version)
	w = bitfield.Set(w, fID, uint16(id))
	w = bitfield.Set(w, fWibErrors, wibErrors)
	f.Hdr = w
}

// SetTimestamp sets the absolute sample time of the frame.
func (f *Frame) SetTimestamp(ts uint64) { f.TS = ts }

func (f *Frame) String() string {
	return fmt.Sprintf(
		"Frame{comma=0x%02x, version=%d, id=%v, errs=0x%04x, ts=%d}",
		f.CommaChar(), f.Version(), f.ID(), f.WibErrors(), f.TS,
	)
}

func (cd *ColdData) StreamErr1() uint8    { return uint8(bitfield.Get(cd.Hdr[0], fStreamErr1)) }
func (cd *ColdData) StreamErr2() uint8    { return uint8(bitfield.Get(cd.Hdr[0], fStreamErr2)) }
func (cd *ColdData) ChecksumA() uint16    { return uint16(bitfield.Get(cd.Hdr[0], fChecksumA)) }
func (cd *ColdData) ChecksumB() uint16    { return uint16(bitfield.Get(cd.Hdr[0], fChecksumB)) }
func (cd *ColdData) ConvertCount() uint16 { return uint16(bitfield.Get(cd.Hdr[0], fConvertCount)) }
func (cd *ColdData) ErrRegister() uint16  { return uint16(bitfield.Get(cd.Hdr[1], fErrRegister)) }

// ASICHdr returns the 4-bit header nibble of the i-th ASIC.
func (cd *ColdData) ASICHdr(i int) uint8 {
	return uint8(bitfield.Extract(cd.Hdr[1], 4, uint(32+4*i)))
}

// SetHeader fills the two header words of the cold data stream.
func (cd *ColdData) SetHeader(err1, err2 uint8, chkA, chkB, cvt, errReg uint16, hdrs [NumASICs]uint8) {
	w0 := bitfield.Set(uint64(0), fStreamErr1, err1)
	w0 = bitfield.Set(w0, fStreamErr2, err2)
	w0 = bitfield.Set(w0, fChecksumA, chkA)
	w0 = bitfield.Set(w0, fChecksumB, chkB)
	w0 = bitfield.Set(w0, fConvertCount, cvt)

	w1 := bitfield.Set(uint64(0), fErrRegister, errReg)
	for i, v := range hdrs {
		w1 = bitfield.Insert(w1, v, 4, uint(32+4*i))
	}
	cd.Hdr = [2]uint64{w0, w1}
}
