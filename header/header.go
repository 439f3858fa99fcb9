// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package header describes the generic record headers used by the
// RCE data formats.
//
// Four layouts exist, Header0 to Header3. They all share a 4-bit format
// field in the least significant bits of their first word: the format must
// be read first, it selects how the remaining bits are laid out.
//
//	Header0 (64b): format(4) type(4) n64(24) bridge(32)
//	Header1 (64b): format(4) type(4) n64(24) naux64(4) subtype(4) bridge(24)
//	Header2 (32b): format(4) type(4) n64(12) bridge(12)
//	Header3 (32b): format(4) type(4) subtype(4) n64(20)
package header // import "github.com/go-lpc/pdsp/header"

import (
	"fmt"

	"github.com/go-lpc/pdsp/internal/bitfield"
)

// Format identifies one of the header layouts.
type Format uint8

const (
	Format0 Format = 0
	Format1 Format = 1
	Format2 Format = 2
	Format3 Format = 3
)

func (f Format) String() string {
	switch f {
	case Format0, Format1, Format2, Format3:
		return fmt.Sprintf("Header%d", uint8(f))
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

var (
	fFormat = bitfield.Field{Width: 4, Offset: 0}
	fType   = bitfield.Field{Width: 4, Offset: 4}
)

// FormatOf returns the format discriminant of a header word.
func FormatOf(w uint64) Format {
	return Format(bitfield.Get(w, fFormat))
}

// TypeOf returns the record type nibble of a header word.
// The type nibble sits at the same place in all the layouts.
func TypeOf(w uint64) uint8 {
	return uint8(bitfield.Get(w, fType))
}

// Header0 is a 64-bit header with a 32-bit bridge word.
type Header0 uint64

var h0 = struct {
	n64, bridge bitfield.Field
}{
	n64:    bitfield.Field{Width: 24, Offset: 8},
	bridge: bitfield.Field{Width: 32, Offset: 32},
}

// NewHeader0 creates a Header0 word.
func NewHeader0(typ uint8, n64 uint32, bridge uint32) Header0 {
	w := uint64(Format0)
	w = bitfield.Set(w, fType, typ)
	w = bitfield.Set(w, h0.n64, n64)
	w = bitfield.Set(w, h0.bridge, bridge)
	return Header0(w)
}

func (h Header0) Format() Format { return Format(bitfield.Get(uint64(h), fFormat)) }
func (h Header0) Type() uint8    { return uint8(bitfield.Get(uint64(h), fType)) }
func (h Header0) N64() uint32    { return uint32(bitfield.Get(uint64(h), h0.n64)) }
func (h Header0) Nbytes() uint32 { return h.N64() * 8 }
func (h Header0) Bridge() uint32 { return uint32(bitfield.Get(uint64(h), h0.bridge)) }
func (h Header0) Subtype() uint8 { return 0 }
func (h Header0) Naux64() uint8  { return 0 }
func (h Header0) Word() uint64   { return uint64(h) }
func (h Header0) String() string { return str(h) }

// Header1 is a 64-bit header with auxiliary-length and subtype fields.
type Header1 uint64

var h1 = struct {
	n64, naux64, subtype, bridge bitfield.Field
}{
	n64:     bitfield.Field{Width: 24, Offset: 8},
	naux64:  bitfield.Field{Width: 4, Offset: 32},
	subtype: bitfield.Field{Width: 4, Offset: 36},
	bridge:  bitfield.Field{Width: 24, Offset: 40},
}

// NewHeader1 creates a Header1 word.
func NewHeader1(typ uint8, n64 uint32, naux64, subtype uint8, bridge uint32) Header1 {
	w := uint64(Format1)
	w = bitfield.Set(w, fType, typ)
	w = bitfield.Set(w, h1.n64, n64)
	w = bitfield.Set(w, h1.naux64, naux64)
	w = bitfield.Set(w, h1.subtype, subtype)
	w = bitfield.Set(w, h1.bridge, bridge)
	return Header1(w)
}

func (h Header1) Format() Format { return Format(bitfield.Get(uint64(h), fFormat)) }
func (h Header1) Type() uint8    { return uint8(bitfield.Get(uint64(h), fType)) }
func (h Header1) N64() uint32    { return uint32(bitfield.Get(uint64(h), h1.n64)) }
func (h Header1) Nbytes() uint32 { return h.N64() * 8 }
func (h Header1) Naux64() uint8  { return uint8(bitfield.Get(uint64(h), h1.naux64)) }
func (h Header1) Subtype() uint8 { return uint8(bitfield.Get(uint64(h), h1.subtype)) }
func (h Header1) Bridge() uint32 { return uint32(bitfield.Get(uint64(h), h1.bridge)) }
func (h Header1) Word() uint64   { return uint64(h) }
func (h Header1) String() string { return str(h) }

// Header2 is a compact 32-bit header.
type Header2 uint32

var h2 = struct {
	n64, bridge bitfield.Field
}{
	n64:    bitfield.Field{Width: 12, Offset: 8},
	bridge: bitfield.Field{Width: 12, Offset: 20},
}

// NewHeader2 creates a Header2 word.
func NewHeader2(typ uint8, n64 uint32, bridge uint32) Header2 {
	w := uint32(Format2)
	w = bitfield.Set(w, fType, typ)
	w = bitfield.Set(w, h2.n64, n64)
	w = bitfield.Set(w, h2.bridge, bridge)
	return Header2(w)
}

func (h Header2) Format() Format { return Format(bitfield.Get(uint32(h), fFormat)) }
func (h Header2) Type() uint8    { return uint8(bitfield.Get(uint32(h), fType)) }
func (h Header2) N64() uint32    { return bitfield.Get(uint32(h), h2.n64) }
func (h Header2) Nbytes() uint32 { return h.N64() * 8 }
func (h Header2) Bridge() uint32 { return bitfield.Get(uint32(h), h2.bridge) }
func (h Header2) Subtype() uint8 { return 0 }
func (h Header2) Naux64() uint8  { return 0 }
func (h Header2) Word() uint64   { return uint64(h) }
func (h Header2) String() string { return str(h) }

// Header3 is a 32-bit header with a subtype and a 20-bit length.
type Header3 uint32

var h3 = struct {
	subtype, n64 bitfield.Field
}{
	subtype: bitfield.Field{Width: 4, Offset: 8},
	n64:     bitfield.Field{Width: 20, Offset: 12},
}

// NewHeader3 creates a Header3 word.
func NewHeader3(typ, subtype uint8, n64 uint32) Header3 {
	w := uint32(Format3)
	w = bitfield.Set(w, fType, typ)
	w = bitfield.Set(w, h3.subtype, subtype)
	w = bitfield.Set(w, h3.n64, n64)
	return Header3(w)
}

func (h Header3) Format() Format { return Format(bitfield.Get(uint32(h), fFormat)) }
func (h Header3) Type() uint8    { return uint8(bitfield.Get(uint32(h), fType)) }
func (h Header3) N64() uint32    { return bitfield.Get(uint32(h), h3.n64) }
func (h Header3) Nbytes() uint32 { return h.N64() * 8 }
func (h Header3) Subtype() uint8 { return uint8(bitfield.Get(uint32(h), h3.subtype)) }
func (h Header3) Bridge() uint32 { return 0 }
func (h Header3) Naux64() uint8  { return 0 }
func (h Header3) Word() uint64   { return uint64(h) }
func (h Header3) String() string { return str(h) }

// Header is the closed set of header layouts.
// Values are obtained with Decode, which dispatches on the format nibble.
type Header interface {
	Format() Format
	Type() uint8
	N64() uint32
	Nbytes() uint32
	Subtype() uint8
	Naux64() uint8
	Bridge() uint32
	Word() uint64

	isHeader()
}

func (Header0) isHeader() {}
func (Header1) isHeader() {}
func (Header2) isHeader() {}
func (Header3) isHeader() {}

var (
	_ Header = Header0(0)
	_ Header = Header1(0)
	_ Header = Header2(0)
	_ Header = Header3(0)
)

// Decode reads the format discriminant of w and returns the header with
// the matching layout. The 32-bit layouts use the low half of w.
// Decode returns false for an unknown format.
func Decode(w uint64) (Header, bool) {
	switch FormatOf(w) {
	case Format0:
		return Header0(w), true
	case Format1:
		return Header1(w), true
	case Format2:
		return Header2(uint32(w)), true
	case Format3:
		return Header3(uint32(w)), true
	}
	return nil, false
}

func str(h Header) string {
	return fmt.Sprintf(
		"%v{type=%d, n64=%d, naux64=%d, subtype=%d, bridge=0x%x}",
		h.Format(), h.Type(), h.N64(), h.Naux64(), h.Subtype(), h.Bridge(),
	)
}
