// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slice reads and writes the nested milli/micro/nano slice
// containers.
//
// A milli-slice holds micro-slices, a micro-slice holds nano-slices and
// a nano-slice holds 16-bit samples of a single channel.
// Each container starts with a 12-byte little-endian header:
//
//	milli, micro: version(u32) size(u32) count(u32)
//	nano:         version(u16) channel(u16) size(u32) count(u32)
//
// where size is the size in bytes of the container, header included,
// and count is the number of elements it holds.
package slice // import "github.com/go-lpc/pdsp/slice"

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/xerrors"
)

const (
	HeaderSize = 12 // size of all slice headers, in bytes
	SampleSize = 2  // size of a nano-slice sample, in bytes

	MilliVersion = 1
	MicroVersion = 1
	NanoVersion  = 1
)

var (
	ErrFull    = xerrors.New("slice: not enough room left")
	ErrShort   = xerrors.New("slice: buffer too short")
	ErrVersion = xerrors.New("slice: invalid version")
	ErrRange   = xerrors.New("slice: index out of range")
	ErrCorrupt = xerrors.New("slice: corrupted slice")
)

// MilliSlice is a read-only view of a milli-slice.
type MilliSlice struct {
	raw []byte
}

// NewMilliSlice returns a view of the milli-slice at the start of p.
func NewMilliSlice(p []byte) (MilliSlice, error) {
	raw, err := view(p, MilliVersion, versionU32)
	if err != nil {
		return MilliSlice{}, xerrors.Errorf("slice: invalid milli-slice: %w", err)
	}
	return MilliSlice{raw: raw}, nil
}

func (s MilliSlice) Version() uint32 { return binary.LittleEndian.Uint32(s.raw[0:]) }
func (s MilliSlice) Size() int       { return int(binary.LittleEndian.Uint32(s.raw[4:])) }
func (s MilliSlice) Count() int      { return int(binary.LittleEndian.Uint32(s.raw[8:])) }
func (s MilliSlice) Bytes() []byte   { return s.raw }

// MicroSlice returns the i-th micro-slice.
func (s MilliSlice) MicroSlice(i int) (MicroSlice, error) {
	p, err := elem(s.raw, s.Count(), i)
	if err != nil {
		return MicroSlice{}, err
	}
	raw, err := view(p, MicroVersion, versionU32)
	if err != nil {
		return MicroSlice{}, xerrors.Errorf("slice: invalid micro-slice %d: %w", i, err)
	}
	return MicroSlice{raw: raw}, nil
}

func (s MilliSlice) String() string {
	return fmt.Sprintf("MilliSlice{version=%d, size=%d, count=%d}", s.Version(), s.Size(), s.Count())
}

// MicroSlice is a read-only view of a micro-slice.
type MicroSlice struct {
	raw []byte
}

// NewMicroSlice returns a view of the micro-slice at the start of p.
func NewMicroSlice(p []byte) (MicroSlice, error) {
	raw, err := view(p, MicroVersion, versionU32)
	if err != nil {
		return MicroSlice{}, xerrors.Errorf("slice: invalid micro-slice: %w", err)
	}
	return MicroSlice{raw: raw}, nil
}

func (s MicroSlice) Version() uint32 { return binary.LittleEndian.Uint32(s.raw[0:]) }
func (s MicroSlice) Size() int       { return int(binary.LittleEndian.Uint32(s.raw[4:])) }
func (s MicroSlice) Count() int      { return int(binary.LittleEndian.Uint32(s.raw[8:])) }
func (s MicroSlice) Bytes() []byte   { return s.raw }

// NanoSlice returns the i-th nano-slice.
func (s MicroSlice) NanoSlice(i int) (NanoSlice, error) {
	p, err := elem(s.raw, s.Count(), i)
	if err != nil {
		return NanoSlice{}, err
	}
	raw, err := view(p, NanoVersion, versionU16)
	if err != nil {
		return NanoSlice{}, xerrors.Errorf("slice: invalid nano-slice %d: %w", i, err)
	}
	ns := NanoSlice{raw: raw}
	if HeaderSize+SampleSize*ns.Count() > len(raw) {
		return NanoSlice{}, xerrors.Errorf(
			"slice: nano-slice %d with %d samples does not fit in %d bytes: %w",
			i, ns.Count(), len(raw), ErrCorrupt,
		)
	}
	return ns, nil
}

func (s MicroSlice) String() string {
	return fmt.Sprintf("MicroSlice{version=%d, size=%d, count=%d}", s.Version(), s.Size(), s.Count())
}

// NanoSlice is a read-only view of a nano-slice.
type NanoSlice struct {
	raw []byte
}

func (s NanoSlice) Version() uint16 { return binary.LittleEndian.Uint16(s.raw[0:]) }
func (s NanoSlice) Channel() uint16 { return binary.LittleEndian.Uint16(s.raw[2:]) }
func (s NanoSlice) Size() int       { return int(binary.LittleEndian.Uint32(s.raw[4:])) }
func (s NanoSlice) Count() int      { return int(binary.LittleEndian.Uint32(s.raw[8:])) }
func (s NanoSlice) Bytes() []byte   { return s.raw }

// Sample returns the i-th sample.
func (s NanoSlice) Sample(i int) (uint16, error) {
	if i < 0 || i >= s.Count() {
		return 0, xerrors.Errorf("slice: sample %d out of range [0, %d): %w", i, s.Count(), ErrRange)
	}
	return binary.LittleEndian.Uint16(s.raw[HeaderSize+SampleSize*i:]), nil
}

// Samples appends all the samples of the nano-slice to dst.
func (s NanoSlice) Samples(dst []uint16) []uint16 {
	for i := 0; i < s.Count(); i++ {
		dst = append(dst, binary.LittleEndian.Uint16(s.raw[HeaderSize+SampleSize*i:]))
	}
	return dst
}

func (s NanoSlice) String() string {
	return fmt.Sprintf(
		"NanoSlice{version=%d, channel=%d, size=%d, count=%d}",
		s.Version(), s.Channel(), s.Size(), s.Count(),
	)
}

type versionKind uint8

const (
	versionU32 versionKind = iota
	versionU16
)

// view checks the header at the start of p and returns the slice it spans.
func view(p []byte, version uint32, kind versionKind) ([]byte, error) {
	if len(p) < HeaderSize {
		return nil, xerrors.Errorf("slice: header needs %d bytes, got %d: %w", HeaderSize, len(p), ErrShort)
	}
	var vers uint32
	switch kind {
	case versionU16:
		vers = uint32(binary.LittleEndian.Uint16(p))
	default:
		vers = binary.LittleEndian.Uint32(p)
	}
	if vers != version {
		return nil, xerrors.Errorf("slice: got version %d, want %d: %w", vers, version, ErrVersion)
	}
	n := int(binary.LittleEndian.Uint32(p[4:]))
	if n < HeaderSize || n > len(p) {
		return nil, xerrors.Errorf("slice: size %d does not fit in %d bytes: %w", n, len(p), ErrShort)
	}
	return p[:n:n], nil
}

// elem returns the bytes starting at the i-th element of a slice
// holding n variable-size elements.
func elem(raw []byte, n, i int) ([]byte, error) {
	if i < 0 || i >= n {
		return nil, xerrors.Errorf("slice: element %d out of range [0, %d): %w", i, n, ErrRange)
	}
	off := HeaderSize
	for j := 0; j < i; j++ {
		if off+HeaderSize > len(raw) {
			return nil, xerrors.Errorf("slice: element %d overruns slice: %w", j, ErrCorrupt)
		}
		sz := int(binary.LittleEndian.Uint32(raw[off+4:]))
		if sz < HeaderSize {
			return nil, xerrors.Errorf("slice: element %d has invalid size %d: %w", j, sz, ErrCorrupt)
		}
		off += sz
	}
	if off > len(raw) {
		return nil, xerrors.Errorf("slice: element %d overruns slice: %w", i, ErrCorrupt)
	}
	return raw[off:], nil
}
