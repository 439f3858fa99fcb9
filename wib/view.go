// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wib

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/xerrors"
)

var (
	// ErrSize is returned when a buffer does not hold a whole number of frames.
	ErrSize = xerrors.New("wib: invalid buffer size")
)

var littleEndian = func() bool {
	v := uint16(1)
	return *(*byte)(unsafe.Pointer(&v)) == 1
}()

// View returns the frames held by p.
//
// When p is 8-byte aligned and the host is little-endian, the returned
// frames share their memory with p: no copy is made and modifying p
// modifies the frames.
// Otherwise the frames are decoded into a newly allocated slice.
func View(p []byte) ([]Frame, error) {
	if len(p)%Size != 0 {
		return nil, xerrors.Errorf("wib: %d bytes is not a multiple of the frame size (%d): %w", len(p), Size, ErrSize)
	}
	n := len(p) / Size
	if n == 0 {
		return nil, nil
	}
	if !littleEndian || uintptr(unsafe.Pointer(&p[0]))%8 != 0 {
		return Decode(p)
	}
	return unsafe.Slice((*Frame)(unsafe.Pointer(&p[0])), n), nil
}

// Decode decodes the frames held by p into a newly allocated slice.
func Decode(p []byte) ([]Frame, error) {
	if len(p)%Size != 0 {
		return nil, xerrors.Errorf("wib: %d bytes is not a multiple of the frame size (%d): %w", len(p), Size, ErrSize)
	}
	frames := make([]Frame, len(p)/Size)
	for i := range frames {
		frames[i].unmarshal(p[i*Size : (i+1)*Size])
	}
	return frames, nil
}

// Append appends the little-endian binary representation of frames to p.
func Append(p []byte, frames ...Frame) []byte {
	var buf [Size]byte
	for i := range frames {
		frames[i].marshal(buf[:])
		p = append(p, buf[:]...)
	}
	return p
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *Frame) MarshalBinary() ([]byte, error) {
	p := make([]byte, Size)
	f.marshal(p)
	return p, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (f *Frame) UnmarshalBinary(p []byte) error {
	if len(p) < Size {
		return xerrors.Errorf("wib: short buffer (%d < %d): %w", len(p), Size, ErrSize)
	}
	f.unmarshal(p)
	return nil
}

func (f *Frame) words() *[N64]uint64 {
	return (*[N64]uint64)(unsafe.Pointer(f))
}

func (f *Frame) marshal(p []byte) {
	_ = p[Size-1]
	for i, w := range f.words() {
		binary.LittleEndian.PutUint64(p[8*i:], w)
	}
}

func (f *Frame) unmarshal(p []byte) {
	_ = p[Size-1]
	ws := f.words()
	for i := range ws {
		ws[i] = binary.LittleEndian.Uint64(p[8*i:])
	}
}
