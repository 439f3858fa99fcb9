// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wib

import (
	"encoding/binary"
	"errors"
	"testing"
	"unsafe"
)

func TestView(t *testing.T) {
	frames := newFrames(10)
	raw := Append(nil, frames...)

	if got, want := len(raw), 10*Size; got != want {
		t.Fatalf("invalid encoded size: got=%d, want=%d", got, want)
	}
	if got, want := binary.LittleEndian.Uint64(raw[Size+8:]), frames[1].TS; got != want {
		t.Fatalf("invalid encoded timestamp: got=%d, want=%d", got, want)
	}

	// force an 8-byte aligned buffer.
	words := make([]uint64, len(raw)/8)
	aligned := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(raw))
	copy(aligned, raw)

	view, err := View(aligned)
	if err != nil {
		t.Fatalf("could not view frames: %+v", err)
	}
	if got, want := len(view), len(frames); got != want {
		t.Fatalf("invalid number of frames: got=%d, want=%d", got, want)
	}
	for i := range view {
		if view[i] != frames[i] {
			t.Fatalf("frame %d differs", i)
		}
	}
	if littleEndian && unsafe.Pointer(&view[0]) != unsafe.Pointer(&aligned[0]) {
		t.Fatalf("aligned view should not copy")
	}

	// misaligned buffers are decoded.
	misaligned := make([]byte, len(raw)+1)
	copy(misaligned[1:], raw)
	view, err = View(misaligned[1:])
	if err != nil {
		t.Fatalf("could not view misaligned frames: %+v", err)
	}
	for i := range view {
		if view[i] != frames[i] {
			t.Fatalf("misaligned frame %d differs", i)
		}
	}

	view, err = View(nil)
	if err != nil || view != nil {
		t.Fatalf("invalid empty view: frames=%v, err=%+v", view, err)
	}

	_, err = View(raw[:Size+1])
	if !errors.Is(err, ErrSize) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrSize)
	}
	_, err = Decode(raw[:7])
	if !errors.Is(err, ErrSize) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrSize)
	}
}

func TestMarshalBinary(t *testing.T) {
	f := newFrames(1)[0]
	p, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("could not marshal frame: %+v", err)
	}

	var got Frame
	err = got.UnmarshalBinary(p)
	if err != nil {
		t.Fatalf("could not unmarshal frame: %+v", err)
	}
	if got != f {
		t.Fatalf("round-trip failed")
	}

	err = got.UnmarshalBinary(p[:Size-1])
	if !errors.Is(err, ErrSize) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrSize)
	}
}
