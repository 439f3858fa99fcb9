// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitfield

import (
	"fmt"
	"testing"
)

func TestMask(t *testing.T) {
	for _, tc := range []struct {
		width uint
		m32   uint32
		m64   uint64
	}{
		{0, 0, 0},
		{1, 0x1, 0x1},
		{4, 0xf, 0xf},
		{12, 0xfff, 0xfff},
		{28, 0xfffffff, 0xfffffff},
		{32, 0xffffffff, 0xffffffff},
		{64, 0xffffffff, 0xffffffffffffffff},
	} {
		t.Run(fmt.Sprintf("width=%d", tc.width), func(t *testing.T) {
			if got, want := Mask[uint32](tc.width), tc.m32; got != want {
				t.Fatalf("invalid 32b mask: got=0x%x, want=0x%x", got, want)
			}
			if got, want := Mask[uint64](tc.width), tc.m64; got != want {
				t.Fatalf("invalid 64b mask: got=0x%x, want=0x%x", got, want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	const w64 = uint64(0xfedcba9876543210)
	for _, tc := range []struct {
		width, offset uint
		want          uint64
	}{
		{4, 0, 0x0},
		{4, 4, 0x1},
		{8, 8, 0x32},
		{12, 20, 0x765},
		{16, 48, 0xfedc},
		{64, 0, w64},
		{1, 63, 1},
	} {
		t.Run(fmt.Sprintf("%d@%d", tc.width, tc.offset), func(t *testing.T) {
			if got, want := Extract(w64, tc.width, tc.offset), tc.want; got != want {
				t.Fatalf("invalid field: got=0x%x, want=0x%x", got, want)
			}
		})
	}

	const w32 = uint32(0x76543210)
	if got, want := Extract(w32, 28, 0), uint32(0x6543210); got != want {
		t.Fatalf("invalid 32b field: got=0x%x, want=0x%x", got, want)
	}
	if got, want := Extract(w32, 4, 28), uint32(0x7); got != want {
		t.Fatalf("invalid 32b field: got=0x%x, want=0x%x", got, want)
	}
}

func TestInsert(t *testing.T) {
	var w uint64
	w = Insert(w, uint8(0xbc), 8, 0)
	w = Insert(w, uint8(0x1f), 5, 8)
	w = Insert(w, uint16(0xffff), 3, 13) // truncated to 3 bits
	w = Insert(w, uint16(0xbeef), 16, 48)

	for _, tc := range []struct {
		f    Field
		want uint64
	}{
		{Field{8, 0}, 0xbc},
		{Field{5, 8}, 0x1f},
		{Field{3, 13}, 0x7},
		{Field{8, 16}, 0},
		{Field{16, 48}, 0xbeef},
	} {
		if got, want := Get(w, tc.f), tc.want; got != want {
			t.Fatalf("invalid field %+v: got=0x%x, want=0x%x", tc.f, got, want)
		}
	}

	// overwrite a field, leave the neighbours alone.
	w = Set(w, Field{5, 8}, uint32(2))
	if got, want := Get(w, Field{5, 8}), uint64(2); got != want {
		t.Fatalf("invalid overwritten field: got=%d, want=%d", got, want)
	}
	if got, want := Get(w, Field{8, 0}), uint64(0xbc); got != want {
		t.Fatalf("invalid neighbour field: got=0x%x, want=0x%x", got, want)
	}
	if got, want := Get(w, Field{3, 13}), uint64(7); got != want {
		t.Fatalf("invalid neighbour field: got=0x%x, want=0x%x", got, want)
	}
}
