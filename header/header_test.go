// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"testing"
)

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		name string
		w    uint64
		want Header
		str  string
	}{
		{
			name: "header0",
			w:    NewHeader0(3, 1234, 0xcafebabe).Word(),
			want: Header0(NewHeader0(3, 1234, 0xcafebabe)),
			str:  "Header0{type=3, n64=1234, naux64=0, subtype=0, bridge=0xcafebabe}",
		},
		{
			name: "header1",
			w:    NewHeader1(0, 0xffffff, 2, 5, 0x7ff).Word(),
			want: NewHeader1(0, 0xffffff, 2, 5, 0x7ff),
			str:  "Header1{type=0, n64=16777215, naux64=2, subtype=5, bridge=0x7ff}",
		},
		{
			name: "header2",
			w:    0xdeadbeef_00000000 | NewHeader2(2, 0xfff, 0x12).Word(),
			want: NewHeader2(2, 0xfff, 0x12),
			str:  "Header2{type=2, n64=4095, naux64=0, subtype=0, bridge=0x12}",
		},
		{
			name: "header3",
			w:    NewHeader3(7, 9, 0xabcde).Word(),
			want: NewHeader3(7, 9, 0xabcde),
			str:  "Header3{type=7, n64=703710, naux64=0, subtype=9, bridge=0x0}",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h, ok := Decode(tc.w)
			if !ok {
				t.Fatalf("could not decode header 0x%x", tc.w)
			}
			if got, want := h, tc.want; got != want {
				t.Fatalf("invalid header: got=%v, want=%v", got, want)
			}
			if got, want := h.(interface{ String() string }).String(), tc.str; got != want {
				t.Fatalf("invalid string:\ngot= %s\nwant=%s", got, want)
			}
			if got, want := h.Nbytes(), 8*h.N64(); got != want {
				t.Fatalf("invalid nbytes: got=%d, want=%d", got, want)
			}
			if got, want := TypeOf(tc.w), h.Type(); got != want {
				t.Fatalf("invalid type nibble: got=%d, want=%d", got, want)
			}
		})
	}
}

func TestDecodeUnknown(t *testing.T) {
	for _, f := range []uint64{4, 7, 0xf} {
		h, ok := Decode(0xffff0 | f)
		if ok || h != nil {
			t.Fatalf("format %d: expected unknown format, got %v", f, h)
		}
		if got, want := FormatOf(f).String(), "Format("; got[:len(want)] != want {
			t.Fatalf("invalid format string: %q", got)
		}
	}
}

func TestFieldsDoNotOverlap(t *testing.T) {
	h := NewHeader1(0xf, 0, 0, 0, 0)
	if h.N64() != 0 || h.Bridge() != 0 || h.Subtype() != 0 || h.Naux64() != 0 {
		t.Fatalf("type nibble leaked into other fields: %v", h)
	}
	if got, want := h.Format(), Format1; got != want {
		t.Fatalf("invalid format: got=%v, want=%v", got, want)
	}

	h2 := NewHeader2(0, 0, 0xfff)
	if got, want := h2.N64(), uint32(0); got != want {
		t.Fatalf("bridge leaked into n64: got=%d", got)
	}
	if got, want := h2.Bridge(), uint32(0xfff); got != want {
		t.Fatalf("invalid bridge: got=0x%x, want=0x%x", got, want)
	}
}
