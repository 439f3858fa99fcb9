// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitfield provides masked-shift accessors for fields packed
// inside 32- and 64-bit words.
//
// A field is described by its width and by the offset of its least
// significant bit. offset+width must not exceed the bit size of the word:
// all the layouts in this module are compile-time constants that honour
// that rule, so it is not checked at run time.
package bitfield // import "github.com/go-lpc/pdsp/internal/bitfield"

import (
	"golang.org/x/exp/constraints"
)

// Word is the set of words fields can be extracted from.
type Word interface {
	~uint32 | ~uint64
}

// Field describes a bit-field by its width and offset.
type Field struct {
	Width  uint
	Offset uint
}

// Mask returns the right-justified mask of a field of the given width.
func Mask[W Word](width uint) W {
	if width >= bitsOf[W]() {
		return ^W(0)
	}
	return W(1)<<width - 1
}

// Extract returns the right-justified value of the field
// [offset, offset+width) of word.
func Extract[W Word](word W, width, offset uint) W {
	return (word >> offset) & Mask[W](width)
}

// Insert returns word with the field [offset, offset+width) replaced by v.
// Bits of v beyond width are dropped.
func Insert[W Word, V constraints.Unsigned](word W, v V, width, offset uint) W {
	m := Mask[W](width)
	return word&^(m<<offset) | (W(v)&m)<<offset
}

// Get extracts the field f from word.
func Get[W Word](word W, f Field) W {
	return Extract(word, f.Width, f.Offset)
}

// Set stores v into the field f of word.
func Set[W Word, V constraints.Unsigned](word W, f Field, v V) W {
	return Insert(word, v, f.Width, f.Offset)
}

func bitsOf[W Word]() uint {
	var w W
	w = ^w
	if uint64(w) == 1<<32-1 {
		return 32
	}
	return 64
}
