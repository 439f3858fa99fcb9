// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slice

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// wbuf is a bounded writer over a caller-owned buffer.
//
// The header size field always holds the number of bytes actually
// written, never the capacity. Growth is forwarded to the enclosing
// container, if any, so that its size stays up to date as well.
type wbuf struct {
	p      []byte
	size   int // bytes written, header included
	cap    int // bytes available, header included
	count  int // number of elements
	parent *wbuf
	sizeAt int // offset of the size field
	cntAt  int // offset of the count field
}

func (w *wbuf) init(p []byte, parent *wbuf) {
	w.p = p
	w.size = HeaderSize
	w.cap = len(p)
	w.parent = parent
	w.sizeAt = 4
	w.cntAt = 8
	w.flush()
}

// fits reports whether n more bytes fit in the buffer.
func (w *wbuf) fits(n int) bool {
	return w.size+n <= w.cap
}

// grow records n more bytes, here and in all the enclosing containers.
func (w *wbuf) grow(n int) {
	for c := w; c != nil; c = c.parent {
		c.size += n
		c.flush()
	}
}

func (w *wbuf) flush() {
	binary.LittleEndian.PutUint32(w.p[w.sizeAt:], uint32(w.size))
	binary.LittleEndian.PutUint32(w.p[w.cntAt:], uint32(w.count))
}

// finalize locks the buffer at its current size and returns the number
// of bytes reclaimed.
func (w *wbuf) finalize() int {
	n := w.cap - w.size
	w.cap = w.size
	return n
}

// MilliSliceWriter builds a milli-slice into a caller-owned buffer.
// A MilliSliceWriter is not safe for concurrent use.
type MilliSliceWriter struct {
	w     wbuf
	micro *MicroSliceWriter // latest micro-slice
}

// NewMilliSliceWriter creates a milli-slice writer using all of buf.
func NewMilliSliceWriter(buf []byte) (*MilliSliceWriter, error) {
	if len(buf) < HeaderSize {
		return nil, xerrors.Errorf("slice: milli-slice needs %d bytes, got %d: %w", HeaderSize, len(buf), ErrShort)
	}
	var ms MilliSliceWriter
	binary.LittleEndian.PutUint32(buf, MilliVersion)
	ms.w.init(buf, nil)
	return &ms, nil
}

func (ms *MilliSliceWriter) Size() int     { return ms.w.size }
func (ms *MilliSliceWriter) Capacity() int { return ms.w.cap }
func (ms *MilliSliceWriter) Count() int    { return ms.w.count }
func (ms *MilliSliceWriter) Bytes() []byte { return ms.w.p[:ms.w.size] }

// ReserveMicroSlice finalizes the latest micro-slice and reserves max
// bytes, header included, for a new one.
// ReserveMicroSlice returns ErrFull, leaving the milli-slice untouched,
// when max bytes are not available.
func (ms *MilliSliceWriter) ReserveMicroSlice(max int) (*MicroSliceWriter, error) {
	if max < HeaderSize {
		return nil, xerrors.Errorf("slice: micro-slice needs at least %d bytes, got %d: %w", HeaderSize, max, ErrShort)
	}
	if !ms.w.fits(max) {
		return nil, xerrors.Errorf(
			"slice: micro-slice of %d bytes does not fit in milli-slice (size=%d, capacity=%d): %w",
			max, ms.w.size, ms.w.cap, ErrFull,
		)
	}
	if ms.micro != nil {
		ms.micro.Finalize()
	}

	var (
		beg = ms.w.size
		buf = ms.w.p[beg : beg+max : beg+max]
	)
	ms.w.count++
	ms.w.flush()

	micro := &MicroSliceWriter{}
	binary.LittleEndian.PutUint32(buf, MicroVersion)
	micro.w.init(buf, &ms.w)
	ms.w.grow(HeaderSize)
	ms.micro = micro
	return micro, nil
}

// Finalize finalizes the latest micro-slice, then locks the milli-slice
// at its current size. Finalize returns the number of bytes reclaimed.
// Calling Finalize again returns 0.
func (ms *MilliSliceWriter) Finalize() int {
	if ms.micro != nil {
		ms.micro.Finalize()
	}
	return ms.w.finalize()
}

// MicroSliceWriter builds a micro-slice.
// A MicroSliceWriter is not safe for concurrent use.
type MicroSliceWriter struct {
	w    wbuf
	nano *NanoSliceWriter // latest nano-slice
}

// NewMicroSliceWriter creates a standalone micro-slice writer using all of buf.
func NewMicroSliceWriter(buf []byte) (*MicroSliceWriter, error) {
	if len(buf) < HeaderSize {
		return nil, xerrors.Errorf("slice: micro-slice needs %d bytes, got %d: %w", HeaderSize, len(buf), ErrShort)
	}
	var ms MicroSliceWriter
	binary.LittleEndian.PutUint32(buf, MicroVersion)
	ms.w.init(buf, nil)
	return &ms, nil
}

func (ms *MicroSliceWriter) Size() int     { return ms.w.size }
func (ms *MicroSliceWriter) Capacity() int { return ms.w.cap }
func (ms *MicroSliceWriter) Count() int    { return ms.w.count }
func (ms *MicroSliceWriter) Bytes() []byte { return ms.w.p[:ms.w.size] }

// ReserveNanoSlice finalizes the latest nano-slice and reserves max
// bytes, header included, for a new nano-slice of the given channel.
// ReserveNanoSlice returns ErrFull, leaving the micro-slice untouched,
// when max bytes are not available.
func (ms *MicroSliceWriter) ReserveNanoSlice(max int, channel uint16) (*NanoSliceWriter, error) {
	if max < HeaderSize {
		return nil, xerrors.Errorf("slice: nano-slice needs at least %d bytes, got %d: %w", HeaderSize, max, ErrShort)
	}
	if !ms.w.fits(max) {
		return nil, xerrors.Errorf(
			"slice: nano-slice of %d bytes does not fit in micro-slice (size=%d, capacity=%d): %w",
			max, ms.w.size, ms.w.cap, ErrFull,
		)
	}
	if ms.nano != nil {
		ms.nano.Finalize()
	}

	var (
		beg = ms.w.size
		buf = ms.w.p[beg : beg+max : beg+max]
	)
	ms.w.count++
	ms.w.flush()

	nano := newNanoSliceWriter(buf, channel, &ms.w)
	ms.w.grow(HeaderSize)
	ms.nano = nano
	return nano, nil
}

// Finalize finalizes the latest nano-slice, then locks the micro-slice
// at its current size. Finalize returns the number of bytes reclaimed.
// Calling Finalize again returns 0.
func (ms *MicroSliceWriter) Finalize() int {
	if ms.nano != nil {
		ms.nano.Finalize()
	}
	return ms.w.finalize()
}

// NanoSliceWriter builds a nano-slice.
// A NanoSliceWriter is not safe for concurrent use.
type NanoSliceWriter struct {
	w wbuf
}

// NewNanoSliceWriter creates a standalone nano-slice writer using all of buf.
func NewNanoSliceWriter(buf []byte, channel uint16) (*NanoSliceWriter, error) {
	if len(buf) < HeaderSize {
		return nil, xerrors.Errorf("slice: nano-slice needs %d bytes, got %d: %w", HeaderSize, len(buf), ErrShort)
	}
	return newNanoSliceWriter(buf, channel, nil), nil
}

func newNanoSliceWriter(buf []byte, channel uint16, parent *wbuf) *NanoSliceWriter {
	var ns NanoSliceWriter
	binary.LittleEndian.PutUint16(buf[0:], NanoVersion)
	binary.LittleEndian.PutUint16(buf[2:], channel)
	ns.w.init(buf, parent)
	return &ns
}

func (ns *NanoSliceWriter) Size() int     { return ns.w.size }
func (ns *NanoSliceWriter) Capacity() int { return ns.w.cap }
func (ns *NanoSliceWriter) Count() int    { return ns.w.count }
func (ns *NanoSliceWriter) Bytes() []byte { return ns.w.p[:ns.w.size] }

// AddSample appends a sample to the nano-slice.
// AddSample returns ErrFull, leaving the nano-slice untouched, when
// the sample does not fit.
func (ns *NanoSliceWriter) AddSample(v uint16) error {
	if !ns.w.fits(SampleSize) {
		return xerrors.Errorf(
			"slice: sample does not fit in nano-slice (size=%d, capacity=%d): %w",
			ns.w.size, ns.w.cap, ErrFull,
		)
	}
	binary.LittleEndian.PutUint16(ns.w.p[ns.w.size:], v)
	ns.w.count++
	ns.w.grow(SampleSize)
	return nil
}

// Finalize locks the nano-slice at its current size and returns the
// number of bytes reclaimed. Calling Finalize again returns 0.
func (ns *NanoSliceWriter) Finalize() int {
	return ns.w.finalize()
}
