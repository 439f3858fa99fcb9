// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wib

import (
	"fmt"
)

// The transposition routines reorganize N frames into a channel-major
// layout, where the time series of each channel is contiguous:
//
//	dst[ch][i] = adc(frames[i], ch)
//
// Two destination topologies are supported:
//   - contiguous: a single buffer addressed as dst[ch*stride + i],
//   - channel-by-channel: 128 independent slices addressed as dst[ch][offset+i].
//
// The work is done per group of 16 channels (3 packed words of a cold data
// stream). Frames are consumed by blocks of 32, then blocks of 8, and the
// remaining 1 to 7 frames are expanded one at a time.

// Transpose transposes the 128 channels of an arbitrary number of frames
// into the contiguous buffer dst:
//
//	dst[ch*stride + i] = adc(frames[i], ch)
//
// stride must be at least len(frames).
func Transpose(dst []int16, stride int, frames []Frame) {
	transpose(frames, 1, contiguous(dst, stride, len(frames)))
}

// Transpose8N is like Transpose. len(frames) must be a multiple of 8.
func Transpose8N(dst []int16, stride int, frames []Frame) {
	transpose(frames, 8, contiguous(dst, stride, len(frames)))
}

// Transpose16N is like Transpose. len(frames) must be a multiple of 16.
func Transpose16N(dst []int16, stride int, frames []Frame) {
	transpose(frames, 16, contiguous(dst, stride, len(frames)))
}

// Transpose32N is like Transpose. len(frames) must be a multiple of 32.
func Transpose32N(dst []int16, stride int, frames []Frame) {
	transpose(frames, 32, contiguous(dst, stride, len(frames)))
}

// TransposeChannels transposes the 128 channels of an arbitrary number of
// frames into the 128 channel slices of dst:
//
//	dst[ch][offset + i] = adc(frames[i], ch)
func TransposeChannels(dst [][]int16, offset int, frames []Frame) {
	transpose(frames, 1, channels(dst, offset))
}

// TransposeChannels8N is like TransposeChannels. len(frames) must be a multiple of 8.
func TransposeChannels8N(dst [][]int16, offset int, frames []Frame) {
	transpose(frames, 8, channels(dst, offset))
}

// TransposeChannels16N is like TransposeChannels. len(frames) must be a multiple of 16.
func TransposeChannels16N(dst [][]int16, offset int, frames []Frame) {
	transpose(frames, 16, channels(dst, offset))
}

// TransposeChannels32N is like TransposeChannels. len(frames) must be a multiple of 32.
func TransposeChannels32N(dst [][]int16, offset int, frames []Frame) {
	transpose(frames, 32, channels(dst, offset))
}

// AppendTransposed appends the time series of the 128 channels of frames
// to the channel slices of dst, growing them as needed.
// A nil dst is allocated with 128 channels.
func AppendTransposed(dst [][]int16, frames []Frame) [][]int16 {
	if dst == nil {
		dst = make([][]int16, NumChans)
	}
	if len(dst) < NumChans {
		panic(fmt.Errorf("wib: invalid number of channels (got=%d, want=%d)", len(dst), NumChans))
	}
	n := len(frames)
	beg := make([]int, NumChans)
	for ch := range dst[:NumChans] {
		beg[ch] = len(dst[ch])
		dst[ch] = append(dst[ch], make([]int16, n)...)
	}
	transpose(frames, 1, func(ch int) []int16 {
		return dst[ch][beg[ch]:]
	})
	return dst
}

func contiguous(dst []int16, stride, n int) func(ch int) []int16 {
	if stride < n {
		panic(fmt.Errorf("wib: stride too small (stride=%d, frames=%d)", stride, n))
	}
	return func(ch int) []int16 {
		return dst[ch*stride:]
	}
}

func channels(dst [][]int16, offset int) func(ch int) []int16 {
	_ = dst[NumChans-1]
	return func(ch int) []int16 {
		return dst[ch][offset:]
	}
}

// rows holds the destination time series of a group of 16 channels.
type rows [16][]int16

func transpose(frames []Frame, gran int, row func(ch int) []int16) {
	n := len(frames)
	if n%gran != 0 {
		panic(fmt.Errorf("wib: number of frames (%d) is not a multiple of %d", n, gran))
	}
	if n == 0 {
		return
	}

	var r rows
	for s := 0; s < NumStreams; s++ {
		for g := 0; g < NumADCWords/3; g++ {
			ch := s*NumChansPerStream + 16*g
			for k := range r {
				r[k] = row(ch + k)[:n]
			}
			switch gran {
			case 32:
				for i := 0; i < n; i += 32 {
					r.transpose32(i, frames[i:i+32], s, 3*g)
				}
			case 16:
				for i := 0; i < n; i += 16 {
					r.transpose16(i, frames[i:i+16], s, 3*g)
				}
			case 8:
				for i := 0; i < n; i += 8 {
					r.transpose8(i, frames[i:i+8], s, 3*g)
				}
			default:
				i := 0
				for ; n-i >= 32; i += 32 {
					r.transpose32(i, frames[i:i+32], s, 3*g)
				}
				for ; n-i >= 8; i += 8 {
					r.transpose8(i, frames[i:i+8], s, 3*g)
				}
				for ; i < n; i++ {
					r.transpose1(i, &frames[i], s, 3*g)
				}
			}
		}
	}
}

func (r *rows) transpose32(i int, fr []Frame, s, w int) {
	_ = fr[31]
	r.transpose8(i+0x00, fr[0x00:0x08], s, w)
	r.transpose8(i+0x08, fr[0x08:0x10], s, w)
	r.transpose8(i+0x10, fr[0x10:0x18], s, w)
	r.transpose8(i+0x18, fr[0x18:0x20], s, w)
}

func (r *rows) transpose16(i int, fr []Frame, s, w int) {
	_ = fr[15]
	r.transpose8(i+0, fr[0:8], s, w)
	r.transpose8(i+8, fr[8:16], s, w)
}

func (r *rows) transpose8(i int, fr []Frame, s, w int) {
	_ = fr[7]
	r.transpose4(i+0, fr[0:4], s, w)
	r.transpose4(i+4, fr[4:8], s, w)
}

// transpose1 expands a single frame and scatters the group of 16 channels
// starting at the packed word w into the time bin i.
func (r *rows) transpose1(i int, f *Frame, s, w int) {
	var (
		a   = &f.ColdData[s].ADCs
		adc [16]int16
	)
	expand16(adc[:], a[w], a[w+1], a[w+2])
	for k, v := range adc {
		r[k][i] = v
	}
}

// transpose4 writes the group of 16 channels starting at the packed word w
// of 4 consecutive frames into the time bins [i, i+4).
// The ADCs are extracted straight from their packed representation.
func (r *rows) transpose4(i int, fr []Frame, s, w int) {
	var (
		a = &fr[0].ColdData[s].ADCs
		b = &fr[1].ColdData[s].ADCs
		c = &fr[2].ColdData[s].ADCs
		d = &fr[3].ColdData[s].ADCs

		a0, a1, a2 = a[w], a[w+1], a[w+2]
		b0, b1, b2 = b[w], b[w+1], b[w+2]
		c0, c1, c2 = c[w], c[w+1], c[w+2]
		d0, d1, d2 = d[w], d[w+1], d[w+2]
	)

	put4(r[0x0][i:], a0, b0, c0, d0)
	put4(r[0x1][i:], a0>>12, b0>>12, c0>>12, d0>>12)
	put4(r[0x2][i:], a0>>24, b0>>24, c0>>24, d0>>24)
	put4(r[0x3][i:], a0>>36, b0>>36, c0>>36, d0>>36)
	put4(r[0x4][i:], a0>>48, b0>>48, c0>>48, d0>>48)
	put4(r[0x5][i:], a0>>60|a1<<4, b0>>60|b1<<4, c0>>60|c1<<4, d0>>60|d1<<4)
	put4(r[0x6][i:], a1>>8, b1>>8, c1>>8, d1>>8)
	put4(r[0x7][i:], a1>>20, b1>>20, c1>>20, d1>>20)
	put4(r[0x8][i:], a1>>32, b1>>32, c1>>32, d1>>32)
	put4(r[0x9][i:], a1>>44, b1>>44, c1>>44, d1>>44)
	put4(r[0xa][i:], a1>>56|a2<<8, b1>>56|b2<<8, c1>>56|c2<<8, d1>>56|d2<<8)
	put4(r[0xb][i:], a2>>4, b2>>4, c2>>4, d2>>4)
	put4(r[0xc][i:], a2>>16, b2>>16, c2>>16, d2>>16)
	put4(r[0xd][i:], a2>>28, b2>>28, c2>>28, d2>>28)
	put4(r[0xe][i:], a2>>40, b2>>40, c2>>40, d2>>40)
	put4(r[0xf][i:], a2>>52, b2>>52, c2>>52, d2>>52)
}

func put4(row []int16, a, b, c, d uint64) {
	_ = row[3]
	row[0] = int16(a & adcMask)
	row[1] = int16(b & adcMask)
	row[2] = int16(c & adcMask)
	row[3] = int16(d & adcMask)
}
