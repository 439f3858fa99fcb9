// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wib

const adcMask = 0xfff

// expand16 unpacks the 16 ADCs held by 3 consecutive packed words.
// ADC i occupies the bits [12i, 12i+12) of w0|w1<<64|w2<<128.
func expand16(dst []int16, w0, w1, w2 uint64) {
	_ = dst[15]
	dst[0x0] = int16(w0 & adcMask)
	dst[0x1] = int16(w0 >> 12 & adcMask)
	dst[0x2] = int16(w0 >> 24 & adcMask)
	dst[0x3] = int16(w0 >> 36 & adcMask)
	dst[0x4] = int16(w0 >> 48 & adcMask)
	dst[0x5] = int16((w0>>60 | w1<<4) & adcMask)
	dst[0x6] = int16(w1 >> 8 & adcMask)
	dst[0x7] = int16(w1 >> 20 & adcMask)
	dst[0x8] = int16(w1 >> 32 & adcMask)
	dst[0x9] = int16(w1 >> 44 & adcMask)
	dst[0xa] = int16((w1>>56 | w2<<8) & adcMask)
	dst[0xb] = int16(w2 >> 4 & adcMask)
	dst[0xc] = int16(w2 >> 16 & adcMask)
	dst[0xd] = int16(w2 >> 28 & adcMask)
	dst[0xe] = int16(w2 >> 40 & adcMask)
	dst[0xf] = int16(w2 >> 52 & adcMask)
}

// pack16 is the inverse of expand16. Only the low 12 bits of each ADC are kept.
func pack16(src []int16) (w0, w1, w2 uint64) {
	_ = src[15]
	a := func(i int) uint64 { return uint64(src[i]) & adcMask }
	w0 = a(0x0) | a(0x1)<<12 | a(0x2)<<24 | a(0x3)<<36 | a(0x4)<<48 | a(0x5)<<60
	w1 = a(0x5)>>4 | a(0x6)<<8 | a(0x7)<<20 | a(0x8)<<32 | a(0x9)<<44 | a(0xa)<<56
	w2 = a(0xa)>>8 | a(0xb)<<4 | a(0xc)<<16 | a(0xd)<<28 | a(0xe)<<40 | a(0xf)<<52
	return w0, w1, w2
}

// Expand64x1 expands the 64 packed ADCs of a cold data stream into dst[0:64].
func Expand64x1(dst []int16, cd *ColdData) {
	_ = dst[NumChansPerStream-1]
	a := &cd.ADCs
	for g := 0; g < NumADCWords/3; g++ {
		expand16(dst[16*g:], a[3*g], a[3*g+1], a[3*g+2])
	}
}

// Expand128x1 expands the 128 ADCs of a frame into dst[0:128]:
// the 64 channels of cold data stream #0 followed by the 64 channels
// of cold data stream #1.
func Expand128x1(dst []int16, f *Frame) {
	_ = dst[NumChans-1]
	Expand64x1(dst[:NumChansPerStream], &f.ColdData[0])
	Expand64x1(dst[NumChansPerStream:], &f.ColdData[1])
}

// Expand128xN expands the ADCs of all the frames into dst, frame after frame:
//
//	dst[i*NumChans + ch] = adc(frames[i], ch)
func Expand128xN(dst []int16, frames []Frame) {
	_ = dst[:NumChans*len(frames)]
	for i := range frames {
		Expand128x1(dst[i*NumChans:], &frames[i])
	}
}

// Pack64x1 packs src[0:64] into the ADC words of a cold data stream.
func Pack64x1(cd *ColdData, src []int16) {
	_ = src[NumChansPerStream-1]
	for g := 0; g < NumADCWords/3; g++ {
		cd.ADCs[3*g], cd.ADCs[3*g+1], cd.ADCs[3*g+2] = pack16(src[16*g:])
	}
}

// SetADCs packs the 128 channels of src into the frame.
func (f *Frame) SetADCs(src []int16) {
	_ = src[NumChans-1]
	Pack64x1(&f.ColdData[0], src[:NumChansPerStream])
	Pack64x1(&f.ColdData[1], src[NumChansPerStream:])
}

// ADCs returns the 128 expanded ADCs of the frame.
func (f *Frame) ADCs() [NumChans]int16 {
	var o [NumChans]int16
	Expand128x1(o[:], f)
	return o
}
