// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wib

import (
	"os"
	"sync"

	"github.com/go-daq/tdaq/log"
)

var (
	msg = log.NewMsgStream("wib", log.LvlInfo, os.Stderr)

	warned struct {
		asicADC  sync.Once
		frameADC sync.Once
	}
)

// SetMsgStream sets the message stream used to report deprecated calls.
func SetMsgStream(m log.MsgStream) {
	msg = m
}

// ADC returns the ADC of the given channel of the given ASIC.
//
// Deprecated: ADC unpacks a single value. Use Expand64x1 to unpack
// the whole stream at once.
func (cd *ColdData) ADC(asic, channel int) int16 {
	warned.asicADC.Do(func() {
		msg.Warnf("wib: ColdData.ADC(asic, channel) is deprecated, use Expand64x1")
	})
	return cd.adc(asic*NumChansPerASIC + channel)
}

// ADC returns the ADC of the given channel, in [0, 128).
//
// Deprecated: ADC unpacks a single value. Use Expand128x1 or one of
// the Transpose functions.
func (f *Frame) ADC(channel int) int16 {
	warned.frameADC.Do(func() {
		msg.Warnf("wib: Frame.ADC(channel) is deprecated, use Expand128x1")
	})
	return f.ColdData[channel/NumChansPerStream].adc(channel % NumChansPerStream)
}

func (cd *ColdData) adc(i int) int16 {
	var (
		bit = 12 * uint(i)
		iw  = bit / 64
		sh  = bit % 64
		v   = cd.ADCs[iw] >> sh
	)
	if sh > 64-12 {
		v |= cd.ADCs[iw+1] << (64 - sh)
	}
	return int16(v & adcMask)
}
