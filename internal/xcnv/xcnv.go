// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert TPC data to/from LCIO.
package xcnv // import "github.com/go-lpc/pdsp/internal/xcnv"

const (
	// RawCollection holds the raw TPC stream, as a GenericObject of int32s.
	RawCollection = "TPCRawStream"

	// ADCCollection holds the waveforms of all channels, as TrackerRawData.
	ADCCollection = "TPCRawData"

	detector = "ProtoDUNE-SP"
)
