// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"errors"
	"fmt"
	"io"
	"log"
	"unsafe"

	"github.com/go-lpc/pdsp/tpc"
	"go-hep.org/x/hep/lcio"
)

// LCIO2TPC writes back the raw TPC streams stored in the LCIO events of r.
func LCIO2TPC(w io.Writer, r *lcio.Reader, freq int, msg *log.Logger) error {
	if freq <= 0 {
		freq = 1
	}

	i := 0
	for r.Next() {
		if i%freq == 0 {
			msg.Printf("processing evt %d...", i)
		}
		evt := r.Event()
		obj, ok := evt.Get(RawCollection).(*lcio.GenericObject)
		if !ok || len(obj.Data) == 0 {
			return fmt.Errorf("event %d has no %q collection", i, RawCollection)
		}
		raw := bytesFromI32s(obj.Data[0].I32s)

		s, err := tpc.NewStream(raw)
		if err != nil {
			return fmt.Errorf("could not decode TPC stream %d: %w", i, err)
		}

		_, err = w.Write(s.Bytes())
		if err != nil {
			return fmt.Errorf("could not write TPC stream %d: %w", i, err)
		}
		i++
	}

	err := r.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not read LCIO file: %w", err)
	}

	return nil
}

func bytesFromI32s(raw []int32) []byte {
	n := len(raw)
	if n == 0 {
		return nil
	}
	const i32sz = 4
	ptr := (*byte)(unsafe.Pointer(&raw[0]))
	sli := unsafe.Slice(ptr, i32sz*n)
	return sli
}
