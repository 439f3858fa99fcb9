// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package penn

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/xerrors"
)

const shortTSMask = 1<<28 - 1

// FullTimestamp reconstructs the 64-bit timestamp of a payload from its
// 28-bit short timestamp and a later full timestamp, the anchor.
// A short timestamp greater than the low bits of the anchor is assumed
// to come from before the last rollover.
//
// The comparison uses all 28 bits of the anchor, not the 27-bit mask
// (0x7FFFFFF) of the legacy threshold-based heuristic.
func FullTimestamp(short uint32, anchor uint64) uint64 {
	var (
		ts = uint64(short) & shortTSMask
		hi = anchor &^ shortTSMask
	)
	if ts <= anchor&shortTSMask {
		return hi | ts
	}
	if hi == 0 {
		return ts
	}
	return (hi - 1<<28) | ts
}

// Counts tallies payloads by type.
type Counts struct {
	Counter   int
	Trigger   int
	Checksum  int
	Warning   int
	Timestamp int

	Payloads int // total number of payloads
	Bytes    int // total size of the payloads, headers included
}

func (c *Counts) add(p Payload) {
	switch p.Type() {
	case Counter:
		c.Counter++
	case Trigger:
		c.Trigger++
	case Checksum:
		c.Checksum++
	case Warning:
		c.Warning++
	case Timestamp:
		c.Timestamp++
	}
	c.Payloads++
	c.Bytes += p.Size()
}

// Count returns the number of payloads of type t.
func (c Counts) Count(t PayloadType) int {
	switch t {
	case Counter:
		return c.Counter
	case Trigger:
		return c.Trigger
	case Checksum:
		return c.Checksum
	case Warning:
		return c.Warning
	case Timestamp:
		return c.Timestamp
	}
	return 0
}

func (c Counts) String() string {
	return fmt.Sprintf(
		"Counts{counter=%d, trigger=%d, checksum=%d, warning=%d, timestamp=%d, payloads=%d, bytes=%d}",
		c.Counter, c.Trigger, c.Checksum, c.Warning, c.Timestamp, c.Payloads, c.Bytes,
	)
}

// Split is the result of splitting a micro-slice at a time boundary.
type Split struct {
	Checksum uint32 // value of the trailing checksum payload
	Anchor   uint64 // full timestamp of the trailing timestamp payload

	Before  Counts // payloads before the boundary
	Overlap Counts // payloads in [boundary, boundary+overlap)
	After   Counts // payloads at or after the boundary, overlap included

	// Offsets, from the micro-slice start, of the first payload at or
	// after the boundary and of the first payload at or after the end
	// of the overlap window.
	// They are equal to the micro-slice size when no such payload exists.
	SplitOffset   int
	OverlapOffset int
}

// SplitAndCount classifies all the payloads of the micro-slice with
// respect to a time boundary and an overlap window following it.
//
// Payload timestamps are reconstructed from their short timestamps,
// using the trailing timestamp payload as anchor.
// Warning payloads are classified with a zero timestamp.
// The trailing checksum is extracted but not verified.
func (ms *MicroSlice) SplitAndCount(boundary, overlap uint64) (Split, error) {
	anchor, chksum, err := ms.anchor()
	if err != nil {
		ms.msg.Errorf("could not locate anchor timestamp: %+v", err)
		return Split{}, err
	}

	var (
		end   = boundary + overlap
		split = Split{
			Checksum:      chksum,
			Anchor:        anchor,
			SplitOffset:   len(ms.raw),
			OverlapOffset: len(ms.raw),
		}
		cur = HeaderSize
	)
	for i := 0; ; i++ {
		p, err := ms.at(cur, i)
		if err == io.EOF {
			break
		}
		if err != nil {
			ms.msg.Errorf("could not decode payload %d at byte %d: %+v", i, cur, err)
			return split, err
		}

		var ts uint64
		switch p.Type() {
		case Timestamp:
			ts, _ = p.FullTimestamp()
		case Warning:
			ts = 0
		default:
			ts = FullTimestamp(p.Header.ShortTimestamp(), anchor)
		}

		switch {
		case ts < boundary:
			split.Before.add(p)
		case ts < end:
			split.Overlap.add(p)
			split.After.add(p)
			if split.SplitOffset == len(ms.raw) {
				split.SplitOffset = p.Offset
			}
		default:
			split.After.add(p)
			if split.SplitOffset == len(ms.raw) {
				split.SplitOffset = p.Offset
			}
			if split.OverlapOffset == len(ms.raw) {
				split.OverlapOffset = p.Offset
			}
		}
		cur += p.Size()
	}

	return split, nil
}

// anchor returns the full timestamp of the timestamp payload preceding
// the trailing checksum, and the checksum value.
func (ms *MicroSlice) anchor() (uint64, uint32, error) {
	const (
		chkSize = PayloadHeaderSize + 4
		tsSize  = PayloadHeaderSize + 8
	)
	n := len(ms.raw)
	if n < HeaderSize+chkSize+tsSize {
		return 0, 0, xerrors.Errorf("penn: micro-slice too short (%d bytes): %w", n, ErrNoAnchor)
	}
	var (
		chk = ms.raw[n-chkSize:]
		ts  = ms.raw[n-chkSize-tsSize:]
	)
	if typ := PayloadHeader(binary.LittleEndian.Uint32(chk)).Type(); typ != Checksum {
		return 0, 0, xerrors.Errorf("penn: last payload is %v, not Checksum: %w", typ, ErrNoAnchor)
	}
	if typ := PayloadHeader(binary.LittleEndian.Uint32(ts)).Type(); typ != Timestamp {
		return 0, 0, xerrors.Errorf("penn: payload before checksum is %v, not Timestamp: %w", typ, ErrNoAnchor)
	}
	return binary.LittleEndian.Uint64(ts[PayloadHeaderSize:]),
		binary.LittleEndian.Uint32(chk[PayloadHeaderSize:]),
		nil
}
