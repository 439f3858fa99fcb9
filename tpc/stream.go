// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tpc reads and writes TPC data streams, the containers the RCE
// boards use to ship WIB frames.
//
// A stream is a sequence of 64-bit aligned records:
//
//	stream (Header1)
//	├── ranges (Header0): trigger window, trimmed and untrimmed ranges
//	├── toc    (Header2): packet descriptors
//	└── packet (Header0): packet data, indexed by the toc descriptors
package tpc // import "github.com/go-lpc/pdsp/tpc"

import (
	"encoding/binary"
	"fmt"

	"github.com/go-lpc/pdsp/header"
	"github.com/go-lpc/pdsp/wib"
	"golang.org/x/xerrors"
)

// Record types.
const (
	RecStream uint8 = 0
	RecRanges uint8 = 1
	RecToc    uint8 = 2
	RecPacket uint8 = 3
)

var (
	ErrNotStream = xerrors.New("tpc: not a TPC stream")
	ErrTruncated = xerrors.New("tpc: truncated stream")
	ErrOverrun   = xerrors.New("tpc: buffer overrun")
	ErrNoToc     = xerrors.New("tpc: stream without table of contents")
	ErrNoPacket  = xerrors.New("tpc: stream without packet record")
	ErrPacket    = xerrors.New("tpc: invalid packet index")
	ErrType      = xerrors.New("tpc: invalid packet type")
	ErrTooLarge  = xerrors.New("tpc: stream too large")
)

// Stream is a TPC data stream, a view over a caller-owned buffer.
type Stream struct {
	hdr header.Header1
	raw []byte

	ranges *Ranges
	toc    *Toc
	packet *Packet
}

// NewStream scans the records of the stream held in p.
// The stream keeps a reference to p.
func NewStream(p []byte) (*Stream, error) {
	if len(p) < 8 {
		return nil, xerrors.Errorf("tpc: buffer too short (%d bytes): %w", len(p), ErrTruncated)
	}
	w := binary.LittleEndian.Uint64(p)
	if header.FormatOf(w) != header.Format1 || header.TypeOf(w) != RecStream {
		return nil, xerrors.Errorf("tpc: invalid stream header 0x%016x: %w", w, ErrNotStream)
	}
	hdr := header.Header1(w)
	n := int(hdr.Nbytes())
	if n < 8 || n > len(p) {
		return nil, xerrors.Errorf(
			"tpc: stream of %d bytes does not fit in %d bytes: %w",
			n, len(p), ErrTruncated,
		)
	}

	s := &Stream{hdr: hdr, raw: p[:n]}
	err := s.scan()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NextStream reads the stream at the start of p and returns the
// remaining bytes.
func NextStream(p []byte) (*Stream, []byte, error) {
	s, err := NewStream(p)
	if err != nil {
		return nil, p, err
	}
	return s, p[len(s.raw):], nil
}

func (s *Stream) scan() error {
	var (
		body = s.raw[8:]
		beg  = 0
	)
	for beg+8 <= len(body) {
		w := binary.LittleEndian.Uint64(body[beg:])
		hdr, ok := header.Decode(w)
		if !ok || hdr.Format() == header.Format3 {
			break
		}
		n := int(hdr.Nbytes())
		if n == 0 {
			break
		}
		end := beg + n
		if end > len(body) {
			return xerrors.Errorf(
				"tpc: record type=%d (%d bytes) at byte %d overruns stream (%d bytes): %w",
				hdr.Type(), n, beg+8, len(s.raw), ErrTruncated,
			)
		}
		rec := body[beg:end]
		switch hdr.Type() {
		case RecRanges:
			rgs, err := newRanges(rec)
			if err != nil {
				return err
			}
			s.ranges = rgs
		case RecToc:
			toc, err := newToc(rec)
			if err != nil {
				return err
			}
			s.toc = toc
		case RecPacket:
			s.packet = newPacket(rec)
		}
		beg = end
	}

	if s.toc != nil && s.packet != nil {
		if n64, nbody := s.toc.len64(), len(s.packet.body)/8; n64 > nbody {
			return xerrors.Errorf(
				"tpc: toc spans %d words, packet body holds %d words: %w",
				n64, nbody, ErrOverrun,
			)
		}
	}
	return nil
}

// Header returns the stream record header.
func (s *Stream) Header() header.Header1 { return s.hdr }

// Bytes returns the raw stream.
func (s *Stream) Bytes() []byte { return s.raw }

// Format returns the stream format version.
func (s *Stream) Format() uint8 { return s.hdr.Subtype() }

// ID returns the identifier of the WIB that produced the stream.
func (s *Stream) ID() wib.ID { return wib.ID(s.hdr.Bridge() & 0x7ff) }

// Toc returns the table of contents, or nil.
func (s *Stream) Toc() *Toc { return s.toc }

// Ranges returns the ranges record, or nil.
func (s *Stream) Ranges() *Ranges { return s.ranges }

// Packet returns the packet record, or nil.
func (s *Stream) Packet() *Packet { return s.packet }

// NumPackets returns the number of packets of the stream.
func (s *Stream) NumPackets() int {
	if s.toc == nil {
		return 0
	}
	return s.toc.NumPackets()
}

// PacketData returns the raw data of the i-th packet and its descriptor.
func (s *Stream) PacketData(i int) ([]byte, PacketDsc, error) {
	switch {
	case s.toc == nil:
		return nil, 0, ErrNoToc
	case s.packet == nil:
		return nil, 0, ErrNoPacket
	case i < 0 || i >= s.toc.NumPackets():
		return nil, 0, xerrors.Errorf(
			"tpc: packet %d out of range [0, %d): %w", i, s.toc.NumPackets(), ErrPacket,
		)
	}
	dsc := s.toc.Dsc(i)
	data, err := s.packet.Data(int(dsc.Offset64()), s.toc.Len64(i))
	if err != nil {
		return nil, dsc, xerrors.Errorf("tpc: could not access packet %d: %w", i, err)
	}
	return data, dsc, nil
}

// Frames returns the WIB frames of the i-th packet.
// The frames alias the stream buffer when it is suitably aligned.
func (s *Stream) Frames(i int) ([]wib.Frame, error) {
	data, dsc, err := s.PacketData(i)
	if err != nil {
		return nil, err
	}
	if !dsc.IsWibFrame() {
		return nil, xerrors.Errorf(
			"tpc: packet %d holds %v, not WIB frames: %w", i, dsc.Type(), ErrType,
		)
	}
	n := s.toc.NWibFrames(i)
	frames, err := wib.View(data[:n*wib.Size])
	if err != nil {
		return nil, xerrors.Errorf("tpc: could not view frames of packet %d: %w", i, err)
	}
	return frames, nil
}

// NumFrames returns the total number of WIB frames of the stream.
func (s *Stream) NumFrames() int {
	n := 0
	for i := 0; i < s.NumPackets(); i++ {
		n += s.toc.NWibFrames(i)
	}
	return n
}

// AllFrames returns the WIB frames of all the packets of the stream,
// in order.
func (s *Stream) AllFrames() ([]wib.Frame, error) {
	frames := make([]wib.Frame, 0, s.NumFrames())
	for i := 0; i < s.NumPackets(); i++ {
		if !s.toc.Dsc(i).IsWibFrame() {
			continue
		}
		fs, err := s.Frames(i)
		if err != nil {
			return nil, err
		}
		frames = append(frames, fs...)
	}
	return frames, nil
}

func (s *Stream) String() string {
	return fmt.Sprintf(
		"Stream{id=%v, format=%d, n64=%d, packets=%d, frames=%d}",
		s.ID(), s.Format(), s.hdr.N64(), s.NumPackets(), s.NumFrames(),
	)
}
