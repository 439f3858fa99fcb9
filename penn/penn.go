// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package penn decodes the micro-slices produced by the PENN trigger board.
//
// A micro-slice is a 4-byte header followed by a sequence of payloads.
// Each payload is a 4-byte payload header followed by a body whose size
// is fixed by the payload type:
//
//	micro-slice header: block size(16) sequence id(8) version(8)
//	payload header:     short timestamp(28) type(4)
//
// The last payload of a micro-slice is a checksum, immediately preceded
// by a timestamp payload carrying the full 64-bit timestamp.
package penn // import "github.com/go-lpc/pdsp/penn"

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/pdsp/internal/bitfield"
	"golang.org/x/xerrors"
)

const (
	HeaderSize        = 4 // size of the micro-slice header, in bytes
	PayloadHeaderSize = 4 // size of a payload header, in bytes
)

// PayloadType is the type of a payload.
type PayloadType uint8

const (
	Counter   PayloadType = 0x0
	Trigger   PayloadType = 0x2
	Checksum  PayloadType = 0x4
	Warning   PayloadType = 0x6
	Timestamp PayloadType = 0x7
)

// Size returns the size in bytes of the body of a payload of type t,
// and whether t is a known payload type.
func (t PayloadType) Size() (int, bool) {
	switch t {
	case Counter:
		return 12, true
	case Trigger, Checksum, Warning:
		return 4, true
	case Timestamp:
		return 8, true
	}
	return 0, false
}

func (t PayloadType) String() string {
	switch t {
	case Counter:
		return "Counter"
	case Trigger:
		return "Trigger"
	case Checksum:
		return "Checksum"
	case Warning:
		return "Warning"
	case Timestamp:
		return "Timestamp"
	}
	return fmt.Sprintf("PayloadType(0x%x)", uint8(t))
}

var (
	ErrShort       = xerrors.New("penn: buffer too short")
	ErrUnknownType = xerrors.New("penn: unknown payload type")
	ErrRange       = xerrors.New("penn: payload index out of range")
	ErrTruncated   = xerrors.New("penn: truncated payload")
	ErrNoAnchor    = xerrors.New("penn: missing trailing timestamp and checksum")
)

var (
	fBlockSize  = bitfield.Field{Width: 16, Offset: 0}
	fSequenceID = bitfield.Field{Width: 8, Offset: 16}
	fVersion    = bitfield.Field{Width: 8, Offset: 24}

	fShortTS = bitfield.Field{Width: 28, Offset: 0}
	fType    = bitfield.Field{Width: 4, Offset: 28}
)

// Header is the micro-slice header.
type Header uint32

// NewHeader creates a micro-slice header.
func NewHeader(size uint16, seqID, version uint8) Header {
	w := bitfield.Set(uint32(0), fBlockSize, size)
	w = bitfield.Set(w, fSequenceID, seqID)
	w = bitfield.Set(w, fVersion, version)
	return Header(w)
}

// BlockSize returns the size in bytes of the micro-slice, header included.
func (h Header) BlockSize() int    { return int(bitfield.Get(uint32(h), fBlockSize)) }
func (h Header) SequenceID() uint8 { return uint8(bitfield.Get(uint32(h), fSequenceID)) }
func (h Header) Version() uint8    { return uint8(bitfield.Get(uint32(h), fVersion)) }

func (h Header) String() string {
	return fmt.Sprintf("Header{size=%d, seq=%d, version=%d}", h.BlockSize(), h.SequenceID(), h.Version())
}

// PayloadHeader is the header of a payload.
type PayloadHeader uint32

// NewPayloadHeader creates a payload header.
func NewPayloadHeader(typ PayloadType, shortTS uint32) PayloadHeader {
	w := bitfield.Set(uint32(0), fShortTS, shortTS)
	w = bitfield.Set(w, fType, uint8(typ))
	return PayloadHeader(w)
}

func (h PayloadHeader) Type() PayloadType { return PayloadType(bitfield.Get(uint32(h), fType)) }

// ShortTimestamp returns the 28 least significant bits of the payload timestamp.
func (h PayloadHeader) ShortTimestamp() uint32 { return bitfield.Get(uint32(h), fShortTS) }

// Payload is a payload of a micro-slice.
type Payload struct {
	ID     int           // index of the payload within the micro-slice
	Offset int           // offset of the payload header from the micro-slice start
	Header PayloadHeader // payload header
	Body   []byte        // payload body, aliasing the micro-slice buffer
}

func (p Payload) Type() PayloadType { return p.Header.Type() }

// Size returns the size of the payload, header included.
func (p Payload) Size() int { return PayloadHeaderSize + len(p.Body) }

// FullTimestamp returns the 64-bit timestamp carried by a Timestamp payload.
func (p Payload) FullTimestamp() (uint64, bool) {
	if p.Type() != Timestamp {
		return 0, false
	}
	return binary.LittleEndian.Uint64(p.Body), true
}

// Value returns the 32-bit value carried by a Trigger, Warning or
// Checksum payload.
func (p Payload) Value() (uint32, bool) {
	switch p.Type() {
	case Trigger, Warning, Checksum:
		return binary.LittleEndian.Uint32(p.Body), true
	}
	return 0, false
}

func (p Payload) String() string {
	return fmt.Sprintf("Payload{id=%d, off=%d, type=%v, ts=0x%07x, body=%x}",
		p.ID, p.Offset, p.Type(), p.Header.ShortTimestamp(), p.Body,
	)
}

// MicroSlice walks the payloads of a PENN micro-slice held in a
// caller-owned buffer.
type MicroSlice struct {
	raw []byte
	msg log.MsgStream

	cur int // offset of the next payload
	id  int // index of the next payload
	err error
}

// Option configures a MicroSlice.
type Option func(ms *MicroSlice)

// WithMsgStream sets the message stream decoding errors are logged to.
func WithMsgStream(msg log.MsgStream) Option {
	return func(ms *MicroSlice) {
		ms.msg = msg
	}
}

// NewMicroSlice creates a walker over the micro-slice starting at p[0].
// The micro-slice spans the block size recorded in its header.
func NewMicroSlice(p []byte, opts ...Option) (*MicroSlice, error) {
	if len(p) < HeaderSize {
		return nil, xerrors.Errorf("penn: micro-slice header needs %d bytes, got %d: %w", HeaderSize, len(p), ErrShort)
	}
	hdr := Header(binary.LittleEndian.Uint32(p))
	n := hdr.BlockSize()
	if n < HeaderSize || n > len(p) {
		return nil, xerrors.Errorf(
			"penn: micro-slice block size %d does not fit in %d bytes: %w",
			n, len(p), ErrShort,
		)
	}
	ms := &MicroSlice{
		raw: p[:n],
		msg: log.NewMsgStream("penn", log.LvlInfo, os.Stderr),
		cur: HeaderSize,
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms, nil
}

// Header returns the micro-slice header.
func (ms *MicroSlice) Header() Header {
	return Header(binary.LittleEndian.Uint32(ms.raw))
}

// Bytes returns the raw micro-slice, header included.
func (ms *MicroSlice) Bytes() []byte { return ms.raw }

// Reset rewinds the walker to the first payload.
func (ms *MicroSlice) Reset() {
	ms.cur = HeaderSize
	ms.id = 0
	ms.err = nil
}

// NextPayload returns the next payload of the micro-slice.
// NextPayload returns io.EOF once all payloads have been visited.
// An unknown payload type aborts the walk: the error is logged and
// returned by all subsequent calls until Reset.
func (ms *MicroSlice) NextPayload() (Payload, error) {
	if ms.err != nil {
		return Payload{}, ms.err
	}
	p, err := ms.at(ms.cur, ms.id)
	if err != nil {
		if err != io.EOF {
			ms.msg.Errorf("could not decode payload %d at byte %d: %+v", ms.id, ms.cur, err)
		}
		ms.err = err
		return Payload{}, err
	}
	ms.cur += p.Size()
	ms.id++
	return p, nil
}

// Payload returns the payload with the given index.
// Payload scans the micro-slice from its first payload on every call.
func (ms *MicroSlice) Payload(id int) (Payload, error) {
	if id < 0 {
		ms.msg.Errorf("payload %d out of range", id)
		return Payload{}, xerrors.Errorf("penn: invalid payload index %d: %w", id, ErrRange)
	}
	cur := HeaderSize
	for i := 0; ; i++ {
		p, err := ms.at(cur, i)
		switch {
		case err == io.EOF:
			ms.msg.Errorf("payload %d out of range (%d payloads)", id, i)
			return Payload{}, xerrors.Errorf("penn: payload %d beyond the %d payloads of the micro-slice: %w", id, i, ErrRange)
		case err != nil:
			ms.msg.Errorf("could not decode payload %d at byte %d: %+v", i, cur, err)
			return Payload{}, err
		}
		if i == id {
			return p, nil
		}
		cur += p.Size()
	}
}

// NumPayloads returns the number of payloads of the micro-slice.
func (ms *MicroSlice) NumPayloads() (int, error) {
	var (
		cur = HeaderSize
		n   = 0
	)
	for {
		p, err := ms.at(cur, n)
		switch {
		case err == io.EOF:
			return n, nil
		case err != nil:
			return n, err
		}
		cur += p.Size()
		n++
	}
}

// at decodes the payload starting at byte off.
func (ms *MicroSlice) at(off, id int) (Payload, error) {
	if off >= len(ms.raw) {
		return Payload{}, io.EOF
	}
	if off+PayloadHeaderSize > len(ms.raw) {
		return Payload{}, xerrors.Errorf(
			"penn: payload header at byte %d overruns micro-slice (%d bytes): %w",
			off, len(ms.raw), ErrTruncated,
		)
	}
	hdr := PayloadHeader(binary.LittleEndian.Uint32(ms.raw[off:]))
	n, ok := hdr.Type().Size()
	if !ok {
		return Payload{}, xerrors.Errorf(
			"penn: payload at byte %d has type 0x%x: %w", off, uint8(hdr.Type()), ErrUnknownType,
		)
	}
	beg := off + PayloadHeaderSize
	end := beg + n
	if end > len(ms.raw) {
		return Payload{}, xerrors.Errorf(
			"penn: %v payload at byte %d overruns micro-slice (%d bytes): %w",
			hdr.Type(), off, len(ms.raw), ErrTruncated,
		)
	}
	return Payload{ID: id, Offset: off, Header: hdr, Body: ms.raw[beg:end:end]}, nil
}
