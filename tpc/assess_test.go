// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpc

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/pdsp/wib"
	"github.com/kylelemons/godebug/pretty"
)

func TestAssessClean(t *testing.T) {
	s, err := NewStream(encode(t, newData()))
	if err != nil {
		t.Fatalf("could not scan stream: %+v", err)
	}

	rep, err := NewAssessor().Assess(s)
	if err != nil {
		t.Fatalf("could not assess stream: %+v", err)
	}
	if got, want := rep.NumFrames, 5; got != want {
		t.Fatalf("invalid number of frames: got=%d, want=%d", got, want)
	}
	if got, want := rep.Total(), 0; got != want {
		t.Fatalf("invalid number of anomalies: got=%d, want=%d\n%v", got, want, rep.Anomalies)
	}
}

func TestAssessAnomalies(t *testing.T) {
	data := newData()
	var (
		p0 = data.Packets[0].Frames
		p1 = data.Packets[1].Frames
	)
	p0[1].SetTimestamp(p0[1].Timestamp() + 1)
	p1[0].SetHeader(4, wib.NewID(1, 2, 4), 0x1)
	p1[2].ColdData[1].SetHeader(0x2, 0, 0, 0, 0, 0, [wib.NumASICs]uint8{})
	p1[2].Hdr = p1[2].Hdr&^0xff | 0xaa

	buf := new(bytes.Buffer)
	s, err := NewStream(encode(t, data))
	if err != nil {
		t.Fatalf("could not scan stream: %+v", err)
	}

	rep, err := NewAssessor(
		WithMsgStream(log.NewMsgStream("assess", log.LvlDebug, buf)),
	).Assess(s)
	if err != nil {
		t.Fatalf("could not assess stream: %+v", err)
	}

	want := []Anomaly{
		{Packet: 0, Frame: 1, Kind: BadTimestamp, Stream: -1, Got: 5026, Want: 5025},
		{Packet: 1, Frame: 0, Kind: BadID, Stream: -1, Got: uint64(wib.NewID(1, 2, 4)), Want: uint64(streamID)},
		{Packet: 1, Frame: 0, Kind: WibErrors, Stream: -1, Got: 1, Want: 0},
		{Packet: 1, Frame: 0, Kind: BadVersion, Stream: -1, Got: 4, Want: 3},
		{Packet: 1, Frame: 0, Kind: BadTimestamp, Stream: -1, Got: 5050, Want: 5051},
		{Packet: 1, Frame: 1, Kind: BadVersion, Stream: -1, Got: 3, Want: 4},
		{Packet: 1, Frame: 2, Kind: BadComma, Stream: -1, Got: 0xaa, Want: wib.CommaChar},
		{Packet: 1, Frame: 2, Kind: StreamErrors, Stream: 1, Got: 2, Want: 0},
		{Packet: 1, Frame: 2, Kind: BadConvertCount, Stream: 1, Got: 0, Want: 4},
	}
	if diff := pretty.Compare(rep.Anomalies, want); diff != "" {
		t.Fatalf("invalid anomalies (-got +want):\n%s", diff)
	}
	if got, want := rep.Count(BadConvertCount), 1; got != want {
		t.Fatalf("invalid count: got=%d, want=%d", got, want)
	}
	if got, want := strings.Count(buf.String(), "stream 1-2-3: packet="), len(want); got != want {
		t.Fatalf("invalid number of logged anomalies: got=%d, want=%d\n%s", got, want, buf.String())
	}

	rep, err = NewAssessor(WithMaxReports(2), WithTick(1)).Assess(s)
	if err != nil {
		t.Fatalf("could not assess stream: %+v", err)
	}
	if got, want := len(rep.Anomalies), 2; got != want {
		t.Fatalf("invalid number of reported anomalies: got=%d, want=%d", got, want)
	}
	if got, want := rep.Count(BadTimestamp), 4; got != want {
		t.Fatalf("invalid number of timestamp anomalies: got=%d, want=%d", got, want)
	}
}

func TestAssessNoToc(t *testing.T) {
	s := &Stream{}
	_, err := NewAssessor().Assess(s)
	if !errors.Is(err, ErrNoToc) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrNoToc)
	}
}

func TestKindString(t *testing.T) {
	for _, tc := range []struct {
		k    Kind
		want string
	}{
		{BadComma, "bad-comma"},
		{BadConvertCount, "bad-convert-count"},
		{NumKinds, "Kind(7)"},
	} {
		if got := tc.k.String(); got != tc.want {
			t.Fatalf("invalid kind string: got=%q, want=%q", got, tc.want)
		}
	}
}
