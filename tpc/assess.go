// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpc

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/pdsp/wib"
)

// Kind is the kind of an anomaly found in a stream.
type Kind uint8

const (
	BadComma        Kind = iota // unexpected comma character
	BadVersion                  // frame version changed within the stream
	BadID                       // WIB id differs from the stream one
	BadTimestamp                // timestamp step differs from the tick
	WibErrors                   // non-zero WIB error bits
	StreamErrors                // non-zero cold data stream error bits
	BadConvertCount             // convert count did not increase by one

	NumKinds // number of anomaly kinds
)

var kindNames = [...]string{
	BadComma:        "bad-comma",
	BadVersion:      "bad-version",
	BadID:           "bad-id",
	BadTimestamp:    "bad-timestamp",
	WibErrors:       "wib-errors",
	StreamErrors:    "stream-errors",
	BadConvertCount: "bad-convert-count",
}

func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Anomaly describes a problem found in a WIB frame of a stream.
type Anomaly struct {
	Packet int  // packet index
	Frame  int  // frame index within the packet
	Kind   Kind // kind of anomaly
	Stream int  // cold data stream, or -1
	Got    uint64
	Want   uint64
}

func (a Anomaly) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "packet=%d frame=%d %v", a.Packet, a.Frame, a.Kind)
	if a.Stream >= 0 {
		fmt.Fprintf(o, " stream=%d", a.Stream)
	}
	fmt.Fprintf(o, ": got=0x%x, want=0x%x", a.Got, a.Want)
	return o.String()
}

// Report is the result of the assessment of a stream.
type Report struct {
	ID        wib.ID
	NumFrames int
	Counts    [NumKinds]int
	Anomalies []Anomaly // at most the configured maximum number of reports
}

// Count returns the number of anomalies of the given kind.
func (r *Report) Count(k Kind) int {
	if k >= NumKinds {
		return 0
	}
	return r.Counts[k]
}

// Total returns the total number of anomalies.
func (r *Report) Total() int {
	n := 0
	for _, v := range r.Counts {
		n += v
	}
	return n
}

// Assessor checks the consistency of the WIB frames of TPC streams.
type Assessor struct {
	cfg config
}

type config struct {
	tick uint64
	max  int
	msg  log.MsgStream
}

// Option configures an Assessor.
type Option func(*config)

// WithTick sets the expected timestamp step between consecutive frames.
func WithTick(tick uint64) Option {
	return func(cfg *config) {
		cfg.tick = tick
	}
}

// WithMaxReports sets the maximum number of anomalies recorded and
// logged per stream. Anomalies are still counted past that limit.
func WithMaxReports(n int) Option {
	return func(cfg *config) {
		cfg.max = n
	}
}

// WithMsgStream sets the message stream anomalies are logged to.
func WithMsgStream(msg log.MsgStream) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// NewAssessor creates a new stream assessor.
func NewAssessor(opts ...Option) *Assessor {
	cfg := config{
		tick: wib.Ticks,
		max:  100,
		msg:  log.NewMsgStream("tpc-assess", log.LvlInfo, io.Discard),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Assessor{cfg: cfg}
}

// Assess checks all the WIB frames of the stream.
// Frames are checked against the stream WIB id and against the
// previous frame, across packet boundaries.
func (a *Assessor) Assess(s *Stream) (Report, error) {
	rep := Report{ID: s.ID()}
	if s.Toc() == nil {
		return rep, ErrNoToc
	}

	var (
		prev *wib.Frame
		add  = func(an Anomaly) {
			rep.Counts[an.Kind]++
			if len(rep.Anomalies) >= a.cfg.max {
				return
			}
			rep.Anomalies = append(rep.Anomalies, an)
			a.cfg.msg.Warnf("stream %v: %v", rep.ID, an)
		}
	)

	for ipkt := 0; ipkt < s.NumPackets(); ipkt++ {
		if !s.Toc().Dsc(ipkt).IsWibFrame() {
			continue
		}
		frames, err := s.Frames(ipkt)
		if err != nil {
			return rep, err
		}
		for i := range frames {
			cur := &frames[i]
			a.check(ipkt, i, s.ID(), prev, cur, add)
			prev = cur
			rep.NumFrames++
		}
	}

	if n := rep.Total(); n > len(rep.Anomalies) {
		a.cfg.msg.Warnf("stream %v: %d more anomalies not reported", rep.ID, n-len(rep.Anomalies))
	}
	a.cfg.msg.Debugf("stream %v: %d frames, %d anomalies", rep.ID, rep.NumFrames, rep.Total())

	return rep, nil
}

func (a *Assessor) check(ipkt, ifr int, id wib.ID, prev, cur *wib.Frame, add func(Anomaly)) {
	if v := cur.CommaChar(); v != wib.CommaChar {
		add(Anomaly{ipkt, ifr, BadComma, -1, uint64(v), wib.CommaChar})
	}
	if v := cur.ID(); v != id {
		add(Anomaly{ipkt, ifr, BadID, -1, uint64(v), uint64(id)})
	}
	if v := cur.WibErrors(); v != 0 {
		add(Anomaly{ipkt, ifr, WibErrors, -1, uint64(v), 0})
	}
	for i := range cur.ColdData {
		cd := &cur.ColdData[i]
		if v := uint64(cd.StreamErr1()) | uint64(cd.StreamErr2())<<4; v != 0 {
			add(Anomaly{ipkt, ifr, StreamErrors, i, v, 0})
		}
	}

	if prev == nil {
		return
	}

	if got, want := cur.Version(), prev.Version(); got != want {
		add(Anomaly{ipkt, ifr, BadVersion, -1, uint64(got), uint64(want)})
	}
	if got, want := cur.Timestamp(), prev.Timestamp()+a.cfg.tick; got != want {
		add(Anomaly{ipkt, ifr, BadTimestamp, -1, got, want})
	}
	for i := range cur.ColdData {
		var (
			got  = cur.ColdData[i].ConvertCount()
			want = prev.ColdData[i].ConvertCount() + 1
		)
		if got != want {
			add(Anomaly{ipkt, ifr, BadConvertCount, i, uint64(got), uint64(want)})
		}
	}
}
