// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pdsp holds code to decode and encode the raw data formats
// of the ProtoDUNE-SP data acquisition system.
//
// The sub-packages provide:
//   - header: the generic record headers (Header0..Header3),
//   - wib: WIB frames and the ADC expansion/transposition engine,
//   - tpc: TPC stream records (table of contents, ranges, packets),
//   - penn: PENN trigger board micro-slices,
//   - slice: milli/micro/nano-slice readers and incremental writers.
package pdsp // import "github.com/go-lpc/pdsp"

import (
	"runtime/debug"
)

const modpath = "github.com/go-lpc/pdsp"

// Version returns the version of pdsp and its checksum, as recorded in
// the build information of the running binary.
// Empty strings are returned when pdsp is the main module or when the
// binary was built without module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}
	for _, m := range b.Deps {
		if m.Path == modpath {
			return modVersion(m)
		}
	}
	return "", ""
}

// modVersion returns the version of a module, following its replacement.
// A local replacement without a version is flagged with a trailing '*'.
func modVersion(m *debug.Module) (string, string) {
	r := m.Replace
	switch {
	case r == nil:
		return m.Version, m.Sum
	case r.Path != "" && r.Version != "":
		return r.Path + " " + r.Version, r.Sum
	case r.Version != "":
		return r.Version, r.Sum
	case r.Path != "":
		return r.Path, r.Sum
	}
	return m.Version + "*", ""
}

// VersionString returns a one-line description of the pdsp version,
// suitable for the -version flag of commands.
func VersionString() string {
	v, sum := Version()
	switch {
	case v == "":
		return "pdsp (devel)"
	case sum == "":
		return "pdsp " + v
	}
	return "pdsp " + v + " " + sum
}
