// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdsp

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestVersionOf(t *testing.T) {
	for _, tc := range []struct {
		name string
		deps []*debug.Module
		ver  string
		sum  string
	}{
		{
			name: "no-deps",
		},
		{
			name: "other-module",
			deps: []*debug.Module{{Path: "go-hep.org/x/hep", Version: "v0.32.1"}},
		},
		{
			name: "plain",
			deps: []*debug.Module{
				{Path: "golang.org/x/sys", Version: "v0.7.0"},
				{Path: modpath, Version: "v0.3.1", Sum: "h1:abc="},
			},
			ver: "v0.3.1",
			sum: "h1:abc=",
		},
		{
			name: "replace-path-version",
			deps: []*debug.Module{{
				Path: modpath, Version: "v0.3.1",
				Replace: &debug.Module{Path: "example.org/pdsp", Version: "v0.4.0", Sum: "h1:def="},
			}},
			ver: "example.org/pdsp v0.4.0",
			sum: "h1:def=",
		},
		{
			name: "replace-version",
			deps: []*debug.Module{{
				Path: modpath, Version: "v0.3.1",
				Replace: &debug.Module{Version: "v0.4.0", Sum: "h1:def="},
			}},
			ver: "v0.4.0",
			sum: "h1:def=",
		},
		{
			name: "replace-path",
			deps: []*debug.Module{{
				Path: modpath, Version: "v0.3.1",
				Replace: &debug.Module{Path: "../pdsp"},
			}},
			ver: "../pdsp",
		},
		{
			name: "replace-empty",
			deps: []*debug.Module{{
				Path: modpath, Version: "v0.3.1",
				Replace: &debug.Module{},
			}},
			ver: "v0.3.1*",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ver, sum := versionOf(&debug.BuildInfo{Deps: tc.deps})
			if got, want := ver, tc.ver; got != want {
				t.Fatalf("invalid version: got=%q, want=%q", got, want)
			}
			if got, want := sum, tc.sum; got != want {
				t.Fatalf("invalid sum: got=%q, want=%q", got, want)
			}
		})
	}

	if ver, sum := versionOf(nil); ver != "" || sum != "" {
		t.Fatalf("invalid nil build info: got=(%q, %q)", ver, sum)
	}
}

func TestVersionString(t *testing.T) {
	// test binaries are built with pdsp as the main module.
	if got := VersionString(); !strings.HasPrefix(got, "pdsp ") {
		t.Fatalf("invalid version string: %q", got)
	}
}
