// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-lpc/pdsp/wib"
	"gopkg.in/yaml.v3"
)

type config struct {
	Tick       uint64    `yaml:"tick"`
	MaxReports int       `yaml:"max-reports"`
	Level      string    `yaml:"level"`
	Log        logConfig `yaml:"log"`
}

type logConfig struct {
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
}

func newConfig() config {
	return config{
		Tick:       wib.Ticks,
		MaxReports: 100,
		Level:      "warning",
	}
}

// loadConfig reads the YAML configuration file fname.
// Missing fields keep their default value.
func loadConfig(fname string) (config, error) {
	cfg := newConfig()

	f, err := os.Open(fname)
	if err != nil {
		return cfg, fmt.Errorf("could not open configuration file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("could not decode configuration file %q: %w", fname, err)
	}

	switch {
	case cfg.Tick == 0:
		return cfg, fmt.Errorf("invalid tick value 0")
	case cfg.MaxReports < 0:
		return cfg, fmt.Errorf("invalid max-reports value %d", cfg.MaxReports)
	}

	return cfg, nil
}

func levelFrom(name string) (tlog.Level, error) {
	switch strings.ToLower(name) {
	case "debug", "dbg":
		return tlog.LvlDebug, nil
	case "info", "":
		return tlog.LvlInfo, nil
	case "warning", "warn":
		return tlog.LvlWarning, nil
	case "error", "err":
		return tlog.LvlError, nil
	}
	return 0, fmt.Errorf("invalid message level %q", name)
}
