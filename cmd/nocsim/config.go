package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// runConfig holds the options of one simulation run. The platform itself is
// described by the rest of the same file and loaded by internal/config.
type runConfig struct {
	Rounds          int
	PayloadLen      int
	Interval        time.Duration
	DiscoverTimeout time.Duration
	ProbeEndpoint   int
	Admin           bool
}

type fileConfig struct {
	Run struct {
		Rounds          int    `toml:"rounds"`
		PayloadLen      int    `toml:"payload_len"`
		Interval        string `toml:"interval"`
		DiscoverTimeout string `toml:"discover_timeout"`
		ProbeEndpoint   int    `toml:"probe_endpoint"`
		Admin           bool   `toml:"admin"`
	} `toml:"run"`
}

func defaultRunConfig() runConfig {
	return runConfig{
		Rounds:          4,
		PayloadLen:      4,
		Interval:        10 * time.Millisecond,
		DiscoverTimeout: 2 * time.Second,
	}
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load run config: %w", err)
	}

	if meta.IsDefined("run", "rounds") {
		if raw.Run.Rounds < 0 {
			return runConfig{}, fmt.Errorf("run.rounds must not be negative")
		}
		cfg.Rounds = raw.Run.Rounds
	}

	if meta.IsDefined("run", "payload_len") {
		cfg.PayloadLen = raw.Run.PayloadLen
	}

	if meta.IsDefined("run", "interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Run.Interval))
		if err != nil {
			return runConfig{}, fmt.Errorf("parse run.interval: %w", err)
		}
		cfg.Interval = d
	}

	if meta.IsDefined("run", "discover_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Run.DiscoverTimeout))
		if err != nil {
			return runConfig{}, fmt.Errorf("parse run.discover_timeout: %w", err)
		}
		cfg.DiscoverTimeout = d
	}

	if meta.IsDefined("run", "probe_endpoint") {
		cfg.ProbeEndpoint = raw.Run.ProbeEndpoint
	}

	if meta.IsDefined("run", "admin") {
		cfg.Admin = raw.Run.Admin
	}

	return cfg, nil
}
