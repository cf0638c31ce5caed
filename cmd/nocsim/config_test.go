package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/hybridmp/internal/config"
	"github.com/danmuck/hybridmp/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func TestExampleConfigLoads(t *testing.T) {
	testlog.Start(t)

	cfg, err := config.LoadSimConfig("config.toml")
	if err != nil {
		t.Fatalf("load platform config: %v", err)
	}
	if cfg.Mesh.Tiles != 16 || len(cfg.TDM.Links) != 2 {
		t.Fatalf("unexpected platform config %+v", cfg)
	}

	run, err := loadRunConfig("config.toml")
	if err != nil {
		t.Fatalf("load run config: %v", err)
	}
	if run.Rounds != 8 || run.PayloadLen != 6 || run.Interval != 5*time.Millisecond {
		t.Fatalf("unexpected run config %+v", run)
	}
	if run.DiscoverTimeout != 2*time.Second || run.Admin {
		t.Fatalf("unexpected run config %+v", run)
	}
}

func TestRunConfigDefaultsWithoutRunTable(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "sim.toml")
	if err := os.WriteFile(path, []byte("name = \"bare\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	run, err := loadRunConfig(path)
	if err != nil {
		t.Fatalf("load run config: %v", err)
	}
	if run != defaultRunConfig() {
		t.Fatalf("expected defaults, got %+v", run)
	}
}

func TestRunConfigRejectsBadDuration(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "sim.toml")
	if err := os.WriteFile(path, []byte("[run]\ninterval = \"soon\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadRunConfig(path); err == nil {
		t.Fatalf("expected interval parse error")
	}
}

func TestSimulateSmallPlatform(t *testing.T) {
	testlog.Start(t)

	cfg := config.DefaultSimConfig()
	cfg.Routing = "distributed"
	cfg.TDM = config.TDMConfig{
		Channels:      1,
		MaxMessageLen: 4,
		Links:         []config.LinkConfig{{ATile: 0, BTile: 3}},
	}
	if err := config.ValidateSimConfig(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	run := defaultRunConfig()
	run.Rounds = 2

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := simulate(ctx, cfg, run, zerolog.Nop()); err != nil {
		t.Fatalf("simulate: %v", err)
	}
}
