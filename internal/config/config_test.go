package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/hybridmp/internal/protocol/header"
	"github.com/danmuck/hybridmp/internal/testutil/testlog"
)

func TestTemplatesParse(t *testing.T) {
	testlog.Start(t)

	for _, kind := range []string{"sim", "sim-dr"} {
		tmpl, err := Template(kind)
		if err != nil {
			t.Fatalf("template %s: %v", kind, err)
		}
		if _, err := ParseSimConfig([]byte(tmpl)); err != nil {
			t.Fatalf("template %s does not validate: %v", kind, err)
		}
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestDefaults(t *testing.T) {
	testlog.Start(t)

	cfg, err := ParseSimConfig([]byte(`[mesh]
x_dim = 3
y_dim = 2
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Name != "nocsim" || cfg.Mesh.Tiles != 6 || cfg.PS.Endpoints != 1 || cfg.PS.MaxPacket != 32 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	mode, err := cfg.RoutingMode()
	if err != nil || mode != header.SourceRouted {
		t.Fatalf("expected source routing default, got (%v, %v)", mode, err)
	}
	if cfg.HeaderMesh() != (header.Mesh{XDim: 3, YDim: 2}) {
		t.Fatalf("unexpected mesh %+v", cfg.HeaderMesh())
	}
	if DefaultSimConfig().Admin.Addr != ":9200" {
		t.Fatalf("unexpected default admin addr")
	}
}

func TestValidateSimConfig(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name   string
		mutate func(*SimConfig)
		want   string
	}{
		{"routing", func(c *SimConfig) { c.Routing = "adaptive" }, "routing invalid"},
		{"tiles", func(c *SimConfig) { c.Mesh.Tiles = 5 }, "mesh invalid"},
		{"route field", func(c *SimConfig) { c.Mesh = MeshConfig{XDim: 9, YDim: 1, Tiles: 9} }, "mesh invalid"},
		{"endpoints", func(c *SimConfig) { c.PS.Endpoints = 3 }, "ps.endpoints"},
		{"channels", func(c *SimConfig) { c.TDM.Channels = 17 }, "tdm.channels"},
		{"message length", func(c *SimConfig) { c.TDM = TDMConfig{Channels: 1, MaxMessageLen: 0x10000} }, "tdm.max_message_len"},
		{"link tile", func(c *SimConfig) {
			c.TDM = TDMConfig{Channels: 1, MaxMessageLen: 4, Links: []LinkConfig{{ATile: 0, BTile: 4}}}
		}, "tdm.links[0] invalid"},
		{"link reuse", func(c *SimConfig) {
			c.TDM = TDMConfig{Channels: 1, MaxMessageLen: 4, Links: []LinkConfig{
				{ATile: 0, BTile: 1},
				{ATile: 2, BTile: 1},
			}}
		}, "tdm.links[1] invalid"},
		{"self link", func(c *SimConfig) {
			c.TDM = TDMConfig{Channels: 1, MaxMessageLen: 4, Links: []LinkConfig{{ATile: 2, BTile: 2}}}
		}, "tdm.links[0] invalid"},
		{"rank", func(c *SimConfig) { c.Ranks = []int{0, 4} }, "ranks[1]"},
	}
	for _, tc := range cases {
		cfg := DefaultSimConfig()
		tc.mutate(&cfg)
		err := ValidateSimConfig(cfg)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestDistributedAllowsLargeMesh(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultSimConfig()
	cfg.Mesh = MeshConfig{XDim: 32, YDim: 32, Tiles: 1024}
	cfg.Routing = "dr"
	if err := ValidateSimConfig(cfg); err != nil {
		t.Fatalf("expected 32x32 distributed mesh to validate: %v", err)
	}
	cfg.Routing = "sr"
	if err := ValidateSimConfig(cfg); err == nil {
		t.Fatalf("expected 32x32 source-routed mesh to be rejected")
	}
}

func TestWriteTemplateAndLoad(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "sim.toml")
	if err := WriteTemplate(path, "sim", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, "sim", false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, "sim-dr", true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	cfg, err := LoadSimConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "nocsim-dr" || cfg.Mesh.Tiles != 64 || len(cfg.TDM.Links) != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := LoadSimConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected load error for missing file")
	}
	if err := os.WriteFile(path, []byte("mesh = ["), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSimConfig(path); err == nil || !strings.Contains(err.Error(), "config parse failed") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
