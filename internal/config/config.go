package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/hybridmp/internal/protocol/header"
	"github.com/pelletier/go-toml/v2"
)

// MaxTDMChannels is the size of a TDM engine's channel table.
const MaxTDMChannels = 16

// SimConfig describes the simulated hybrid NoC platform.
type SimConfig struct {
	Name    string      `toml:"name"`
	Routing string      `toml:"routing"`
	Mesh    MeshConfig  `toml:"mesh"`
	PS      PSConfig    `toml:"ps"`
	TDM     TDMConfig   `toml:"tdm"`
	Ranks   []int       `toml:"ranks"`
	Admin   AdminConfig `toml:"admin"`
}

type MeshConfig struct {
	XDim int `toml:"x_dim"`
	YDim int `toml:"y_dim"`
	// Tiles defaults to XDim*YDim.
	Tiles int `toml:"tiles"`
}

type PSConfig struct {
	Endpoints int `toml:"endpoints"`
	MaxPacket int `toml:"max_packet"`
}

type TDMConfig struct {
	Channels      int          `toml:"channels"`
	MaxMessageLen int          `toml:"max_message_len"`
	Links         []LinkConfig `toml:"links"`
}

// LinkConfig is one bidirectional entry of the static TDM schedule.
type LinkConfig struct {
	ATile    int `toml:"a_tile"`
	AChannel int `toml:"a_channel"`
	BTile    int `toml:"b_tile"`
	BChannel int `toml:"b_channel"`
}

type AdminConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

func DefaultSimConfig() SimConfig {
	cfg := SimConfig{}
	applySimDefaults(&cfg)
	return cfg
}

func LoadSimConfig(path string) (SimConfig, error) {
	var cfg SimConfig
	if err := loadToml(path, &cfg); err != nil {
		return SimConfig{}, err
	}
	return finishSimConfig(cfg)
}

// ParseSimConfig decodes, defaults and validates a TOML document.
func ParseSimConfig(data []byte) (SimConfig, error) {
	var cfg SimConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return SimConfig{}, fmt.Errorf("config parse failed: %w", err)
	}
	return finishSimConfig(cfg)
}

func finishSimConfig(cfg SimConfig) (SimConfig, error) {
	applySimDefaults(&cfg)
	if err := ValidateSimConfig(cfg); err != nil {
		return SimConfig{}, err
	}
	return cfg, nil
}

func applySimDefaults(cfg *SimConfig) {
	if cfg.Name == "" {
		cfg.Name = "nocsim"
	}
	if cfg.Routing == "" {
		cfg.Routing = header.SourceRouted.String()
	}
	if cfg.Mesh.XDim == 0 && cfg.Mesh.YDim == 0 {
		cfg.Mesh.XDim, cfg.Mesh.YDim = 2, 2
	}
	if cfg.Mesh.Tiles == 0 {
		cfg.Mesh.Tiles = cfg.Mesh.XDim * cfg.Mesh.YDim
	}
	if cfg.PS.Endpoints == 0 {
		cfg.PS.Endpoints = 1
	}
	if cfg.PS.MaxPacket == 0 {
		cfg.PS.MaxPacket = 32
	}
	if cfg.TDM.Channels > 0 && cfg.TDM.MaxMessageLen == 0 {
		cfg.TDM.MaxMessageLen = 16
	}
	if cfg.Admin.Addr == "" {
		cfg.Admin.Addr = ":9200"
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// RoutingMode parses the routing field.
func (c SimConfig) RoutingMode() (header.RoutingMode, error) {
	return header.ParseRoutingMode(c.Routing)
}

func (c SimConfig) HeaderMesh() header.Mesh {
	return header.Mesh{XDim: c.Mesh.XDim, YDim: c.Mesh.YDim}
}

func ValidateSimConfig(cfg SimConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("sim config missing name")
	}
	mode, err := cfg.RoutingMode()
	if err != nil {
		return fmt.Errorf("routing invalid: %w", err)
	}
	if err := ValidateMesh(cfg.Mesh, mode); err != nil {
		return fmt.Errorf("mesh invalid: %w", err)
	}
	if cfg.PS.Endpoints < 1 || cfg.PS.Endpoints > header.NumLinks {
		return fmt.Errorf("ps.endpoints must be between 1 and %d", header.NumLinks)
	}
	if cfg.PS.MaxPacket < 1 {
		return fmt.Errorf("ps.max_packet must be positive")
	}
	if err := ValidateTDM(cfg.TDM, cfg.Mesh.Tiles); err != nil {
		return err
	}
	for i, tile := range cfg.Ranks {
		if tile < 0 || tile >= cfg.Mesh.Tiles {
			return fmt.Errorf("ranks[%d] invalid: tile %d out of range", i, tile)
		}
	}
	if strings.TrimSpace(cfg.Admin.Addr) == "" {
		return fmt.Errorf("admin.addr is required")
	}
	return nil
}

func ValidateMesh(cfg MeshConfig, mode header.RoutingMode) error {
	mesh := header.Mesh{XDim: cfg.XDim, YDim: cfg.YDim}
	if err := mesh.Validate(); err != nil {
		return err
	}
	if cfg.Tiles < 1 || cfg.Tiles > mesh.Size() {
		return fmt.Errorf("tiles must be between 1 and %d", mesh.Size())
	}
	switch mode {
	case header.DistributedRouted:
		if cfg.Tiles > header.MaxDistributedTiles {
			return fmt.Errorf("distributed routing supports at most %d tiles", header.MaxDistributedTiles)
		}
	case header.SourceRouted:
		if !mesh.FitsSourceRouting() {
			return fmt.Errorf("%dx%d mesh diameter exceeds the source route field", cfg.XDim, cfg.YDim)
		}
	}
	return nil
}

func ValidateTDM(cfg TDMConfig, tiles int) error {
	if cfg.Channels < 0 || cfg.Channels > MaxTDMChannels {
		return fmt.Errorf("tdm.channels must be between 0 and %d", MaxTDMChannels)
	}
	if cfg.Channels == 0 {
		if len(cfg.Links) > 0 {
			return fmt.Errorf("tdm.links require tdm.channels")
		}
		return nil
	}
	if cfg.MaxMessageLen < 1 || cfg.MaxMessageLen > 0xffff {
		return fmt.Errorf("tdm.max_message_len must be between 1 and %d", 0xffff)
	}
	used := make(map[[2]int]bool, 2*len(cfg.Links))
	for i, link := range cfg.Links {
		if err := ValidateLink(link, tiles, cfg.Channels, used); err != nil {
			return fmt.Errorf("tdm.links[%d] invalid: %w", i, err)
		}
	}
	return nil
}

// ValidateLink checks one link against the platform and records its ports
// in used.
func ValidateLink(link LinkConfig, tiles, channels int, used map[[2]int]bool) error {
	ports := [][2]int{{link.ATile, link.AChannel}, {link.BTile, link.BChannel}}
	if ports[0] == ports[1] {
		return fmt.Errorf("link connects %d.%d to itself", link.ATile, link.AChannel)
	}
	for _, p := range ports {
		if p[0] < 0 || p[0] >= tiles {
			return fmt.Errorf("tile %d out of range", p[0])
		}
		if p[1] < 0 || p[1] >= channels {
			return fmt.Errorf("channel %d out of range", p[1])
		}
		if used[p] {
			return fmt.Errorf("channel %d.%d already linked", p[0], p[1])
		}
		used[p] = true
	}
	return nil
}
