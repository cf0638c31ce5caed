package cluster

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/hybridmp/internal/config"
	"github.com/danmuck/hybridmp/internal/fabric"
	"github.com/danmuck/hybridmp/internal/protocol/header"
	"github.com/danmuck/hybridmp/internal/testutil/testlog"
)

func sourceConfig() config.SimConfig {
	cfg := config.DefaultSimConfig()
	cfg.Mesh = config.MeshConfig{XDim: 3, YDim: 3, Tiles: 9}
	cfg.PS.Endpoints = 2
	return cfg
}

func distributedConfig() config.SimConfig {
	cfg := config.DefaultSimConfig()
	cfg.Routing = "distributed"
	cfg.Mesh = config.MeshConfig{XDim: 4, YDim: 2, Tiles: 7}
	cfg.TDM = config.TDMConfig{
		Channels:      2,
		MaxMessageLen: 8,
		Links: []config.LinkConfig{
			{ATile: 0, AChannel: 0, BTile: 6, BChannel: 1},
			{ATile: 1, AChannel: 1, BTile: 2, BChannel: 0},
		},
	}
	return cfg
}

func startCluster(t *testing.T, cfg config.SimConfig) *Cluster {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new cluster: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	t.Cleanup(func() {
		cancel()
		if err := c.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return c
}

func TestFabricConfig(t *testing.T) {
	testlog.Start(t)

	fcfg, err := FabricConfig(distributedConfig())
	if err != nil {
		t.Fatalf("fabric config: %v", err)
	}
	if fcfg.Routing != header.DistributedRouted || fcfg.Tiles != 7 || fcfg.Channels != 2 {
		t.Fatalf("unexpected fabric config %+v", fcfg)
	}
	want := fabric.Link{A: fabric.Port{Tile: 0, Channel: 0}, B: fabric.Port{Tile: 6, Channel: 1}}
	if len(fcfg.Links) != 2 || fcfg.Links[0] != want {
		t.Fatalf("unexpected links %+v", fcfg.Links)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	testlog.Start(t)

	cfg := sourceConfig()
	cfg.PS.Endpoints = 4
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestBringUpEnablesEverything(t *testing.T) {
	testlog.Start(t)

	c := startCluster(t, distributedConfig())
	if len(c.Nodes()) != 7 {
		t.Fatalf("expected 7 nodes, got %d", len(c.Nodes()))
	}
	for _, n := range c.Nodes() {
		for ep := 0; ep < n.PS.NumEndpoints(); ep++ {
			if !n.PS.Enabled(ep) {
				t.Fatalf("tile %d endpoint %d not enabled", n.Tile.TileID(), ep)
			}
		}
		if n.TDM == nil || !n.TDM.Enabled(1) {
			t.Fatalf("tile %d tdm channels not enabled", n.Tile.TileID())
		}
	}
	if _, err := c.Node(7); err == nil {
		t.Fatalf("expected out of range node")
	}
}

func TestDiscoverAllPairs(t *testing.T) {
	testlog.Start(t)

	for _, cfg := range []config.SimConfig{sourceConfig(), distributedConfig()} {
		c := startCluster(t, cfg)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pending, err := c.Discover(ctx, 1, 5*time.Millisecond)
		cancel()
		if err != nil || pending != 0 {
			t.Fatalf("%s: discover returned pending=%d err=%v", cfg.Routing, pending, err)
		}
		for _, snap := range c.Snapshot().Tiles {
			if snap.ReadyTiles != cfg.Mesh.Tiles {
				t.Fatalf("%s: tile %d sees %d ready tiles", cfg.Routing, snap.Tile, snap.ReadyTiles)
			}
			for tile, mask := range snap.ReadyMasks {
				if mask != 1<<1 {
					t.Fatalf("%s: tile %d mask for %d is %b", cfg.Routing, snap.Tile, tile, mask)
				}
			}
		}
	}
}

func TestExchangeEchoes(t *testing.T) {
	testlog.Start(t)

	c := startCluster(t, distributedConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := c.Exchange(ctx, 3, 4, time.Millisecond)
	if err != nil {
		t.Fatalf("exchange: %v (report %+v)", err, report)
	}
	if report.PSSent != 21 || report.TDMSent != 6 || !report.Complete() {
		t.Fatalf("unexpected report %+v", report)
	}

	snap := c.Snapshot()
	if snap.Fabric.DroppedUnroutable != 0 || snap.Fabric.DroppedDisabled != 0 {
		t.Fatalf("fabric dropped traffic: %+v", snap.Fabric)
	}
	var received uint64
	for _, tile := range snap.Tiles {
		received += tile.PS.Received
	}
	if received != 42 {
		t.Fatalf("expected 42 ps deliveries (pings and pongs), got %d", received)
	}
}

func TestExchangeRejectsTinyPackets(t *testing.T) {
	testlog.Start(t)

	cfg := sourceConfig()
	cfg.PS.MaxPacket = 2
	c := startCluster(t, cfg)
	if _, err := c.Exchange(context.Background(), 1, 2, 0); err == nil {
		t.Fatalf("expected ErrPayloadTooSmall")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	testlog.Start(t)

	c, err := New(sourceConfig())
	if err != nil {
		t.Fatalf("new cluster: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop")
	}
}

func TestStartRunsOnce(t *testing.T) {
	testlog.Start(t)

	c, err := New(sourceConfig())
	if err != nil {
		t.Fatalf("new cluster: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Start(ctx)
		}()
	}
	wg.Wait()
	cancel()
	if err := c.Close(); err != nil {
		t.Fatalf("expected clean close after repeated start, got %v", err)
	}
}
