package cluster

import (
	"github.com/danmuck/hybridmp/internal/fabric"
	"github.com/danmuck/hybridmp/internal/ps"
	"github.com/danmuck/hybridmp/internal/tdm"
)

// TileSnapshot is the observable state of one tile.
type TileSnapshot struct {
	Tile       int        `json:"tile"`
	Routing    string     `json:"routing"`
	Endpoints  int        `json:"endpoints"`
	Channels   int        `json:"channels"`
	PS         ps.Stats   `json:"ps"`
	TDM        *tdm.Stats `json:"tdm,omitempty"`
	ReadyTiles int        `json:"ready_tiles"`
	ReadyMasks []uint32   `json:"-"`
}

type Snapshot struct {
	Name   string         `json:"name"`
	Fabric fabric.Stats   `json:"fabric"`
	Tiles  []TileSnapshot `json:"tiles"`
}

func (c *Cluster) Snapshot() Snapshot {
	out := Snapshot{
		Name:   c.cfg.Name,
		Fabric: c.fabric.Stats(),
		Tiles:  make([]TileSnapshot, 0, len(c.nodes)),
	}
	for _, n := range c.nodes {
		out.Tiles = append(out.Tiles, n.Snapshot())
	}
	return out
}

func (n *Node) Snapshot() TileSnapshot {
	masks := n.PS.Readiness().Snapshot()
	ready := 0
	for _, m := range masks {
		if m != 0 {
			ready++
		}
	}
	snap := TileSnapshot{
		Tile:       n.Tile.TileID(),
		Routing:    n.PS.RoutingMode().String(),
		Endpoints:  n.PS.NumEndpoints(),
		PS:         n.PS.Stats(),
		ReadyTiles: ready,
		ReadyMasks: masks,
	}
	if n.TDM != nil {
		stats := n.TDM.Stats()
		snap.TDM = &stats
		snap.Channels = n.TDM.NumChannels()
	}
	return snap
}
