package fabric

import "github.com/danmuck/hybridmp/internal/hal"

// Tile is one node of the fabric. It is the hal.Platform its engines run on.
type Tile struct {
	id     int
	fabric *Fabric
	ps     *PSAdapter
	tdm    *TDMAdapter
	crit   hal.Critical
}

var _ hal.Platform = (*Tile)(nil)

func (t *Tile) TileID() int {
	return t.id
}

func (t *Tile) NumTiles() int {
	return len(t.fabric.tiles)
}

func (t *Tile) MaxPacketSize() int {
	return t.fabric.cfg.MaxPacket
}

func (t *Tile) RankTile(rank int) (int, bool) {
	ranks := t.fabric.cfg.Ranks
	if len(ranks) == 0 {
		return rank, rank >= 0 && rank < len(t.fabric.tiles)
	}
	if rank < 0 || rank >= len(ranks) {
		return 0, false
	}
	return ranks[rank], true
}

func (t *Tile) Critical() *hal.Critical {
	return &t.crit
}

func (t *Tile) PS() *PSAdapter {
	return t.ps
}

// TDM returns the tile's TDM adapter, or nil when the fabric has no
// channels.
func (t *Tile) TDM() *TDMAdapter {
	return t.tdm
}
