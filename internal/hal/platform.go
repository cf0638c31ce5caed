package hal

import "sync"

// StaticPlatform is a Platform with fixed facts, for single-tile setups and
// tests.
type StaticPlatform struct {
	ID        int
	Tiles     int
	MaxPacket int
	// Ranks maps rank to tile; nil means rank == tile.
	Ranks []int

	once sync.Once
	crit *Critical
}

var _ Platform = (*StaticPlatform)(nil)

func (p *StaticPlatform) TileID() int        { return p.ID }
func (p *StaticPlatform) NumTiles() int      { return p.Tiles }
func (p *StaticPlatform) MaxPacketSize() int { return p.MaxPacket }

func (p *StaticPlatform) RankTile(rank int) (int, bool) {
	if p.Ranks == nil {
		return rank, rank >= 0 && rank < p.Tiles
	}
	if rank < 0 || rank >= len(p.Ranks) {
		return 0, false
	}
	return p.Ranks[rank], true
}

func (p *StaticPlatform) Critical() *Critical {
	p.once.Do(func() {
		p.crit = &Critical{}
	})
	return p.crit
}
