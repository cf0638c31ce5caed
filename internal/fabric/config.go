package fabric

import (
	"fmt"

	"github.com/danmuck/hybridmp/internal/protocol/header"
)

// Widths of the TDM info register fields.
const (
	maxChannelField = 0xff
	maxMessageField = 0xffff
)

// Config describes the simulated platform.
type Config struct {
	Mesh    header.Mesh
	Tiles   int
	Routing header.RoutingMode

	Endpoints int
	MaxPacket int

	Channels      int
	MaxMessageLen int
	Links         []Link

	// Ranks maps core rank to tile. Empty means rank == tile.
	Ranks []int
}

// Link is a bidirectional TDM connection between two tile channels.
type Link struct {
	A Port
	B Port
}

// Port names one channel of one tile.
type Port struct {
	Tile    int
	Channel int
}

func (c Config) validate() error {
	if err := c.Mesh.Validate(); err != nil {
		return err
	}
	if c.Tiles <= 0 || c.Tiles > c.Mesh.Size() {
		return fmt.Errorf("%w: %d tiles on %dx%d mesh", ErrInvalidTiles, c.Tiles, c.Mesh.XDim, c.Mesh.YDim)
	}
	switch c.Routing {
	case header.DistributedRouted:
		if c.Tiles > header.MaxDistributedTiles {
			return fmt.Errorf("%w: %d tiles exceed distributed range", ErrInvalidTiles, c.Tiles)
		}
	case header.SourceRouted:
		if !c.Mesh.FitsSourceRouting() {
			return fmt.Errorf("%w: %dx%d", ErrRouteTooLong, c.Mesh.XDim, c.Mesh.YDim)
		}
	}
	if c.Endpoints < 1 || c.Endpoints > header.NumLinks {
		return fmt.Errorf("%w: %d", ErrInvalidEndpoints, c.Endpoints)
	}
	if c.MaxPacket < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPacket, c.MaxPacket)
	}
	if c.Channels < 0 || c.Channels > maxChannelField {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, c.Channels)
	}
	if c.Channels > 0 && (c.MaxMessageLen < 1 || c.MaxMessageLen > maxMessageField) {
		return fmt.Errorf("%w: %d", ErrInvalidMessage, c.MaxMessageLen)
	}

	used := make(map[Port]bool, 2*len(c.Links))
	for i, l := range c.Links {
		for _, p := range []Port{l.A, l.B} {
			if p.Tile < 0 || p.Tile >= c.Tiles || p.Channel < 0 || p.Channel >= c.Channels {
				return fmt.Errorf("%w: links[%d] port %d.%d out of range", ErrInvalidLink, i, p.Tile, p.Channel)
			}
			if used[p] {
				return fmt.Errorf("%w: links[%d] port %d.%d already linked", ErrInvalidLink, i, p.Tile, p.Channel)
			}
			used[p] = true
		}
	}
	for rank, tile := range c.Ranks {
		if tile < 0 || tile >= c.Tiles {
			return fmt.Errorf("%w: rank %d -> tile %d", ErrInvalidRank, rank, tile)
		}
	}
	return nil
}
