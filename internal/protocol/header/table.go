package header

import "fmt"

// RouteTable holds the precomputed source route from one tile to every
// (endpoint, tile) pair. It is built once and read-only afterwards.
type RouteTable struct {
	numTiles     int
	numEndpoints int
	routes       []uint32
}

func NewRouteTable(m Mesh, self, numTiles, numEndpoints int) (*RouteTable, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if numTiles <= 0 || numTiles > m.Size() {
		return nil, fmt.Errorf("%w: %d tiles in %dx%d mesh", ErrInvalidMesh, numTiles, m.XDim, m.YDim)
	}
	if self < 0 || self >= numTiles {
		return nil, fmt.Errorf("%w: self %d", ErrTileOutOfRange, self)
	}
	if numEndpoints <= 0 || numEndpoints > NumLinks {
		return nil, fmt.Errorf("%w: %d endpoints", ErrInvalidLink, numEndpoints)
	}

	t := &RouteTable{
		numTiles:     numTiles,
		numEndpoints: numEndpoints,
		routes:       make([]uint32, numEndpoints*numTiles),
	}
	for ep := 0; ep < numEndpoints; ep++ {
		for tile := 0; tile < numTiles; tile++ {
			route, err := ComputeSourceRoute(m, self, tile, ep)
			if err != nil {
				return nil, fmt.Errorf("route %d -> %d.%d: %w", self, tile, ep, err)
			}
			t.routes[ep*numTiles+tile] = route
		}
	}
	return t, nil
}

// Route returns the bare route to endpoint on tile.
func (t *RouteTable) Route(tile, endpoint int) (uint32, error) {
	if tile < 0 || tile >= t.numTiles {
		return 0, fmt.Errorf("%w: %d", ErrTileOutOfRange, tile)
	}
	if endpoint < 0 || endpoint >= t.numEndpoints {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLink, endpoint)
	}
	return t.routes[endpoint*t.numTiles+tile], nil
}
