package ps

import "sync/atomic"

// maxReadyEndpoints is the width of one tile's readiness mask.
const maxReadyEndpoints = 32

// Readiness records which remote endpoints have answered a probe. Bits are
// only ever set.
type Readiness struct {
	tiles []atomic.Uint32
}

func newReadiness(numTiles int) *Readiness {
	return &Readiness{tiles: make([]atomic.Uint32, numTiles)}
}

func (r *Readiness) Ready(tile, endpoint int) bool {
	if !r.valid(tile, endpoint) {
		return false
	}
	return r.tiles[tile].Load()&(1<<endpoint) != 0
}

// Mark sets the bit for (tile, endpoint) and reports whether it was newly set.
func (r *Readiness) Mark(tile, endpoint int) bool {
	if !r.valid(tile, endpoint) {
		return false
	}
	bit := uint32(1) << endpoint
	return r.tiles[tile].Or(bit)&bit == 0
}

// Mask returns the readiness bits of one tile.
func (r *Readiness) Mask(tile int) uint32 {
	if tile < 0 || tile >= len(r.tiles) {
		return 0
	}
	return r.tiles[tile].Load()
}

// Snapshot copies every tile's mask.
func (r *Readiness) Snapshot() []uint32 {
	out := make([]uint32, len(r.tiles))
	for i := range r.tiles {
		out[i] = r.tiles[i].Load()
	}
	return out
}

func (r *Readiness) valid(tile, endpoint int) bool {
	return tile >= 0 && tile < len(r.tiles) && endpoint >= 0 && endpoint < maxReadyEndpoints
}
