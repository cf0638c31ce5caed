package header

import "fmt"

// Hop is one 3-bit code of a source route.
type Hop uint8

const (
	HopMinusY Hop = 0
	HopPlusX  Hop = 1
	HopPlusY  Hop = 2
	HopMinusX Hop = 3
	// HopTerminal+link ends the route and selects the receiving endpoint.
	HopTerminal Hop = 4

	hopBits   = 3
	hopMask   = 0x7
	routeBits = specificShift
	routeMask = 1<<routeBits - 1

	// MaxRouteCodes is the number of hop codes, terminal included, that fit
	// below the specific field.
	MaxRouteCodes = routeBits / hopBits

	// NumLinks is the number of terminal codes a route can end with.
	NumLinks = 2
)

// Mesh is the 2D tile grid; tile ids are row-major.
type Mesh struct {
	XDim int
	YDim int
}

func (m Mesh) Validate() error {
	if m.XDim <= 0 || m.YDim <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidMesh, m.XDim, m.YDim)
	}
	return nil
}

func (m Mesh) Coord(tile int) (x, y int) {
	return tile % m.XDim, tile / m.XDim
}

func (m Mesh) Tile(x, y int) int {
	return y*m.XDim + x
}

func (m Mesh) Contains(x, y int) bool {
	return x >= 0 && x < m.XDim && y >= 0 && y < m.YDim
}

func (m Mesh) Size() int {
	return m.XDim * m.YDim
}

// Diameter is the longest dimension-ordered route in hops.
func (m Mesh) Diameter() int {
	return (m.XDim - 1) + (m.YDim - 1)
}

// FitsSourceRouting reports whether every route in m fits the hop field.
func (m Mesh) FitsSourceRouting() bool {
	return m.Diameter()+1 <= MaxRouteCodes
}

// ComputeSourceRoute returns the bare X-then-Y route from tile from to tile
// dest ending on link. Class and specific bits are left zero.
func ComputeSourceRoute(m Mesh, from, dest, link int) (uint32, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if link < 0 || link >= NumLinks {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLink, link)
	}
	if from < 0 || from >= m.Size() || dest < 0 || dest >= m.Size() {
		return 0, fmt.Errorf("%w: %d -> %d", ErrTileOutOfRange, from, dest)
	}

	curX, curY := m.Coord(from)
	destX, destY := m.Coord(dest)
	var route uint32
	hop := 0
	push := func(code Hop) {
		route |= uint32(code&hopMask) << (hop * hopBits)
		hop++
	}

	if hops := abs(destX-curX) + abs(destY-curY); hops+1 > MaxRouteCodes {
		return 0, fmt.Errorf("%w: %d hops", ErrRouteTooLong, hops)
	}

	for destX != curX {
		if destX < curX {
			push(HopMinusX)
			curX--
		} else {
			push(HopPlusX)
			curX++
		}
	}
	for destY != curY {
		if destY < curY {
			push(HopMinusY)
			curY--
		} else {
			push(HopPlusY)
			curY++
		}
	}
	push(HopTerminal + Hop(link))
	return route, nil
}

// DecodeSource replays the hops of h backwards from tile self and returns the
// tile and endpoint the packet originated from. It fails closed: any
// non-hop, non-terminal code, an exhausted route field, or a replay ending
// outside the first numTiles tiles yields false.
func DecodeSource(m Mesh, self, numTiles int, h Header) (Address, bool) {
	if m.Validate() != nil {
		return Address{}, false
	}
	x, y := m.Coord(self)
	return walk(m, x, y, numTiles, h.Route(), -1)
}

// Destination follows the hops of h forward from tile from and returns the
// tile and endpoint the packet is delivered to.
func Destination(m Mesh, from, numTiles int, h Header) (Address, bool) {
	if m.Validate() != nil {
		return Address{}, false
	}
	x, y := m.Coord(from)
	return walk(m, x, y, numTiles, h.Route(), 1)
}

func walk(m Mesh, x, y, numTiles int, route uint32, dir int) (Address, bool) {
	for i := 0; i < MaxRouteCodes; i++ {
		code := Hop(route & hopMask)
		route >>= hopBits
		switch code {
		case HopMinusY:
			y -= dir
		case HopPlusX:
			x += dir
		case HopPlusY:
			y += dir
		case HopMinusX:
			x -= dir
		case HopTerminal, HopTerminal + 1:
			if !m.Contains(x, y) {
				return Address{}, false
			}
			tile := m.Tile(x, y)
			if tile >= numTiles {
				return Address{}, false
			}
			return Address{Tile: tile, Endpoint: int(code - HopTerminal)}, true
		default:
			return Address{}, false
		}
	}
	return Address{}, false
}

// Hops splits a route into its codes up to and including the terminal code.
func Hops(route uint32) []Hop {
	out := make([]Hop, 0, MaxRouteCodes)
	for i := 0; i < MaxRouteCodes; i++ {
		code := Hop(route & hopMask)
		route >>= hopBits
		out = append(out, code)
		if code >= HopTerminal {
			break
		}
	}
	return out
}

func (h Hop) String() string {
	switch h {
	case HopMinusY:
		return "-Y"
	case HopPlusX:
		return "+X"
	case HopPlusY:
		return "+Y"
	case HopMinusX:
		return "-X"
	default:
		return fmt.Sprintf("T%d", int(h)-int(HopTerminal))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
