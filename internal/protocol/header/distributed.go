package header

const (
	drDestShift = 0
	drSrcShift  = 10
	drTileMask  = 0x3ff
	drLinkShift = 23
	drLinkMask  = 0x1

	// MaxDistributedTiles is the number of tile ids a distributed header can carry.
	MaxDistributedTiles = drTileMask + 1
)

// DRFields are the fields of a distributed-routing header.
type DRFields struct {
	Dest     int
	Src      int
	Link     int
	Class    int
	Specific int
}

// EncodeDistributed packs f into a header. Values are truncated to their
// field widths.
func EncodeDistributed(f DRFields) Header {
	return Header(classBits(f.Class, f.Specific) |
		uint32(f.Link&drLinkMask)<<drLinkShift |
		uint32(f.Src&drTileMask)<<drSrcShift |
		uint32(f.Dest&drTileMask)<<drDestShift)
}

func DecodeDistributed(h Header) DRFields {
	w := uint32(h)
	return DRFields{
		Dest:     int(w>>drDestShift) & drTileMask,
		Src:      int(w>>drSrcShift) & drTileMask,
		Link:     int(w>>drLinkShift) & drLinkMask,
		Class:    h.Class(),
		Specific: h.Specific(),
	}
}

// Origin is the sending tile and link of a distributed header.
func (f DRFields) Origin() Address {
	return Address{Tile: f.Src, Endpoint: f.Link}
}

// Target is the receiving tile and link of a distributed header.
func (f DRFields) Target() Address {
	return Address{Tile: f.Dest, Endpoint: f.Link}
}
