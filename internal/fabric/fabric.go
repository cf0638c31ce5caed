package fabric

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/danmuck/hybridmp/internal/hal"
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/danmuck/hybridmp/internal/protocol/header"
	"github.com/rs/zerolog"
)

// Fabric connects the adapters of every tile.
type Fabric struct {
	cfg   Config
	tiles []*Tile
	links map[Port]Port
	log   zerolog.Logger
	rec   observability.Recorder

	closeOnce sync.Once
	stats     counters
}

type counters struct {
	packets    atomic.Uint64
	probes     atomic.Uint64
	messages   atomic.Uint64
	unroutable atomic.Uint64
	disabled   atomic.Uint64
}

// Stats counts traffic handled by the fabric itself.
type Stats struct {
	PacketsRouted     uint64 `json:"packets_routed"`
	ProbesAnswered    uint64 `json:"probes_answered"`
	MessagesRouted    uint64 `json:"messages_routed"`
	DroppedUnroutable uint64 `json:"dropped_unroutable"`
	DroppedDisabled   uint64 `json:"dropped_disabled"`
}

func New(cfg Config, opts ...Option) (*Fabric, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f := &Fabric{
		cfg:   cfg,
		tiles: make([]*Tile, cfg.Tiles),
		links: make(map[Port]Port, 2*len(cfg.Links)),
		log:   o.logger.With().Str("component", "fabric").Logger(),
		rec:   o.recorder,
	}
	for _, l := range cfg.Links {
		f.links[l.A] = l.B
		f.links[l.B] = l.A
	}

	psInfo := hal.EncodePSInfo(hal.PSInfo{
		Endpoints:   cfg.Endpoints,
		Distributed: cfg.Routing == header.DistributedRouted,
	})
	tdmInfo := hal.EncodeTDMInfo(hal.TDMInfo{
		Channels:      cfg.Channels,
		MaxMessageLen: cfg.MaxMessageLen,
	})
	for id := range f.tiles {
		t := &Tile{id: id, fabric: f}
		t.ps = &PSAdapter{tile: id, fabric: f}
		t.ps.setup(psInfo, cfg.Endpoints)
		if cfg.Channels > 0 {
			t.tdm = &TDMAdapter{tile: id, fabric: f}
			t.tdm.setup(tdmInfo, cfg.Channels)
		}
		f.tiles[id] = t
	}

	f.log.Debug().
		Int("tiles", cfg.Tiles).
		Str("routing", cfg.Routing.String()).
		Int("links", len(cfg.Links)).
		Msg("fabric ready")
	return f, nil
}

func (f *Fabric) Config() Config {
	return f.cfg
}

func (f *Fabric) NumTiles() int {
	return len(f.tiles)
}

func (f *Fabric) Tile(id int) (*Tile, error) {
	if id < 0 || id >= len(f.tiles) {
		return nil, fmt.Errorf("%w: %d", ErrTileOutOfRange, id)
	}
	return f.tiles[id], nil
}

func (f *Fabric) Tiles() []*Tile {
	return append([]*Tile(nil), f.tiles...)
}

// Close closes every interrupt line. Packets sent afterwards are dropped.
func (f *Fabric) Close() {
	f.closeOnce.Do(func() {
		for _, t := range f.tiles {
			t.ps.close()
			if t.tdm != nil {
				t.tdm.close()
			}
		}
	})
}

func (f *Fabric) Stats() Stats {
	return Stats{
		PacketsRouted:     f.stats.packets.Load(),
		ProbesAnswered:    f.stats.probes.Load(),
		MessagesRouted:    f.stats.messages.Load(),
		DroppedUnroutable: f.stats.unroutable.Load(),
		DroppedDisabled:   f.stats.disabled.Load(),
	}
}

func (f *Fabric) routePacket(src int, packet []uint32) {
	h := header.Header(packet[0])
	dst, ok := f.destination(src, h)
	if !ok {
		f.drop(observability.TransportPS, src, observability.DropUnroutable)
		return
	}
	if h.Class() == header.ReservedClass && h.Specific() == 0 {
		f.answerProbe(src, dst)
		return
	}
	if !f.tiles[dst.Tile].ps.deliver(dst.Endpoint, packet) {
		f.drop(observability.TransportPS, dst.Tile, observability.DropDisabled)
		return
	}
	f.stats.packets.Add(1)
}

func (f *Fabric) destination(src int, h header.Header) (header.Address, bool) {
	if f.cfg.Routing == header.DistributedRouted {
		dst := header.DecodeDistributed(h).Target()
		return dst, dst.Tile < len(f.tiles) && dst.Endpoint < f.cfg.Endpoints
	}
	return header.Destination(f.cfg.Mesh, src, len(f.tiles), h)
}

// answerProbe replies on behalf of target when its endpoint is enabled.
// Probes toward disabled endpoints are lost, so the prober keeps polling.
func (f *Fabric) answerProbe(prober int, target header.Address) {
	if !f.tiles[target.Tile].ps.enabledAt(target.Endpoint) {
		f.drop(observability.TransportPS, target.Tile, observability.DropDisabled)
		return
	}
	reply, err := f.replyHeader(prober, target)
	if err != nil {
		f.log.Warn().Err(err).
			Int("prober", prober).
			Int("tile", target.Tile).
			Msg("cannot route readiness reply")
		f.drop(observability.TransportPS, target.Tile, observability.DropUnroutable)
		return
	}
	f.stats.probes.Add(1)
	f.routePacket(target.Tile, []uint32{uint32(reply)})
}

func (f *Fabric) replyHeader(prober int, target header.Address) (header.Header, error) {
	if f.cfg.Routing == header.DistributedRouted {
		return header.EncodeDistributed(header.DRFields{
			Dest:     prober,
			Src:      target.Tile,
			Link:     target.Endpoint,
			Class:    header.ReservedClass,
			Specific: 1,
		}), nil
	}
	route, err := header.ComputeSourceRoute(f.cfg.Mesh, target.Tile, prober, target.Endpoint)
	if err != nil {
		return 0, err
	}
	return header.Overlay(route, header.ReservedClass, 1), nil
}

func (f *Fabric) routeMessage(src Port, msg []uint32) {
	peer, ok := f.links[src]
	if !ok {
		f.drop(observability.TransportTDM, src.Tile, observability.DropUnroutable)
		return
	}
	if !f.tiles[peer.Tile].tdm.deliver(peer.Channel, msg) {
		f.drop(observability.TransportTDM, peer.Tile, observability.DropDisabled)
		return
	}
	f.stats.messages.Add(1)
}

func (f *Fabric) drop(transport string, tile int, reason string) {
	switch reason {
	case observability.DropUnroutable:
		f.stats.unroutable.Add(1)
	case observability.DropDisabled:
		f.stats.disabled.Add(1)
	}
	f.rec.PacketDropped(transport, tile, reason)
	f.log.Debug().
		Str("transport", transport).
		Int("tile", tile).
		Str("reason", reason).
		Msg("fabric dropped traffic")
}
