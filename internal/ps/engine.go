package ps

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/danmuck/hybridmp/internal/hal"
	"github.com/danmuck/hybridmp/internal/handlers"
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/danmuck/hybridmp/internal/protocol/frame"
	"github.com/danmuck/hybridmp/internal/protocol/header"
	"github.com/rs/zerolog"
)

// Engine drives the packet-switched adapter of one tile.
type Engine struct {
	dev      hal.Device
	platform hal.Platform
	crit     *hal.Critical
	log      zerolog.Logger
	rec      observability.Recorder

	tile         int
	numTiles     int
	numEndpoints int
	mode         header.RoutingMode
	limits       frame.Limits

	routesMu sync.RWMutex
	routes   *header.RouteTable
	mesh     header.Mesh

	enabled  []atomic.Bool
	handlers *handlers.Table
	ready    *Readiness

	dispatchMu sync.Mutex
	buf        []uint32
	serving    atomic.Bool

	stats counters
}

// New reads the adapter configuration and allocates all engine state. It is
// the only allocation point: buffers and tables live as long as the engine.
func New(dev hal.Device, platform hal.Platform, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	info := hal.DecodePSInfo(dev.Info())
	mode := header.SourceRouted
	if info.Distributed {
		mode = header.DistributedRouted
	}
	numTiles := platform.NumTiles()
	maxPacket := platform.MaxPacketSize()

	switch {
	case info.Endpoints == 0:
		return nil, ErrNoEndpoints
	case info.Endpoints > maxReadyEndpoints:
		return nil, fmt.Errorf("%w: %d", ErrTooManyEndpoints, info.Endpoints)
	case numTiles <= 0:
		return nil, ErrNoTiles
	case mode == header.DistributedRouted && numTiles > header.MaxDistributedTiles:
		return nil, fmt.Errorf("%w: %d", ErrTooManyTiles, numTiles)
	case maxPacket < 1:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPacketSize, maxPacket)
	}

	e := &Engine{
		dev:          dev,
		platform:     platform,
		crit:         platform.Critical(),
		rec:          cfg.Recorder,
		tile:         platform.TileID(),
		numTiles:     numTiles,
		numEndpoints: info.Endpoints,
		mode:         mode,
		limits:       frame.Limits{MaxWords: maxPacket},
		enabled:      make([]atomic.Bool, info.Endpoints),
		handlers:     handlers.NewTable(header.ReservedClass),
		ready:        newReadiness(numTiles),
		buf:          make([]uint32, maxPacket),
	}
	e.log = cfg.logger(e.tile)
	e.log.Debug().
		Int("endpoints", e.numEndpoints).
		Str("routing", mode.String()).
		Int("max_packet", maxPacket).
		Msg("ps engine initialised")
	return e, nil
}

func (e *Engine) NumEndpoints() int {
	return e.numEndpoints
}

func (e *Engine) RoutingMode() header.RoutingMode {
	return e.mode
}

func (e *Engine) TileID() int {
	return e.tile
}

// Readiness exposes the sticky readiness table.
func (e *Engine) Readiness() *Readiness {
	return e.ready
}

// BuildRoutingTable records the mesh dimensions and, under source routing,
// precomputes the route to every (endpoint, tile). Under source routing it
// must run before the first send and the mesh cannot change afterwards.
// Under distributed routing no routes are needed and every call succeeds.
func (e *Engine) BuildRoutingTable(xDim, yDim int) error {
	mesh := header.Mesh{XDim: xDim, YDim: yDim}
	if err := mesh.Validate(); err != nil {
		return err
	}

	e.routesMu.Lock()
	defer e.routesMu.Unlock()
	if e.mesh == mesh || e.mode == header.DistributedRouted {
		e.mesh = mesh
		return nil
	}
	if e.mesh != (header.Mesh{}) {
		return fmt.Errorf("%w: %dx%d", ErrRoutingTableBuilt, e.mesh.XDim, e.mesh.YDim)
	}
	table, err := header.NewRouteTable(mesh, e.tile, e.numTiles, e.numEndpoints)
	if err != nil {
		return fmt.Errorf("ps: build routing table: %w", err)
	}
	e.routes = table
	e.mesh = mesh
	return nil
}

// Enable sets the enable register of endpoint. Repeated calls are harmless.
func (e *Engine) Enable(endpoint int) error {
	if err := e.checkEndpoint(endpoint); err != nil {
		return err
	}
	if e.enabled[endpoint].Swap(true) {
		return nil
	}
	e.dev.Enable(endpoint)
	return nil
}

func (e *Engine) Enabled(endpoint int) bool {
	if endpoint < 0 || endpoint >= e.numEndpoints {
		return false
	}
	return e.enabled[endpoint].Load()
}

// RegisterHandler installs h for class. The readiness class cannot be claimed.
func (e *Engine) RegisterHandler(class int, h handlers.Handler) error {
	if class == header.ReservedClass {
		return ErrReservedClass
	}
	if !header.ValidClass(class) {
		return fmt.Errorf("%w: %d", ErrClassOutOfRange, class)
	}
	return e.handlers.Register(class, h)
}

// HeaderFor returns the routing header for (tile, endpoint) under the
// adapter's routing mode.
func (e *Engine) HeaderFor(tile, endpoint, class, specific int) (header.Header, error) {
	if err := e.checkTile(tile); err != nil {
		return 0, err
	}
	if err := e.checkEndpoint(endpoint); err != nil {
		return 0, err
	}
	if !header.ValidClass(class) {
		return 0, fmt.Errorf("%w: %d", ErrClassOutOfRange, class)
	}
	if specific < 0 || specific > header.MaxSpecific {
		return 0, fmt.Errorf("%w: %d", ErrSpecificOutOfRange, specific)
	}

	if e.mode == header.DistributedRouted {
		return header.EncodeDistributed(header.DRFields{
			Dest:     tile,
			Src:      e.tile,
			Link:     endpoint,
			Class:    class,
			Specific: specific,
		}), nil
	}

	e.routesMu.RLock()
	routes := e.routes
	e.routesMu.RUnlock()
	if routes == nil {
		return 0, ErrNoRoutingTable
	}
	route, err := routes.Route(tile, endpoint)
	if err != nil {
		return 0, fmt.Errorf("ps: route to %d.%d: %w", tile, endpoint, err)
	}
	return header.Overlay(route, class, specific), nil
}

// HeaderForRank is HeaderFor addressed by core rank.
func (e *Engine) HeaderForRank(rank, endpoint, class, specific int) (header.Header, error) {
	tile, err := e.rankTile(rank)
	if err != nil {
		return 0, err
	}
	return e.HeaderFor(tile, endpoint, class, specific)
}

func (e *Engine) rankTile(rank int) (int, error) {
	tile, ok := e.platform.RankTile(rank)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrRankUnknown, rank)
	}
	return tile, nil
}

func (e *Engine) checkEndpoint(endpoint int) error {
	if endpoint < 0 || endpoint >= e.numEndpoints {
		return fmt.Errorf("%w: %d (endpoints %d)", ErrEndpointOutOfRange, endpoint, e.numEndpoints)
	}
	return nil
}

func (e *Engine) checkTile(tile int) error {
	if tile < 0 || tile >= e.numTiles {
		return fmt.Errorf("%w: %d (tiles %d)", ErrTileOutOfRange, tile, e.numTiles)
	}
	return nil
}

// decodeOrigin recovers the sender of a readiness reply.
func (e *Engine) decodeOrigin(h header.Header) (header.Address, bool) {
	if e.mode == header.DistributedRouted {
		origin := header.DecodeDistributed(h).Origin()
		return origin, origin.Tile < e.numTiles
	}
	e.routesMu.RLock()
	mesh := e.mesh
	e.routesMu.RUnlock()
	if mesh == (header.Mesh{}) {
		return header.Address{}, false
	}
	return header.DecodeSource(mesh, e.tile, e.numTiles, h)
}
