// Package cluster runs one packet-switched and one TDM engine on every tile
// of a simulated fabric.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/danmuck/hybridmp/internal/config"
	"github.com/danmuck/hybridmp/internal/fabric"
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/danmuck/hybridmp/internal/ps"
	"github.com/danmuck/hybridmp/internal/tdm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Node is the engine pair of one tile. TDM is nil when the platform has no
// TDM channels.
type Node struct {
	Tile *fabric.Tile
	PS   *ps.Engine
	TDM  *tdm.Engine
}

type Cluster struct {
	cfg    config.SimConfig
	fabric *fabric.Fabric
	nodes  []*Node
	log    zerolog.Logger

	echo *echoCounters

	wg      sync.WaitGroup
	errMu   sync.Mutex
	errs    []error
	started atomic.Bool
}

type options struct {
	logger   zerolog.Logger
	recorder observability.Recorder
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithRecorder(rec observability.Recorder) Option {
	return func(o *options) {
		if rec != nil {
			o.recorder = rec
		}
	}
}

// FabricConfig translates a validated platform description.
func FabricConfig(cfg config.SimConfig) (fabric.Config, error) {
	mode, err := cfg.RoutingMode()
	if err != nil {
		return fabric.Config{}, err
	}
	links := make([]fabric.Link, 0, len(cfg.TDM.Links))
	for _, l := range cfg.TDM.Links {
		links = append(links, fabric.Link{
			A: fabric.Port{Tile: l.ATile, Channel: l.AChannel},
			B: fabric.Port{Tile: l.BTile, Channel: l.BChannel},
		})
	}
	return fabric.Config{
		Mesh:          cfg.HeaderMesh(),
		Tiles:         cfg.Mesh.Tiles,
		Routing:       mode,
		Endpoints:     cfg.PS.Endpoints,
		MaxPacket:     cfg.PS.MaxPacket,
		Channels:      cfg.TDM.Channels,
		MaxMessageLen: cfg.TDM.MaxMessageLen,
		Links:         links,
		Ranks:         cfg.Ranks,
	}, nil
}

// New builds the fabric and brings up every tile: engines initialised,
// routing tables built, all endpoints and channels enabled.
func New(cfg config.SimConfig, opts ...Option) (*Cluster, error) {
	o := options{logger: log.Logger, recorder: observability.NopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	if err := config.ValidateSimConfig(cfg); err != nil {
		return nil, err
	}
	fcfg, err := FabricConfig(cfg)
	if err != nil {
		return nil, err
	}
	fab, err := fabric.New(fcfg, fabric.WithLogger(o.logger), fabric.WithRecorder(o.recorder))
	if err != nil {
		return nil, err
	}

	c := &Cluster{
		cfg:    cfg,
		fabric: fab,
		nodes:  make([]*Node, 0, fab.NumTiles()),
		log:    o.logger.With().Str("cluster", cfg.Name).Logger(),
	}
	for _, tile := range fab.Tiles() {
		node, err := bringUp(tile, cfg, o)
		if err != nil {
			fab.Close()
			return nil, fmt.Errorf("tile %d: %w", tile.TileID(), err)
		}
		c.nodes = append(c.nodes, node)
	}
	c.log.Info().
		Int("tiles", len(c.nodes)).
		Str("routing", cfg.Routing).
		Int("tdm_links", len(cfg.TDM.Links)).
		Msg("cluster up")
	return c, nil
}

func bringUp(tile *fabric.Tile, cfg config.SimConfig, o options) (*Node, error) {
	node := &Node{Tile: tile}
	eng, err := ps.New(tile.PS(), tile, ps.WithLogger(o.logger), ps.WithRecorder(o.recorder))
	if err != nil {
		return nil, err
	}
	if err := eng.BuildRoutingTable(cfg.Mesh.XDim, cfg.Mesh.YDim); err != nil {
		return nil, err
	}
	for ep := 0; ep < eng.NumEndpoints(); ep++ {
		if err := eng.Enable(ep); err != nil {
			return nil, err
		}
	}
	node.PS = eng

	if tile.TDM() == nil {
		return node, nil
	}
	ch, err := tdm.New(tile.TDM(), tile, tdm.WithLogger(o.logger), tdm.WithRecorder(o.recorder))
	if err != nil {
		return nil, err
	}
	for i := 0; i < ch.NumChannels(); i++ {
		if err := ch.Enable(i); err != nil {
			return nil, err
		}
	}
	node.TDM = ch
	return node, nil
}

func (c *Cluster) Config() config.SimConfig {
	return c.cfg
}

func (c *Cluster) Fabric() *fabric.Fabric {
	return c.fabric
}

func (c *Cluster) Nodes() []*Node {
	return append([]*Node(nil), c.nodes...)
}

func (c *Cluster) Node(tile int) (*Node, error) {
	if tile < 0 || tile >= len(c.nodes) {
		return nil, fmt.Errorf("%w: %d", fabric.ErrTileOutOfRange, tile)
	}
	return c.nodes[tile], nil
}

// Start launches the receive loop of every engine. It may be called once.
func (c *Cluster) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	for _, n := range c.nodes {
		c.serve(ctx, n.PS.Serve)
		if n.TDM != nil {
			c.serve(ctx, n.TDM.Serve)
		}
	}
}

func (c *Cluster) serve(ctx context.Context, fn func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := fn(ctx)
		if err == nil || stopped(err) {
			return
		}
		c.errMu.Lock()
		c.errs = append(c.errs, err)
		c.errMu.Unlock()
	}()
}

// Close shuts the fabric down and waits for every receive loop.
func (c *Cluster) Close() error {
	c.fabric.Close()
	c.wg.Wait()
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return errors.Join(c.errs...)
}

// Run serves until ctx is done, then closes the cluster.
func (c *Cluster) Run(ctx context.Context) error {
	c.Start(ctx)
	<-ctx.Done()
	return c.Close()
}

func stopped(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ps.ErrInterruptLineClosed) ||
		errors.Is(err, tdm.ErrInterruptLineClosed)
}
