package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/hybridmp/internal/admin"
	"github.com/danmuck/hybridmp/internal/cluster"
	"github.com/danmuck/hybridmp/internal/config"
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "cmd/nocsim/config.toml", "platform and run config")
	serveAdmin := flag.Bool("admin", false, "serve the admin surface after the run (overrides run.admin)")
	flag.Parse()

	logger := observability.InitLogger("nocsim")
	cfg, err := config.LoadSimConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load platform config")
	}
	run, err := loadRunConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load run config")
	}
	if *serveAdmin {
		run.Admin = true
	}
	logger.Info().Str("path", *configPath).Str("name", cfg.Name).Msg("loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := simulate(ctx, cfg, run, logger); err != nil {
		logger.Error().Err(err).Msg("simulation failed")
		stop()
		os.Exit(1)
	}
}

func simulate(ctx context.Context, cfg config.SimConfig, run runConfig, logger zerolog.Logger) error {
	c, err := cluster.New(cfg, cluster.WithLogger(logger), cluster.WithRecorder(observability.Prometheus()))
	if err != nil {
		return err
	}
	c.Start(ctx)

	discoverCtx, cancel := context.WithTimeout(ctx, run.DiscoverTimeout)
	pending, err := c.Discover(discoverCtx, run.ProbeEndpoint, run.Interval)
	cancel()
	if err != nil {
		logger.Warn().Err(err).Int("pending", pending).Msg("readiness discovery stopped")
	}

	report, err := c.Exchange(ctx, run.Rounds, run.PayloadLen, run.Interval)
	if err != nil {
		logger.Warn().Err(err).Msg("echo exchange stopped")
	}
	logger.Info().
		Int("rounds", report.Rounds).
		Uint64("ps_sent", report.PSSent).
		Uint64("ps_echoed", report.PSEchoed).
		Uint64("tdm_sent", report.TDMSent).
		Uint64("tdm_echoed", report.TDMEchoed).
		Bool("complete", report.Complete()).
		Msg("echo exchange finished")

	logStats(logger, c.Snapshot())

	if run.Admin {
		srv := admin.New(cfg.Name, cfg.Admin.Addr, cfg.Admin.CorsOrigins, c, logger)
		if err := srv.Serve(ctx); err != nil {
			_ = c.Close()
			return err
		}
	}
	return c.Close()
}

func logStats(logger zerolog.Logger, snap cluster.Snapshot) {
	for _, tile := range snap.Tiles {
		event := logger.Info().
			Int("tile", tile.Tile).
			Uint64("ps_sent", tile.PS.Sent).
			Uint64("ps_received", tile.PS.Received).
			Uint64("probes", tile.PS.Probes).
			Uint64("dropped", tile.PS.DroppedOverflow+tile.PS.DroppedUnhandled+tile.PS.DroppedUndecoded).
			Int("ready_tiles", tile.ReadyTiles)
		if tile.TDM != nil {
			event = event.
				Uint64("tdm_sent", tile.TDM.Sent).
				Uint64("tdm_received", tile.TDM.Received)
		}
		event.Msg("tile stats")
	}
	logger.Info().
		Uint64("packets_routed", snap.Fabric.PacketsRouted).
		Uint64("probes_answered", snap.Fabric.ProbesAnswered).
		Uint64("messages_routed", snap.Fabric.MessagesRouted).
		Uint64("dropped_unroutable", snap.Fabric.DroppedUnroutable).
		Uint64("dropped_disabled", snap.Fabric.DroppedDisabled).
		Msg("fabric stats")
}
