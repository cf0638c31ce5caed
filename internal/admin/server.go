// Package admin serves the read-only HTTP surface of a running simulation:
// health, Prometheus metrics, per-tile engine stats and readiness tables.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/hybridmp/internal/cluster"
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const version = "0.1.0"

var ErrTileNotFound = errors.New("tile not found")

// Source provides the state the admin surface reports.
type Source interface {
	Snapshot() cluster.Snapshot
}

type Server struct {
	ID       string
	Addr     string
	Appeared time.Time

	source Source
	router *gin.Engine
	log    zerolog.Logger
}

func New(id, addr string, corsOrigins []string, source Source, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestObserver(logger, id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:       id,
		Addr:     addr,
		Appeared: time.Now(),
		source:   source,
		router:   r,
		log:      logger.With().Str("component", "admin").Logger(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/tiles", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.source.Snapshot())
	})

	s.router.GET("/tiles/:id", func(c *gin.Context) {
		snap, err := s.tile(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	s.router.GET("/tiles/:id/ready", func(c *gin.Context) {
		snap, err := s.tile(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"tile":  snap.Tile,
			"ready": readyEntries(snap.ReadyMasks, snap.Endpoints),
		})
	})
}

// ReadyEntry lists the ready endpoints of one remote tile.
type ReadyEntry struct {
	Tile      int    `json:"tile"`
	Mask      uint32 `json:"mask"`
	Endpoints []int  `json:"endpoints"`
}

func readyEntries(masks []uint32, endpoints int) []ReadyEntry {
	out := make([]ReadyEntry, 0, len(masks))
	for tile, mask := range masks {
		if mask == 0 {
			continue
		}
		entry := ReadyEntry{Tile: tile, Mask: mask}
		for ep := 0; ep < endpoints; ep++ {
			if mask&(1<<ep) != 0 {
				entry.Endpoints = append(entry.Endpoints, ep)
			}
		}
		out = append(out, entry)
	}
	return out
}

func (s *Server) tile(raw string) (cluster.TileSnapshot, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return cluster.TileSnapshot{}, fmt.Errorf("%w: %q", ErrTileNotFound, raw)
	}
	tiles := s.source.Snapshot().Tiles
	if id < 0 || id >= len(tiles) {
		return cluster.TileSnapshot{}, fmt.Errorf("%w: %d", ErrTileNotFound, id)
	}
	return tiles[id], nil
}

// Serve listens on Addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.Addr).Msg("admin listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
