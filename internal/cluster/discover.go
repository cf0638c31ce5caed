package cluster

import (
	"context"
	"time"
)

// Discover runs the readiness handshake from every tile toward endpoint on
// every tile, polling at interval until all pairs report ready or ctx ends.
// It returns the number of pairs still pending.
func (c *Cluster) Discover(ctx context.Context, endpoint int, interval time.Duration) (int, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pending, err := c.pollReadiness(endpoint)
		if err != nil {
			return pending, err
		}
		if pending == 0 {
			c.log.Info().Int("endpoint", endpoint).Msg("all tiles ready")
			return 0, nil
		}
		select {
		case <-ctx.Done():
			c.log.Warn().Int("pending", pending).Msg("readiness discovery incomplete")
			return pending, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Cluster) pollReadiness(endpoint int) (int, error) {
	pending := 0
	for _, from := range c.nodes {
		for _, to := range c.nodes {
			ready, err := from.PS.QueryReady(to.Tile.TileID(), endpoint)
			if err != nil {
				return 0, err
			}
			if !ready {
				pending++
			}
		}
	}
	return pending, nil
}
