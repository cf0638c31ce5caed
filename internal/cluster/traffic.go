package cluster

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/danmuck/hybridmp/internal/handlers"
)

// Echo traffic classes and TDM message kinds.
const (
	ClassPing = 0
	ClassPong = 1

	kindPing = 0
	kindPong = 1

	// echoHeader is the number of payload words the echo protocol uses:
	// origin tile (or kind on TDM) and round.
	echoHeader = 2
)

var ErrPayloadTooSmall = errors.New("cluster: packet size too small for echo traffic")

// Report summarises an echo exchange.
type Report struct {
	Rounds    int    `json:"rounds"`
	PSSent    uint64 `json:"ps_sent"`
	PSEchoed  uint64 `json:"ps_echoed"`
	TDMSent   uint64 `json:"tdm_sent"`
	TDMEchoed uint64 `json:"tdm_echoed"`
}

// Complete reports whether every ping was answered.
func (r Report) Complete() bool {
	return r.PSEchoed >= r.PSSent && r.TDMEchoed >= r.TDMSent
}

type echoCounters struct {
	psPongs  atomic.Uint64
	tdmPongs atomic.Uint64
}

// InstallEcho registers the echo handlers on every tile: PS class ClassPing
// is answered with ClassPong to the tile named in the first payload word,
// and TDM pings on linked channels are answered on the same channel.
func (c *Cluster) InstallEcho() error {
	if c.echo != nil {
		return nil
	}
	c.echo = &echoCounters{}
	for _, node := range c.nodes {
		if err := node.PS.RegisterHandler(ClassPing, handlers.Func(func(buf []uint32, n int) {
			c.answerPS(node, buf[1:n])
		})); err != nil {
			return err
		}
		if err := node.PS.RegisterHandler(ClassPong, handlers.Func(func([]uint32, int) {
			c.echo.psPongs.Add(1)
		})); err != nil {
			return err
		}
	}
	for _, l := range c.cfg.TDM.Links {
		for _, p := range [][2]int{{l.ATile, l.AChannel}, {l.BTile, l.BChannel}} {
			node, ch := c.nodes[p[0]], p[1]
			if err := node.TDM.RegisterHandler(ch, handlers.Func(func(buf []uint32, n int) {
				c.answerTDM(node, ch, buf[:n])
			})); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Cluster) answerPS(node *Node, payload []uint32) {
	if len(payload) < echoHeader {
		return
	}
	origin := int(payload[0])
	if err := node.PS.Send(origin, 0, ClassPong, 0, payload); err != nil {
		c.log.Warn().Err(err).
			Int("tile", node.Tile.TileID()).
			Int("origin", origin).
			Msg("ps echo failed")
	}
}

func (c *Cluster) answerTDM(node *Node, ch int, msg []uint32) {
	if len(msg) < echoHeader {
		return
	}
	if msg[0] == kindPong {
		c.echo.tdmPongs.Add(1)
		return
	}
	reply := append([]uint32{kindPong}, msg[1:]...)
	if err := node.TDM.Send(ch, reply); err != nil {
		c.log.Warn().Err(err).
			Int("tile", node.Tile.TileID()).
			Int("channel", ch).
			Msg("tdm echo failed")
	}
}

// Exchange sends one PS ping from every tile to its successor and one TDM
// ping over every link per round, then waits for the echoes. The engines
// must be serving.
func (c *Cluster) Exchange(ctx context.Context, rounds, payloadLen int, interval time.Duration) (Report, error) {
	if err := c.InstallEcho(); err != nil {
		return Report{}, err
	}
	psLen := min(max(payloadLen, echoHeader), c.cfg.PS.MaxPacket-1)
	if psLen < echoHeader {
		return Report{}, fmt.Errorf("%w: ps.max_packet %d", ErrPayloadTooSmall, c.cfg.PS.MaxPacket)
	}
	tdmLen := min(max(payloadLen, echoHeader), c.cfg.TDM.MaxMessageLen)
	if len(c.cfg.TDM.Links) > 0 && tdmLen < echoHeader {
		return Report{}, fmt.Errorf("%w: tdm.max_message_len %d", ErrPayloadTooSmall, c.cfg.TDM.MaxMessageLen)
	}

	startPS := c.echo.psPongs.Load()
	startTDM := c.echo.tdmPongs.Load()
	report := Report{Rounds: rounds}
	for r := 0; r < rounds; r++ {
		report.PSSent += c.pingPS(r, psLen)
		report.TDMSent += c.pingTDM(r, tdmLen)
		if err := sleepCtx(ctx, interval); err != nil {
			return c.fill(report, startPS, startTDM), err
		}
	}

	ticker := time.NewTicker(max(interval, time.Millisecond))
	defer ticker.Stop()
	for {
		report = c.fill(report, startPS, startTDM)
		if report.Complete() {
			return report, nil
		}
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Cluster) pingPS(round, length int) uint64 {
	var sent uint64
	for i, n := range c.nodes {
		payload := make([]uint32, length)
		payload[0] = uint32(i)
		payload[1] = uint32(round)
		dst := (i + 1) % len(c.nodes)
		if err := n.PS.Send(dst, 0, ClassPing, 0, payload); err != nil {
			c.log.Warn().Err(err).Int("tile", i).Int("dest", dst).Msg("ps ping failed")
			continue
		}
		sent++
	}
	return sent
}

func (c *Cluster) pingTDM(round, length int) uint64 {
	var sent uint64
	for _, l := range c.cfg.TDM.Links {
		msg := make([]uint32, length)
		msg[0] = kindPing
		msg[1] = uint32(round)
		if err := c.nodes[l.ATile].TDM.Send(l.AChannel, msg); err != nil {
			c.log.Warn().Err(err).Int("tile", l.ATile).Int("channel", l.AChannel).Msg("tdm ping failed")
			continue
		}
		sent++
	}
	return sent
}

func (c *Cluster) fill(r Report, startPS, startTDM uint64) Report {
	r.PSEchoed = c.echo.psPongs.Load() - startPS
	r.TDMEchoed = c.echo.tdmPongs.Load() - startTDM
	return r
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
