package ps

import (
	"github.com/danmuck/hybridmp/internal/hal"
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/danmuck/hybridmp/internal/protocol/frame"
	"github.com/danmuck/hybridmp/internal/protocol/header"
)

// Send transmits payload to endpoint on tile with class and specific set in
// the header. The length word, header and payload are written as one unit.
// Readiness of the destination is not consulted.
func (e *Engine) Send(tile, endpoint, class, specific int, payload []uint32) error {
	h, err := e.HeaderFor(tile, endpoint, class, specific)
	if err != nil {
		return err
	}
	if err := e.write(endpoint, func(q hal.Queue) error {
		return frame.WritePacket(q, uint32(h), payload, e.limits)
	}); err != nil {
		return err
	}
	e.stats.sent.Add(1)
	e.rec.PacketSent(observability.TransportPS, e.tile)
	return nil
}

// SendRank is Send addressed by core rank.
func (e *Engine) SendRank(rank, endpoint, class, specific int, payload []uint32) error {
	tile, err := e.rankTile(rank)
	if err != nil {
		return err
	}
	return e.Send(tile, endpoint, class, specific, payload)
}

// SendRaw transmits an already addressed packet; packet[0] is its header.
func (e *Engine) SendRaw(endpoint int, packet []uint32) error {
	if err := e.checkEndpoint(endpoint); err != nil {
		return err
	}
	if err := e.write(endpoint, func(q hal.Queue) error {
		return frame.WriteRaw(q, packet, e.limits)
	}); err != nil {
		return err
	}
	e.stats.sent.Add(1)
	e.rec.PacketSent(observability.TransportPS, e.tile)
	return nil
}

// QueryReady reports whether endpoint on tile is known to be active. When it
// is not, a zero-payload probe is sent toward it and false is returned; the
// answer arrives asynchronously and the caller polls again later.
func (e *Engine) QueryReady(tile, endpoint int) (bool, error) {
	if err := e.checkTile(tile); err != nil {
		return false, err
	}
	if err := e.checkEndpoint(endpoint); err != nil {
		return false, err
	}
	if e.ready.Ready(tile, endpoint) {
		return true, nil
	}

	h, err := e.HeaderFor(tile, endpoint, header.ReservedClass, 0)
	if err != nil {
		return false, err
	}
	if err := e.write(endpoint, func(q hal.Queue) error {
		return frame.WritePacket(q, uint32(h), nil, e.limits)
	}); err != nil {
		return false, err
	}
	e.stats.probes.Add(1)
	e.rec.ProbeSent(e.tile)
	return false, nil
}

// QueryReadyRank is QueryReady addressed by core rank.
func (e *Engine) QueryReadyRank(rank, endpoint int) (bool, error) {
	tile, err := e.rankTile(rank)
	if err != nil {
		return false, err
	}
	return e.QueryReady(tile, endpoint)
}

func (e *Engine) write(endpoint int, fn func(hal.Queue) error) error {
	var err error
	e.crit.Do(func() {
		err = fn(hal.QueueOf(e.dev, endpoint))
	})
	return err
}
