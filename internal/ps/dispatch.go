package ps

import (
	"context"

	"github.com/danmuck/hybridmp/internal/hal"
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/danmuck/hybridmp/internal/protocol/frame"
	"github.com/danmuck/hybridmp/internal/protocol/header"
)

// Serve runs the receive interrupt: one Dispatch pass per event until ctx
// is done or the line closes. Only one Serve may run per engine.
func (e *Engine) Serve(ctx context.Context) error {
	if !e.serving.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}
	defer e.serving.Store(false)

	irq := e.dev.Interrupts()
	e.Dispatch()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-irq:
			if !ok {
				return ErrInterruptLineClosed
			}
			e.log.Trace().Int("index", ev.Index).Msg("receive interrupt")
			e.Dispatch()
		}
	}
}

// Dispatch performs one receive pass: enabled endpoints in ascending order,
// each read until it reports empty. Oversized packets are drained and
// dropped; readiness replies update the readiness table; everything else is
// handed to the handler registered for its class.
func (e *Engine) Dispatch() {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	for ep := 0; ep < e.numEndpoints; {
		if !e.enabled[ep].Load() {
			ep++
			continue
		}
		n, err := e.receive(ep)
		if err != nil {
			e.drop(observability.DropOverflow, ep, n)
			continue
		}
		if n == 0 {
			ep++
			continue
		}
		e.deliver(ep, n)
	}
}

// receive copies one packet into the shared buffer. The only error is
// frame.ErrOverflow, after which the packet has already been drained.
func (e *Engine) receive(ep int) (int, error) {
	var (
		n   int
		err error
	)
	e.crit.Do(func() {
		n, err = frame.ReadPacket(hal.QueueOf(e.dev, ep), e.buf)
	})
	return n, err
}

func (e *Engine) deliver(ep, n int) {
	h := header.Header(e.buf[0])
	class := h.Class()

	if class == header.ReservedClass {
		e.observeReadiness(ep, h)
		return
	}

	handler, ok := e.handlers.Lookup(class)
	if !ok {
		e.drop(observability.DropUnhandled, ep, n)
		return
	}
	e.stats.received.Add(1)
	e.rec.PacketReceived(observability.TransportPS, e.tile)
	handler.Handle(e.buf[:n], n)
}

func (e *Engine) observeReadiness(ep int, h header.Header) {
	if h.Specific() == 0 {
		return
	}
	origin, ok := e.decodeOrigin(h)
	if !ok {
		e.drop(observability.DropUndecoded, ep, 1)
		return
	}
	if e.ready.Mark(origin.Tile, origin.Endpoint) {
		e.stats.readinessUpdates.Add(1)
		e.log.Debug().
			Int("remote_tile", origin.Tile).
			Int("remote_endpoint", origin.Endpoint).
			Msg("remote endpoint ready")
	}
}

func (e *Engine) drop(reason string, ep, words int) {
	switch reason {
	case observability.DropOverflow:
		e.stats.overflow.Add(1)
	case observability.DropUnhandled:
		e.stats.unhandled.Add(1)
	case observability.DropUndecoded:
		e.stats.undecoded.Add(1)
	}
	e.rec.PacketDropped(observability.TransportPS, e.tile, reason)
	e.log.Debug().
		Str("reason", reason).
		Int("endpoint", ep).
		Int("words", words).
		Msg("packet dropped")
}
