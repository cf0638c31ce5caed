package tdm

import (
	"context"

	"github.com/danmuck/hybridmp/internal/hal"
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/danmuck/hybridmp/internal/protocol/frame"
)

// Serve runs the receive interrupt until ctx is done or the line closes.
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

// Dispatch performs one receive pass over every channel in ascending order,
// reading each until it reports empty. Channels without a handler are
// drained and dropped.
func (e *Engine) Dispatch() {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	for ch := 0; ch < e.numChannels; {
		var (
			n   int
			err error
		)
		e.crit.Do(func() {
			n, err = frame.ReadPacket(hal.QueueOf(e.dev, ch), e.buf)
		})
		switch {
		case err != nil:
			e.drop(observability.DropOverflow, ch, n)
		case n == 0:
			ch++
		default:
			e.deliver(ch, n)
		}
	}
}

func (e *Engine) deliver(ch, n int) {
	handler, ok := e.handlers.Lookup(ch)
	if !ok {
		e.drop(observability.DropUnhandled, ch, n)
		return
	}
	e.stats.received.Add(1)
	e.rec.PacketReceived(observability.TransportTDM, e.tile)
	handler.Handle(e.buf[:n], n)
}

func (e *Engine) drop(reason string, ch, words int) {
	switch reason {
	case observability.DropOverflow:
		e.stats.overflow.Add(1)
	case observability.DropUnhandled:
		e.stats.unhandled.Add(1)
	}
	e.rec.PacketDropped(observability.TransportTDM, e.tile, reason)
	e.log.Debug().
		Str("reason", reason).
		Int("channel", ch).
		Int("words", words).
		Msg("message dropped")
}
