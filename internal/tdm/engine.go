package tdm

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/danmuck/hybridmp/internal/hal"
	"github.com/danmuck/hybridmp/internal/handlers"
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/danmuck/hybridmp/internal/protocol/frame"
	"github.com/rs/zerolog"
)

// MaxChannels is the size of the channel handler table.
const MaxChannels = 16

// Engine drives the TDM adapter of one tile.
type Engine struct {
	dev  hal.Device
	crit *hal.Critical
	log  zerolog.Logger
	rec  observability.Recorder

	tile        int
	numChannels int
	maxLen      int
	limits      frame.Limits

	enabled  []atomic.Bool
	handlers *handlers.Table

	dispatchMu sync.Mutex
	buf        []uint32
	serving    atomic.Bool

	stats counters
}

// New reads the channel count and maximum message length from the adapter
// and allocates the receive buffer. Channel counts above MaxChannels are
// capped.
func New(dev hal.Device, platform hal.Platform, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	info := hal.DecodeTDMInfo(dev.Info())
	if info.Channels == 0 {
		return nil, ErrNoChannels
	}
	if info.MaxMessageLen < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMessageLen, info.MaxMessageLen)
	}

	e := &Engine{
		dev:         dev,
		crit:        platform.Critical(),
		rec:         cfg.Recorder,
		tile:        platform.TileID(),
		numChannels: min(info.Channels, MaxChannels),
		maxLen:      info.MaxMessageLen,
		limits:      frame.Limits{MaxWords: info.MaxMessageLen},
		handlers:    handlers.NewTable(MaxChannels),
		buf:         make([]uint32, info.MaxMessageLen),
	}
	e.enabled = make([]atomic.Bool, e.numChannels)
	e.log = cfg.logger(e.tile)
	if info.Channels > MaxChannels {
		e.log.Warn().
			Int("reported", info.Channels).
			Int("used", MaxChannels).
			Msg("tdm channel count capped")
	}
	e.log.Debug().
		Int("channels", e.numChannels).
		Int("max_message_len", e.maxLen).
		Msg("tdm engine initialised")
	return e, nil
}

func (e *Engine) NumChannels() int {
	return e.numChannels
}

func (e *Engine) MaxMessageLen() int {
	return e.maxLen
}

func (e *Engine) TileID() int {
	return e.tile
}

// Enable sets the enable register of ch. Repeated calls are harmless.
func (e *Engine) Enable(ch int) error {
	if err := e.checkChannel(ch); err != nil {
		return err
	}
	if e.enabled[ch].Swap(true) {
		return nil
	}
	e.dev.Enable(ch)
	return nil
}

func (e *Engine) Enabled(ch int) bool {
	if ch < 0 || ch >= e.numChannels {
		return false
	}
	return e.enabled[ch].Load()
}

// RegisterHandler installs h for messages arriving on ch.
func (e *Engine) RegisterHandler(ch int, h handlers.Handler) error {
	if err := e.checkChannel(ch); err != nil {
		return err
	}
	return e.handlers.Register(ch, h)
}

// ChannelStatus returns the raw status register of ch.
func (e *Engine) ChannelStatus(ch int) (uint32, error) {
	if err := e.checkChannel(ch); err != nil {
		return 0, err
	}
	var status uint32
	e.crit.Do(func() {
		status = e.dev.Status(ch)
	})
	return status, nil
}

// Send writes payload to ch as one message. Nothing is written when the
// payload is empty or longer than MaxMessageLen.
func (e *Engine) Send(ch int, payload []uint32) error {
	if err := e.checkChannel(ch); err != nil {
		return err
	}
	switch {
	case len(payload) == 0:
		return ErrEmptyMessage
	case len(payload) > e.maxLen:
		return fmt.Errorf("%w: %d words, limit %d", ErrMessageTooLong, len(payload), e.maxLen)
	}

	var err error
	e.crit.Do(func() {
		err = frame.WriteHeaderless(hal.QueueOf(e.dev, ch), payload, e.limits)
		if err != nil {
			return
		}
		if c, ok := e.dev.(hal.Committer); ok {
			c.Commit(ch)
		}
	})
	if err != nil {
		return err
	}
	e.stats.sent.Add(1)
	e.rec.PacketSent(observability.TransportTDM, e.tile)
	return nil
}

func (e *Engine) checkChannel(ch int) error {
	if ch < 0 || ch >= e.numChannels {
		return fmt.Errorf("%w: %d (channels %d)", ErrChannelOutOfRange, ch, e.numChannels)
	}
	return nil
}
