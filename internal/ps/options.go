package ps

import (
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the optional collaborators of an Engine.
type Config struct {
	// Logger receives drop and configuration events. Defaults to the global
	// logger tagged with transport and tile.
	Logger *zerolog.Logger

	// Recorder receives per-packet metrics events.
	Recorder observability.Recorder
}

func defaultConfig() Config {
	return Config{Recorder: observability.NopRecorder{}}
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = &logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec observability.Recorder) Option {
	return func(c *Config) {
		if rec != nil {
			c.Recorder = rec
		}
	}
}

func (c Config) logger(tile int) zerolog.Logger {
	base := log.Logger
	if c.Logger != nil {
		base = *c.Logger
	}
	return observability.TransportLogger(base, observability.TransportPS, tile)
}
