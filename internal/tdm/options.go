package tdm

import (
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Logger   *zerolog.Logger
	Recorder observability.Recorder
}

func defaultConfig() Config {
	return Config{Recorder: observability.NopRecorder{}}
}

type Option func(*Config)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = &logger
	}
}

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
	return observability.TransportLogger(base, observability.TransportTDM, tile)
}
