package fabric

import (
	"github.com/danmuck/hybridmp/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type options struct {
	logger   zerolog.Logger
	recorder observability.Recorder
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRecorder reports fabric-level drops (unroutable packets, disabled
// endpoints) through rec.
func WithRecorder(rec observability.Recorder) Option {
	return func(o *options) {
		if rec != nil {
			o.recorder = rec
		}
	}
}

func defaultOptions() options {
	return options{
		logger:   log.Logger,
		recorder: observability.NopRecorder{},
	}
}
