package observability

import (
	"github.com/danmuck/hybridmp/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the runtime profile and returns the global logger
// tagged with app.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// TransportLogger derives the logger an engine uses for one tile.
func TransportLogger(base zerolog.Logger, transport string, tile int) zerolog.Logger {
	return base.With().Str("transport", transport).Int("tile", tile).Logger()
}
