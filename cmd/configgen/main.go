package main

import (
	"flag"

	"github.com/danmuck/hybridmp/internal/config"
	"github.com/danmuck/hybridmp/internal/observability"
)

func main() {
	logger := observability.InitLogger("configgen")

	kind := flag.String("kind", "sim", "config kind: sim|sim-dr")
	output := flag.String("output", "cmd/nocsim/config.toml", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "cmd/nocsim/config.toml", "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadSimConfig(*input)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *input).Msg("config invalid")
		}
		logger.Info().
			Str("path", *input).
			Str("name", cfg.Name).
			Str("routing", cfg.Routing).
			Int("tiles", cfg.Mesh.Tiles).
			Msg("config valid")
		return
	}

	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		logger.Fatal().Err(err).Msg("write template failed")
	}
	logger.Info().Str("kind", *kind).Str("path", *output).Msg("wrote config template")
}
