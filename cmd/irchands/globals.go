package main

import (
	"github.com/allenfrostline/PokerHandsDataset/cmd/irchands/shared"
	"github.com/allenfrostline/PokerHandsDataset/internal/config"
	"github.com/rs/zerolog"
)

// Globals are the flags shared by every subcommand. They override the
// matching settings of the configuration file.
type Globals struct {
	Config    string `short:"c" default:"${config_file}" help:"Path to HCL configuration file"`
	Debug     bool   `help:"Enable debug logging"`
	LogFormat string `help:"Log output format (console or json)"`
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (g *Globals) setup(override func(*config.Config)) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if g.Debug {
		cfg.Log.Level = "debug"
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}

	logger, err := shared.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}
