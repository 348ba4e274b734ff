package main

import (
	"github.com/allenfrostline/PokerHandsDataset/cmd/irchands/shared"
	"github.com/allenfrostline/PokerHandsDataset/internal/archive"
	"github.com/allenfrostline/PokerHandsDataset/internal/config"
)

// ExtractCmd unpacks every allowed archive found under the base directory.
type ExtractCmd struct {
	BaseDir        string `help:"Directory searched for <game>.<YYYYMM>.tgz archives (overrides input.base_dir)"`
	Dest           string `help:"Extraction root (overrides input.extract_dir)"`
	NormalizeNames bool   `help:"Replace '|' with '_' in extracted file names"`
}

func (c *ExtractCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup(func(cfg *config.Config) {
		if c.BaseDir != "" {
			cfg.Input.BaseDir = c.BaseDir
		}
		if c.Dest != "" {
			cfg.Input.ExtractDir = c.Dest
		}
		if c.NormalizeNames {
			cfg.Parse.NormalizeNames = true
		}
	})
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	ex := archive.NewExtractor(cfg.Input.ExtractDir, archiveOptions(cfg), logger)
	groups, err := ex.ExtractAll(ctx, cfg.Input.BaseDir)
	logger.Info().Int("groups", len(groups)).Str("dest", cfg.Input.ExtractDir).Msg("Extraction finished")
	return err
}

func archiveOptions(cfg *config.Config) archive.Options {
	return archive.Options{
		Allow:          cfg.AllowsGame,
		NormalizeNames: cfg.Parse.NormalizeNames,
	}
}
