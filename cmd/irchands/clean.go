package main

import (
	"fmt"

	"github.com/allenfrostline/PokerHandsDataset/cmd/irchands/shared"
	"github.com/allenfrostline/PokerHandsDataset/internal/clean"
	"github.com/allenfrostline/PokerHandsDataset/internal/config"
)

// CleanCmd filters the parse output down to fully known hands.
type CleanCmd struct {
	Input  string `short:"i" help:"Parsed hands file (overrides output.file)"`
	Output string `short:"o" help:"Cleaned hands file (overrides output.clean_file)"`
}

func (c *CleanCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup(func(cfg *config.Config) {
		if c.Input != "" {
			cfg.Output.File = c.Input
		}
		if c.Output != "" {
			cfg.Output.CleanFile = c.Output
		}
	})
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	stats, err := clean.New(logger).RunFile(ctx, cfg.Output.File, cfg.Output.CleanFile)
	if err != nil {
		return err
	}
	logger.Info().
		Str("output", cfg.Output.CleanFile).
		Int("processed", stats.Processed).
		Int("valid", stats.Valid).
		Int("malformed", stats.Malformed).
		Str("dropped", fmt.Sprintf("%.2f%%", stats.DroppedRatio()*100)).
		Msg("Finished")
	return nil
}
