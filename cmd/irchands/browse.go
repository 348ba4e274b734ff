package main

import (
	"os"
	"path/filepath"

	"github.com/allenfrostline/PokerHandsDataset/cmd/irchands/shared"
	"github.com/allenfrostline/PokerHandsDataset/internal/browse"
)

// BrowseCmd prints cleaned hands to the terminal.
type BrowseCmd struct {
	File  string `arg:"" optional:"" name:"file" help:"Cleaned hands file (default: output.clean_file)"`
	Limit int    `short:"n" default:"10" help:"Maximum number of hands to print (0 = all)"`
}

func (c *BrowseCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup(nil)
	if err != nil {
		return err
	}

	path := c.File
	if path == "" {
		path = cfg.Output.CleanFile
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	n, err := browse.New(os.Stdout).RenderAll(ctx, f, c.Limit)
	logger.Debug().Int("hands", n).Str("file", path).Msg("Browsed")
	return err
}
