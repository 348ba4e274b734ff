package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/allenfrostline/PokerHandsDataset/cmd/irchands/shared"
	"github.com/allenfrostline/PokerHandsDataset/internal/archive"
	"github.com/allenfrostline/PokerHandsDataset/internal/config"
	"github.com/allenfrostline/PokerHandsDataset/internal/ircdb"
	"github.com/allenfrostline/PokerHandsDataset/internal/pipeline"
	"github.com/rs/zerolog"
)

// ParseCmd runs the reconstruction pipeline.
type ParseCmd struct {
	Groups            []string `arg:"" optional:"" name:"group" help:"File group directories (default: discover under input.extract_dir)"`
	Output            string   `short:"o" help:"JSON lines output file (overrides output.file)"`
	Append            bool     `help:"Append to the output instead of truncating it"`
	Extract           bool     `help:"Extract archives from input.base_dir before parsing"`
	DuplicateIDs      string   `name:"duplicate-ids" help:"Duplicate id policy: overwrite or invalidate (overrides parse.duplicate_ids)"`
	StrictPlayerCount bool     `help:"Invalidate hands whose roster size differs from the declared player count"`
	NormalizeNames    bool     `help:"Replace '|' with '_' in player names"`
}

func (c *ParseCmd) apply(cfg *config.Config) {
	if c.Output != "" {
		cfg.Output.File = c.Output
	}
	if c.Append {
		truncate := false
		cfg.Output.Truncate = &truncate
	}
	if c.DuplicateIDs != "" {
		cfg.Parse.DuplicateIDs = c.DuplicateIDs
	}
	if c.StrictPlayerCount {
		cfg.Parse.StrictPlayerCount = true
	}
	if c.NormalizeNames {
		cfg.Parse.NormalizeNames = true
	}
}

func (c *ParseCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup(c.apply)
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	groups := c.Groups
	if len(groups) == 0 {
		if c.Extract {
			ex := archive.NewExtractor(cfg.Input.ExtractDir, archiveOptions(cfg), logger)
			groups, err = ex.ExtractAll(ctx, cfg.Input.BaseDir)
		} else {
			groups, err = archive.Discover(cfg.Input.ExtractDir, cfg.AllowsGame)
		}
		if err != nil {
			return err
		}
	}
	if len(groups) == 0 {
		return fmt.Errorf("no file groups found under %s", cfg.Input.ExtractDir)
	}

	sink, err := pipeline.OpenJSONLines(cfg.Output.File, cfg.ShouldTruncate())
	if err != nil {
		return err
	}
	return runPipeline(ctx, cfg, logger, groups, sink)
}

// outputSink is a pipeline sink that must be flushed and closed after the run.
type outputSink interface {
	pipeline.Sink
	Close() error
}

// runPipeline processes groups into sink and closes it. A failure to write or
// close the sink is always returned.
func runPipeline(ctx context.Context, cfg *config.Config, logger zerolog.Logger, groups []string, sink outputSink) error {
	p, err := pipeline.New(pipeline.Config{
		Options: cfg.ParseOptions(),
		Sink:    sink,
		Monitor: pipeline.NewLogMonitor(logger),
	}, logger)
	if err != nil {
		return errors.Join(err, sink.Close())
	}

	summary, runErr := p.Run(ctx, groups)
	closeErr := sink.Close()
	if errors.Is(runErr, pipeline.ErrSink) || closeErr != nil {
		return errors.Join(runErr, closeErr)
	}
	if runErr != nil {
		logger.Warn().Err(runErr).Msg("Run interrupted")
	}

	ev := logger.Info().
		Str("output", cfg.Output.File).
		Int("valid", summary.HandsValid).
		Int("invalid", summary.HandsInvalid).
		Str("dropped", fmt.Sprintf("%.2f%%", summary.DroppedRatio()*100))
	for _, kind := range ircdb.Kinds {
		ev = ev.Int(kind.String(), summary.ByKind[kind])
	}
	ev.Msg("Finished")
	if len(summary.FailedDirs) > 0 {
		logger.Warn().Strs("groups", summary.FailedDirs).Msg("Some file groups were skipped")
	}
	return runErr
}
