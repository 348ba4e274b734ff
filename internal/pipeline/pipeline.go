// Package pipeline runs the hand reconstruction over a batch of file groups
// and streams the surviving records to a sink.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/allenfrostline/PokerHandsDataset/internal/ircdb"
	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

// Config wires the collaborators of a Pipeline.
type Config struct {
	Options ircdb.Options
	Sink    Sink
	Monitor Monitor
	Clock   quartz.Clock
}

// Summary aggregates a batch run.
type Summary struct {
	Groups       int
	GroupsFailed int
	FailedDirs   []string
	HandsValid   int
	HandsInvalid int
	ByKind       map[ircdb.Kind]int
	Started      time.Time
	Elapsed      time.Duration
}

// DroppedRatio is the share of seen hand ids that were not emitted.
func (s *Summary) DroppedRatio() float64 {
	total := s.HandsValid + s.HandsInvalid
	if total == 0 {
		return 0
	}
	return float64(s.HandsInvalid) / float64(total)
}

// Pipeline processes file groups one at a time.
type Pipeline struct {
	opts    ircdb.Options
	sink    Sink
	monitor Monitor
	clock   quartz.Clock
	logger  zerolog.Logger
}

// New creates a pipeline. A sink is required.
func New(cfg Config, logger zerolog.Logger) (*Pipeline, error) {
	if cfg.Sink == nil {
		return nil, errors.New("pipeline: sink is required")
	}
	if cfg.Monitor == nil {
		cfg.Monitor = NopMonitor{}
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	return &Pipeline{
		opts:    cfg.Options,
		sink:    cfg.Sink,
		monitor: cfg.Monitor,
		clock:   cfg.Clock,
		logger:  logger,
	}, nil
}

// Run processes groups in order. Unreadable groups are reported and skipped;
// a sink failure or context cancellation stops the run and is returned along
// with the summary so far.
func (p *Pipeline) Run(ctx context.Context, groups []string) (*Summary, error) {
	summary := &Summary{
		ByKind:  make(map[ircdb.Kind]int),
		Started: p.clock.Now(),
	}
	finish := func(err error) (*Summary, error) {
		summary.Elapsed = p.clock.Now().Sub(summary.Started)
		p.monitor.OnRunComplete(summary)
		return summary, err
	}

	total := len(groups)
	p.monitor.OnRunStart(total)

	for i, dir := range groups {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		index := i + 1
		p.monitor.OnGroupStart(index, total, dir)

		res, err := ircdb.ProcessGroup(ctx, dir, p.opts, p.logger.With().Str("group", dir).Logger())
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return finish(err)
			}
			summary.GroupsFailed++
			summary.FailedDirs = append(summary.FailedDirs, dir)
			p.monitor.OnGroupFailed(index, total, dir, err)
			continue
		}

		if err := p.sink.WriteHands(res.Hands); err != nil {
			return finish(err)
		}

		summary.Groups++
		summary.HandsValid += len(res.Hands)
		summary.HandsInvalid += res.Invalid
		for kind, n := range res.ByKind {
			summary.ByKind[kind] += n
		}
		p.monitor.OnGroupComplete(index, total, res, summary.HandsValid)
	}

	return finish(nil)
}
