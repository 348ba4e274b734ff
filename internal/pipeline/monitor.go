package pipeline

import (
	"github.com/allenfrostline/PokerHandsDataset/internal/ircdb"
	"github.com/rs/zerolog"
)

// Monitor observes batch progress.
type Monitor interface {
	OnRunStart(groups int)
	OnGroupStart(index, total int, dir string)
	OnGroupComplete(index, total int, res *ircdb.Result, runningTotal int)
	OnGroupFailed(index, total int, dir string, err error)
	OnRunComplete(summary *Summary)
}

// NopMonitor ignores all progress events.
type NopMonitor struct{}

func (NopMonitor) OnRunStart(int) {}
func (NopMonitor) OnGroupStart(int, int, string) {}
func (NopMonitor) OnGroupComplete(int, int, *ircdb.Result, int) {}
func (NopMonitor) OnGroupFailed(int, int, string, error) {}
func (NopMonitor) OnRunComplete(*Summary) {}

// LogMonitor reports progress through a zerolog logger.
type LogMonitor struct {
	logger zerolog.Logger
}

// NewLogMonitor creates a monitor writing to logger.
func NewLogMonitor(logger zerolog.Logger) *LogMonitor {
	return &LogMonitor{logger: logger}
}

func (m *LogMonitor) OnRunStart(groups int) {
	m.logger.Info().Int("groups", groups).Msg("Starting batch")
}

func (m *LogMonitor) OnGroupStart(index, total int, dir string) {
	m.logger.Info().Int("group", index).Int("of", total).Str("dir", dir).Msg("Processing file group")
}

func (m *LogMonitor) OnGroupComplete(index, total int, res *ircdb.Result, runningTotal int) {
	ev := m.logger.Info().
		Int("group", index).
		Int("of", total).
		Str("game", res.Game).
		Str("year_month", res.YearMonth).
		Int("valid", len(res.Hands)).
		Int("invalid", res.Invalid).
		Int("total_valid", runningTotal)
	for _, kind := range ircdb.Kinds {
		if n := res.ByKind[kind]; n > 0 {
			ev = ev.Int("invalid_"+kind.String(), n)
		}
	}
	ev.Msg("Finished file group")
}

func (m *LogMonitor) OnGroupFailed(index, total int, dir string, err error) {
	m.logger.Error().Err(err).Int("group", index).Int("of", total).Str("dir", dir).Msg("Skipping file group")
}

func (m *LogMonitor) OnRunComplete(s *Summary) {
	m.logger.Info().
		Int("groups", s.Groups).
		Int("failed_groups", s.GroupsFailed).
		Int("valid", s.HandsValid).
		Int("invalid", s.HandsInvalid).
		Dur("elapsed", s.Elapsed).
		Msg("Finished batch")
}
