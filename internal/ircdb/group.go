package ircdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
	"github.com/rs/zerolog"
)

// File group layout.
const (
	SummaryFile = "hdb"
	RosterFile  = "hroster"
	PlayerDir   = "pdb"
)

// Result is the outcome of assembling one file group.
type Result struct {
	Dir       string
	Game      string
	YearMonth string
	Hands     []hand.Hand
	Invalid   int
	ByKind    map[Kind]int
	Stats     Stats
}

// ProcessGroup runs the summary, roster and player parsers over the group in
// dir and joins the result. An error means the group could not be read at all.
func ProcessGroup(ctx context.Context, dir string, opts Options, logger zerolog.Logger) (*Result, error) {
	summaryPath := filepath.Join(dir, SummaryFile)
	rosterPath := filepath.Join(dir, RosterFile)
	playerDir := filepath.Join(dir, PlayerDir)

	for _, p := range []string{summaryPath, rosterPath, playerDir} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMissingFile, p, err)
		}
	}

	playerFiles, err := PlayerFiles(playerDir)
	if err != nil {
		return nil, err
	}

	a := NewAssembly(dir, opts, logger)
	if err := a.ParseSummary(summaryPath); err != nil {
		return nil, err
	}
	if err := a.ParseRoster(rosterPath); err != nil {
		return nil, err
	}
	for _, path := range playerFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.ParsePlayerFile(path); err != nil {
			return nil, err
		}
	}

	hands := a.Join()
	if a.invalid.Len() > 0 {
		if ev := logger.Debug(); ev.Enabled() {
			ev.Strs("hand_ids", a.invalid.IDs()).Msg("Dropped hands")
		}
	}
	return &Result{
		Dir:       dir,
		Game:      a.Game,
		YearMonth: a.YearMonth,
		Hands:     hands,
		Invalid:   a.invalid.Len(),
		ByKind:    a.invalid.Counts(),
		Stats:     a.Stats(),
	}, nil
}

// PlayerFiles lists the pdb.<user> files of a player directory in name order.
func PlayerFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := UserFromPlayerFile(e.Name()); !ok {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
