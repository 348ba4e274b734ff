// Package ircdb parses the IRC poker database file triad (hdb, hroster and
// pdb.<user>) of one file group and joins it into complete hand records.
package ircdb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
	"github.com/rs/zerolog"
)

// DuplicatePolicy decides what happens when a summary file repeats a hand id.
type DuplicatePolicy string

const (
	// DuplicateOverwrite keeps the last line for a repeated id.
	DuplicateOverwrite DuplicatePolicy = "overwrite"
	// DuplicateInvalidate drops every hand whose id is repeated.
	DuplicateInvalidate DuplicatePolicy = "invalidate"
)

// Options tunes the validity policy applied while assembling a group.
type Options struct {
	DuplicateIDs       DuplicatePolicy
	StrictPlayerCount  bool
	RequirePocketCards bool
	NormalizeNames     bool
}

// DefaultOptions mirrors the behaviour of the reference extraction scripts.
func DefaultOptions() Options {
	return Options{
		DuplicateIDs:       DuplicateOverwrite,
		RequirePocketCards: true,
	}
}

// Stats counts the lines seen and rejected while assembling a group.
type Stats struct {
	SummaryLines int
	RosterLines  int
	PlayerFiles  int
	PlayerLines  int
	LineFailures map[Kind]int
}

// Assembly holds the partial hand records of one file group while the three
// file kinds are merged into them. It must not outlive the group.
type Assembly struct {
	Game      string
	YearMonth string

	hands   map[string]*hand.Hand
	invalid *InvalidSet
	opts    Options
	stats   Stats
	logger  zerolog.Logger
}

// NewAssembly prepares an assembly for the group rooted at dir, laid out as
// <base>/<game>/<yearmonth>.
func NewAssembly(dir string, opts Options, logger zerolog.Logger) *Assembly {
	dir = filepath.Clean(dir)
	if opts.DuplicateIDs == "" {
		opts.DuplicateIDs = DuplicateOverwrite
	}
	return &Assembly{
		Game:      filepath.Base(filepath.Dir(dir)),
		YearMonth: filepath.Base(dir),
		hands:     make(map[string]*hand.Hand),
		invalid:   NewInvalidSet(),
		opts:      opts,
		stats:     Stats{LineFailures: make(map[Kind]int)},
		logger:    logger,
	}
}

// Prefix is the id prefix shared by every hand of the group.
func (a *Assembly) Prefix() string {
	return a.Game + "_" + a.YearMonth + "_"
}

// ID builds the hand identifier for a timestamp column.
func (a *Assembly) ID(timestamp string) string {
	return a.Prefix() + timestamp
}

// Hand returns the partial record for id.
func (a *Assembly) Hand(id string) (*hand.Hand, bool) {
	h, ok := a.hands[id]
	return h, ok
}

// Len returns the number of partial records.
func (a *Assembly) Len() int {
	return len(a.hands)
}

// Invalid exposes the invalid-key set threaded through every stage.
func (a *Assembly) Invalid() *InvalidSet {
	return a.invalid
}

// Stats returns the line counters accumulated so far.
func (a *Assembly) Stats() Stats {
	out := a.stats
	out.LineFailures = make(map[Kind]int, len(a.stats.LineFailures))
	for k, v := range a.stats.LineFailures {
		out.LineFailures[k] = v
	}
	return out
}

// reject records a failed line and invalidates its hand id.
func (a *Assembly) reject(le *LineError) {
	a.invalid.Add(le.ID, le.Kind)
	a.stats.LineFailures[le.Kind]++
	a.logger.Debug().Err(le.Err).
		Str("file", le.File).
		Int("line", le.Line).
		Str("hand_id", le.ID).
		Str("kind", le.Kind.String()).
		Msg("Rejected line")
}

// scanFile opens path and calls fn with the tokens of every non-blank line.
func scanFile(path string, fn func(lineNo int, tokens []string)) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := scanLines(f, fn); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func scanLines(r io.Reader, fn func(lineNo int, tokens []string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		tokens := Tokenize(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		fn(lineNo, tokens)
	}
	return scanner.Err()
}
