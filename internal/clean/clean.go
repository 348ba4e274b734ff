// Package clean filters reconstructed hands down to those with fully known
// pocket cards and re-keys them for downstream analysis.
package clean

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/allenfrostline/PokerHandsDataset/internal/fileutil"
	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const progressEvery = 10000

// Stats counts the hands seen by a clean pass.
type Stats struct {
	Processed int
	Valid     int
	Malformed int
}

// DroppedRatio is the share of processed hands that were not kept.
func (s Stats) DroppedRatio() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Processed-s.Valid) / float64(s.Processed)
}

// Cleaner runs the filtering pass.
type Cleaner struct {
	logger zerolog.Logger
}

// New creates a cleaner.
func New(logger zerolog.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Keep reports whether every player of h has a seat and known pocket cards.
func Keep(h *hand.Hand) bool {
	if len(h.Players) == 0 {
		return false
	}
	for _, p := range h.Players {
		if p.Pos < 1 || len(p.PocketCards) == 0 {
			return false
		}
	}
	return true
}

// Convert re-keys h with the sequential id and stamps its timestamp.
func Convert(h *hand.Hand, id int) (*hand.Cleaned, error) {
	ts, err := h.Timestamp()
	if err != nil {
		return nil, fmt.Errorf("hand %s: timestamp: %w", h.ID, err)
	}
	return &hand.Cleaned{
		ID:         id,
		Time:       ts,
		Game:       h.Game,
		Dealer:     h.Dealer,
		NumPlayers: h.NumPlayers,
		Board:      h.Board,
		Pots:       h.Pots,
		Players:    h.Players,
	}, nil
}

// Run reads hand documents from r and writes the kept, re-keyed hands to w.
func (c *Cleaner) Run(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	out := bufio.NewWriter(w)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.Processed++

		var h hand.Hand
		if err := json.Unmarshal(line, &h); err != nil {
			stats.Malformed++
			c.logger.Debug().Err(err).Int("line", stats.Processed).Msg("Skipping malformed hand")
			continue
		}
		if !Keep(&h) {
			continue
		}
		cleaned, err := Convert(&h, stats.Valid+1)
		if err != nil {
			stats.Malformed++
			c.logger.Debug().Err(err).Msg("Skipping hand")
			continue
		}
		if err := enc.Encode(cleaned); err != nil {
			return stats, fmt.Errorf("encode hand %s: %w", h.ID, err)
		}
		stats.Valid++

		if stats.Processed%progressEvery == 0 {
			c.logger.Info().
				Int("processed", stats.Processed).
				Int("valid", stats.Valid).
				Str("dropped", fmt.Sprintf("%.2f%%", stats.DroppedRatio()*100)).
				Msg("Cleaning")
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read hands: %w", err)
	}
	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("write hands: %w", err)
	}
	return stats, nil
}

// RunFile cleans the hands in src into dst, replacing dst atomically.
func (c *Cleaner) RunFile(ctx context.Context, src, dst string) (Stats, error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return Stats{}, err
	}
	defer in.Close()

	out, err := fileutil.CreateAtomic(dst, 0o644)
	if err != nil {
		return Stats{}, err
	}
	stats, err := c.Run(ctx, in, out)
	if err != nil {
		out.Abort()
		return stats, err
	}
	if err := out.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}
