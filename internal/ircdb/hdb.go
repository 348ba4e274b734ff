package ircdb

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
)

// hdb columns: timestamp dealer hand_number num_players pot×4 board...
const (
	summaryPotColumn   = 4
	summaryBoardColumn = 8
	maxBoardCards      = 5
)

// ParseSummary reads the hand-summary (hdb) file at path, creating one partial
// record per line. Only I/O failures are returned; bad lines invalidate their
// hand id.
func (a *Assembly) ParseSummary(path string) error {
	name := filepath.Base(path)
	return scanFile(path, func(lineNo int, tokens []string) {
		a.applySummary(name, lineNo, tokens)
	})
}

// ReadSummary is ParseSummary over an arbitrary reader.
func (a *Assembly) ReadSummary(r io.Reader, name string) error {
	return scanLines(r, func(lineNo int, tokens []string) {
		a.applySummary(name, lineNo, tokens)
	})
}

func (a *Assembly) applySummary(file string, lineNo int, tokens []string) {
	a.stats.SummaryLines++
	id := a.ID(tokens[0])

	h, err := parseSummaryLine(a.Game, id, tokens)
	if h == nil {
		a.reject(&LineError{File: file, Line: lineNo, ID: id, Kind: KindStructural, Err: err})
		return
	}

	if _, exists := a.hands[id]; exists && a.opts.DuplicateIDs == DuplicateInvalidate {
		a.reject(&LineError{File: file, Line: lineNo, ID: id, Kind: KindDuplicate,
			Err: fmt.Errorf("hand %s already seen", id)})
	}
	a.hands[id] = h

	if err != nil {
		a.reject(&LineError{File: file, Line: lineNo, ID: id, Kind: KindStructural, Err: err})
	}
}

// parseSummaryLine decodes one hdb line. A malformed pot still yields a hand
// (with that pot unparsed) alongside the error; any other failure yields nil.
func parseSummaryLine(game, id string, tokens []string) (*hand.Hand, error) {
	if len(tokens) < summaryBoardColumn {
		return nil, fmt.Errorf("want at least %d columns, got %d", summaryBoardColumn, len(tokens))
	}
	if _, err := strconv.ParseInt(tokens[0], 10, 64); err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	if cards := len(tokens) - summaryBoardColumn; cards > maxBoardCards {
		return nil, fmt.Errorf("board has %d cards", cards)
	}

	ints := make([]int, 3)
	for i := range ints {
		v, err := strconv.Atoi(tokens[i+1])
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+2, err)
		}
		ints[i] = v
	}

	h := &hand.Hand{
		ID:         id,
		Game:       game,
		Dealer:     ints[0],
		HandNum:    ints[1],
		NumPlayers: ints[2],
		Board:      append([]string{}, tokens[summaryBoardColumn:]...),
	}

	var potErr error
	for i, stage := range hand.PotStages {
		tok := tokens[summaryPotColumn+i]
		h.Pots[i] = hand.PotEntry{Stage: stage}
		players, size, ok := parsePot(tok)
		if !ok {
			if potErr == nil {
				potErr = fmt.Errorf("malformed %s pot %q", stage.Name(), tok)
			}
			continue
		}
		h.Pots[i].NumPlayers = players
		h.Pots[i].Size = size
		h.Pots[i].Parsed = true
	}
	return h, potErr
}

// parsePot decodes a "<players>/<size>" pot column.
func parsePot(tok string) (players, size int, ok bool) {
	parts := strings.Split(tok, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	players, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	size, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return players, size, true
}
