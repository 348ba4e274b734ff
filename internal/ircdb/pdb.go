package ircdb

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
)

// PlayerFilePrefix prefixes every per-player action file name.
const PlayerFilePrefix = "pdb."

// pdb columns: user timestamp num_players pos preflop flop turn river
// bankroll action winnings [card1 card2]
const (
	playerActionColumn   = 4
	playerBankrollColumn = 8
	playerCardsColumn    = 11
	playerColumnsNoCards = 11
	playerColumnsCards   = 13
)

// UserFromPlayerFile returns the username encoded in a pdb.<user> file name.
func UserFromPlayerFile(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, PlayerFilePrefix) {
		return "", false
	}
	user := strings.TrimPrefix(base, PlayerFilePrefix)
	return user, user != ""
}

// playerLine is a decoded pdb line.
type playerLine struct {
	ID          string
	Pos         int
	Bets        [4]hand.BetRound
	Bankroll    int
	Action      int
	Winnings    int
	PocketCards []string
}

// ParsePlayerFile reads one pdb.<user> file and merges each line into the
// matching player of the matching hand.
func (a *Assembly) ParsePlayerFile(path string) error {
	user, ok := UserFromPlayerFile(path)
	if !ok {
		return fmt.Errorf("%w: %s is not a player file", ErrMissingFile, path)
	}
	name := filepath.Base(path)
	a.stats.PlayerFiles++
	return scanFile(path, func(lineNo int, tokens []string) {
		a.applyPlayerLine(user, name, lineNo, tokens)
	})
}

// ReadPlayerFile is ParsePlayerFile over an arbitrary reader for user.
func (a *Assembly) ReadPlayerFile(r io.Reader, user string) error {
	a.stats.PlayerFiles++
	name := PlayerFilePrefix + user
	return scanLines(r, func(lineNo int, tokens []string) {
		a.applyPlayerLine(user, name, lineNo, tokens)
	})
}

func (a *Assembly) applyPlayerLine(user, file string, lineNo int, tokens []string) {
	a.stats.PlayerLines++
	if a.opts.NormalizeNames {
		user = normalizeName(user)
	}

	id := ""
	if len(tokens) > 1 {
		id = a.ID(tokens[1])
	}
	fail := func(kind Kind, err error) {
		a.reject(&LineError{File: file, Line: lineNo, ID: id, Kind: kind, Err: err})
	}

	line, err := parsePlayerLine(id, tokens)
	if err != nil {
		fail(KindStructural, err)
		return
	}

	h, ok := a.hands[id]
	switch {
	case !ok:
		fail(KindJoin, fmt.Errorf("hand %s not in summary", id))
		return
	case a.invalid.Has(id):
		return
	case h.Roster == nil:
		fail(KindJoin, fmt.Errorf("hand %s has no roster", id))
		return
	}

	p, ok := h.Roster.Get(user)
	if !ok {
		fail(KindJoin, fmt.Errorf("%s not in roster of %s", user, id))
		return
	}
	p.Pos = line.Pos
	p.Bets = line.Bets
	p.Bankroll = line.Bankroll
	p.Action = line.Action
	p.Winnings = line.Winnings
	p.PocketCards = line.PocketCards
	p.Merged = true
}

// parsePlayerLine decodes one pdb line. Pocket cards are only present when the
// line carries the full column count.
func parsePlayerLine(id string, tokens []string) (*playerLine, error) {
	if n := len(tokens); n != playerColumnsNoCards && n != playerColumnsCards {
		return nil, fmt.Errorf("want %d or %d columns, got %d", playerColumnsNoCards, playerColumnsCards, n)
	}
	if _, err := strconv.Atoi(tokens[2]); err != nil {
		return nil, fmt.Errorf("player count: %w", err)
	}
	pos, err := strconv.Atoi(tokens[3])
	if err != nil {
		return nil, fmt.Errorf("position: %w", err)
	}
	if pos < 1 {
		return nil, fmt.Errorf("position %d out of range", pos)
	}

	line := &playerLine{ID: id, Pos: pos, PocketCards: []string{}}
	for i, stage := range hand.BetStages {
		line.Bets[i] = hand.BetRound{
			Stage:   stage,
			Actions: explodeActions(tokens[playerActionColumn+i]),
		}
	}

	totals := []*int{&line.Bankroll, &line.Action, &line.Winnings}
	for i, dst := range totals {
		v, err := strconv.Atoi(tokens[playerBankrollColumn+i])
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", playerBankrollColumn+i+1, err)
		}
		*dst = v
	}

	if len(tokens) == playerColumnsCards {
		line.PocketCards = append(line.PocketCards, tokens[playerCardsColumn:]...)
	}
	return line, nil
}
