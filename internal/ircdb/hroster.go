package ircdb

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
)

// hroster columns: timestamp num_players player1 ... playerN
const rosterPlayerColumn = 2

// ParseRoster reads the roster (hroster) file at path and attaches the ordered
// player set to every known hand.
func (a *Assembly) ParseRoster(path string) error {
	name := filepath.Base(path)
	return scanFile(path, func(lineNo int, tokens []string) {
		a.applyRoster(name, lineNo, tokens)
	})
}

// ReadRoster is ParseRoster over an arbitrary reader.
func (a *Assembly) ReadRoster(r io.Reader, name string) error {
	return scanLines(r, func(lineNo int, tokens []string) {
		a.applyRoster(name, lineNo, tokens)
	})
}

func (a *Assembly) applyRoster(file string, lineNo int, tokens []string) {
	a.stats.RosterLines++
	id := a.ID(tokens[0])
	fail := func(kind Kind, err error) {
		a.reject(&LineError{File: file, Line: lineNo, ID: id, Kind: kind, Err: err})
	}

	if len(tokens) <= rosterPlayerColumn {
		fail(KindStructural, fmt.Errorf("roster lists no players"))
		return
	}
	declared, err := strconv.Atoi(tokens[1])
	if err != nil {
		fail(KindStructural, fmt.Errorf("player count: %w", err))
		return
	}

	h, ok := a.hands[id]
	if !ok {
		fail(KindJoin, fmt.Errorf("hand %s not in summary", id))
		return
	}

	roster := hand.NewRoster()
	for _, user := range tokens[rosterPlayerColumn:] {
		if a.opts.NormalizeNames {
			user = normalizeName(user)
		}
		roster.Add(user)
	}
	h.Roster = roster

	if a.opts.StrictPlayerCount && (declared != roster.Len() || h.NumPlayers != roster.Len()) {
		fail(KindJoin, fmt.Errorf("roster has %d players, declared %d, summary %d",
			roster.Len(), declared, h.NumPlayers))
	}
}
