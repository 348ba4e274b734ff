package ircdb

import (
	"errors"
	"fmt"
	"sort"

	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
)

// Join drops every invalid or incomplete hand and finalizes the survivors,
// returning them ordered by id. Hands rejected here are added to the invalid
// set with KindIncomplete.
func (a *Assembly) Join() []hand.Hand {
	ids := make([]string, 0, len(a.hands))
	for id := range a.hands {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]hand.Hand, 0, len(ids))
	for _, id := range ids {
		if a.invalid.Has(id) {
			continue
		}
		h := a.hands[id]
		if err := a.checkComplete(h); err != nil {
			a.invalid.Add(id, KindIncomplete)
			a.logger.Debug().Err(err).Str("hand_id", id).Msg("Dropped incomplete hand")
			continue
		}
		h.Finalize()
		out = append(out, *h)
	}
	return out
}

// checkComplete enforces that every roster player was merged from a player
// file and that seats are distinct and within the declared table size.
func (a *Assembly) checkComplete(h *hand.Hand) error {
	if h.Roster == nil {
		return errors.New("no roster entry")
	}
	seats := make(map[int]string, h.Roster.Len())
	for _, user := range h.Roster.Users() {
		p, _ := h.Roster.Get(user)
		if !p.Merged {
			return fmt.Errorf("no action line for %s", user)
		}
		if a.opts.RequirePocketCards && len(p.PocketCards) == 0 {
			return fmt.Errorf("no pocket cards for %s", user)
		}
		if p.Pos > h.NumPlayers {
			return fmt.Errorf("%s seated at %d of %d", user, p.Pos, h.NumPlayers)
		}
		if other, taken := seats[p.Pos]; taken {
			return fmt.Errorf("%s and %s share seat %d", other, user, p.Pos)
		}
		seats[p.Pos] = user
	}
	return nil
}
