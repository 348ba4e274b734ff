// Package hand defines the normalized hand record reconstructed from the IRC
// poker database and the cleaned form consumed by downstream tools.
package hand

import (
	"sort"
	"strconv"
	"strings"
)

// Stage tags a pot or betting round. Values match the single-letter codes of
// the legacy JSON output.
type Stage string

const (
	StagePreflop  Stage = "p"
	StageFlop     Stage = "f"
	StageTurn     Stage = "t"
	StageRiver    Stage = "r"
	StageShowdown Stage = "s"
)

// PotStages is the fixed stage order of Hand.Pots.
var PotStages = [4]Stage{StageFlop, StageTurn, StageRiver, StageShowdown}

// BetStages is the fixed stage order of PlayerEntry.Bets.
var BetStages = [4]Stage{StagePreflop, StageFlop, StageTurn, StageRiver}

// Name returns the long name of a stage.
func (s Stage) Name() string {
	switch s {
	case StagePreflop:
		return "preflop"
	case StageFlop:
		return "flop"
	case StageTurn:
		return "turn"
	case StageRiver:
		return "river"
	case StageShowdown:
		return "showdown"
	default:
		return string(s)
	}
}

// Action codes found in player action columns.
const (
	ActionNone   = "-"
	ActionBlind  = "B"
	ActionFold   = "f"
	ActionCheck  = "k"
	ActionBet    = "b"
	ActionCall   = "c"
	ActionRaise  = "r"
	ActionAllIn  = "A"
	ActionQuit   = "Q"
	ActionKicked = "K"
)

// PotEntry is the pot state at the start of a stage.
type PotEntry struct {
	Stage      Stage `json:"stage"`
	NumPlayers int   `json:"num_players"`
	Size       int   `json:"size"`

	// Parsed is false when the source token was not "<int>/<int>".
	Parsed bool `json:"-"`
}

// BetRound is one player's actions during a betting stage.
type BetRound struct {
	Stage   Stage    `json:"stage"`
	Actions []string `json:"actions"`
}

// PlayerEntry is one player's participation in a hand.
type PlayerEntry struct {
	User        string      `json:"user"`
	Pos         int         `json:"pos"`
	Bets        [4]BetRound `json:"bets"`
	Bankroll    int         `json:"bankroll"`
	Action      int         `json:"action"`
	Winnings    int         `json:"winnings"`
	PocketCards []string    `json:"pocket_cards"`

	// Merged is set once a player action line has been applied.
	Merged bool `json:"-"`
}

// NewPlayerEntry returns a roster stub with stage-tagged, empty bet rounds.
func NewPlayerEntry(user string) *PlayerEntry {
	p := &PlayerEntry{User: user, PocketCards: []string{}}
	for i, stage := range BetStages {
		p.Bets[i] = BetRound{Stage: stage, Actions: []string{}}
	}
	return p
}

// Roster is the ordered set of players attached to a hand while assembling.
type Roster struct {
	order   []string
	players map[string]*PlayerEntry
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{players: make(map[string]*PlayerEntry)}
}

// Add appends a stub for user. A repeated user keeps its first position.
func (r *Roster) Add(user string) {
	if _, ok := r.players[user]; ok {
		return
	}
	r.order = append(r.order, user)
	r.players[user] = NewPlayerEntry(user)
}

// Get returns the entry for user.
func (r *Roster) Get(user string) (*PlayerEntry, bool) {
	p, ok := r.players[user]
	return p, ok
}

// Len returns the number of players in the roster.
func (r *Roster) Len() int {
	return len(r.order)
}

// Users returns player names in roster order.
func (r *Roster) Users() []string {
	return append([]string(nil), r.order...)
}

// SortedBySeat returns the players ordered by ascending position, ties broken
// by username.
func (r *Roster) SortedBySeat() []PlayerEntry {
	out := make([]PlayerEntry, 0, len(r.order))
	for _, user := range r.order {
		out = append(out, *r.players[user])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos != out[j].Pos {
			return out[i].Pos < out[j].Pos
		}
		return out[i].User < out[j].User
	})
	return out
}

// Hand is one reconstructed poker hand.
type Hand struct {
	ID         string        `json:"_id"`
	Game       string        `json:"game"`
	Dealer     int           `json:"dealer"`
	HandNum    int           `json:"hand_num"`
	NumPlayers int           `json:"num_players"`
	Board      []string      `json:"board"`
	Pots       [4]PotEntry   `json:"pots"`
	Players    []PlayerEntry `json:"players"`

	// Roster holds players keyed by username until the hand is finalized.
	Roster *Roster `json:"-"`
}

// Finalize replaces the roster with the seat-ordered player list.
func (h *Hand) Finalize() {
	if h.Roster == nil {
		return
	}
	h.Players = h.Roster.SortedBySeat()
	h.Roster = nil
}

// Timestamp returns the trailing timestamp segment of the hand identifier.
func (h *Hand) Timestamp() (int64, error) {
	return TimestampFromID(h.ID)
}

// TimestampFromID extracts the timestamp from "<game>_<yearmonth>_<timestamp>".
func TimestampFromID(id string) (int64, error) {
	idx := strings.LastIndexByte(id, '_')
	return strconv.ParseInt(id[idx+1:], 10, 64)
}

// Cleaned is a hand after the downstream filtering pass: re-keyed with a
// sequential id, stamped with its timestamp and without the raw hand number.
type Cleaned struct {
	ID         int           `json:"id"`
	Time       int64         `json:"time"`
	Game       string        `json:"game"`
	Dealer     int           `json:"dealer"`
	NumPlayers int           `json:"num_players"`
	Board      []string      `json:"board"`
	Pots       [4]PotEntry   `json:"pots"`
	Players    []PlayerEntry `json:"players"`
}
