package browse

import (
	"fmt"
	"strings"

	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
	"github.com/paulhankin/poker"
)

const (
	rankChars = "A23456789TJQK"
	suitChars = "cdhs"
)

// parseCard converts a database card token such as "Qc" or "Td".
func parseCard(tok string) (poker.Card, error) {
	var none poker.Card
	if len(tok) != 2 {
		return none, fmt.Errorf("bad card %q", tok)
	}
	rank := strings.IndexByte(rankChars, tok[0])
	suit := strings.IndexByte(suitChars, tok[1])
	if rank < 0 || suit < 0 {
		return none, fmt.Errorf("bad card %q", tok)
	}
	return poker.MakeCard(poker.Suit(suit), poker.Rank(rank+1))
}

// sevenCards combines a full board with two pocket cards.
func sevenCards(board, pocket []string) (*[7]poker.Card, bool) {
	if len(board) != 5 || len(pocket) != 2 {
		return nil, false
	}
	var cards [7]poker.Card
	for i, tok := range append(append([]string{}, board...), pocket...) {
		c, err := parseCard(tok)
		if err != nil {
			return nil, false
		}
		cards[i] = c
	}
	return &cards, true
}

// describe names the made hand of a player who reached a full board.
func describe(board, pocket []string) (string, bool) {
	cards, ok := sevenCards(board, pocket)
	if !ok {
		return "", false
	}
	desc, err := poker.Describe(cards[:])
	if err != nil {
		return "", false
	}
	return desc, true
}

// bestSeat returns the seat holding the strongest seven-card hand, or 0 when
// no player can be evaluated or the best hands tie.
func bestSeat(h *hand.Cleaned) int {
	best, seat, tied := int16(-1), 0, false
	for _, p := range h.Players {
		cards, ok := sevenCards(h.Board, p.PocketCards)
		if !ok {
			continue
		}
		score := poker.Eval7(cards)
		switch {
		case score > best:
			best, seat, tied = score, p.Pos, false
		case score == best:
			tied = true
		}
	}
	if tied {
		return 0
	}
	return seat
}
