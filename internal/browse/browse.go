// Package browse renders cleaned hands as a human readable terminal listing.
package browse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
)

const width = 60

// Browser writes hands to a terminal.
type Browser struct {
	w      io.Writer
	label  lipgloss.Style
	player lipgloss.Style
	best   lipgloss.Style
}

// New creates a browser writing to w. Colours are only emitted when w is a
// terminal that supports them.
func New(w io.Writer) *Browser {
	r := lipgloss.NewRenderer(w)
	return &Browser{
		w:      w,
		label:  r.NewStyle().Foreground(lipgloss.Color("2")).Width(7).Align(lipgloss.Right),
		player: r.NewStyle().Foreground(lipgloss.Color("1")).Width(width).Align(lipgloss.Center),
		best:   r.NewStyle().Bold(true),
	}
}

// Render prints one hand.
func (b *Browser) Render(h *hand.Cleaned) error {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("#", width) + "\n")
	fmt.Fprintf(&sb, "%s : %d   %s : %d\n", b.label.Render("time"), h.Time, b.label.Render("id"), h.ID)
	fmt.Fprintf(&sb, "%s : %s (%s)\n", b.label.Render("game"), h.Game, formatCards(h.Board))
	fmt.Fprintf(&sb, "%s : %s\n", b.label.Render("pots"), formatPots(h.Pots))
	fmt.Fprintf(&sb, "%s :\n", b.label.Render("players"))

	winner := bestSeat(h)
	for i, p := range h.Players {
		header := fmt.Sprintf("%s (#%d)", p.User, p.Pos)
		sb.WriteString(b.player.Render(header) + "\n")
		fmt.Fprintf(&sb, "  bankroll %d  action %d  winnings %d\n", p.Bankroll, p.Action, p.Winnings)
		fmt.Fprintf(&sb, "  bets     %s\n", formatBets(p.Bets))
		fmt.Fprintf(&sb, "  cards    %s", formatCards(p.PocketCards))
		if desc, ok := describe(h.Board, p.PocketCards); ok {
			if p.Pos == winner {
				desc = b.best.Render(desc + " *")
			}
			fmt.Fprintf(&sb, "  %s", desc)
		}
		sb.WriteString("\n")

		if i < len(h.Players)-1 {
			sb.WriteString(strings.Repeat("· ", width/2) + "\n")
		} else {
			sb.WriteString(strings.Repeat("##", width/2) + "\n")
		}
	}

	_, err := io.WriteString(b.w, sb.String())
	return err
}

// RenderAll prints up to limit hands read from r (0 means all) and returns how
// many were printed.
func (b *Browser) RenderAll(ctx context.Context, r io.Reader, limit int) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	n := 0
	for scanner.Scan() {
		if limit > 0 && n >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var h hand.Cleaned
		if err := json.Unmarshal(line, &h); err != nil {
			return n, fmt.Errorf("decode hand %d: %w", n+1, err)
		}
		if err := b.Render(&h); err != nil {
			return n, err
		}
		n++
	}
	return n, scanner.Err()
}

func formatCards(cards []string) string {
	if len(cards) == 0 {
		return "-"
	}
	return strings.Join(cards, " ")
}

func formatPots(pots [4]hand.PotEntry) string {
	parts := make([]string, len(pots))
	for i, p := range pots {
		parts[i] = fmt.Sprintf("%s(%d,%d)", p.Stage, p.NumPlayers, p.Size)
	}
	return strings.Join(parts, " ")
}

func formatBets(bets [4]hand.BetRound) string {
	parts := make([]string, len(bets))
	for i, b := range bets {
		parts[i] = fmt.Sprintf("%s[%s]", b.Stage, strings.Join(b.Actions, ""))
	}
	return strings.Join(parts, " ")
}
