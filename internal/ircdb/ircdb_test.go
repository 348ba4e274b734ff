package ircdb

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	exampleSummary = "820830094  20  1163  2  2/20    2/40    2/80     2/80     Qc 4s 6s 5d 4d\n"
	exampleRoster  = "820830094  2 Jak num\n"
	exampleJak     = "Jak       820830094  2  1 Bc  kc    kc    k          850   40   80 7c Ac\n"
	exampleNum     = "num       820830094  2  2 Bk  b     b     k         1420   40    0 9h Kh\n"
	exampleID      = "holdem_199601_820830094"
)

func newTestAssembly(opts Options) *Assembly {
	return NewAssembly(filepath.Join("irc", "holdem", "199601"), opts, zerolog.Nop())
}

// assemble feeds the three file kinds into a fresh assembly and joins it.
func assemble(t *testing.T, opts Options, summary, roster string, players map[string]string) (*Assembly, []hand.Hand) {
	t.Helper()
	a := newTestAssembly(opts)
	require.NoError(t, a.ReadSummary(strings.NewReader(summary), SummaryFile))
	require.NoError(t, a.ReadRoster(strings.NewReader(roster), RosterFile))
	for user, data := range players {
		require.NoError(t, a.ReadPlayerFile(strings.NewReader(data), user))
	}
	return a, a.Join()
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"820830094", "2", "Jak", "num"}, Tokenize("820830094  2 Jak num\n"))
	assert.Equal(t, []string{"a", "b"}, Tokenize("\t a \t b  "))
	assert.Empty(t, Tokenize("   \n"))
}

func TestAssemblyPrefix(t *testing.T) {
	a := newTestAssembly(DefaultOptions())
	assert.Equal(t, "holdem", a.Game)
	assert.Equal(t, "199601", a.YearMonth)
	assert.Equal(t, exampleID, a.ID("820830094"))
}

func TestParsePot(t *testing.T) {
	tests := []struct {
		in      string
		players int
		size    int
		ok      bool
	}{
		{"2/20", 2, 20, true},
		{"10/1450", 10, 1450, true},
		{"0/0", 0, 0, true},
		{"2-20", 0, 0, false},
		{"2/20/3", 0, 0, false},
		{"x/20", 0, 0, false},
		{"2/", 0, 0, false},
	}
	for _, tt := range tests {
		players, size, ok := parsePot(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.players, players, tt.in)
		assert.Equal(t, tt.size, size, tt.in)
	}
}

func TestParseSummaryLine(t *testing.T) {
	t.Run("full board", func(t *testing.T) {
		h, err := parseSummaryLine("holdem", exampleID, Tokenize(exampleSummary))
		require.NoError(t, err)
		assert.Equal(t, 20, h.Dealer)
		assert.Equal(t, 1163, h.HandNum)
		assert.Equal(t, 2, h.NumPlayers)
		assert.Equal(t, []string{"Qc", "4s", "6s", "5d", "4d"}, h.Board)
		assert.Equal(t, hand.PotEntry{Stage: hand.StageRiver, NumPlayers: 2, Size: 80, Parsed: true}, h.Pots[2])
	})

	t.Run("hand ended preflop", func(t *testing.T) {
		h, err := parseSummaryLine("holdem", "x", Tokenize("820830100 1 1164 3 3/30 0/0 0/0 0/0"))
		require.NoError(t, err)
		assert.Empty(t, h.Board)
		assert.NotNil(t, h.Board)
		assert.Len(t, h.Pots, 4)
	})

	t.Run("malformed pot keeps stage", func(t *testing.T) {
		h, err := parseSummaryLine("holdem", "x", Tokenize("820830100 1 1164 3 3/30 bogus 0/0 0/0"))
		require.Error(t, err)
		require.NotNil(t, h)
		assert.Equal(t, hand.StageTurn, h.Pots[1].Stage)
		assert.False(t, h.Pots[1].Parsed)
		assert.True(t, h.Pots[2].Parsed)
	})

	errCases := map[string]string{
		"too few columns":  "820830100 1 1164 3 3/30 0/0 0/0",
		"bad timestamp":    "8208x0100 1 1164 3 3/30 0/0 0/0 0/0",
		"bad dealer":       "820830100 x 1164 3 3/30 0/0 0/0 0/0",
		"bad player count": "820830100 1 1164 y 3/30 0/0 0/0 0/0",
		"six board cards":  "820830100 1 1164 3 3/30 0/0 0/0 0/0 Ah Kh Qh Jh Th 9h",
	}
	for name, line := range errCases {
		t.Run(name, func(t *testing.T) {
			h, err := parseSummaryLine("holdem", "x", Tokenize(line))
			assert.Error(t, err)
			assert.Nil(t, h)
		})
	}
}

func TestParsePlayerLineColumns(t *testing.T) {
	t.Run("eleven columns has no pocket cards", func(t *testing.T) {
		line, err := parsePlayerLine("x", Tokenize("Jak 820830094 2 1 Bf - - - 850 5 0"))
		require.NoError(t, err)
		assert.Equal(t, []string{}, line.PocketCards)
		assert.Equal(t, []string{"B", "f"}, line.Bets[0].Actions)
		assert.Equal(t, []string{"-"}, line.Bets[1].Actions)
	})

	t.Run("thirteen columns has pocket cards", func(t *testing.T) {
		line, err := parsePlayerLine("x", Tokenize(exampleJak))
		require.NoError(t, err)
		assert.Equal(t, []string{"7c", "Ac"}, line.PocketCards)
		assert.Equal(t, 1, line.Pos)
		assert.Equal(t, 850, line.Bankroll)
		assert.Equal(t, 40, line.Action)
		assert.Equal(t, 80, line.Winnings)
		for i, stage := range hand.BetStages {
			assert.Equal(t, stage, line.Bets[i].Stage)
		}
	})

	for _, n := range []int{10, 12, 14} {
		cols := strings.Fields(exampleJak + " Kd")[:n]
		_, err := parsePlayerLine("x", cols)
		assert.Error(t, err, "%d columns", n)
	}

	_, err := parsePlayerLine("x", Tokenize("Jak 820830094 2 1 Bc kc kc k 850 forty 80 7c Ac"))
	assert.Error(t, err)
	_, err = parsePlayerLine("x", Tokenize("Jak 820830094 2 0 Bc kc kc k 850 40 80 7c Ac"))
	assert.Error(t, err)
}

func TestWorkedExample(t *testing.T) {
	a, hands := assemble(t, DefaultOptions(), exampleSummary, exampleRoster, map[string]string{
		"num": exampleNum,
		"Jak": exampleJak,
	})
	require.Len(t, hands, 1)
	assert.Equal(t, 0, a.Invalid().Len())

	h := hands[0]
	assert.Equal(t, exampleID, h.ID)
	assert.Equal(t, "holdem", h.Game)
	assert.Equal(t, []string{"Qc", "4s", "6s", "5d", "4d"}, h.Board)
	assert.Equal(t, hand.StageRiver, h.Pots[2].Stage)
	assert.Equal(t, 2, h.Pots[2].NumPlayers)
	assert.Equal(t, 80, h.Pots[2].Size)
	assert.Nil(t, h.Roster)

	require.Len(t, h.Players, 2)
	assert.Equal(t, "Jak", h.Players[0].User)
	assert.Equal(t, 1, h.Players[0].Pos)
	assert.Equal(t, 80, h.Players[0].Winnings)
	assert.Equal(t, "num", h.Players[1].User)
	assert.Equal(t, 2, h.Players[1].Pos)
	assert.Equal(t, 0, h.Players[1].Winnings)
	assert.Equal(t, []string{"B", "k"}, h.Players[1].Bets[0].Actions)
	assert.Equal(t, []string{"9h", "Kh"}, h.Players[1].PocketCards)

	stats := a.Stats()
	assert.Equal(t, 1, stats.SummaryLines)
	assert.Equal(t, 1, stats.RosterLines)
	assert.Equal(t, 2, stats.PlayerFiles)
	assert.Equal(t, 2, stats.PlayerLines)
}

func TestPlayerFileOrderDoesNotMatter(t *testing.T) {
	first := newTestAssembly(DefaultOptions())
	second := newTestAssembly(DefaultOptions())
	for _, a := range []*Assembly{first, second} {
		require.NoError(t, a.ReadSummary(strings.NewReader(exampleSummary), SummaryFile))
		require.NoError(t, a.ReadRoster(strings.NewReader(exampleRoster), RosterFile))
	}
	require.NoError(t, first.ReadPlayerFile(strings.NewReader(exampleJak), "Jak"))
	require.NoError(t, first.ReadPlayerFile(strings.NewReader(exampleNum), "num"))
	require.NoError(t, second.ReadPlayerFile(strings.NewReader(exampleNum), "num"))
	require.NoError(t, second.ReadPlayerFile(strings.NewReader(exampleJak), "Jak"))

	assert.Equal(t, first.Join(), second.Join())
}

func TestDroppedHandMissingPlayer(t *testing.T) {
	a, hands := assemble(t, DefaultOptions(), exampleSummary, exampleRoster, map[string]string{
		"Jak": exampleJak,
	})
	assert.Empty(t, hands)
	kind, ok := a.Invalid().Reason(exampleID)
	require.True(t, ok)
	assert.Equal(t, KindIncomplete, kind)
}

func TestDroppedHandWithoutPocketCards(t *testing.T) {
	folded := "num 820830094 2 2 Bf - - - 1420 10 0\n"
	players := map[string]string{"Jak": exampleJak, "num": folded}

	_, hands := assemble(t, DefaultOptions(), exampleSummary, exampleRoster, players)
	assert.Empty(t, hands)

	opts := DefaultOptions()
	opts.RequirePocketCards = false
	_, hands = assemble(t, opts, exampleSummary, exampleRoster, players)
	require.Len(t, hands, 1)
	assert.Equal(t, []string{}, hands[0].Players[1].PocketCards)
}

func TestMalformedPotInvalidatesOnlyThatHand(t *testing.T) {
	summary := exampleSummary + "820830200 3 1164 2 2/20 2/x 2/80 2/80 Ah 2c 3d 4s 5h\n"
	roster := exampleRoster + "820830200 2 Jak num\n"
	jak := exampleJak + "Jak 820830200 2 1 Bc k k k 800 40 0 2h 2d\n"
	num := exampleNum + "num 820830200 2 2 Bk k k k 1400 40 80 Kc Kd\n"

	a, hands := assemble(t, DefaultOptions(), summary, roster, map[string]string{"Jak": jak, "num": num})
	require.Len(t, hands, 1)
	assert.Equal(t, exampleID, hands[0].ID)

	kind, ok := a.Invalid().Reason("holdem_199601_820830200")
	require.True(t, ok)
	assert.Equal(t, KindStructural, kind)

	pending, ok := a.Hand("holdem_199601_820830200")
	require.True(t, ok)
	assert.False(t, pending.Pots[1].Parsed)
	assert.Equal(t, hand.StageTurn, pending.Pots[1].Stage)
}

func TestBadLinesDoNotStopFile(t *testing.T) {
	summary := "garbage\n\n" + exampleSummary
	a, hands := assemble(t, DefaultOptions(), summary, exampleRoster, map[string]string{
		"Jak": "Jak short line\n" + exampleJak,
		"num": exampleNum,
	})
	require.Len(t, hands, 1)
	stats := a.Stats()
	assert.Equal(t, 2, stats.SummaryLines)
	assert.Equal(t, 2, stats.LineFailures[KindStructural])
	assert.True(t, a.Invalid().Has("holdem_199601_garbage"))
}

func TestNonNumericTimestampIsStructural(t *testing.T) {
	const id = "holdem_199601_soon"
	summary := strings.Replace(exampleSummary, "820830094", "soon", 1)
	roster := strings.Replace(exampleRoster, "820830094", "soon", 1)
	a, hands := assemble(t, DefaultOptions(), summary, roster, map[string]string{
		"Jak": strings.Replace(exampleJak, "820830094", "soon", 1),
		"num": strings.Replace(exampleNum, "820830094", "soon", 1),
	})
	assert.Empty(t, hands)
	kind, ok := a.Invalid().Reason(id)
	require.True(t, ok)
	assert.Equal(t, KindStructural, kind)
}

func TestKindsOrder(t *testing.T) {
	var names []string
	for _, k := range Kinds {
		names = append(names, k.String())
	}
	assert.Equal(t, []string{"structural", "join", "duplicate", "incomplete"}, names)
}

func TestRosterJoinFailures(t *testing.T) {
	roster := exampleRoster + "999999999 2 Jak num\n" + "820830094 two Jak\n"
	a, _ := assemble(t, DefaultOptions(), exampleSummary, roster, nil)

	kind, ok := a.Invalid().Reason("holdem_199601_999999999")
	require.True(t, ok)
	assert.Equal(t, KindJoin, kind)

	kind, ok = a.Invalid().Reason(exampleID)
	require.True(t, ok)
	assert.Equal(t, KindStructural, kind)
}

func TestPlayerJoinFailures(t *testing.T) {
	t.Run("unknown hand", func(t *testing.T) {
		a, _ := assemble(t, DefaultOptions(), exampleSummary, exampleRoster, map[string]string{
			"Jak": "Jak 111111111 2 1 Bc kc kc k 850 40 80 7c Ac\n",
		})
		kind, _ := a.Invalid().Reason("holdem_199601_111111111")
		assert.Equal(t, KindJoin, kind)
	})

	t.Run("player not in roster", func(t *testing.T) {
		a, hands := assemble(t, DefaultOptions(), exampleSummary, exampleRoster, map[string]string{
			"Jak":      exampleJak,
			"num":      exampleNum,
			"stranger": "stranger 820830094 2 1 Bc kc kc k 850 40 80 7c Ac\n",
		})
		assert.Empty(t, hands)
		kind, _ := a.Invalid().Reason(exampleID)
		assert.Equal(t, KindJoin, kind)
	})

	t.Run("hand without roster", func(t *testing.T) {
		a, hands := assemble(t, DefaultOptions(), exampleSummary, "", map[string]string{"Jak": exampleJak})
		assert.Empty(t, hands)
		kind, _ := a.Invalid().Reason(exampleID)
		assert.Equal(t, KindJoin, kind)
	})
}

func TestDuplicateIDPolicies(t *testing.T) {
	summary := "820830094 1 1 2 2/20 2/40 2/80 2/80 Ac Kc Qc Jc Tc\n" + exampleSummary
	players := map[string]string{"Jak": exampleJak, "num": exampleNum}

	_, hands := assemble(t, DefaultOptions(), summary, exampleRoster, players)
	require.Len(t, hands, 1)
	assert.Equal(t, 1163, hands[0].HandNum, "last line wins")

	opts := DefaultOptions()
	opts.DuplicateIDs = DuplicateInvalidate
	a, hands := assemble(t, opts, summary, exampleRoster, players)
	assert.Empty(t, hands)
	kind, _ := a.Invalid().Reason(exampleID)
	assert.Equal(t, KindDuplicate, kind)
}

func TestStrictPlayerCount(t *testing.T) {
	roster := "820830094 3 Jak num\n"
	players := map[string]string{"Jak": exampleJak, "num": exampleNum}

	_, hands := assemble(t, DefaultOptions(), exampleSummary, roster, players)
	assert.Len(t, hands, 1, "permissive by default")

	opts := DefaultOptions()
	opts.StrictPlayerCount = true
	_, hands = assemble(t, opts, exampleSummary, roster, players)
	assert.Empty(t, hands)
}

func TestSeatOrderingAndRange(t *testing.T) {
	summary := "820830300 3 10 3 3/30 2/40 2/60 2/60 Ah 2c 3d 4s 5h\n"
	roster := "820830300 3 zed amy bob\n"
	players := map[string]string{
		"zed": "zed 820830300 3 1 Bc k k k 500 20 60 9c 9d\n",
		"amy": "amy 820830300 3 3 c k k k 500 20 0 2h 7d\n",
		"bob": "bob 820830300 3 2 Bk k k k 500 20 0 Jh Qd\n",
	}
	_, hands := assemble(t, DefaultOptions(), summary, roster, players)
	require.Len(t, hands, 1)
	var order []string
	for i, p := range hands[0].Players {
		order = append(order, p.User)
		assert.Equal(t, i+1, p.Pos)
	}
	assert.Equal(t, []string{"zed", "bob", "amy"}, order)

	players["amy"] = "amy 820830300 3 2 c k k k 500 20 0 2h 7d\n"
	_, hands = assemble(t, DefaultOptions(), summary, roster, players)
	assert.Empty(t, hands, "shared seat")

	players["amy"] = "amy 820830300 3 4 c k k k 500 20 0 2h 7d\n"
	_, hands = assemble(t, DefaultOptions(), summary, roster, players)
	assert.Empty(t, hands, "seat beyond table size")
}

func TestNormalizeNames(t *testing.T) {
	roster := "820830094 2 Jak|away num\n"
	jak := strings.Replace(exampleJak, "Jak ", "Jak_away ", 1)
	players := map[string]string{"Jak_away": jak, "num": exampleNum}

	_, hands := assemble(t, DefaultOptions(), exampleSummary, roster, players)
	assert.Empty(t, hands)

	opts := DefaultOptions()
	opts.NormalizeNames = true
	_, hands = assemble(t, opts, exampleSummary, roster, players)
	require.Len(t, hands, 1)
	assert.Equal(t, "Jak_away", hands[0].Players[0].User)
}

func TestLineErrorIs(t *testing.T) {
	err := error(&LineError{File: "hdb", Line: 3, ID: "x", Kind: KindJoin, Err: errors.New("boom")})
	assert.True(t, errors.Is(err, ErrJoin))
	assert.False(t, errors.Is(err, ErrStructural))
	assert.Contains(t, err.Error(), "hdb:3")

	var le *LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "join", le.Kind.String())
}

func TestUserFromPlayerFile(t *testing.T) {
	user, ok := UserFromPlayerFile("/data/holdem/199601/pdb/pdb.Jak")
	assert.True(t, ok)
	assert.Equal(t, "Jak", user)

	user, ok = UserFromPlayerFile("pdb.mr.smith")
	assert.True(t, ok)
	assert.Equal(t, "mr.smith", user)

	_, ok = UserFromPlayerFile("pdb.")
	assert.False(t, ok)
	_, ok = UserFromPlayerFile("README")
	assert.False(t, ok)
}

// writeGroup lays out a file group on disk under base/<game>/<yearmonth>.
func writeGroup(t *testing.T, base, game, yearMonth, summary, roster string, players map[string]string) string {
	t.Helper()
	dir := filepath.Join(base, game, yearMonth)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, PlayerDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SummaryFile), []byte(summary), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, RosterFile), []byte(roster), 0o644))
	for user, data := range players {
		require.NoError(t, os.WriteFile(filepath.Join(dir, PlayerDir, PlayerFilePrefix+user), []byte(data), 0o644))
	}
	return dir
}

func TestProcessGroup(t *testing.T) {
	base := t.TempDir()
	dir := writeGroup(t, base, "holdem", "199601", exampleSummary, exampleRoster, map[string]string{
		"Jak": exampleJak,
		"num": exampleNum,
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, PlayerDir, "notes.txt"), []byte("ignored"), 0o644))

	res, err := ProcessGroup(context.Background(), dir, DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "holdem", res.Game)
	assert.Equal(t, "199601", res.YearMonth)
	require.Len(t, res.Hands, 1)
	assert.Equal(t, exampleID, res.Hands[0].ID)
	assert.Equal(t, 0, res.Invalid)
	assert.Equal(t, 2, res.Stats.PlayerFiles)
}

func TestProcessGroupLogsDroppedIDs(t *testing.T) {
	base := t.TempDir()
	summary := exampleSummary + "820830200  1  1165  2  2/20 0/0 0/0 0/0\n" + "820830150  1  1166  2  2/20 0/0 0/0 0/0\n"
	dir := writeGroup(t, base, "holdem", "199601", summary, exampleRoster, map[string]string{
		"Jak": exampleJak,
		"num": exampleNum,
	})

	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.DebugLevel)
	res, err := ProcessGroup(context.Background(), dir, DefaultOptions(), logger)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Invalid)
	assert.Contains(t, logs.String(), `"hand_ids":["holdem_199601_820830150","holdem_199601_820830200"]`)

	logs.Reset()
	_, err = ProcessGroup(context.Background(), dir, DefaultOptions(), logger.Level(zerolog.InfoLevel))
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "hand_ids")
}

func TestProcessGroupMissingFile(t *testing.T) {
	base := t.TempDir()
	dir := writeGroup(t, base, "holdem", "199601", exampleSummary, exampleRoster, nil)
	require.NoError(t, os.Remove(filepath.Join(dir, RosterFile)))

	_, err := ProcessGroup(context.Background(), dir, DefaultOptions(), zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingFile)
}

func TestProcessGroupCancelled(t *testing.T) {
	base := t.TempDir()
	dir := writeGroup(t, base, "holdem", "199601", exampleSummary, exampleRoster, map[string]string{
		"Jak": exampleJak,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessGroup(ctx, dir, DefaultOptions(), zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}
