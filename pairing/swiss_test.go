package pairing

import (
	"context"
	"testing"

	"github.com/chessarena/tournament-system/models"
)

func inscriptionList(userIDs ...int) []*models.Inscription {
	list := make([]*models.Inscription, 0, len(userIDs))
	for i, id := range userIDs {
		list = append(list, &models.Inscription{ID: i + 1, TournamentID: 1, UserID: id})
	}
	return list
}

func pairSet(t *testing.T, matches []*models.Match) map[[2]int]bool {
	t.Helper()
	set := make(map[[2]int]bool, len(matches))
	for _, m := range matches {
		a, b := m.WhiteID, m.BlackID
		if a > b {
			a, b = b, a
		}
		set[[2]int{a, b}] = true
	}
	return set
}

func TestSwissFirstRoundPairsByRegistrationOrder(t *testing.T) {
	t.Parallel()

	g := NewSwissGenerator()
	matches, err := g.GenerateRound(context.Background(), GenerateRoundParams{
		Tournament:   &models.Tournament{ID: 1},
		Inscriptions: inscriptionList(10, 20, 30, 40),
		Round:        1,
	})
	if err != nil {
		t.Fatalf("GenerateRound returned error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}

	// No history: everyone is on zero points, so registration order holds.
	pairs := pairSet(t, matches)
	if !pairs[[2]int{10, 20}] || !pairs[[2]int{30, 40}] {
		t.Errorf("unexpected pairs: %v", pairs)
	}
	for _, m := range matches {
		if m.Round != 1 {
			t.Errorf("match round = %d, want 1", m.Round)
		}
		if m.Result != models.MatchNotStarted {
			t.Errorf("match result = %q, want %q", m.Result, models.MatchNotStarted)
		}
	}
}

func TestSwissSecondRoundAvoidsRematches(t *testing.T) {
	t.Parallel()

	history := []*models.Match{
		{TournamentID: 1, WhiteID: 10, BlackID: 20, Round: 1, Result: models.MatchWhiteWins},
		{TournamentID: 1, WhiteID: 30, BlackID: 40, Round: 1, Result: models.MatchWhiteWins},
	}

	g := NewSwissGenerator()
	matches, err := g.GenerateRound(context.Background(), GenerateRoundParams{
		Tournament:   &models.Tournament{ID: 1},
		Inscriptions: inscriptionList(10, 20, 30, 40),
		Matches:      history,
		Round:        2,
	})
	if err != nil {
		t.Fatalf("GenerateRound returned error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}

	// Winners meet winners and losers meet losers.
	pairs := pairSet(t, matches)
	if !pairs[[2]int{10, 30}] || !pairs[[2]int{20, 40}] {
		t.Errorf("unexpected pairs: %v", pairs)
	}
}

func TestSwissWhiteGoesToHigherStanding(t *testing.T) {
	t.Parallel()

	history := []*models.Match{
		{TournamentID: 1, WhiteID: 10, BlackID: 20, Round: 1, Result: models.MatchBlackWins},
		{TournamentID: 1, WhiteID: 30, BlackID: 40, Round: 1, Result: models.MatchBlackWins},
	}

	g := NewSwissGenerator()
	matches, err := g.GenerateRound(context.Background(), GenerateRoundParams{
		Tournament:   &models.Tournament{ID: 1},
		Inscriptions: inscriptionList(10, 20, 30, 40),
		Matches:      history,
		Round:        2,
	})
	if err != nil {
		t.Fatalf("GenerateRound returned error: %v", err)
	}

	// 20 and 40 lead on one point each; 20 registered earlier so it tops
	// the standings and takes white against 40.
	if matches[0].WhiteID != 20 || matches[0].BlackID != 40 {
		t.Errorf("top match = %d vs %d, want 20 vs 40", matches[0].WhiteID, matches[0].BlackID)
	}
}

func TestSwissFallsBackToRematchWhenForced(t *testing.T) {
	t.Parallel()

	history := []*models.Match{
		{TournamentID: 1, WhiteID: 10, BlackID: 20, Round: 1, Result: models.MatchWhiteWins},
	}

	g := NewSwissGenerator()
	matches, err := g.GenerateRound(context.Background(), GenerateRoundParams{
		Tournament:   &models.Tournament{ID: 1},
		Inscriptions: inscriptionList(10, 20),
		Matches:      history,
		Round:        2,
	})
	if err != nil {
		t.Fatalf("GenerateRound returned error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1 forced rematch", len(matches))
	}
	pairs := pairSet(t, matches)
	if !pairs[[2]int{10, 20}] {
		t.Errorf("unexpected pair: %v", pairs)
	}
}

func TestSwissOddRosterLeavesOnePlayerUnmatched(t *testing.T) {
	t.Parallel()

	g := NewSwissGenerator()
	matches, err := g.GenerateRound(context.Background(), GenerateRoundParams{
		Tournament:   &models.Tournament{ID: 1},
		Inscriptions: inscriptionList(10, 20, 30, 40, 50),
		Round:        1,
	})
	if err != nil {
		t.Fatalf("GenerateRound returned error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}

	seen := make(map[int]int)
	for _, m := range matches {
		seen[m.WhiteID]++
		seen[m.BlackID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("player %d appears in %d matches, want 1", id, n)
		}
	}
	if seen[50] != 0 {
		t.Error("tail player 50 should sit out this round")
	}
}

func TestSwissRejectsBadInput(t *testing.T) {
	t.Parallel()

	g := NewSwissGenerator()

	if _, err := g.GenerateRound(context.Background(), GenerateRoundParams{
		Tournament:   &models.Tournament{ID: 1},
		Inscriptions: inscriptionList(10, 20),
		Round:        0,
	}); err == nil {
		t.Error("expected error for round 0")
	}

	if _, err := g.GenerateRound(context.Background(), GenerateRoundParams{
		Tournament:   &models.Tournament{ID: 1},
		Inscriptions: inscriptionList(10),
		Round:        1,
	}); err == nil {
		t.Error("expected error for a single participant")
	}
}
