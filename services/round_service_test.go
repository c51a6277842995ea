package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chessarena/tournament-system/models"
)

type roundFixture struct {
	service         RoundService
	tournamentRepo  *fakeTournamentRepo
	inscriptionRepo *fakeInscriptionRepo
	matchRepo       *fakeMatchRepo
}

func newRoundFixture() *roundFixture {
	tournamentRepo := newFakeTournamentRepo()
	inscriptionRepo := newFakeInscriptionRepo()
	matchRepo := newFakeMatchRepo()
	service := NewRoundService(fakeTxRunner{}, tournamentRepo, inscriptionRepo, matchRepo, nil, testLogger())
	return &roundFixture{
		service:         service,
		tournamentRepo:  tournamentRepo,
		inscriptionRepo: inscriptionRepo,
		matchRepo:       matchRepo,
	}
}

func (f *roundFixture) seed(t *testing.T, status models.TournamentStatus, format models.TournamentFormat, totalRounds *int, players int) *models.Tournament {
	t.Helper()
	seeded := f.tournamentRepo.add(models.Tournament{
		Name:        "Club Swiss",
		Format:      format,
		Status:      status,
		StartDate:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC),
		TotalRounds: totalRounds,
	})
	for i := 1; i <= players; i++ {
		err := f.inscriptionRepo.Create(context.Background(), &models.Inscription{TournamentID: seeded.ID, UserID: i})
		if err != nil {
			t.Fatalf("failed to seed inscription: %v", err)
		}
	}
	return seeded
}

func TestGenerateRoundPreconditions(t *testing.T) {
	t.Parallel()

	t.Run("tournament must exist", func(t *testing.T) {
		t.Parallel()
		f := newRoundFixture()
		_, err := f.service.GenerateRound(context.Background(), 99)
		if !errors.Is(err, ErrTournamentNotFound) {
			t.Errorf("error = %v, want ErrTournamentNotFound", err)
		}
	})

	t.Run("tournament must be ongoing", func(t *testing.T) {
		t.Parallel()
		f := newRoundFixture()
		seeded := f.seed(t, models.StatusUpcoming, models.FormatSwiss, nil, 4)
		_, err := f.service.GenerateRound(context.Background(), seeded.ID)
		if !errors.Is(err, ErrTournamentNotOngoing) {
			t.Errorf("error = %v, want ErrTournamentNotOngoing", err)
		}
	})

	t.Run("needs at least two players", func(t *testing.T) {
		t.Parallel()
		f := newRoundFixture()
		seeded := f.seed(t, models.StatusOngoing, models.FormatSwiss, nil, 1)
		_, err := f.service.GenerateRound(context.Background(), seeded.ID)
		if !errors.Is(err, ErrRoundNotEnoughPlayers) {
			t.Errorf("error = %v, want ErrRoundNotEnoughPlayers", err)
		}
	})
}

func TestGenerateFirstRoundDerivesTotalRounds(t *testing.T) {
	t.Parallel()

	f := newRoundFixture()
	seeded := f.seed(t, models.StatusOngoing, models.FormatSwiss, nil, 4)

	matches, err := f.service.GenerateRound(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("GenerateRound returned error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}

	// ceil(log2(4)) = 2 rounds for a 4-player swiss.
	got, _ := f.tournamentRepo.GetByID(context.Background(), seeded.ID)
	if got.TotalRounds == nil || *got.TotalRounds != 2 {
		t.Errorf("derived total rounds = %v, want 2", got.TotalRounds)
	}

	persisted, _ := f.matchRepo.ListByTournament(context.Background(), seeded.ID, nil, nil)
	if len(persisted) != 2 {
		t.Errorf("persisted %d matches, want 2", len(persisted))
	}
}

func TestGenerateRoundDerivesRoundRobinCount(t *testing.T) {
	t.Parallel()

	f := newRoundFixture()
	seeded := f.seed(t, models.StatusOngoing, models.FormatRoundRobin, nil, 4)

	if _, err := f.service.GenerateRound(context.Background(), seeded.ID); err != nil {
		t.Fatalf("GenerateRound returned error: %v", err)
	}

	got, _ := f.tournamentRepo.GetByID(context.Background(), seeded.ID)
	if got.TotalRounds == nil || *got.TotalRounds != 3 {
		t.Errorf("derived total rounds = %v, want 3 for a 4-player round robin", got.TotalRounds)
	}
}

func TestGenerateRoundWaitsForPriorRound(t *testing.T) {
	t.Parallel()

	f := newRoundFixture()
	seeded := f.seed(t, models.StatusOngoing, models.FormatSwiss, nil, 4)

	if _, err := f.service.GenerateRound(context.Background(), seeded.ID); err != nil {
		t.Fatalf("round 1 generation failed: %v", err)
	}

	_, err := f.service.GenerateRound(context.Background(), seeded.ID)
	if !errors.Is(err, ErrRoundPriorRoundPending) {
		t.Fatalf("error = %v, want ErrRoundPriorRoundPending", err)
	}

	// Settle round 1 and the next round becomes available.
	round1, _ := f.matchRepo.ListByTournament(context.Background(), seeded.ID, nil, nil)
	for _, m := range round1 {
		if err := f.matchRepo.UpdateResult(context.Background(), nil, m.ID, models.MatchWhiteWins); err != nil {
			t.Fatalf("failed to settle match: %v", err)
		}
	}

	matches, err := f.service.GenerateRound(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("round 2 generation failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("round 2 produced %d matches, want 2", len(matches))
	}
	for _, m := range matches {
		if m.Round != 2 {
			t.Errorf("match round = %d, want 2", m.Round)
		}
	}
}

func TestGenerateRoundStopsAtConfiguredLimit(t *testing.T) {
	t.Parallel()

	one := 1
	f := newRoundFixture()
	seeded := f.seed(t, models.StatusOngoing, models.FormatSwiss, &one, 4)

	if _, err := f.service.GenerateRound(context.Background(), seeded.ID); err != nil {
		t.Fatalf("round 1 generation failed: %v", err)
	}

	round1, _ := f.matchRepo.ListByTournament(context.Background(), seeded.ID, nil, nil)
	for _, m := range round1 {
		if err := f.matchRepo.UpdateResult(context.Background(), nil, m.ID, models.MatchDraw); err != nil {
			t.Fatalf("failed to settle match: %v", err)
		}
	}

	_, err := f.service.GenerateRound(context.Background(), seeded.ID)
	if !errors.Is(err, ErrRoundLimitReached) {
		t.Errorf("error = %v, want ErrRoundLimitReached", err)
	}
}
