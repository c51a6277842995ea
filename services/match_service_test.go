package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chessarena/tournament-system/models"
)

type matchFixture struct {
	service         MatchService
	tournamentRepo  *fakeTournamentRepo
	inscriptionRepo *fakeInscriptionRepo
	matchRepo       *fakeMatchRepo
	userRepo        *fakeUserRepo
}

func newMatchFixture() *matchFixture {
	tournamentRepo := newFakeTournamentRepo()
	inscriptionRepo := newFakeInscriptionRepo()
	matchRepo := newFakeMatchRepo()
	userRepo := newFakeUserRepo()
	service := NewMatchService(tournamentRepo, inscriptionRepo, matchRepo, userRepo, nil, testLogger())
	return &matchFixture{
		service:         service,
		tournamentRepo:  tournamentRepo,
		inscriptionRepo: inscriptionRepo,
		matchRepo:       matchRepo,
		userRepo:        userRepo,
	}
}

// seed creates an ongoing tournament with two inscribed 1500-rated players
// and returns the tournament plus both user ids.
func (f *matchFixture) seed(t *testing.T) (*models.Tournament, int, int) {
	t.Helper()
	seeded := f.tournamentRepo.add(models.Tournament{
		Name:      "Rapid Night",
		Format:    models.FormatSwiss,
		Status:    models.StatusOngoing,
		StartDate: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC),
	})
	white := f.userRepo.add(models.User{FirstName: "Anna", Email: "anna@example.com", Role: models.RolePlayer, Rating: 1500})
	black := f.userRepo.add(models.User{FirstName: "Boris", Email: "boris@example.com", Role: models.RolePlayer, Rating: 1500})
	for _, id := range []int{white.ID, black.ID} {
		err := f.inscriptionRepo.Create(context.Background(), &models.Inscription{TournamentID: seeded.ID, UserID: id})
		if err != nil {
			t.Fatalf("failed to seed inscription: %v", err)
		}
	}
	return seeded, white.ID, black.ID
}

func TestCreateMatchValidation(t *testing.T) {
	t.Parallel()

	f := newMatchFixture()
	seeded, whiteID, blackID := f.seed(t)
	outsider := f.userRepo.add(models.User{FirstName: "Cleo", Email: "cleo@example.com", Role: models.RolePlayer, Rating: 1500})

	tests := []struct {
		name    string
		input   CreateMatchInput
		wantErr error
	}{
		{
			name:    "same player on both sides",
			input:   CreateMatchInput{TournamentID: seeded.ID, WhiteID: whiteID, BlackID: whiteID, Round: 1},
			wantErr: ErrMatchSamePlayer,
		},
		{
			name:    "round below one",
			input:   CreateMatchInput{TournamentID: seeded.ID, WhiteID: whiteID, BlackID: blackID, Round: 0},
			wantErr: ErrMatchInvalidRound,
		},
		{
			name:    "unknown tournament",
			input:   CreateMatchInput{TournamentID: 99, WhiteID: whiteID, BlackID: blackID, Round: 1},
			wantErr: ErrTournamentNotFound,
		},
		{
			name:    "player not inscribed",
			input:   CreateMatchInput{TournamentID: seeded.ID, WhiteID: whiteID, BlackID: outsider.ID, Round: 1},
			wantErr: ErrMatchPlayerNotInscribed,
		},
		{
			name:  "valid match",
			input: CreateMatchInput{TournamentID: seeded.ID, WhiteID: whiteID, BlackID: blackID, Round: 1},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			m, err := f.service.Create(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && m.Result != models.MatchNotStarted {
				t.Errorf("new match result = %q, want %q", m.Result, models.MatchNotStarted)
			}
		})
	}
}

func TestSubmitResultTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    models.MatchResult
		to      models.MatchResult
		wantErr error
	}{
		{name: "not started to ongoing", from: models.MatchNotStarted, to: models.MatchOngoing},
		{name: "not started straight to terminal", from: models.MatchNotStarted, to: models.MatchWhiteWins},
		{name: "ongoing to draw", from: models.MatchOngoing, to: models.MatchDraw},
		{name: "ongoing back to not started", from: models.MatchOngoing, to: models.MatchNotStarted, wantErr: ErrMatchResultBackwards},
		{name: "terminal is immutable", from: models.MatchWhiteWins, to: models.MatchDraw, wantErr: ErrMatchAlreadyFinished},
		{name: "terminal cannot restart", from: models.MatchDraw, to: models.MatchOngoing, wantErr: ErrMatchAlreadyFinished},
		{name: "unknown result", from: models.MatchNotStarted, to: "adjourned", wantErr: ErrMatchInvalidResult},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newMatchFixture()
			seeded, whiteID, blackID := f.seed(t)
			m := f.matchRepo.add(models.Match{TournamentID: seeded.ID, WhiteID: whiteID, BlackID: blackID, Round: 1, Result: tt.from})

			updated, err := f.service.SubmitResult(context.Background(), m.ID, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SubmitResult error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && updated.Result != tt.to {
				t.Errorf("result = %q, want %q", updated.Result, tt.to)
			}
		})
	}
}

func TestSubmitResultUpdatesRatings(t *testing.T) {
	t.Parallel()

	f := newMatchFixture()
	seeded, whiteID, blackID := f.seed(t)
	m := f.matchRepo.add(models.Match{TournamentID: seeded.ID, WhiteID: whiteID, BlackID: blackID, Round: 1, Result: models.MatchOngoing})

	if _, err := f.service.SubmitResult(context.Background(), m.ID, models.MatchWhiteWins); err != nil {
		t.Fatalf("SubmitResult returned error: %v", err)
	}

	white, _ := f.userRepo.GetByID(context.Background(), whiteID)
	black, _ := f.userRepo.GetByID(context.Background(), blackID)
	if white.Rating != 1520 {
		t.Errorf("white rating = %d, want 1520", white.Rating)
	}
	if black.Rating != 1480 {
		t.Errorf("black rating = %d, want 1480", black.Rating)
	}
}

func TestSubmitResultOngoingDoesNotTouchRatings(t *testing.T) {
	t.Parallel()

	f := newMatchFixture()
	seeded, whiteID, blackID := f.seed(t)
	m := f.matchRepo.add(models.Match{TournamentID: seeded.ID, WhiteID: whiteID, BlackID: blackID, Round: 1, Result: models.MatchNotStarted})

	if _, err := f.service.SubmitResult(context.Background(), m.ID, models.MatchOngoing); err != nil {
		t.Fatalf("SubmitResult returned error: %v", err)
	}

	white, _ := f.userRepo.GetByID(context.Background(), whiteID)
	if white.Rating != 1500 {
		t.Errorf("rating changed on a non-terminal result: %d", white.Rating)
	}
}

func TestSubmitResultSurvivesRatingFailure(t *testing.T) {
	t.Parallel()

	f := newMatchFixture()
	seeded, whiteID, blackID := f.seed(t)
	m := f.matchRepo.add(models.Match{TournamentID: seeded.ID, WhiteID: whiteID, BlackID: blackID, Round: 1, Result: models.MatchOngoing})

	f.userRepo.ratingErr = errors.New("ratings table unavailable")

	updated, err := f.service.SubmitResult(context.Background(), m.ID, models.MatchBlackWins)
	if err != nil {
		t.Fatalf("SubmitResult must not fail on a rating error, got: %v", err)
	}
	if updated.Result != models.MatchBlackWins {
		t.Errorf("result = %q, want %q", updated.Result, models.MatchBlackWins)
	}

	// The committed result stands even though ratings were not applied.
	stored, _ := f.matchRepo.GetByID(context.Background(), m.ID)
	if stored.Result != models.MatchBlackWins {
		t.Errorf("stored result = %q, want %q", stored.Result, models.MatchBlackWins)
	}
	white, _ := f.userRepo.GetByID(context.Background(), whiteID)
	if white.Rating != 1500 {
		t.Errorf("rating = %d, want untouched 1500", white.Rating)
	}
}

func TestDeleteMatchOnlyBeforeStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		result  models.MatchResult
		wantErr error
	}{
		{models.MatchNotStarted, nil},
		{models.MatchOngoing, ErrMatchDeleteStarted},
		{models.MatchWhiteWins, ErrMatchDeleteStarted},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.result), func(t *testing.T) {
			t.Parallel()

			f := newMatchFixture()
			seeded, whiteID, blackID := f.seed(t)
			m := f.matchRepo.add(models.Match{TournamentID: seeded.ID, WhiteID: whiteID, BlackID: blackID, Round: 1, Result: tt.result})

			err := f.service.Delete(context.Background(), m.ID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
