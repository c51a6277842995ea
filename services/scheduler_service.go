package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/chessarena/tournament-system/live"
	"github.com/chessarena/tournament-system/models"
	"github.com/chessarena/tournament-system/repositories"
)

// DefaultSweepInterval is how often the scheduler re-evaluates tournament
// states. A sweep is assumed to be much shorter than the interval, so a
// single ticker goroutine is enough to prevent overlapping sweeps.
const DefaultSweepInterval = time.Hour

// Clock abstracts wall-clock time so tests can drive the scheduler
// deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SchedulerService promotes tournaments across state boundaries based on
// wall-clock time and match completion. It owns its own start/stop
// lifecycle; tests call CheckTournamentStates directly instead of waiting
// on real intervals.
type SchedulerService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	hub            *live.Hub
	logger         *slog.Logger
	clock          Clock
	interval       time.Duration
	stop           chan struct{}
	done           chan struct{}
}

func NewSchedulerService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	hub *live.Hub,
	logger *slog.Logger,
	clock Clock,
	interval time.Duration,
) *SchedulerService {
	if clock == nil {
		clock = systemClock{}
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SchedulerService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		hub:            hub,
		logger:         logger,
		clock:          clock,
		interval:       interval,
	}
}

// Start launches the sweep loop: one run immediately, then one per
// interval. Calling Start twice without Stop is a programming error.
func (s *SchedulerService) Start() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("lifecycle scheduler started", slog.Duration("interval", s.interval))
		s.runSweep()

		for {
			select {
			case <-ticker.C:
				s.runSweep()
			case <-s.stop:
				s.logger.Info("lifecycle scheduler stopped")
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to exit.
func (s *SchedulerService) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}

func (s *SchedulerService) runSweep() {
	if err := s.CheckTournamentStates(context.Background()); err != nil {
		s.logger.Error("scheduler sweep failed", slog.Any("error", err))
	}
}

// CheckTournamentStates performs one sweep: upcoming tournaments whose
// start date has elapsed become ongoing, and ongoing tournaments meeting
// the finish criteria become finished. Each tournament is an independent
// unit; one failure never aborts the rest of the sweep.
func (s *SchedulerService) CheckTournamentStates(ctx context.Context) error {
	now := s.clock.Now()

	tournaments, err := s.tournamentRepo.ListForStatusSweep(ctx, now)
	if err != nil {
		return err
	}

	for _, t := range tournaments {
		if err := s.evaluate(ctx, t, now); err != nil {
			s.logger.Error("scheduler failed to evaluate tournament",
				slog.Int("tournament_id", t.ID),
				slog.Any("error", err))
		}
	}
	return nil
}

func (s *SchedulerService) evaluate(ctx context.Context, t *models.Tournament, now time.Time) error {
	switch t.Status {
	case models.StatusUpcoming:
		// The sweep query only returns upcoming tournaments past their
		// start date, so promotion is unconditional here. Unlike a manual
		// start, no participant-count gate applies.
		return s.promote(ctx, t, models.StatusOngoing)

	case models.StatusOngoing:
		finished, err := s.shouldFinish(ctx, t, now)
		if err != nil {
			return err
		}
		if finished {
			return s.promote(ctx, t, models.StatusFinished)
		}
	}
	return nil
}

// shouldFinish decides whether an ongoing tournament is over: either its
// end date has elapsed, or every generated match is terminal and the
// configured round count (when any) has been fully played.
func (s *SchedulerService) shouldFinish(ctx context.Context, t *models.Tournament, now time.Time) (bool, error) {
	if !now.Before(t.EndDate) {
		return true, nil
	}

	matches, err := s.matchRepo.ListByTournament(ctx, t.ID, nil, nil)
	if err != nil {
		return false, err
	}
	if len(matches) == 0 {
		// Nothing generated yet; completion cannot be judged.
		return false, nil
	}

	maxRound := 0
	for _, m := range matches {
		if !m.Result.Terminal() {
			return false, nil
		}
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}
	if t.TotalRounds != nil && maxRound != *t.TotalRounds {
		return false, nil
	}
	return true, nil
}

func (s *SchedulerService) promote(ctx context.Context, t *models.Tournament, to models.TournamentStatus) error {
	if err := validateStatusTransition(t.Status, to); err != nil {
		return err
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, to); err != nil {
		return err
	}
	t.Status = to
	s.logger.Info("scheduler promoted tournament",
		slog.Int("tournament_id", t.ID),
		slog.String("status", string(to)))
	if s.hub != nil {
		s.hub.BroadcastToTournament(t.ID, live.EventStatusChanged, t)
	}
	return nil
}
