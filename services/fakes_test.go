package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/chessarena/tournament-system/models"
	"github.com/chessarena/tournament-system/repositories"
)

// In-memory repository fakes. They mirror the postgres implementations'
// sentinel errors and ordering guarantees closely enough for the service
// layer to be exercised without a database.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	mu        sync.Mutex
	seq       int
	users     map[int]*models.User
	history   map[int]bool
	ratingErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[int]*models.User),
		history: make(map[int]bool),
	}
}

func (r *fakeUserRepo) add(u models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	u.ID = r.seq
	r.users[u.ID] = &u
	copy := u
	return &copy
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	r.seq++
	user.ID = r.seq
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) UpdateRating(ctx context.Context, exec repositories.SQLExecutor, id, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ratingErr != nil {
		return r.ratingErr
	}
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Rating = rating
	return nil
}

func (r *fakeUserRepo) HasHistory(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[id], nil
}

func (r *fakeUserRepo) FirstAdmin(ctx context.Context, excludeID int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var admin *models.User
	for _, u := range r.users {
		if u.ID == excludeID || u.Role != models.RoleAdmin || u.Deleted {
			continue
		}
		if admin == nil || u.ID < admin.ID {
			admin = u
		}
	}
	if admin == nil {
		return nil, repositories.ErrUserNotFound
	}
	copy := *admin
	return &copy, nil
}

func (r *fakeUserRepo) Anonymize(ctx context.Context, exec repositories.SQLExecutor, id int, name, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.FirstName = name
	u.LastName = ""
	u.Email = email
	u.PasswordHash = ""
	u.Deleted = true
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = avatarKey
	return nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	seq         int
	tournaments map[int]*models.Tournament
	statusErr   map[int]error
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		tournaments: make(map[int]*models.Tournament),
		statusErr:   make(map[int]error),
	}
}

func (r *fakeTournamentRepo) add(t models.Tournament) *models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = r.seq
	r.tournaments[t.ID] = &t
	copy := t
	return &copy
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = r.seq
	stored := *t
	r.tournaments[t.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copy := *t
	return &copy, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Format != nil && t.Format != *filter.Format {
			continue
		}
		if filter.CreatorID != nil && (t.CreatorID == nil || *t.CreatorID != *filter.CreatorID) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	stored := *t
	r.tournaments[t.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.statusErr[id]; err != nil {
		return err
	}
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateTotalRounds(ctx context.Context, exec repositories.SQLExecutor, id, totalRounds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.TotalRounds = &totalRounds
	return nil
}

func (r *fakeTournamentRepo) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BannerKey = bannerKey
	return nil
}

func (r *fakeTournamentRepo) TransferOwnership(ctx context.Context, exec repositories.SQLExecutor, fromUserID int, toUserID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tournaments {
		if t.CreatorID != nil && *t.CreatorID == fromUserID {
			t.CreatorID = toUserID
		}
	}
	return nil
}

func (r *fakeTournamentRepo) ListForStatusSweep(ctx context.Context, currentTime time.Time) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.tournaments {
		upcoming := t.Status == models.StatusUpcoming && !t.StartDate.After(currentTime)
		if upcoming || t.Status == models.StatusOngoing {
			copy := *t
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakeInscriptionRepo struct {
	mu           sync.Mutex
	seq          int
	inscriptions map[int]*models.Inscription
}

func newFakeInscriptionRepo() *fakeInscriptionRepo {
	return &fakeInscriptionRepo{inscriptions: make(map[int]*models.Inscription)}
}

func (r *fakeInscriptionRepo) Create(ctx context.Context, i *models.Inscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.inscriptions {
		if existing.TournamentID == i.TournamentID && existing.UserID == i.UserID {
			return repositories.ErrInscriptionConflict
		}
	}
	r.seq++
	i.ID = r.seq
	i.CreatedAt = time.Now()
	stored := *i
	r.inscriptions[i.ID] = &stored
	return nil
}

func (r *fakeInscriptionRepo) GetByID(ctx context.Context, id int) (*models.Inscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.inscriptions[id]
	if !ok {
		return nil, repositories.ErrInscriptionNotFound
	}
	copy := *i
	return &copy, nil
}

func (r *fakeInscriptionRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Inscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Inscription
	for _, i := range r.inscriptions {
		if i.TournamentID == tournamentID {
			copy := *i
			out = append(out, &copy)
		}
	}
	// Registration order matches insertion order because IDs are sequential.
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (r *fakeInscriptionRepo) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	list, _ := r.ListByTournament(ctx, tournamentID)
	return len(list), nil
}

func (r *fakeInscriptionRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inscriptions[id]; !ok {
		return repositories.ErrInscriptionNotFound
	}
	delete(r.inscriptions, id)
	return nil
}

func (r *fakeInscriptionRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, i := range r.inscriptions {
		if i.TournamentID == tournamentID {
			delete(r.inscriptions, id)
		}
	}
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	seq     int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) add(m models.Match) *models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = r.seq
	r.matches[m.ID] = &m
	copy := m
	return &copy
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = r.seq
	stored := *m
	r.matches[m.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copy := *m
	return &copy, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, round *int, result *models.MatchResult) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if result != nil && m.Result != *result {
			continue
		}
		copy := *m
		out = append(out, &copy)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Round != out[b].Round {
			return out[a].Round < out[b].Round
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (r *fakeMatchRepo) MaxRound(ctx context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.Round > max {
			max = m.Round
		}
	}
	return max, nil
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id int, result models.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Result = result
	return nil
}

func (r *fakeMatchRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

func (r *fakeMatchRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.matches {
		if m.TournamentID == tournamentID {
			delete(r.matches, id)
		}
	}
	return nil
}
