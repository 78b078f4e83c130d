// Package memory - хранилище в памяти с той же семантикой, что и gorm-реализация.
// Используется в тестах и при database.driver=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
)

type state struct {
	users         map[string]*models.User
	otps          map[string]*models.OTPCode // по email
	profiles      map[string]*models.Profile // по user_id
	projects      map[string]*models.Project
	applications  map[string]*models.Application
	notifications map[string]*models.Notification
	revoked       map[string]*models.RevokedToken
}

func newState() *state {
	return &state{
		users:         map[string]*models.User{},
		otps:          map[string]*models.OTPCode{},
		profiles:      map[string]*models.Profile{},
		projects:      map[string]*models.Project{},
		applications:  map[string]*models.Application{},
		notifications: map[string]*models.Notification{},
		revoked:       map[string]*models.RevokedToken{},
	}
}

// snapshot - копия для отката транзакции
func (s *state) snapshot() *state {
	cp := newState()
	for k, v := range s.users {
		u := *v
		cp.users[k] = &u
	}
	for k, v := range s.otps {
		o := *v
		cp.otps[k] = &o
	}
	for k, v := range s.profiles {
		cp.profiles[k] = v.Clone()
	}
	for k, v := range s.projects {
		cp.projects[k] = v.Clone()
	}
	for k, v := range s.applications {
		a := *v
		cp.applications[k] = &a
	}
	for k, v := range s.notifications {
		n := *v
		cp.notifications[k] = &n
	}
	for k, v := range s.revoked {
		r := *v
		cp.revoked[k] = &r
	}
	return cp
}

// Store - один мьютекс на все хранилище; транзакция держит его целиком
type Store struct {
	mu   *sync.Mutex
	data **state
	inTx bool
}

var _ repositories.Store = (*Store)(nil)

func NewStore() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, data: &st}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) st() *state { return *s.data }

func (s *Store) Users() repositories.UserRepository                 { return &userRepo{s} }
func (s *Store) OTPs() repositories.OTPRepository                   { return &otpRepo{s} }
func (s *Store) Profiles() repositories.ProfileRepository           { return &profileRepo{s} }
func (s *Store) Projects() repositories.ProjectRepository           { return &projectRepo{s} }
func (s *Store) Applications() repositories.ApplicationRepository   { return &applicationRepo{s} }
func (s *Store) Notifications() repositories.NotificationRepository { return &notificationRepo{s} }
func (s *Store) RevokedTokens() repositories.RevokedTokenRepository { return &revokedRepo{s} }

// WithTx откатывает все изменения, если fn вернула ошибку
func (s *Store) WithTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.st().snapshot()
	tx := &Store{mu: s.mu, data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = backup
		return err
	}
	return nil
}

func touch(m *models.BaseModel) {
	now := time.Now()
	m.EnsureID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

func paginate[T any](items []T, page repositories.Pagination) []T {
	if page.Limit <= 0 {
		return items
	}
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// newestFirst - сортировка по created_at DESC с детерминированным tie-break
func newestFirst[T any](items []T, created func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := created(items[i])
		tj, idj := created(items[j])
		if ti.Equal(tj) {
			return idi > idj
		}
		return ti.After(tj)
	})
}
