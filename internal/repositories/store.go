package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict - условное обновление не затронуло ни одной строки
	ErrConflict = errors.New("concurrent modification")
)

// Store - единая точка доступа к репозиториям.
// WithTx выполняет fn в транзакции; fn получает Store, привязанный к ней.
type Store interface {
	Users() UserRepository
	OTPs() OTPRepository
	Profiles() ProfileRepository
	Projects() ProjectRepository
	Applications() ApplicationRepository
	Notifications() NotificationRepository
	RevokedTokens() RevokedTokenRepository

	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// Pagination - page начинается с 1
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Users() UserRepository                 { return NewUserRepository(s.db) }
func (s *GormStore) OTPs() OTPRepository                   { return NewOTPRepository(s.db) }
func (s *GormStore) Profiles() ProfileRepository           { return NewProfileRepository(s.db) }
func (s *GormStore) Projects() ProjectRepository           { return NewProjectRepository(s.db) }
func (s *GormStore) Applications() ApplicationRepository   { return NewApplicationRepository(s.db) }
func (s *GormStore) Notifications() NotificationRepository { return NewNotificationRepository(s.db) }
func (s *GormStore) RevokedTokens() RevokedTokenRepository { return NewRevokedTokenRepository(s.db) }

func (s *GormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// countByStatus - GROUP BY status по уже отфильтрованному запросу
func countByStatus[S ~string](query *gorm.DB) (map[S]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := query.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[S]int64, len(rows))
	for _, row := range rows {
		out[S(row.Status)] = row.Count
	}
	return out, nil
}

// translate приводит ошибки gorm к сентинелам пакета
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
