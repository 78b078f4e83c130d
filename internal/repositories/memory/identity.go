package memory

import (
	"context"
	"sort"
	"time"

	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	defer r.s.lock()()
	user.Email = repositories.NormalizeEmail(user.Email)
	for _, u := range r.s.st().users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	touch(&user.BaseModel)
	cp := *user
	r.s.st().users[user.ID] = &cp
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	defer r.s.lock()()
	u, ok := r.s.st().users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.s.lock()()
	email = repositories.NormalizeEmail(email)
	for _, u := range r.s.st().users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepo) MarkEmailVerified(ctx context.Context, id string) error {
	return r.update(id, func(u *models.User) { u.EmailVerified = true })
}

func (r *userRepo) SetApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error {
	return r.update(id, func(u *models.User) { u.AdminApprovalStatus = status })
}

func (r *userRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	defer r.s.lock()()
	u, ok := r.s.st().users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (r *userRepo) SetPasswordHash(ctx context.Context, id, hash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r *userRepo) update(id string, fn func(u *models.User)) error {
	defer r.s.lock()()
	u, ok := r.s.st().users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *userRepo) FindByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	defer r.s.lock()()
	var users []models.User
	for _, u := range r.s.st().users {
		if u.Role == role {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *userRepo) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	users, _ := r.FindByRole(ctx, role)
	return int64(len(users)), nil
}

type otpRepo struct{ s *Store }

func (r *otpRepo) Replace(ctx context.Context, otp *models.OTPCode) error {
	defer r.s.lock()()
	otp.Email = repositories.NormalizeEmail(otp.Email)
	otp.ID = ""
	touch(&otp.BaseModel)
	cp := *otp
	r.s.st().otps[otp.Email] = &cp
	return nil
}

func (r *otpRepo) FindByEmail(ctx context.Context, email string) (*models.OTPCode, error) {
	defer r.s.lock()()
	o, ok := r.s.st().otps[repositories.NormalizeEmail(email)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// FindByEmailForUpdate: транзакция и так держит мьютекс всего хранилища
func (r *otpRepo) FindByEmailForUpdate(ctx context.Context, email string) (*models.OTPCode, error) {
	return r.FindByEmail(ctx, email)
}

func (r *otpRepo) IncrementAttempts(ctx context.Context, id string, max int) (bool, error) {
	defer r.s.lock()()
	for _, o := range r.s.st().otps {
		if o.ID == id && o.Attempts < max {
			o.Attempts++
			return true, nil
		}
	}
	return false, nil
}

func (r *otpRepo) Consume(ctx context.Context, id string) (bool, error) {
	defer r.s.lock()()
	for k, o := range r.s.st().otps {
		if o.ID == id {
			delete(r.s.st().otps, k)
			return true, nil
		}
	}
	return false, nil
}

func (r *otpRepo) DeleteByEmail(ctx context.Context, email string) error {
	defer r.s.lock()()
	delete(r.s.st().otps, repositories.NormalizeEmail(email))
	return nil
}

func (r *otpRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	for k, o := range r.s.st().otps {
		if o.ExpiresAt.Before(before) {
			delete(r.s.st().otps, k)
			n++
		}
	}
	return n, nil
}

type revokedRepo struct{ s *Store }

func (r *revokedRepo) Revoke(ctx context.Context, token *models.RevokedToken) error {
	defer r.s.lock()()
	if _, ok := r.s.st().revoked[token.JTI]; ok {
		return nil
	}
	cp := *token
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.s.st().revoked[token.JTI] = &cp
	return nil
}

func (r *revokedRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	defer r.s.lock()()
	_, ok := r.s.st().revoked[jti]
	return ok, nil
}

func (r *revokedRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	for k, t := range r.s.st().revoked {
		if t.ExpiresAt.Before(before) {
			delete(r.s.st().revoked, k)
			n++
		}
	}
	return n, nil
}
