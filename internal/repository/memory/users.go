package memory

import (
	"context"
	"time"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

// AccountRepo implements repository.AccountRepository.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a; ErrAlreadyExists when the email is taken.
func (r *AccountRepo) Create(_ context.Context, a *model.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.emails[a.Email]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := r.db.accounts[a.ID]; ok {
		return errs.ErrAlreadyExists
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.db.now()
	}
	r.db.accounts[a.ID] = *a
	r.db.emails[a.Email] = a.ID
	return nil
}

// GetByID loads an account by ID.
func (r *AccountRepo) GetByID(_ context.Context, id string) (*model.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	a, ok := r.db.accounts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

// GetByEmail loads an account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	r.db.mu.RLock()
	id, ok := r.db.emails[email]
	r.db.mu.RUnlock()
	if !ok {
		return nil, errs.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// RefreshTokenRepo implements repository.RefreshTokenRepository.
type RefreshTokenRepo struct{ db *DB }

// NewRefreshTokenRepo constructs a refresh token repository.
func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

// Create stores t.
func (r *RefreshTokenRepo) Create(_ context.Context, t model.RefreshToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.accounts[t.AccountID]; !ok {
		return errs.ErrNotFound
	}
	t.TokenHash = append([]byte(nil), t.TokenHash...)
	r.db.refresh[string(t.TokenHash)] = t
	return nil
}

// Consume revokes a live token and returns its account.
func (r *RefreshTokenRepo) Consume(_ context.Context, hash []byte, now time.Time) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.refresh[string(hash)]
	if !ok || t.Revoked || !t.ExpiresAt.After(now) {
		return "", errs.ErrNotFound
	}
	t.Revoked = true
	r.db.refresh[string(hash)] = t
	return t.AccountID, nil
}

// RevokeAll revokes every token of accountID.
func (r *RefreshTokenRepo) RevokeAll(_ context.Context, accountID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k, t := range r.db.refresh {
		if t.AccountID == accountID && !t.Revoked {
			t.Revoked = true
			r.db.refresh[k] = t
		}
	}
	return nil
}

// ProfileRepo implements repository.ProfileRepository.
type ProfileRepo struct{ db *DB }

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Upsert creates the profile or refreshes its email; an empty name keeps the stored one.
func (r *ProfileRepo) Upsert(_ context.Context, p *model.Profile) (*model.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.now()
	cur, ok := r.db.profiles[p.ID]
	if !ok {
		cur = model.Profile{ID: p.ID, CreatedAt: now}
	}
	cur.Email = p.Email
	if p.Name != "" {
		cur.Name = p.Name
	}
	cur.UpdatedAt = now
	r.db.profiles[p.ID] = cur
	return &cur, nil
}

// Get loads a profile by user ID.
func (r *ProfileRepo) Get(_ context.Context, id string) (*model.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.profiles[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

// PushTokenRepo implements repository.PushTokenRepository.
type PushTokenRepo struct{ db *DB }

// NewPushTokenRepo constructs a push token repository.
func NewPushTokenRepo(db *DB) *PushTokenRepo { return &PushTokenRepo{db: db} }

// Upsert replaces the user's token.
func (r *PushTokenRepo) Upsert(_ context.Context, t model.PushToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.profiles[t.UserID]; !ok {
		return errs.ErrNotFound
	}
	t.UpdatedAt = r.db.now()
	r.db.push[t.UserID] = t
	return nil
}

// Get returns the user's registered token.
func (r *PushTokenRepo) Get(userID string) (model.PushToken, bool) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	t, ok := r.db.push[userID]
	return t, ok
}
