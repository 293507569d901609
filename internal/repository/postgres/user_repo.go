package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, email, display_name, pwd_hash, salt)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Email, a.DisplayName, a.PwdHash, a.Salt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	const q = `
SELECT id::text, email, display_name, pwd_hash, salt, created_at
FROM accounts WHERE id=$1`
	return r.get(ctx, q, id)
}

// GetByEmail selects an account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	const q = `
SELECT id::text, email, display_name, pwd_hash, salt, created_at
FROM accounts WHERE email=$1`
	return r.get(ctx, q, email)
}

func (r *AccountRepo) get(ctx context.Context, q, arg string) (*model.Account, error) {
	var a model.Account
	err := r.db.Pool.QueryRow(ctx, q, arg).
		Scan(&a.ID, &a.Email, &a.DisplayName, &a.PwdHash, &a.Salt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

// RefreshTokenRepo implements RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepo struct{ db *DB }

// NewRefreshTokenRepo constructs a refresh token repository.
func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

// Create stores a hashed refresh token.
func (r *RefreshTokenRepo) Create(ctx context.Context, t model.RefreshToken) error {
	const q = `
INSERT INTO refresh_tokens (token_hash, account_id, expires_at)
VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, t.TokenHash, t.AccountID, t.ExpiresAt)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// Consume revokes a live token in one statement so it can be used only once.
func (r *RefreshTokenRepo) Consume(ctx context.Context, hash []byte, now time.Time) (string, error) {
	const q = `
UPDATE refresh_tokens SET revoked=true
WHERE token_hash=$1 AND NOT revoked AND expires_at>$2
RETURNING account_id::text`
	var accountID string
	if err := r.db.Pool.QueryRow(ctx, q, hash, now).Scan(&accountID); err != nil {
		return "", rowErr(err)
	}
	return accountID, nil
}

// RevokeAll revokes every outstanding token of an account.
func (r *RefreshTokenRepo) RevokeAll(ctx context.Context, accountID string) error {
	const q = `UPDATE refresh_tokens SET revoked=true WHERE account_id=$1 AND NOT revoked`
	_, err := r.db.Pool.Exec(ctx, q, accountID)
	return err
}

// ProfileRepo implements ProfileRepository using PostgreSQL.
type ProfileRepo struct{ db *DB }

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Upsert creates the profile or refreshes its email; an empty name keeps the stored one.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	const q = `
INSERT INTO profiles (id, email, name)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET email=EXCLUDED.email,
    name=CASE WHEN EXCLUDED.name='' THEN profiles.name ELSE EXCLUDED.name END,
    updated_at=now()
RETURNING id::text, email, name, created_at, updated_at`
	var out model.Profile
	err := r.db.Pool.QueryRow(ctx, q, p.ID, p.Email, p.Name).
		Scan(&out.ID, &out.Email, &out.Name, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Get selects a profile by user ID.
func (r *ProfileRepo) Get(ctx context.Context, id string) (*model.Profile, error) {
	const q = `SELECT id::text, email, name, created_at, updated_at FROM profiles WHERE id=$1`
	var p model.Profile
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Email, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, rowErr(err)
	}
	return &p, nil
}

// PushTokenRepo implements PushTokenRepository using PostgreSQL.
type PushTokenRepo struct{ db *DB }

// NewPushTokenRepo constructs a push token repository.
func NewPushTokenRepo(db *DB) *PushTokenRepo { return &PushTokenRepo{db: db} }

// Upsert stores the user's current device token, replacing any previous one.
func (r *PushTokenRepo) Upsert(ctx context.Context, t model.PushToken) error {
	const q = `
INSERT INTO push_tokens (user_id, token, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET token=EXCLUDED.token, updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, t.UserID, t.Token)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}
