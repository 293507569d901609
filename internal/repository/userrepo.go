// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/and161185/covered/internal/model"
)

// AccountRepository stores credentials of the development identity provider.
type AccountRepository interface {
	// Create inserts a new account; ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, a *model.Account) error
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id string) (*model.Account, error)
	// GetByEmail loads an account by normalised email.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
}

// RefreshTokenRepository stores hashed, single-use refresh tokens.
type RefreshTokenRepository interface {
	// Create stores a new token.
	Create(ctx context.Context, t model.RefreshToken) error
	// Consume revokes a live token and returns its account; ErrNotFound when
	// the token is unknown, revoked or expired.
	Consume(ctx context.Context, hash []byte, now time.Time) (accountID string, err error)
	// RevokeAll revokes every token of an account.
	RevokeAll(ctx context.Context, accountID string) error
}

// ProfileRepository stores backend user records.
type ProfileRepository interface {
	// Upsert creates the profile or refreshes its email and name.
	Upsert(ctx context.Context, p *model.Profile) (*model.Profile, error)
	// Get loads a profile by user ID.
	Get(ctx context.Context, id string) (*model.Profile, error)
}

// PushTokenRepository stores one device push token per user.
type PushTokenRepository interface {
	// Upsert replaces the user's token.
	Upsert(ctx context.Context, t model.PushToken) error
}
