// Package service contains the reference backend's application services:
// the development identity provider and owner-scoped inventory operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/covered/internal/convert"
	pkgcrypto "github.com/and161185/covered/internal/crypto"
	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/limiter"
	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/repository"
	"github.com/and161185/covered/internal/validate"
)

// Grant is a freshly issued session.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         model.IdentityUser
}

// IdentityService is the development identity provider behind /auth/v1.
type IdentityService interface {
	// SignUp creates an account and signs it in.
	SignUp(ctx context.Context, email, password string, meta model.UserMetadata) (*Grant, error)
	// PasswordGrant authenticates with rate limiting by (email, ip).
	PasswordGrant(ctx context.Context, email, password, ip string) (*Grant, error)
	// RefreshGrant spends a refresh token and issues a new pair.
	RefreshGrant(ctx context.Context, refreshToken string) (*Grant, error)
	// Logout revokes every refresh token of the user.
	Logout(ctx context.Context, userID string) error
	// User loads the account behind an access token subject.
	User(ctx context.Context, userID string) (*model.IdentityUser, error)
}

// IdentityOptions configures token lifetimes.
type IdentityOptions struct {
	SignKey    []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type IdentityServiceImpl struct {
	accounts repository.AccountRepository
	tokens   repository.RefreshTokenRepository
	lim      limiter.Limiter
	opts     IdentityOptions
	now      func() time.Time
}

// NewIdentityService constructs IdentityService with required dependencies.
func NewIdentityService(
	accounts repository.AccountRepository,
	tokens repository.RefreshTokenRepository,
	lim limiter.Limiter,
	opts IdentityOptions,
) *IdentityServiceImpl {
	return &IdentityServiceImpl{accounts: accounts, tokens: tokens, lim: lim, opts: opts, now: time.Now}
}

// SignUp creates an account with an Argon2id password hash.
func (s *IdentityServiceImpl) SignUp(ctx context.Context, email, password string, meta model.UserMetadata) (*Grant, error) {
	email = validate.NormalizeEmail(email)
	if !validate.IsEmail(email) {
		return nil, invalid("email", "Unable to validate email address: invalid format")
	}
	if len(password) < validate.MinPasswordLen {
		return nil, invalid("password", fmt.Sprintf("Password should be at least %d characters.", validate.MinPasswordLen))
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	salt, err := pkgcrypto.RandBytes(pkgcrypto.SaltLen)
	if err != nil {
		return nil, err
	}
	a := &model.Account{
		ID:          uid.String(),
		Email:       email,
		DisplayName: meta.DisplayName,
		PwdHash:     pkgcrypto.HashPassword([]byte(password), salt),
		Salt:        salt,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return s.issue(ctx, *a)
}

// PasswordGrant authenticates by email and password.
func (s *IdentityServiceImpl) PasswordGrant(ctx context.Context, email, password, ip string) (*Grant, error) {
	email = validate.NormalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errs.ErrRateLimited
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), a.Salt, a.PwdHash) {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return nil, errs.ErrRateLimited
		}
		// Unknown email and wrong password look the same.
		return nil, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, email, ipHash)
	return s.issue(ctx, *a)
}

// RefreshGrant rotates the refresh token: the presented one is spent.
func (s *IdentityServiceImpl) RefreshGrant(ctx context.Context, refreshToken string) (*Grant, error) {
	if refreshToken == "" {
		return nil, invalid("refresh_token", "refresh_token is required")
	}
	accountID, err := s.tokens.Consume(ctx, pkgcrypto.HashToken(refreshToken), s.now())
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, err
	}
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return s.issue(ctx, *a)
}

// Logout revokes the user's refresh tokens; issued access tokens expire on their own.
func (s *IdentityServiceImpl) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return invalid("user_id", "user id is required")
	}
	return s.tokens.RevokeAll(ctx, userID)
}

// User loads the account as an identity user.
func (s *IdentityServiceImpl) User(ctx context.Context, userID string) (*model.IdentityUser, error) {
	a, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u := convert.ToIdentityUser(*a)
	return &u, nil
}

func (s *IdentityServiceImpl) issue(ctx context.Context, a model.Account) (*Grant, error) {
	now := s.now()
	user := convert.ToIdentityUser(a)
	access, exp, err := IssueAccessToken(s.opts.SignKey, user, now, s.opts.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, hash, err := pkgcrypto.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	err = s.tokens.Create(ctx, model.RefreshToken{
		TokenHash: hash,
		AccountID: a.ID,
		ExpiresAt: now.Add(s.opts.RefreshTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &Grant{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp, User: user}, nil
}
