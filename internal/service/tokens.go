package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/covered/internal/model"
)

// Audience is the aud claim of access tokens issued to signed-in users.
const Audience = "authenticated"

// tokenLeeway tolerates clock skew between the issuer and this server.
const tokenLeeway = 30 * time.Second

// Claims are the access-token claims shared by the issuer and the bearer check.
// They follow the GoTrue layout so tokens from a hosted provider verify too.
type Claims struct {
	jwt.RegisteredClaims
	Email        string             `json:"email"`
	Role         string             `json:"role,omitempty"`
	UserMetadata model.UserMetadata `json:"user_metadata"`
}

// Errors reported by ParseAccessToken.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired or not valid yet")
)

// IssueAccessToken signs an HS256 access token for u.
func IssueAccessToken(key []byte, u model.IdentityUser, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:        u.Email,
		Role:         Audience,
		UserMetadata: u.UserMetadata,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(key)
	return signed, exp, err
}

// ParseAccessToken verifies an HS256 token and returns its claims.
func ParseAccessToken(key []byte, token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	v := jwt.NewValidator(jwt.WithLeeway(tokenLeeway), jwt.WithExpirationRequired())
	if err := v.Validate(&claims); err != nil {
		return nil, ErrTokenExpired
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// User returns the identity user described by the claims.
func (c *Claims) User() model.IdentityUser {
	return model.IdentityUser{ID: c.Subject, Email: c.Email, UserMetadata: c.UserMetadata}
}
