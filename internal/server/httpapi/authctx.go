package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/and161185/covered/internal/service"
)

type ctxKey string

const claimsKey ctxKey = "covered.claims"

// WithClaims stores verified bearer claims in context.
func WithClaims(ctx context.Context, c *service.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromCtx fetches the bearer claims stored by Authenticate.
func ClaimsFromCtx(ctx context.Context) (*service.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*service.Claims)
	return c, ok && c != nil
}

// UserIDFromCtx returns the authenticated user id (the token subject).
func UserIDFromCtx(ctx context.Context) (string, bool) {
	c, ok := ClaimsFromCtx(ctx)
	if !ok {
		return "", false
	}
	return c.Subject, true
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

// Authenticate rejects requests without a valid HS256 bearer token and puts
// the claims into the request context.
func Authenticate(signKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeFail(w, http.StatusUnauthorized, "Missing or invalid authorization header")
				return
			}
			claims, err := service.ParseAccessToken(signKey, tok)
			if err != nil {
				writeFail(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
