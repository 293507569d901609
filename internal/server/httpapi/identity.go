package httpapi

import (
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/service"
)

// authError is the GoTrue error body.
type authError struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
}

type sessionResponse struct {
	AccessToken  string              `json:"access_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int64               `json:"expires_in"`
	ExpiresAt    int64               `json:"expires_at"`
	RefreshToken string              `json:"refresh_token"`
	User         *model.IdentityUser `json:"user"`
}

func writeAuthError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, authError{Code: status, ErrorCode: code, Msg: msg})
}

func (s *Server) identityRoutes(r chi.Router) {
	if s.anonKey != "" {
		r.Use(s.requireAPIKey)
	}
	r.Post("/signup", s.signUp)
	r.Post("/token", s.token)
	r.Post("/logout", s.logout)
	r.Get("/user", s.user)
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("apikey")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.anonKey)) != 1 {
			writeAuthError(w, http.StatusUnauthorized, "no_api_key", "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeSession(w http.ResponseWriter, g *service.Grant, now time.Time) {
	u := g.User
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  g.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(g.ExpiresAt.Sub(now).Seconds()),
		ExpiresAt:    g.ExpiresAt.Unix(),
		RefreshToken: g.RefreshToken,
		User:         &u,
	})
}

// identityFailure maps IdentityService errors to GoTrue error codes.
// unauthorized is the code/message pair used for errs.ErrUnauthorized.
func (s *Server) identityFailure(w http.ResponseWriter, r *http.Request, err error, unauthorized [2]string) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		if _, weak := ve.Fields["password"]; weak {
			writeAuthError(w, http.StatusUnprocessableEntity, "weak_password", ve.Error())
			return
		}
		writeAuthError(w, http.StatusBadRequest, "validation_failed", ve.Error())
	case errors.Is(err, errs.ErrAlreadyExists):
		writeAuthError(w, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
	case errors.Is(err, errs.ErrRateLimited):
		writeAuthError(w, http.StatusTooManyRequests, "over_request_rate_limit", "Too many sign-in attempts, try again later")
	case errors.Is(err, errs.ErrUnauthorized):
		writeAuthError(w, http.StatusBadRequest, unauthorized[0], unauthorized[1])
	case errors.Is(err, errs.ErrNotFound):
		writeAuthError(w, http.StatusNotFound, "user_not_found", "User not found")
	default:
		s.log.Error("identity request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeAuthError(w, http.StatusInternalServerError, "unexpected_failure", "Unexpected failure")
	}
}

var (
	badCredentials = [2]string{"invalid_credentials", "Invalid login credentials"}
	badRefresh     = [2]string{"refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found"}
)

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string             `json:"email"`
		Password string             `json:"password"`
		Data     model.UserMetadata `json:"data"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeAuthError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}
	g, err := s.svc.Identity.SignUp(r.Context(), body.Email, body.Password, body.Data)
	if err != nil {
		s.identityFailure(w, r, err, badCredentials)
		return
	}
	writeSession(w, g, time.Now())
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeAuthError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}

	var (
		g   *service.Grant
		err error
	)
	switch grant := r.URL.Query().Get("grant_type"); grant {
	case "password":
		g, err = s.svc.Identity.PasswordGrant(r.Context(), body.Email, body.Password, clientIP(r))
		if err != nil {
			s.identityFailure(w, r, err, badCredentials)
			return
		}
	case "refresh_token":
		g, err = s.svc.Identity.RefreshGrant(r.Context(), body.RefreshToken)
		if err != nil {
			s.identityFailure(w, r, err, badRefresh)
			return
		}
	default:
		writeAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "unsupported grant_type: "+grant)
		return
	}
	writeSession(w, g, time.Now())
}

// bearerClaims verifies the bearer token of an /auth/v1 request.
func (s *Server) bearerClaims(w http.ResponseWriter, r *http.Request) (*service.Claims, bool) {
	tok, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "no_authorization", "This endpoint requires a Bearer token")
		return nil, false
	}
	claims, err := service.ParseAccessToken(s.signKey, tok)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT: "+err.Error())
		return nil, false
	}
	return claims, true
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.bearerClaims(w, r)
	if !ok {
		return
	}
	if err := s.svc.Identity.Logout(r.Context(), claims.Subject); err != nil {
		s.identityFailure(w, r, err, badCredentials)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) user(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.bearerClaims(w, r)
	if !ok {
		return
	}
	u, err := s.svc.Identity.User(r.Context(), claims.Subject)
	if err != nil {
		s.identityFailure(w, r, err, badCredentials)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// clientIP is the limiter key; RealIP has already applied forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
