package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/storage"
)

// SessionKey is the storage record holding the signed-in session.
const SessionKey = "covered-auth-session"

// refreshSkew refreshes access tokens slightly before they expire.
const refreshSkew = 10 * time.Second

// GoTrue talks to a GoTrue-compatible identity REST API (the subset under /auth/v1).
type GoTrue struct {
	baseURL string
	anonKey string
	hc      *http.Client
	store   storage.Store
	log     *zap.Logger
	now     func() time.Time

	// mu guards session and is held across refreshes so concurrent callers
	// never spend the same refresh token twice.
	mu      sync.Mutex
	session *model.Session
	loaded  bool

	hub hub
}

// GoTrueOption customises a GoTrue adapter.
type GoTrueOption func(*GoTrue)

func WithHTTPClient(hc *http.Client) GoTrueOption { return func(g *GoTrue) { g.hc = hc } }
func WithLogger(l *zap.Logger) GoTrueOption       { return func(g *GoTrue) { g.log = l } }
func WithClock(now func() time.Time) GoTrueOption  { return func(g *GoTrue) { g.now = now } }

// NewGoTrue returns an adapter for the provider at baseURL. The session is
// persisted in st under SessionKey and restored lazily.
func NewGoTrue(baseURL, anonKey string, st storage.Store, opts ...GoTrueOption) *GoTrue {
	g := &GoTrue{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		hc:      &http.Client{Timeout: 30 * time.Second},
		store:   st,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

var _ Provider = (*GoTrue)(nil)

type sessionWire struct {
	AccessToken  string              `json:"access_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int64               `json:"expires_in"`
	ExpiresAt    int64               `json:"expires_at"`
	RefreshToken string              `json:"refresh_token"`
	User         *model.IdentityUser `json:"user"`
}

type errorBody struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TokenExpiry reads the exp claim of a JWT without verifying it.
// Zero time when the token carries none.
func TokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func (g *GoTrue) toSession(w *sessionWire) *model.Session {
	s := &model.Session{
		AccessToken:  w.AccessToken,
		RefreshToken: w.RefreshToken,
		TokenType:    w.TokenType,
		User:         w.User,
	}
	switch {
	case w.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(w.ExpiresAt, 0).UTC()
	case w.ExpiresIn > 0:
		s.ExpiresAt = g.now().Add(time.Duration(w.ExpiresIn) * time.Second).UTC()
	default:
		s.ExpiresAt = TokenExpiry(w.AccessToken)
	}
	return s
}

func (g *GoTrue) do(ctx context.Context, method, path string, query url.Values, body any, bearer string, out any) error {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("identity: encode: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.anonKey != "" {
		req.Header.Set("apikey", g.anonKey)
	}
	switch {
	case bearer != "":
		req.Header.Set("Authorization", "Bearer "+bearer)
	case g.anonKey != "":
		req.Header.Set("Authorization", "Bearer "+g.anonKey)
	}

	resp, err := g.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("identity: %w", ctx.Err())
		}
		return fmt.Errorf("identity: %w: %w", errs.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("identity: %w: %w", errs.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return providerError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("identity: %w: %w", errs.ErrMalformedResponse, err)
	}
	return nil
}

func providerError(status int, raw []byte) *errs.ProviderError {
	pe := &errs.ProviderError{Status: status}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		pe.Code = firstNonEmpty(eb.ErrorCode, eb.Error)
		pe.Message = firstNonEmpty(eb.Msg, eb.Message, eb.ErrorDescription)
	}
	if pe.Message == "" && pe.Code == "" {
		pe.Message = fmt.Sprintf("HTTP %d", status)
	}
	return pe
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// loadLocked restores the persisted session once. Caller holds g.mu.
func (g *GoTrue) loadLocked(ctx context.Context) {
	if g.loaded {
		return
	}
	g.loaded = true
	raw, err := g.store.Get(ctx, SessionKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			g.log.Warn("identity: restore session", zap.Error(err))
		}
		return
	}
	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil || s.AccessToken == "" {
		g.log.Warn("identity: discard unreadable session", zap.Error(err))
		return
	}
	g.session = &s
}

// setLocked replaces the session, persists it and publishes ev. Caller holds g.mu.
func (g *GoTrue) setLocked(ctx context.Context, s *model.Session, ev EventType) {
	g.session = s
	if s == nil {
		if err := g.store.Delete(ctx, SessionKey); err != nil {
			g.log.Warn("identity: delete session", zap.Error(err))
		}
	} else if raw, err := json.Marshal(s); err != nil {
		g.log.Warn("identity: encode session", zap.Error(err))
	} else if err := g.store.Set(ctx, SessionKey, raw); err != nil {
		g.log.Warn("identity: persist session", zap.Error(err))
	}
	g.hub.publish(Event{Type: ev, Session: cloneSession(s)})
}

// refreshLocked exchanges from's refresh token and installs the result as ev.
// g.session changes only on success, or to nil when the provider rejects the
// token of the current session. Caller holds g.mu.
func (g *GoTrue) refreshLocked(ctx context.Context, from *model.Session, ev EventType) (*model.Session, error) {
	var w sessionWire
	err := g.do(ctx, http.MethodPost, "/auth/v1/token", url.Values{"grant_type": {"refresh_token"}},
		map[string]string{"refresh_token": from.RefreshToken}, "", &w)
	if err != nil {
		if errors.Is(err, errs.ErrIdentityProvider) && from == g.session {
			g.log.Info("identity: refresh rejected, signing out", zap.Error(err))
			g.setLocked(ctx, nil, EventSignedOut)
		}
		return nil, err
	}
	s := g.toSession(&w)
	if s.User == nil {
		s.User = from.User
	}
	g.setLocked(ctx, s, ev)
	return cloneSession(s), nil
}

func (g *GoTrue) GetSession(ctx context.Context) (*model.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadLocked(ctx)
	if g.session == nil {
		return nil, nil
	}
	if g.session.Expired(g.now(), refreshSkew) {
		return g.refreshLocked(ctx, g.session, EventTokenRefreshed)
	}
	return cloneSession(g.session), nil
}

func (g *GoTrue) SignUp(ctx context.Context, email, password string, meta model.UserMetadata) (*AuthResponse, error) {
	body := map[string]any{"email": email, "password": password, "data": meta}
	var raw json.RawMessage
	if err := g.do(ctx, http.MethodPost, "/auth/v1/signup", nil, body, "", &raw); err != nil {
		return nil, err
	}
	var w sessionWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("identity: %w: %w", errs.ErrMalformedResponse, err)
	}
	if w.AccessToken == "" {
		// Confirmation pending: the body is the bare user.
		var u model.IdentityUser
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("identity: %w: %w", errs.ErrMalformedResponse, err)
		}
		if u.ID == "" {
			return &AuthResponse{}, nil
		}
		return &AuthResponse{User: &u}, nil
	}
	return g.establish(ctx, &w), nil
}

func (g *GoTrue) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	var w sessionWire
	err := g.do(ctx, http.MethodPost, "/auth/v1/token", url.Values{"grant_type": {"password"}},
		map[string]string{"email": email, "password": password}, "", &w)
	if err != nil {
		return nil, err
	}
	if w.AccessToken == "" {
		return nil, fmt.Errorf("identity: %w: no access token", errs.ErrMalformedResponse)
	}
	return g.establish(ctx, &w), nil
}

func (g *GoTrue) establish(ctx context.Context, w *sessionWire) *AuthResponse {
	s := g.toSession(w)
	g.mu.Lock()
	g.loaded = true
	g.setLocked(ctx, s, EventSignedIn)
	g.mu.Unlock()
	out := cloneSession(s)
	return &AuthResponse{User: out.User, Session: out}
}

// SignOut revokes the session remotely and always clears it locally.
func (g *GoTrue) SignOut(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadLocked(ctx)
	if g.session == nil {
		return nil
	}
	err := g.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, g.session.AccessToken, nil)
	var pe *errs.ProviderError
	if errors.As(err, &pe) && (pe.Status == http.StatusUnauthorized || pe.Status == http.StatusNotFound) {
		err = nil
	}
	g.setLocked(ctx, nil, EventSignedOut)
	return err
}

func (g *GoTrue) GetUser(ctx context.Context) (*model.IdentityUser, error) {
	s, err := g.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	var u model.IdentityUser
	if err := g.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, s.AccessToken, &u); err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.session != nil && g.session.AccessToken == s.AccessToken {
		next := cloneSession(g.session)
		next.User = &u
		g.setLocked(ctx, next, EventUserUpdated)
	}
	g.mu.Unlock()
	return &u, nil
}

func (g *GoTrue) RefreshSession(ctx context.Context) (*model.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadLocked(ctx)
	if g.session == nil {
		return nil, &errs.ProviderError{Code: "session_missing", Message: "Auth session missing!"}
	}
	return g.refreshLocked(ctx, g.session, EventTokenRefreshed)
}

func (g *GoTrue) SetSession(ctx context.Context, accessToken, refreshToken string) (*model.Session, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, &errs.ProviderError{Code: "validation_failed", Message: "access_token and refresh_token are required"}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loaded = true

	s := &model.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    TokenExpiry(accessToken),
	}
	if s.Expired(g.now(), refreshSkew) {
		return g.refreshLocked(ctx, s, EventSignedIn)
	}
	var u model.IdentityUser
	if err := g.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, accessToken, &u); err != nil {
		return nil, err
	}
	s.User = &u
	g.setLocked(ctx, s, EventSignedIn)
	return cloneSession(s), nil
}

func (g *GoTrue) Subscribe() (<-chan Event, func()) { return g.hub.subscribe() }
