package identity

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

// Memory is an in-process Provider for tests and offline development.
type Memory struct {
	// Fail, when set, is consulted at the start of every operation with its
	// name ("SignUp", "SignIn", "SignOut", "GetUser", "Refresh", "SetSession")
	// and a non-nil result is returned as the failure.
	Fail func(op string) error
	// RequireConfirmation makes SignUp return a user without a session.
	RequireConfirmation bool

	mu       sync.Mutex
	now      func() time.Time
	ttl      time.Duration
	accounts map[string]*memAccount // by email
	tokens   map[string]*memAccount // by access token
	refresh  map[string]*memAccount // by refresh token
	session  *model.Session
	hub      hub
}

type memAccount struct {
	password string
	user     model.IdentityUser
}

// NewMemory returns an empty provider issuing sessions valid for ttl (1h when zero).
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Memory{
		now:      time.Now,
		ttl:      ttl,
		accounts: make(map[string]*memAccount),
		tokens:   make(map[string]*memAccount),
		refresh:  make(map[string]*memAccount),
	}
}

var _ Provider = (*Memory)(nil)

func (m *Memory) fail(op string) error {
	if m.Fail == nil {
		return nil
	}
	return m.Fail(op)
}

func (m *Memory) issueLocked(a *memAccount) *model.Session {
	access := uuid.Must(uuid.NewV4()).String()
	refresh := uuid.Must(uuid.NewV4()).String()
	m.tokens[access] = a
	m.refresh[refresh] = a
	u := a.user
	return &model.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    m.now().Add(m.ttl),
		User:         &u,
	}
}

func (m *Memory) setLocked(s *model.Session, ev EventType) {
	m.session = s
	m.hub.publish(Event{Type: ev, Session: cloneSession(s)})
}

// Session returns the current session without refreshing it.
func (m *Memory) Session() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSession(m.session)
}

// Expire moves the current session's expiry into the past.
func (m *Memory) Expire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.ExpiresAt = m.now().Add(-time.Minute)
	}
}

// AccessTokenUser resolves a token issued by this provider.
func (m *Memory) AccessTokenUser(token string) (*model.IdentityUser, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.tokens[token]
	if !ok {
		return nil, false
	}
	u := a.user
	return &u, true
}

func (m *Memory) GetSession(ctx context.Context) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	if m.session.Expired(m.now(), refreshSkew) {
		return m.refreshLocked()
	}
	return cloneSession(m.session), nil
}

func (m *Memory) SignUp(ctx context.Context, email, password string, meta model.UserMetadata) (*AuthResponse, error) {
	if err := m.fail("SignUp"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[email]; ok {
		return nil, &errs.ProviderError{Status: 422, Code: "user_already_exists", Message: "User already registered"}
	}
	a := &memAccount{
		password: password,
		user: model.IdentityUser{
			ID:           uuid.Must(uuid.NewV4()).String(),
			Email:        email,
			UserMetadata: meta,
			CreatedAt:    m.now().UTC(),
		},
	}
	m.accounts[email] = a
	u := a.user
	if m.RequireConfirmation {
		return &AuthResponse{User: &u}, nil
	}
	s := m.issueLocked(a)
	m.setLocked(s, EventSignedIn)
	out := cloneSession(s)
	return &AuthResponse{User: out.User, Session: out}, nil
}

func (m *Memory) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	if err := m.fail("SignIn"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok || a.password != password {
		return nil, &errs.ProviderError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	s := m.issueLocked(a)
	m.setLocked(s, EventSignedIn)
	out := cloneSession(s)
	return &AuthResponse{User: out.User, Session: out}, nil
}

func (m *Memory) SignOut(ctx context.Context) error {
	if err := m.fail("SignOut"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	delete(m.tokens, m.session.AccessToken)
	delete(m.refresh, m.session.RefreshToken)
	m.setLocked(nil, EventSignedOut)
	return nil
}

func (m *Memory) GetUser(ctx context.Context) (*model.IdentityUser, error) {
	if err := m.fail("GetUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	a, ok := m.tokens[m.session.AccessToken]
	if !ok {
		return nil, &errs.ProviderError{Status: 401, Code: "bad_jwt", Message: "invalid JWT"}
	}
	u := a.user
	return &u, nil
}

func (m *Memory) RefreshSession(ctx context.Context) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, &errs.ProviderError{Code: "session_missing", Message: "Auth session missing!"}
	}
	return m.refreshLocked()
}

func (m *Memory) refreshLocked() (*model.Session, error) {
	if err := m.fail("Refresh"); err != nil {
		return nil, err
	}
	a, ok := m.refresh[m.session.RefreshToken]
	if !ok {
		m.setLocked(nil, EventSignedOut)
		return nil, &errs.ProviderError{Status: 400, Code: "refresh_token_not_found", Message: "Invalid Refresh Token"}
	}
	delete(m.tokens, m.session.AccessToken)
	delete(m.refresh, m.session.RefreshToken)
	s := m.issueLocked(a)
	m.setLocked(s, EventTokenRefreshed)
	return cloneSession(s), nil
}

func (m *Memory) SetSession(ctx context.Context, accessToken, refreshToken string) (*model.Session, error) {
	if err := m.fail("SetSession"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.tokens[accessToken]
	if !ok || m.refresh[refreshToken] != a {
		return nil, &errs.ProviderError{Status: 401, Code: "bad_jwt", Message: "invalid JWT"}
	}
	u := a.user
	s := &model.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    m.now().Add(m.ttl),
		User:         &u,
	}
	m.setLocked(s, EventSignedIn)
	return cloneSession(s), nil
}

// IssueLink returns tokens for email as an email-confirmation link would carry them.
func (m *Memory) IssueLink(email string) (access, refresh string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, found := m.accounts[email]
	if !found {
		return "", "", false
	}
	s := m.issueLocked(a)
	return s.AccessToken, s.RefreshToken, true
}

func (m *Memory) Subscribe() (<-chan Event, func()) { return m.hub.subscribe() }
