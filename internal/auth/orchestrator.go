// Package auth drives sign-up, sign-in and sign-out against the identity
// provider and synchronises the backend profile after a session is
// established. No method returns an error value; failures travel in Result.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/covered/internal/api"
	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/identity"
	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/validate"
)

// Backend is the part of the sync service used after sign-in.
type Backend interface {
	VerifyAuth(ctx context.Context) api.Result[struct{}]
	GetProfile(ctx context.Context) api.Result[*model.Profile]
}

// State is the part of the store the orchestrator writes.
type State interface {
	SetProfile(p *model.Profile)
	ClearData()
}

// Sessions is the single writer of the store's user field.
type Sessions interface {
	Submit(ev identity.Event)
	Attach(events <-chan identity.Event, cancel func())
}

// Result is returned by every orchestrator operation. Success is decided by
// the identity provider alone; a failed profile sync only fills SyncErr.
type Result struct {
	Success bool
	Error   string
	Err     error
	SyncErr error
	User    *model.IdentityUser
	Session *model.Session
}

func failed(err error) Result {
	return Result{Error: errs.Message(err, "Unknown error"), Err: err}
}

// Orchestrator wires the identity provider, the sync service and the store.
type Orchestrator struct {
	provider identity.Provider
	backend  Backend
	state    State
	sessions Sessions
	log      *zap.Logger
}

// New constructs an Orchestrator. A nil logger disables logging.
func New(provider identity.Provider, backend Backend, state State, sessions Sessions, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{provider: provider, backend: backend, state: state, sessions: sessions, log: log}
}

// Start subscribes the session keeper to provider events and submits the
// initial session. The store leaves its loading state once it is applied.
func (o *Orchestrator) Start(ctx context.Context) Result {
	o.sessions.Attach(o.provider.Subscribe())

	s, err := o.provider.GetSession(ctx)
	if err != nil {
		o.log.Warn("auth: initial session", zap.Error(err))
		o.sessions.Submit(identity.Event{Type: identity.EventInitialSession})
		return failed(err)
	}
	o.sessions.Submit(identity.Event{Type: identity.EventInitialSession, Session: s})
	res := Result{Success: true, Session: s}
	if s != nil {
		res.User = s.User
	}
	return res
}

// SignUp creates credentials and syncs the profile when a user comes back.
func (o *Orchestrator) SignUp(ctx context.Context, email, password, name string) Result {
	in := validate.SignUpInput{
		Email:    validate.NormalizeEmail(email),
		Password: password,
		Name:     strings.TrimSpace(name),
	}
	if err := validate.Struct(in); err != nil {
		return failed(err)
	}

	resp, err := o.provider.SignUp(ctx, in.Email, in.Password, model.UserMetadata{
		DisplayName:   in.Name,
		EmailVerified: true,
	})
	if err != nil {
		o.log.Info("auth: sign up rejected", zap.Error(err))
		return failed(err)
	}
	return o.established(ctx, resp)
}

// SignIn verifies existing credentials and syncs the profile.
func (o *Orchestrator) SignIn(ctx context.Context, email, password string) Result {
	in := validate.SignInInput{Email: validate.NormalizeEmail(email), Password: password}
	if err := validate.Struct(in); err != nil {
		return failed(err)
	}

	resp, err := o.provider.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		o.log.Info("auth: sign in rejected", zap.Error(err))
		return failed(err)
	}
	return o.established(ctx, resp)
}

func (o *Orchestrator) established(ctx context.Context, resp *identity.AuthResponse) Result {
	res := Result{Success: true}
	if resp == nil {
		return res
	}
	res.User, res.Session = resp.User, resp.Session
	if resp.User == nil {
		return res
	}
	// Without a session (confirmation pending) there is no bearer to sync with.
	if resp.Session == nil {
		o.log.Info("auth: backend sync skipped, no session yet", zap.String("user", resp.User.ID))
		return res
	}
	res.SyncErr = o.SyncProfile(ctx)
	return res
}

// SignOut ends the provider session and always wipes the domain state.
func (o *Orchestrator) SignOut(ctx context.Context) Result {
	err := o.provider.SignOut(ctx)
	o.state.ClearData()
	if err != nil {
		o.log.Warn("auth: sign out", zap.Error(err))
		return failed(err)
	}
	return Result{Success: true}
}

// SyncProfile confirms the backend user record and, only if that succeeds,
// stores the fetched profile. Failures never touch the session.
func (o *Orchestrator) SyncProfile(ctx context.Context) error {
	v := o.backend.VerifyAuth(ctx)
	if !v.Success {
		o.log.Warn("auth: backend verify failed", zap.String("error", v.Error))
		return syncErr("verify", v.Err, v.Error)
	}
	p := o.backend.GetProfile(ctx)
	if !p.Success {
		o.log.Warn("auth: profile fetch failed", zap.String("error", p.Error))
		return syncErr("profile", p.Err, p.Error)
	}
	o.state.SetProfile(p.Data)
	return nil
}

func syncErr(step string, err error, msg string) error {
	if err == nil {
		err = fmt.Errorf("%w: %s", errs.ErrHTTP, msg)
	}
	return fmt.Errorf("sync %s: %w", step, err)
}

// CurrentUser asks the provider for the signed-in user.
func (o *Orchestrator) CurrentUser(ctx context.Context) Result {
	u, err := o.provider.GetUser(ctx)
	if err != nil {
		return failed(err)
	}
	return Result{Success: true, User: u}
}

// RefreshSession rotates the session tokens.
func (o *Orchestrator) RefreshSession(ctx context.Context) Result {
	s, err := o.provider.RefreshSession(ctx)
	if err != nil {
		return failed(err)
	}
	res := Result{Success: true, Session: s}
	if s != nil {
		res.User = s.User
	}
	return res
}

// HandleDeepLink establishes a session from an auth callback URL such as
// covered://auth/callback#access_token=..&refresh_token=.. and syncs the
// profile. Parameters are read from the query and the fragment.
func (o *Orchestrator) HandleDeepLink(ctx context.Context, rawURL string) Result {
	params, err := linkParams(rawURL)
	if err != nil {
		return failed(err)
	}
	if desc := params.Get("error_description"); desc != "" || params.Get("error") != "" {
		return failed(&errs.ProviderError{Code: params.Get("error_code"), Message: firstNonEmpty(desc, params.Get("error"))})
	}
	access, refresh := params.Get("access_token"), params.Get("refresh_token")
	if access == "" || refresh == "" {
		return failed(&errs.ValidationError{Fields: map[string]string{
			"url": "url must carry access_token and refresh_token",
		}})
	}

	s, err := o.provider.SetSession(ctx, access, refresh)
	if err != nil {
		o.log.Info("auth: deep link rejected", zap.Error(err))
		return failed(err)
	}
	res := Result{Success: true, Session: s}
	if s != nil {
		res.User = s.User
	}
	res.SyncErr = o.SyncProfile(ctx)
	return res
}

func linkParams(rawURL string) (url.Values, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, &errs.ValidationError{Fields: map[string]string{"url": "url is malformed"}}
	}
	params := u.Query()
	if u.Fragment != "" {
		frag, err := url.ParseQuery(u.Fragment)
		if err == nil {
			for k, v := range frag {
				if params.Get(k) == "" {
					params[k] = v
				}
			}
		}
	}
	return params, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
