package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/productms-console/authmodel"
	"github.com/jrsteele09/productms-console/gateway"
	"github.com/jrsteele09/productms-console/sessions"
	"github.com/jrsteele09/productms-console/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Gateway is the network surface the controller depends on.
type Gateway interface {
	Register(ctx context.Context, form authmodel.RegistrationRequest) (*authmodel.AuthResponse, error)
	Login(ctx context.Context, form authmodel.LoginRequest) (*authmodel.AuthResponse, error)
	FetchProfile(ctx context.Context, tokens oauth2.TokenSource) (*users.Profile, error)
}

// Controller owns the in-memory session and is the only writer of the
// session store.
//
// Login, Register and Logout are not meant to overlap: when two logins race,
// the last one to finish wins, in memory and in the store.
type Controller struct {
	store         sessions.Store
	gateway       Gateway
	failOpenRoles bool
	nowTime       func() time.Time

	// lock guards the fields below and serialises every store write.
	lock  sync.RWMutex
	state State
	user  *users.Profile
	creds sessions.Credentials

	initOnce sync.Once
	ready    chan struct{}
}

type ControllerOption func(*Controller)

// WithFailOpenRoles makes HasRole grant non-empty role requirements when no
// user is loaded. This reproduces the behaviour of the legacy web client
// and is off by default.
func WithFailOpenRoles(failOpen bool) ControllerOption {
	return func(c *Controller) {
		c.failOpenRoles = failOpen
	}
}

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

func NewController(store sessions.Store, gateway Gateway, options ...ControllerOption) (*Controller, error) {
	if store == nil {
		return nil, errors.New("[NewController] session store is required")
	}
	if gateway == nil {
		return nil, errors.New("[NewController] gateway is required")
	}

	c := &Controller{
		store:   store,
		gateway: gateway,
		nowTime: time.Now,
		state:   StateInitializing,
		ready:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Initialize restores the persisted session. It runs once per controller;
// later calls return the current session without doing anything.
func (c *Controller) Initialize(ctx context.Context) Session {
	c.initOnce.Do(func() {
		defer close(c.ready)
		c.initialize(ctx)
	})
	return c.Session()
}

// Ready is closed once Initialize has resolved.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

func (c *Controller) initialize(ctx context.Context) {
	creds, cached, err := c.store.Load(ctx)
	if err != nil {
		log.Debug().Msg("No persisted session")
		c.resolveAnonymous(ctx, false)
		return
	}

	if creds.Expired(c.nowTime()) {
		log.Info().Msg("Persisted access token has expired, discarding session")
		c.resolveAnonymous(ctx, true)
		return
	}

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Access, TokenType: "Bearer"})
	profile, err := c.gateway.FetchProfile(ctx, tokens)
	if err != nil && ctx.Err() != nil {
		// Interrupted, not rejected: keep the stored session for the next start.
		log.Info().Err(err).Msg("Session check interrupted, keeping persisted session")
		c.resolveAnonymous(ctx, false)
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("Persisted session rejected, discarding it")
		c.resolveAnonymous(ctx, true)
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	if c.state != StateInitializing {
		// A login or logout finished first and takes precedence.
		return
	}
	if cached == nil || *cached != *profile {
		c.persistLocked(ctx, creds, *profile)
	}
	c.setLocked(StateAuthenticated, creds, profile)
	log.Info().Str("username", profile.Username).Str("role", profile.Role.String()).Msg("Session restored")
}

func (c *Controller) resolveAnonymous(ctx context.Context, clearStore bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.state != StateInitializing {
		return
	}
	if clearStore {
		c.clearLocked(ctx)
	}
	c.setLocked(StateAnonymous, sessions.Credentials{}, nil)
}

// Login authenticates with the backend and, on success, persists and adopts
// the new session. On failure the current session is left untouched.
func (c *Controller) Login(ctx context.Context, form authmodel.LoginRequest) (*users.Profile, error) {
	resp, err := c.gateway.Login(ctx, form)
	if err != nil {
		log.Debug().Err(err).Str("username", form.Username).Msg("Login failed")
		return nil, err
	}
	return c.adopt(ctx, resp, "login")
}

// Register creates an account. The backend returns tokens, so success is
// also a login.
func (c *Controller) Register(ctx context.Context, form authmodel.RegistrationRequest) (*users.Profile, error) {
	resp, err := c.gateway.Register(ctx, form)
	if err != nil {
		log.Debug().Err(err).Str("username", form.Username).Msg("Registration failed")
		return nil, err
	}
	return c.adopt(ctx, resp, "register")
}

func (c *Controller) adopt(ctx context.Context, resp *authmodel.AuthResponse, via string) (*users.Profile, error) {
	if !resp.Complete() {
		return nil, &gateway.UnexpectedError{Op: "auth." + via, Err: errors.New("incomplete auth response")}
	}
	creds := sessions.Credentials{Access: resp.AccessToken(), Refresh: resp.RefreshToken()}
	profile := *resp.User

	c.lock.Lock()
	defer c.lock.Unlock()
	c.persistLocked(ctx, creds, profile)
	c.setLocked(StateAuthenticated, creds, &profile)

	log.Info().Str("username", profile.Username).Str("role", profile.Role.String()).Str("via", via).Msg("Signed in")
	out := profile
	return &out, nil
}

// Logout forgets the session in memory and in the store. It is idempotent.
func (c *Controller) Logout(ctx context.Context) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.clearLocked(ctx)
	if c.user != nil {
		log.Info().Str("username", c.user.Username).Msg("Signed out")
	}
	c.setLocked(StateAnonymous, sessions.Credentials{}, nil)
}

// HasRole reports whether the session satisfies a role requirement. An empty
// requirement is always satisfied. With no user loaded the answer is false,
// unless the controller was built WithFailOpenRoles(true).
func (c *Controller) HasRole(roles ...users.RoleType) bool {
	if len(roles) == 0 {
		return true
	}

	c.lock.RLock()
	user := c.user
	c.lock.RUnlock()

	if user == nil {
		return c.failOpenRoles
	}
	return user.HasAnyRole(roles...)
}

// Session returns a snapshot of the current state.
func (c *Controller) Session() Session {
	c.lock.RLock()
	defer c.lock.RUnlock()

	s := Session{State: c.state}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	return s
}

// Credentials returns the in-memory credential pair, empty unless authenticated.
func (c *Controller) Credentials() sessions.Credentials {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.creds
}

// Token implements oauth2.TokenSource so the API client can attach the
// current access token to outgoing requests.
func (c *Controller) Token() (*oauth2.Token, error) {
	c.lock.RLock()
	creds := c.creds
	c.lock.RUnlock()

	if !creds.Valid() {
		return nil, ErrNotAuthenticated
	}
	tok := &oauth2.Token{
		AccessToken:  creds.Access,
		RefreshToken: creds.Refresh,
		TokenType:    "Bearer",
	}
	if exp, ok := creds.AccessExpiry(); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

func (c *Controller) setLocked(state State, creds sessions.Credentials, user *users.Profile) {
	c.state = state
	c.creds = creds
	c.user = user
}

// persistLocked saves the session. A storage failure is logged and the
// session carries on in memory only.
func (c *Controller) persistLocked(ctx context.Context, creds sessions.Credentials, profile users.Profile) {
	if err := c.store.Save(ctx, creds, profile); err != nil {
		log.Warn().Err(err).Msg("Could not persist session, continuing in memory")
	}
}

func (c *Controller) clearLocked(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not clear persisted session")
	}
}

var _ oauth2.TokenSource = (*Controller)(nil)

var _ Gateway = (*gateway.Gateway)(nil)
