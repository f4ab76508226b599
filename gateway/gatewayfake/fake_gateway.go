package gatewayfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/productms-console/authmodel"
	"github.com/jrsteele09/productms-console/gateway"
	"github.com/jrsteele09/productms-console/internal/utils"
	"github.com/jrsteele09/productms-console/users"
	"golang.org/x/oauth2"
)

// FakeGateway answers the three auth calls from canned values and records
// what it was asked.
type FakeGateway struct {
	lock sync.Mutex

	LoginResponse    *authmodel.AuthResponse
	LoginErr         error
	RegisterResponse *authmodel.AuthResponse
	RegisterErr      error
	Profile          *users.Profile
	ProfileErr       error

	// Block, when set, is waited on before any call returns.
	Block chan struct{}

	LoginCalls    int
	RegisterCalls int
	ProfileCalls  int
	LastToken     string
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

// Issue builds a complete auth response for profile.
func Issue(access, refresh string, profile users.Profile) *authmodel.AuthResponse {
	return &authmodel.AuthResponse{
		Access:  utils.Ptr(access),
		Refresh: utils.Ptr(refresh),
		User:    &profile,
	}
}

func (g *FakeGateway) wait(ctx context.Context) error {
	if g.Block == nil {
		return nil
	}
	select {
	case <-g.Block:
		return nil
	case <-ctx.Done():
		return &gateway.NetworkError{Op: "fake", Err: ctx.Err()}
	}
}

func (g *FakeGateway) Login(ctx context.Context, _ authmodel.LoginRequest) (*authmodel.AuthResponse, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	g.LoginCalls++
	return g.LoginResponse, g.LoginErr
}

func (g *FakeGateway) Register(ctx context.Context, _ authmodel.RegistrationRequest) (*authmodel.AuthResponse, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	g.RegisterCalls++
	return g.RegisterResponse, g.RegisterErr
}

func (g *FakeGateway) FetchProfile(ctx context.Context, tokens oauth2.TokenSource) (*users.Profile, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	g.ProfileCalls++
	if tok, err := tokens.Token(); err == nil {
		g.LastToken = tok.AccessToken
	}
	if g.ProfileErr != nil {
		return nil, g.ProfileErr
	}
	if g.Profile == nil {
		return nil, gateway.ErrUnauthorized
	}
	p := *g.Profile
	return &p, nil
}
