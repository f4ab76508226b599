package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/productms-console/authmodel"
	apperrors "github.com/jrsteele09/productms-console/internal/errors"
	"github.com/jrsteele09/productms-console/users"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Auth endpoints relative to the API base URL
const (
	RouteRegister = "/auth/register/"
	RouteLogin    = "/auth/login/"
	RouteProfile  = "/auth/profile/"
)

// Gateway issues the three session establishing calls. It holds no session state.
type Gateway struct {
	baseURL string
	opts    options
}

func New(baseURL string, opts ...Option) (*Gateway, error) {
	if baseURL == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidConfig, "[gateway.New] base URL is required")
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    buildOptions(opts),
	}, nil
}

// Register creates an account. The backend logs the new user in, so a
// successful response carries usable tokens.
func (g *Gateway) Register(ctx context.Context, form authmodel.RegistrationRequest) (*authmodel.AuthResponse, error) {
	const op = "gateway.Register"
	if fe := form.Validate(); !fe.Empty() {
		return nil, &ValidationError{Fields: fe}
	}

	resp, err := do(ctx, g.opts.plainClient(), op, http.MethodPost, g.baseURL+RouteRegister, form)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.ok():
		return decodeAuthResponse(op, resp)
	case resp.status == http.StatusBadRequest:
		fe := authmodel.FieldErrors{}
		if err := json.Unmarshal(resp.body, &fe); err != nil || fe.Empty() {
			fe = authmodel.FieldErrors{}
			fe.Add(authmodel.GeneralField, "Registration failed. Please try again.")
		}
		return nil, &ValidationError{Fields: fe}
	default:
		return nil, &UnexpectedError{Op: op, Status: resp.status}
	}
}

// Login exchanges username and password for a credential pair. Every
// rejection of the credentials is reported as ErrInvalidCredentials.
func (g *Gateway) Login(ctx context.Context, form authmodel.LoginRequest) (*authmodel.AuthResponse, error) {
	const op = "gateway.Login"
	if fe := form.Validate(); !fe.Empty() {
		return nil, &ValidationError{Fields: fe}
	}

	resp, err := do(ctx, g.opts.plainClient(), op, http.MethodPost, g.baseURL+RouteLogin, form)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.ok():
		return decodeAuthResponse(op, resp)
	case resp.status == http.StatusBadRequest,
		resp.status == http.StatusUnauthorized,
		resp.status == http.StatusForbidden,
		resp.status == http.StatusNotFound:
		return nil, ErrInvalidCredentials
	default:
		return nil, &UnexpectedError{Op: op, Status: resp.status}
	}
}

// FetchProfile loads the profile of the user owning the access token
// supplied by tokens. The token is attached by the bearer transport.
func (g *Gateway) FetchProfile(ctx context.Context, tokens oauth2.TokenSource) (*users.Profile, error) {
	const op = "gateway.FetchProfile"
	if tokens == nil {
		return nil, ErrUnauthorized
	}
	if tok, err := tokens.Token(); err != nil || !tok.Valid() {
		return nil, ErrUnauthorized
	}

	resp, err := do(ctx, g.opts.bearerClient(tokens), op, http.MethodGet, g.baseURL+RouteProfile, nil)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.ok():
		profile := &users.Profile{}
		if err := json.Unmarshal(resp.body, profile); err != nil {
			return nil, &UnexpectedError{Op: op, Status: resp.status, Err: err}
		}
		if err := profile.Validate(); err != nil {
			return nil, &UnexpectedError{Op: op, Status: resp.status, Err: err}
		}
		return profile, nil
	case resp.status == http.StatusUnauthorized, resp.status == http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, &UnexpectedError{Op: op, Status: resp.status}
	}
}

func decodeAuthResponse(op string, resp *response) (*authmodel.AuthResponse, error) {
	out := &authmodel.AuthResponse{}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return nil, &UnexpectedError{Op: op, Status: resp.status, Err: err}
	}
	if !out.Complete() {
		return nil, &UnexpectedError{Op: op, Status: resp.status, Err: errors.New("response missing tokens or user")}
	}
	return out, nil
}
