package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/productms-console/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// APIClient is the bearer authenticated client the product and dashboard
// views use. It inherits whatever access token the session currently holds.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, tokens oauth2.TokenSource, opts ...Option) *APIClient {
	o := buildOptions(opts)
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  o.bearerClient(tokens),
	}
}

// GetJSON fetches path and decodes the body into out.
// A rejected or missing token is ErrUnauthorized.
func (c *APIClient) GetJSON(ctx context.Context, path string, out any) error {
	const op = "api.GetJSON"
	resp, err := do(ctx, c.client, op, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		var ne *NetworkError
		if errors.As(err, &ne) && errors.Is(ne.Err, apperrors.ErrNotAuthenticated) {
			return ErrUnauthorized
		}
		return err
	}
	switch {
	case resp.ok():
		if out == nil || len(resp.body) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.body, out); err != nil {
			return &UnexpectedError{Op: op, Status: resp.status, Err: err}
		}
		return nil
	case resp.status == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return &UnexpectedError{Op: op, Status: resp.status}
	}
}
