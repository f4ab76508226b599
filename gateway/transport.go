package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
	defaultTimeout  = 10 * time.Second
)

type options struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures the HTTP behaviour of a Gateway or an APIClient.
type Option func(*options)

// WithHTTPClient sets the client whose transport is used for every call.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

func buildOptions(opts []Option) options {
	o := options{client: http.DefaultClient, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) baseTransport() http.RoundTripper {
	if o.client != nil && o.client.Transport != nil {
		return o.client.Transport
	}
	return http.DefaultTransport
}

func (o options) plainClient() *http.Client {
	return &http.Client{Transport: o.baseTransport(), Timeout: o.timeout}
}

// bearerClient attaches "Authorization: Bearer <access>" from tokens to every request.
func (o options) bearerClient(tokens oauth2.TokenSource) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{Source: tokens, Base: o.baseTransport()},
		Timeout:   o.timeout,
	}
}

type response struct {
	status int
	body   []byte
}

func do(ctx context.Context, client *http.Client, op, method, url string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &UnexpectedError{Op: op, Err: errors.Wrap(err, "marshal request")}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &UnexpectedError{Op: op, Err: errors.Wrap(err, "build request")}
	}
	requestID := uuid.New().String()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("op", op).Str("request_id", requestID).Msg("Request failed")
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: errors.Wrap(err, "read response")}
	}

	log.Debug().
		Str("op", op).
		Str("method", method).
		Str("url", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", requestID).
		Msg("Gateway request")

	return &response{status: resp.StatusCode, body: data}, nil
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}
