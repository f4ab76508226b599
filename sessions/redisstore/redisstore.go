// Package redisstore keeps the session keys in Redis, namespaced by origin.
package redisstore

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/productms-console/internal/errors"
	"github.com/jrsteele09/productms-console/sessions"
	"github.com/jrsteele09/productms-console/users"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultPrefix = "productms:session"

var _ sessions.Store = (*Store)(nil)

type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL expires all three keys after ttl. Zero keeps them until cleared.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.TrimRight(prefix, ":")
	}
}

func New(client redis.UniversalClient, origin string, options ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, opt := range options {
		opt(s)
	}
	s.prefix = s.prefix + ":" + sessions.OriginKey(origin)
	return s
}

// Connect parses url, pings the server and returns a client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "[redisstore.Connect] parse url")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "[redisstore.Connect] ping")
	}
	return client, nil
}

func (s *Store) key(name string) string {
	return s.prefix + ":" + name
}

func (s *Store) keys() []string {
	out := make([]string, 0, len(sessions.Keys))
	for _, k := range sessions.Keys {
		out = append(out, s.key(k))
	}
	return out
}

func (s *Store) Save(ctx context.Context, creds sessions.Credentials, profile users.Profile) error {
	values, err := sessions.Encode(creds, profile)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "%s", err.Error())
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range sessions.Keys {
			pipe.Set(ctx, s.key(k), values[k], s.ttl)
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[redisstore.Save] %s", err.Error())
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (sessions.Credentials, *users.Profile, error) {
	raw, err := s.client.MGet(ctx, s.keys()...).Result()
	if err != nil {
		log.Warn().Err(err).Str("prefix", s.prefix).Msg("Session keys unreadable, treating as no session")
		return sessions.Credentials{}, nil, sessions.ErrNoSession
	}

	values := make(map[string]string, len(sessions.Keys))
	for i, k := range sessions.Keys {
		if v, ok := raw[i].(string); ok {
			values[k] = v
		}
	}
	return sessions.Decode(values)
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.keys()...).Err(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[redisstore.Clear] %s", err.Error())
	}
	return nil
}
