package sessions

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	apperrors "github.com/jrsteele09/productms-console/internal/errors"
	"github.com/jrsteele09/productms-console/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Persisted keys. All three are written and removed together.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// Keys lists the persisted keys in write order.
var Keys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// ErrNoSession is returned by Load when nothing usable is persisted.
var ErrNoSession = apperrors.ErrNoSession

// Store persists the credential pair and the cached profile across restarts.
// Save and Clear failures wrap apperrors.ErrStorage; callers treat them as non-fatal.
type Store interface {
	// Save writes the credentials and profile, replacing anything stored before.
	Save(ctx context.Context, creds Credentials, profile users.Profile) error

	// Load returns the stored credentials and the cached profile. The profile
	// is nil when the cache entry is missing or unreadable but the credentials
	// are intact. ErrNoSession is returned when no valid pair is stored.
	Load(ctx context.Context) (Credentials, *users.Profile, error)

	// Clear removes every persisted key. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Encode converts the session into its three persisted values.
func Encode(creds Credentials, profile users.Profile) (map[string]string, error) {
	if !creds.Valid() {
		return nil, errors.New("[sessions.Encode] incomplete credential pair")
	}
	userJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, errors.Wrap(err, "[sessions.Encode] marshal profile")
	}
	return map[string]string{
		KeyAccessToken:  creds.Access,
		KeyRefreshToken: creds.Refresh,
		KeyUser:         string(userJSON),
	}, nil
}

// Decode validates persisted values and fails closed: a missing or half
// present pair is ErrNoSession, an unreadable profile is dropped.
func Decode(values map[string]string) (Credentials, *users.Profile, error) {
	creds := Credentials{
		Access:  values[KeyAccessToken],
		Refresh: values[KeyRefreshToken],
	}
	if !creds.Valid() {
		if creds.Access != "" || creds.Refresh != "" {
			log.Debug().Msg("Persisted session has a half credential pair, ignoring it")
		}
		return Credentials{}, nil, ErrNoSession
	}

	raw := values[KeyUser]
	if raw == "" {
		return creds, nil, nil
	}
	profile := &users.Profile{}
	if err := json.Unmarshal([]byte(raw), profile); err != nil {
		log.Debug().Err(err).Msg("Persisted profile is not valid JSON, ignoring it")
		return creds, nil, nil
	}
	if err := profile.Validate(); err != nil {
		log.Debug().Err(err).Msg("Persisted profile failed validation, ignoring it")
		return creds, nil, nil
	}
	return creds, profile, nil
}

var unsafeOriginChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// OriginKey turns an origin such as "http://localhost:3000" into a name safe
// for file names and redis keys.
func OriginKey(origin string) string {
	o := strings.ToLower(strings.TrimSpace(origin))
	o = strings.TrimRight(o, "/")
	o = strings.Replace(o, "://", "_", 1)
	o = unsafeOriginChars.ReplaceAllString(o, "_")
	if o == "" {
		return "default"
	}
	return o
}
