package fakesessionstore

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/productms-console/internal/errors"
	"github.com/jrsteele09/productms-console/sessions"
	"github.com/jrsteele09/productms-console/users"
)

var _ sessions.Store = (*FakeStore)(nil)

// FakeStore is an in-memory Store. FailSave and FailClear simulate an
// unavailable backend the way a full disk or a denied write would.
type FakeStore struct {
	values map[string]string
	lock   sync.RWMutex

	FailSave  bool
	FailClear bool
	Saves     int
	Clears    int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string]string)}
}

func (fs *FakeStore) Save(_ context.Context, creds sessions.Credentials, profile users.Profile) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.FailSave {
		return apperrors.Wrapf(apperrors.ErrStorage, "[FakeStore.Save] quota exceeded")
	}
	values, err := sessions.Encode(creds, profile)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "%s", err.Error())
	}
	fs.values = values
	fs.Saves++
	return nil
}

func (fs *FakeStore) Load(_ context.Context) (sessions.Credentials, *users.Profile, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return sessions.Decode(fs.values)
}

func (fs *FakeStore) Clear(_ context.Context) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.FailClear {
		return apperrors.Wrapf(apperrors.ErrStorage, "[FakeStore.Clear] permission denied")
	}
	fs.values = make(map[string]string)
	fs.Clears++
	return nil
}

// Set writes a raw persisted value, bypassing validation.
func (fs *FakeStore) Set(key, value string) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.values[key] = value
}

// Raw returns a copy of the persisted values.
func (fs *FakeStore) Raw() map[string]string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	out := make(map[string]string, len(fs.values))
	for k, v := range fs.values {
		out[k] = v
	}
	return out
}
