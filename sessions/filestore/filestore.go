// Package filestore persists the session as one file per origin. The three
// session keys live in a single JSON document that is replaced with a rename,
// so readers see either the previous session or the new one, never a mix.
package filestore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/productms-console/internal/errors"
	"github.com/jrsteele09/productms-console/sessions"
	"github.com/jrsteele09/productms-console/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
	hkdfSalt = "productms-session-store"
)

var _ sessions.Store = (*Store)(nil)

type Store struct {
	path string
	aead cipher.AEAD // nil when values are stored in clear text
	lock sync.RWMutex
}

type Option func(*Store) error

// WithPassphrase encrypts the session file with XChaCha20-Poly1305 using a key
// derived from passphrase.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) error {
		if passphrase == "" {
			return nil
		}
		key := make([]byte, chacha20poly1305.KeySize)
		kdf := hkdf.New(sha256.New, []byte(passphrase), []byte(hkdfSalt), []byte(filepath.Base(s.path)))
		if _, err := io.ReadFull(kdf, key); err != nil {
			return errors.Wrap(err, "[filestore.WithPassphrase] derive key")
		}
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return errors.Wrap(err, "[filestore.WithPassphrase] cipher")
		}
		s.aead = aead
		return nil
	}
}

// New creates a store for origin under dir, creating dir if needed.
func New(dir, origin string, options ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, errors.Wrap(err, "[filestore.New] create session directory")
	}
	s := &Store{path: filepath.Join(dir, sessions.OriginKey(origin)+".session")}
	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the file backing this store.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Save(_ context.Context, creds sessions.Credentials, profile users.Profile) error {
	values, err := sessions.Encode(creds, profile)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "%s", err.Error())
	}
	data, err := json.Marshal(values)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[filestore.Save] marshal")
	}
	if data, err = s.seal(data); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[filestore.Save] encrypt: %s", err.Error())
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[filestore.Save] temp file: %s", err.Error())
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Wrapf(apperrors.ErrStorage, "[filestore.Save] write: %s", err.Error())
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return apperrors.Wrapf(apperrors.ErrStorage, "[filestore.Save] chmod: %s", err.Error())
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[filestore.Save] close: %s", err.Error())
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "[filestore.Save] rename: %s", err.Error())
	}
	return nil
}

func (s *Store) Load(_ context.Context) (sessions.Credentials, *users.Profile, error) {
	s.lock.RLock()
	data, err := os.ReadFile(s.path)
	s.lock.RUnlock()

	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("Session file unreadable, treating as no session")
		}
		return sessions.Credentials{}, nil, sessions.ErrNoSession
	}

	plain, err := s.open(data)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Session file could not be decrypted, treating as no session")
		return sessions.Credentials{}, nil, sessions.ErrNoSession
	}

	values := map[string]string{}
	if err := json.Unmarshal(plain, &values); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Session file is malformed, treating as no session")
		return sessions.Credentials{}, nil, sessions.ErrNoSession
	}
	return sessions.Decode(values)
}

func (s *Store) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrapf(apperrors.ErrStorage, "[filestore.Clear] %s", err.Error())
	}
	return nil
}

func (s *Store) seal(plain []byte) ([]byte, error) {
	if s.aead == nil {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *Store) open(data []byte) ([]byte, error) {
	if s.aead == nil {
		return data, nil
	}
	if len(data) < s.aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	return s.aead.Open(nil, nonce, ciphertext, nil)
}
