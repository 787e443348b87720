// Package session owns the client's credential material: persistence of
// the token/identity triple and the lifecycle of the active session. The
// Manager is the only writer; everything else asks it for the current
// identity instead of re-reading storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Credentials is the persisted triple. The three values live under
// independent keys but are written and cleared together; after a
// successful Clear none of them remains.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	IdentityJSON []byte
}

// ErrNoCredentials is returned by Read when no session material is
// persisted.
var ErrNoCredentials = errors.New("no persisted credentials")

// CredentialStore abstracts where the triple lives.
type CredentialStore interface {
	Read(ctx context.Context) (Credentials, error)
	Write(ctx context.Context, c Credentials) error
	Clear(ctx context.Context) error
}

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyIdentity     = "identity"
)

// FileStore keeps each key in its own file under a private directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("session dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *FileStore) Read(_ context.Context) (Credentials, error) {
	access, err := os.ReadFile(s.path(keyAccessToken))
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ErrNoCredentials
		}
		return Credentials{}, fmt.Errorf("read access token: %w", err)
	}
	refresh, err := os.ReadFile(s.path(keyRefreshToken))
	if err != nil && !os.IsNotExist(err) {
		return Credentials{}, fmt.Errorf("read refresh token: %w", err)
	}
	identity, err := os.ReadFile(s.path(keyIdentity))
	if err != nil && !os.IsNotExist(err) {
		return Credentials{}, fmt.Errorf("read identity: %w", err)
	}
	return Credentials{
		AccessToken:  string(access),
		RefreshToken: string(refresh),
		IdentityJSON: identity,
	}, nil
}

func (s *FileStore) Write(_ context.Context, c Credentials) error {
	entries := map[string][]byte{
		keyAccessToken:  []byte(c.AccessToken),
		keyRefreshToken: []byte(c.RefreshToken),
		keyIdentity:     c.IdentityJSON,
	}
	for key, data := range entries {
		if err := os.WriteFile(s.path(key), data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return nil
}

// Clear removes all three keys. Missing files are fine; Clear is
// idempotent.
func (s *FileStore) Clear(_ context.Context) error {
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyIdentity} {
		if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}
