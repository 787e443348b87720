package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	want := Credentials{
		AccessToken:  "a.b.c",
		RefreshToken: "refresh",
		IdentityJSON: []byte(`{"id":"1"}`),
	}
	if err := store.Write(ctx, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
		t.Fatalf("unexpected credentials: %+v", got)
	}
	if string(got.IdentityJSON) != string(want.IdentityJSON) {
		t.Fatalf("unexpected identity payload: %s", got.IdentityJSON)
	}
}

func TestFileStoreReadEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Read(context.Background()); err != ErrNoCredentials {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestFileStoreClearRemovesAllKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Write(ctx, Credentials{AccessToken: "a", RefreshToken: "r", IdentityJSON: []byte("{}")}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, key := range []string{"access_token", "refresh_token", "identity"} {
		if _, err := os.Stat(filepath.Join(dir, key)); !os.IsNotExist(err) {
			t.Fatalf("key %s survived clear", key)
		}
	}

	// Clearing again is fine.
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFileStorePrivatePermissions(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "session")
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Write(ctx, Credentials{AccessToken: "a", RefreshToken: "r", IdentityJSON: []byte("{}")}); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Fatalf("session dir permissions too open: %o", perm)
	}
	info, err = os.Stat(filepath.Join(dir, "access_token"))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("token file permissions too open: %o", perm)
	}
}
