package client

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, nil)

	store.SetToken("abc")
	if got := store.Token(); got != "abc" {
		t.Fatalf("unexpected token: %q", got)
	}

	store.SetIdentity(Identity{ID: 1, Email: "bob@x.com"})
	identity, ok := store.Identity()
	if !ok || identity.Email != "bob@x.com" {
		t.Fatalf("unexpected identity: %+v ok=%v", identity, ok)
	}

	// A fresh store over the same file sees the persisted state.
	reloaded := NewFileStore(path, nil)
	if got := reloaded.Token(); got != "abc" {
		t.Fatalf("unexpected token after reload: %q", got)
	}
}

func TestFileStoreClearDropsEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, nil)

	store.SetToken("abc")
	store.SetIdentity(Identity{ID: 1, Email: "bob@x.com"})
	store.Clear()

	if got := store.Token(); got != "" {
		t.Fatalf("expected empty token after clear, got %q", got)
	}
	if _, ok := store.Identity(); ok {
		t.Fatalf("expected no identity after clear")
	}

	reloaded := NewFileStore(path, nil)
	if got := reloaded.Token(); got != "" {
		t.Fatalf("expected empty token after reload, got %q", got)
	}
}

func TestFileStoreToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	store := NewFileStore(path, nil)
	if got := store.Token(); got != "" {
		t.Fatalf("expected empty token from corrupt file, got %q", got)
	}

	// Still usable for writes.
	store.SetToken("abc")
	if got := store.Token(); got != "abc" {
		t.Fatalf("unexpected token: %q", got)
	}
}

func TestFileStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, nil)
	store.SetToken("abc")

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat store file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("unexpected permissions: %v", perm)
	}
}
