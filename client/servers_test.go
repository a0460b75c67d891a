package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func newServersClient(t *testing.T, baseURL, token string) (*ServersClient, TokenStore) {
	t.Helper()

	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"), nil)
	if token != "" {
		store.SetToken(token)
	}
	return NewServersClient(New(baseURL, nil, store, nil)), store
}

func TestServersListAndAdd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/servers", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"servers": []map[string]any{
				{"id": 1, "name": "edge node", "address": "10.0.0.1"},
			},
		})
	})
	mux.HandleFunc("POST /api/servers", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 2, "name": "second node", "address": "10.0.0.2",
		})
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	servers, _ := newServersClient(t, backend.URL, "good-token")

	list, err := servers.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Address != "10.0.0.1" {
		t.Fatalf("unexpected list: %+v", list)
	}

	added, err := servers.Add(context.Background(), "second node", "10.0.0.2")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.ID != 2 {
		t.Fatalf("unexpected added server: %+v", added)
	}
}

func TestServersFailFastWithoutToken(t *testing.T) {
	calls := 0
	backend := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer backend.Close()

	servers, _ := newServersClient(t, backend.URL, "")

	if _, err := servers.List(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network call, got %d", calls)
	}
}

func TestServers403EvictsSession(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "TOKEN_REJECTED"})
	}))
	defer backend.Close()

	servers, store := newServersClient(t, backend.URL, "stale-token")

	if _, err := servers.List(context.Background()); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if store.Token() != "" {
		t.Fatalf("expected token evicted after 403, got %q", store.Token())
	}

	// Subsequent calls fail fast without touching the network.
	if _, err := servers.List(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after eviction, got %v", err)
	}
}

func TestServersRemovePropagatesNotFound(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "SERVER_NOT_FOUND",
			"message": "server not found",
		})
	}))
	defer backend.Close()

	servers, _ := newServersClient(t, backend.URL, "good-token")

	err := servers.Remove(context.Background(), 42)
	if err == nil {
		t.Fatalf("expected error for missing server")
	}
	if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNoToken) {
		t.Fatalf("unexpected error class: %v", err)
	}
}

func TestAddRejectsInvalidIPv4BeforeNetwork(t *testing.T) {
	calls := 0
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	defer backend.Close()

	servers, _ := newServersClient(t, backend.URL, "good-token")

	for _, address := range []string{"999.1.1.1", "8.8.8.+8", "not-an-ip", ""} {
		if _, err := servers.Add(context.Background(), "box", address); !errors.Is(err, ErrValidation) {
			t.Fatalf("address %q: expected ErrValidation, got %v", address, err)
		}
	}
	if _, err := servers.Add(context.Background(), "   ", "10.0.0.1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for a blank name, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("invalid input reached the network: %d request(s)", calls)
	}
}

func TestLookupRejectsInvalidIPBeforeNetwork(t *testing.T) {
	calls := 0
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	servers, _ := newServersClient(t, backend.URL, "good-token")

	if _, err := servers.Lookup(context.Background(), "256.1.1.1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("invalid ip reached the network: %d request(s)", calls)
	}
}
