package apiapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "github.com/LeXarDev/Server-Monitoring/internal/services/auth"
)

func newMiddlewareService(t *testing.T) (*authsvc.Service, string) {
	t.Helper()

	jwtManager := authsvc.NewJWTManager("test-secret", time.Hour)
	token, _, err := jwtManager.Generate(7, "bob@x.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	return authsvc.NewService(nil, nil, jwtManager), token
}

func TestAuthMiddlewareMissingTokenIs401(t *testing.T) {
	svc, _ := newMiddlewareService(t)
	mw := AuthMiddleware(svc, nil)

	handler := mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not run without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareRejectedTokenIs403(t *testing.T) {
	svc, _ := newMiddlewareService(t)
	mw := AuthMiddleware(svc, nil)

	handler := mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not run with a rejected token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	req.Header.Set("Authorization", "Bearer not-a-valid-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "TOKEN_REJECTED" {
		t.Fatalf("unexpected error code: %q", payload.Code)
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	svc, token := newMiddlewareService(t)
	mw := AuthMiddleware(svc, nil)

	var seen authsvc.Identity
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("identity missing from context")
		}
		seen = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d", rr.Code)
	}
	if seen.UserID != 7 || seen.Email != "bob@x.com" {
		t.Fatalf("unexpected identity: %+v", seen)
	}
}
