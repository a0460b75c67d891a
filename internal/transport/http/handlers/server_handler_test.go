package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
	pgrepo "github.com/LeXarDev/Server-Monitoring/internal/repo/postgres"
	authsvc "github.com/LeXarDev/Server-Monitoring/internal/services/auth"
	serversvc "github.com/LeXarDev/Server-Monitoring/internal/services/servers"
)

type serverStoreStub struct {
	servers map[int64]model.MonitoredServer
	nextID  int64
}

func newServerStoreStub() *serverStoreStub {
	return &serverStoreStub{servers: map[int64]model.MonitoredServer{}, nextID: 1}
}

func (s *serverStoreStub) ListByOwner(_ context.Context, ownerID int64) ([]model.MonitoredServer, error) {
	var out []model.MonitoredServer
	for _, server := range s.servers {
		if server.OwnerID == ownerID {
			out = append(out, server)
		}
	}
	return out, nil
}

func (s *serverStoreStub) Create(_ context.Context, ownerID int64, name, address string) (model.MonitoredServer, error) {
	server := model.MonitoredServer{ID: s.nextID, OwnerID: ownerID, Name: name, Address: address}
	s.nextID++
	s.servers[server.ID] = server
	return server, nil
}

func (s *serverStoreStub) DeleteOwned(_ context.Context, ownerID, serverID int64) error {
	server, ok := s.servers[serverID]
	if !ok || server.OwnerID != ownerID {
		return pgrepo.ErrServerNotFound
	}
	delete(s.servers, serverID)
	return nil
}

func withIdentity(req *http.Request, userID int64) *http.Request {
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: userID,
		Email:  "bob@x.com",
	}))
}

func TestServerCreateAndList(t *testing.T) {
	store := newServerStoreStub()
	h := NewServerHandler(serversvc.NewService(store))

	body, _ := json.Marshal(map[string]string{"name": "edge node", "address": "10.0.0.1"})
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/servers", bytes.NewReader(body)), 1)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected create status: got %d, body: %s", rr.Code, rr.Body.String())
	}

	listReq := withIdentity(httptest.NewRequest(http.MethodGet, "/api/servers", nil), 1)
	listRR := httptest.NewRecorder()
	h.List(listRR, listReq)

	if listRR.Code != http.StatusOK {
		t.Fatalf("unexpected list status: got %d", listRR.Code)
	}

	var payload struct {
		Servers []struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"servers"`
	}
	if err := json.Unmarshal(listRR.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Servers) != 1 || payload.Servers[0].Address != "10.0.0.1" {
		t.Fatalf("unexpected list payload: %+v", payload.Servers)
	}
}

func TestServerCreateRejectsBadAddress(t *testing.T) {
	h := NewServerHandler(serversvc.NewService(newServerStoreStub()))

	body, _ := json.Marshal(map[string]string{"name": "edge node", "address": "256.1.1.1"})
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/servers", bytes.NewReader(body)), 1)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestServerListEmptyForNewOwner(t *testing.T) {
	h := NewServerHandler(serversvc.NewService(newServerStoreStub()))

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/servers", nil), 1)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d", rr.Code)
	}
	if got := rr.Body.String(); got != "{\"servers\":[]}\n" {
		t.Fatalf("expected empty servers array, got %s", got)
	}
}

func TestServerDeleteScopedToOwner(t *testing.T) {
	store := newServerStoreStub()
	svc := serversvc.NewService(store)
	h := NewServerHandler(svc)

	server, err := svc.Add(context.Background(), 1, "edge node", "10.0.0.1")
	if err != nil {
		t.Fatalf("seed server: %v", err)
	}

	deleteAs := func(userID int64) *httptest.ResponseRecorder {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", "1")
		req := withIdentity(httptest.NewRequest(http.MethodDelete, "/api/servers/1", nil), userID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rr := httptest.NewRecorder()
		h.Delete(rr, req)
		return rr
	}

	if rr := deleteAs(2); rr.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: got %d want %d", rr.Code, http.StatusNotFound)
	}
	if _, ok := store.servers[server.ID]; !ok {
		t.Fatalf("server should survive foreign delete")
	}

	if rr := deleteAs(1); rr.Code != http.StatusOK {
		t.Fatalf("owner delete: got %d want %d", rr.Code, http.StatusOK)
	}
	if _, ok := store.servers[server.ID]; ok {
		t.Fatalf("server should be gone after owner delete")
	}
}

func TestServerEndpointsRequireIdentity(t *testing.T) {
	h := NewServerHandler(serversvc.NewService(newServerStoreStub()))

	req := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}
