package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
	authsvc "github.com/LeXarDev/Server-Monitoring/internal/services/auth"
	serversvc "github.com/LeXarDev/Server-Monitoring/internal/services/servers"
	"github.com/LeXarDev/Server-Monitoring/internal/transport/http/dto"
	httperrors "github.com/LeXarDev/Server-Monitoring/internal/transport/http/errors"
)

type ServerHandler struct {
	service *serversvc.Service
}

func NewServerHandler(service *serversvc.Service) *ServerHandler {
	return &ServerHandler{service: service}
}

func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	servers, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		handleServerError(w, err)
		return
	}

	out := make([]dto.ServerResponse, 0, len(servers))
	for _, server := range servers {
		out = append(out, serverResponse(server))
	}

	httperrors.Write(w, http.StatusOK, dto.ServerListResponse{Servers: out})
}

func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.ServerCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	server, err := h.service.Add(r.Context(), identity.UserID, req.Name, req.Address)
	if err != nil {
		handleServerError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, serverResponse(server))
}

func (h *ServerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	serverID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || serverID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid server id")
		return
	}

	if err := h.service.Remove(r.Context(), identity.UserID, serverID); err != nil {
		handleServerError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *ServerHandler) requireIdentity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	if h.service == nil {
		writeInternal(w, "SERVER_SERVICE_UNAVAILABLE", "server service is unavailable")
		return authsvc.Identity{}, false
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}

	return identity, true
}

func serverResponse(server model.MonitoredServer) dto.ServerResponse {
	return dto.ServerResponse{
		ID:        server.ID,
		Name:      server.Name,
		Address:   server.Address,
		CreatedAt: server.CreatedAt,
	}
}

func handleServerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, serversvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, serversvc.ErrNotFound):
		writeNotFound(w, "SERVER_NOT_FOUND", "server not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
