package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
	authsvc "github.com/LeXarDev/Server-Monitoring/internal/services/auth"
	profilesvc "github.com/LeXarDev/Server-Monitoring/internal/services/profiles"
	"github.com/LeXarDev/Server-Monitoring/internal/transport/http/dto"
	httperrors "github.com/LeXarDev/Server-Monitoring/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
}

func NewProfileHandler(service *profilesvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, userID, ok := h.requesterAndTarget(w, r)
	if !ok {
		return
	}

	profile, err := h.service.Get(r.Context(), identity.UserID, userID)
	if err != nil {
		handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, userID, ok := h.requesterAndTarget(w, r)
	if !ok {
		return
	}

	var req dto.ProfileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	profile, err := h.service.Update(r.Context(), identity.UserID, userID, profilesvc.UpdateInput{
		FullName: req.FullName,
		Bio:      req.Bio,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandler) Logins(w http.ResponseWriter, r *http.Request) {
	identity, userID, ok := h.requesterAndTarget(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := h.service.Logins(r.Context(), identity.UserID, userID, limit)
	if err != nil {
		handleProfileError(w, err)
		return
	}

	logins := make([]dto.LoginRecordResponse, 0, len(records))
	for _, record := range records {
		logins = append(logins, dto.LoginRecordResponse{
			ID:        record.ID,
			IPAddress: record.IPAddress,
			UserAgent: record.UserAgent,
			CreatedAt: record.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.LoginHistoryResponse{Logins: logins})
}

func (h *ProfileHandler) requesterAndTarget(w http.ResponseWriter, r *http.Request) (authsvc.Identity, int64, bool) {
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return authsvc.Identity{}, 0, false
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, 0, false
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return authsvc.Identity{}, 0, false
	}

	return identity, userID, true
}

func profileResponse(profile model.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		UserID:    profile.UserID,
		Username:  profile.Username,
		Email:     profile.Email,
		FullName:  profile.FullName,
		Bio:       profile.Bio,
		Phone:     profile.Phone,
		Location:  profile.Location,
		AvatarURL: profile.AvatarURL,
	}
}

func handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profilesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, profilesvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "cannot access another user's profile")
	case errors.Is(err, profilesvc.ErrNotFound):
		writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
