package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/LeXarDev/Server-Monitoring/internal/services/auth"
	avatarsvc "github.com/LeXarDev/Server-Monitoring/internal/services/avatars"
	"github.com/LeXarDev/Server-Monitoring/internal/transport/http/dto"
	httperrors "github.com/LeXarDev/Server-Monitoring/internal/transport/http/errors"
)

// multipartMemoryLimit bounds the in-memory part of multipart parsing, not the
// avatar size itself.
const multipartMemoryLimit = 1 << 20

type AvatarHandler struct {
	service *avatarsvc.Service
}

func NewAvatarHandler(service *avatarsvc.Service) *AvatarHandler {
	return &AvatarHandler{service: service}
}

func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AVATAR_SERVICE_UNAVAILABLE", "avatar service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}
	if identity.UserID != userID {
		writeForbidden(w, "FORBIDDEN", "cannot change another user's avatar")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, avatarsvc.MaxAvatarSize+multipartMemoryLimit)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "avatar file is required")
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.service.Upload(r.Context(), userID, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		handleAvatarError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AvatarResponse{AvatarURL: url})
}

func handleAvatarError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, avatarsvc.ErrTooLarge):
		httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{
			Code:    "AVATAR_TOO_LARGE",
			Message: "avatar exceeds the 5MB limit",
		})
	case errors.Is(err, avatarsvc.ErrBadMimeType):
		writeBadRequest(w, "UNSUPPORTED_TYPE", "avatar must be jpeg, png or gif")
	case errors.Is(err, avatarsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
