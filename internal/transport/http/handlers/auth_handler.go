package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	authsvc "github.com/LeXarDev/Server-Monitoring/internal/services/auth"
	ratesvc "github.com/LeXarDev/Server-Monitoring/internal/services/rate"
	"github.com/LeXarDev/Server-Monitoring/internal/transport/http/dto"
	httperrors "github.com/LeXarDev/Server-Monitoring/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
	sso     *authsvc.SSOProvider
	limiter *ratesvc.Limiter
}

func NewAuthHandler(service *authsvc.Service, sso *authsvc.SSOProvider, limiter *ratesvc.Limiter) *AuthHandler {
	return &AuthHandler{
		service: service,
		sso:     sso,
		limiter: limiter,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrDuplicateEmail) {
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "EMAIL_TAKEN",
				Message: "email already registered",
			})
			return
		}
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, authResponse(res))
}

// Login throttles by client IP before checking credentials. Every attempt in
// the window counts, successful or not.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	ip := clientIP(r)

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowLogin(r.Context(), ip)
		if err != nil {
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
			return
		}
		if !allowed {
			writeRateLimited(w, retryAfter)
			return
		}
	}

	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password, ip, r.UserAgent())
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, authResponse(res))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// Check validates the bearer token directly so callers can verify a stored
// token without tripping the auth middleware.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	token, ok := extractBearerToken(r.Header.Get("Authorization"))
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "missing bearer token")
		return
	}

	me, err := h.service.Check(r.Context(), token)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CheckResponse{
		Authenticated: true,
		Me:            meResponse(me),
	})
}

func (h *AuthHandler) SSOStart(w http.ResponseWriter, r *http.Request) {
	if h.sso == nil || !h.sso.Configured() {
		httperrors.Write(w, http.StatusNotImplemented, httperrors.APIError{
			Code:    "SSO_NOT_CONFIGURED",
			Message: "sso provider is not configured",
		})
		return
	}

	authURL, state, err := h.sso.StartURL(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.SSOStartResponse{
		AuthURL: authURL,
		State:   state,
	})
}

func (h *AuthHandler) SSOLogin(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}
	if h.sso == nil || !h.sso.Configured() {
		httperrors.Write(w, http.StatusNotImplemented, httperrors.APIError{
			Code:    "SSO_NOT_CONFIGURED",
			Message: "sso provider is not configured",
		})
		return
	}

	var req dto.SSOLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.LoginSSO(r.Context(), h.sso, req.Code, req.State, clientIP(r), r.UserAgent())
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, authResponse(res))
}

func authResponse(res authsvc.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:        res.Token,
		ExpiresInSec: maxInt64(0, int64(time.Until(res.ExpiresAt).Seconds())),
		Me:           meResponse(res.Me),
	}
}

func meResponse(me authsvc.Me) dto.MeResponse {
	return dto.MeResponse{
		ID:        me.ID,
		Username:  me.Username,
		Email:     me.Email,
		AvatarURL: me.AvatarURL,
	}
}

func handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		writeUnauthorized(w, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, authsvc.ErrInvalidState):
		writeUnauthorized(w, "INVALID_STATE", "unknown or expired sso state")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, "UNAUTHORIZED", "authentication failed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfterSec int64) {
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
	httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
		Code:          "TOO_MANY_ATTEMPTS",
		Message:       "too many login attempts",
		RetryAfterSec: retryAfterSec,
	})
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
