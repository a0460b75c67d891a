package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	geosvc "github.com/LeXarDev/Server-Monitoring/internal/services/geo"
	"github.com/LeXarDev/Server-Monitoring/internal/transport/http/dto"
	httperrors "github.com/LeXarDev/Server-Monitoring/internal/transport/http/errors"
)

type GeoHandler struct {
	service *geosvc.Service
}

func NewGeoHandler(service *geosvc.Service) *GeoHandler {
	return &GeoHandler{service: service}
}

func (h *GeoHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "GEO_SERVICE_UNAVAILABLE", "geo service is unavailable")
		return
	}

	loc, err := h.service.Lookup(r.Context(), chi.URLParam(r, "ip"))
	if err != nil {
		switch {
		case errors.Is(err, geosvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid ipv4 address")
		case errors.Is(err, geosvc.ErrUnavailable):
			httperrors.Write(w, http.StatusBadGateway, httperrors.APIError{
				Code:    "GEO_UNAVAILABLE",
				Message: "geo lookup providers are unavailable",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.GeoLookupResponse{
		IP:          loc.IP,
		Country:     loc.Country,
		CountryCode: loc.CountryCode,
		City:        loc.City,
		ISP:         loc.ISP,
		Flag:        loc.Flag,
	})
}
