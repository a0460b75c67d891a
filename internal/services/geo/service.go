package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LeXarDev/Server-Monitoring/internal/config"
	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
	"github.com/LeXarDev/Server-Monitoring/internal/pkg/validate"
)

var (
	ErrValidation = errors.New("validation error")
	// ErrUnavailable means every configured provider failed for the lookup.
	ErrUnavailable = errors.New("geo lookup unavailable")
)

const (
	responseBodyLimit = 1 << 20

	// fallbackFlag decorates lookups whose country code cannot be mapped.
	fallbackFlag = "\U0001F30D"
)

type Cache interface {
	Get(ctx context.Context, ip string) (model.GeoLocation, bool, error)
	Set(ctx context.Context, ip string, loc model.GeoLocation, ttl time.Duration) error
}

type Service struct {
	client      *http.Client
	cache       Cache
	primaryURL  string
	fallbackURL string
	cacheTTL    time.Duration
}

// primaryResponse is the ipwhois.app shape. A failed lookup still returns 200
// with success=false.
type primaryResponse struct {
	Success     bool   `json:"success"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	City        string `json:"city"`
	ISP         string `json:"isp"`
}

type fallbackResponse struct {
	CountryName string `json:"country_name"`
	CountryCode string `json:"country_code"`
	City        string `json:"city"`
}

func NewService(cfg config.GeoConfig, client *http.Client, cache Cache) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Service{
		client:      client,
		cache:       cache,
		primaryURL:  strings.TrimRight(cfg.PrimaryBaseURL, "/"),
		fallbackURL: strings.TrimRight(cfg.FallbackBaseURL, "/"),
		cacheTTL:    ttl,
	}
}

// Lookup resolves location details for an IPv4 address, consulting the cache
// before the providers and the fallback provider only after the primary fails.
func (s *Service) Lookup(ctx context.Context, ip string) (model.GeoLocation, error) {
	if !validate.IsValidIPv4(ip) {
		return model.GeoLocation{}, fmt.Errorf("invalid ipv4 address: %w", ErrValidation)
	}

	if s.cache != nil {
		if loc, ok, err := s.cache.Get(ctx, ip); err == nil && ok {
			return loc, nil
		}
	}

	loc, primaryErr := s.lookupPrimary(ctx, ip)
	if primaryErr != nil {
		var fallbackErr error
		loc, fallbackErr = s.lookupFallback(ctx, ip)
		if fallbackErr != nil {
			return model.GeoLocation{}, fmt.Errorf("%w: primary: %v, fallback: %v", ErrUnavailable, primaryErr, fallbackErr)
		}
	}

	loc.IP = ip
	loc.Flag = FlagEmoji(loc.CountryCode)
	if loc.Flag == "" {
		loc.Flag = fallbackFlag
	}

	if s.cache != nil {
		// A cache write failure never fails the lookup itself.
		_ = s.cache.Set(ctx, ip, loc, s.cacheTTL)
	}

	return loc, nil
}

func (s *Service) lookupPrimary(ctx context.Context, ip string) (model.GeoLocation, error) {
	if s.primaryURL == "" {
		return model.GeoLocation{}, fmt.Errorf("primary provider is not configured")
	}

	var parsed primaryResponse
	if err := s.fetchJSON(ctx, s.primaryURL+"/"+ip, &parsed); err != nil {
		return model.GeoLocation{}, err
	}
	if !parsed.Success {
		return model.GeoLocation{}, fmt.Errorf("primary provider rejected ip %s", ip)
	}

	return model.GeoLocation{
		Country:     parsed.Country,
		CountryCode: strings.ToUpper(parsed.CountryCode),
		City:        parsed.City,
		ISP:         parsed.ISP,
	}, nil
}

func (s *Service) lookupFallback(ctx context.Context, ip string) (model.GeoLocation, error) {
	if s.fallbackURL == "" {
		return model.GeoLocation{}, fmt.Errorf("fallback provider is not configured")
	}

	var parsed fallbackResponse
	if err := s.fetchJSON(ctx, s.fallbackURL+"/"+ip, &parsed); err != nil {
		return model.GeoLocation{}, err
	}
	if parsed.CountryCode == "" && parsed.CountryName == "" {
		return model.GeoLocation{}, fmt.Errorf("fallback provider returned empty result for ip %s", ip)
	}

	return model.GeoLocation{
		Country:     parsed.CountryName,
		CountryCode: strings.ToUpper(parsed.CountryCode),
		City:        parsed.City,
	}, nil
}

func (s *Service) fetchJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyLimit)).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}

	return nil
}

// FlagEmoji maps a two-letter country code onto its regional-indicator pair.
// Anything that is not exactly two ASCII letters yields an empty string.
func FlagEmoji(countryCode string) string {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if len(code) != 2 {
		return ""
	}

	var flag strings.Builder
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
		flag.WriteRune(r + 127397)
	}

	return flag.String()
}
