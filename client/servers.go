package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/LeXarDev/Server-Monitoring/internal/pkg/sanitize"
	"github.com/LeXarDev/Server-Monitoring/internal/pkg/validate"
)

// MonitoredServer mirrors one monitored-endpoint row owned by the current
// identity.
type MonitoredServer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// ServersClient drives the monitored-endpoint CRUD API. Every call requires a
// stored token and fails fast without one; any 403 evicts the session through
// the shared client.
type ServersClient struct {
	client *Client
}

func NewServersClient(apiClient *Client) *ServersClient {
	return &ServersClient{client: apiClient}
}

func (s *ServersClient) List(ctx context.Context) ([]MonitoredServer, error) {
	var res struct {
		Servers []MonitoredServer `json:"servers"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/servers", nil, true, &res); err != nil {
		return nil, err
	}
	if res.Servers == nil {
		res.Servers = []MonitoredServer{}
	}
	return res.Servers, nil
}

// Add checks the input locally first: a malformed name or address never
// produces a request.
func (s *ServersClient) Add(ctx context.Context, name, address string) (MonitoredServer, error) {
	name = sanitize.Clean(name)
	if !validate.Required(name) {
		return MonitoredServer{}, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if !validate.IsValidIPv4(address) {
		return MonitoredServer{}, fmt.Errorf("invalid ipv4 address: %w", ErrValidation)
	}

	var res MonitoredServer
	err := s.client.do(ctx, http.MethodPost, "/api/servers", map[string]string{
		"name":    name,
		"address": address,
	}, true, &res)
	if err != nil {
		return MonitoredServer{}, err
	}
	return res, nil
}

func (s *ServersClient) Remove(ctx context.Context, serverID int64) error {
	return s.client.do(ctx, http.MethodDelete, fmt.Sprintf("/api/servers/%d", serverID), nil, true, nil)
}

// GeoLocation is the lookup result used to decorate a server row.
type GeoLocation struct {
	IP          string `json:"ip"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	City        string `json:"city"`
	ISP         string `json:"isp"`
	Flag        string `json:"flag"`
}

func (s *ServersClient) Lookup(ctx context.Context, ip string) (GeoLocation, error) {
	if !validate.IsValidIPv4(ip) {
		return GeoLocation{}, fmt.Errorf("invalid ipv4 address: %w", ErrValidation)
	}

	var res GeoLocation
	if err := s.client.do(ctx, http.MethodGet, "/api/lookup/"+ip, nil, true, &res); err != nil {
		return GeoLocation{}, err
	}
	return res, nil
}
