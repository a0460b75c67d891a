package servers

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeXarDev/Server-Monitoring/internal/domain/model"
	"github.com/LeXarDev/Server-Monitoring/internal/pkg/sanitize"
	"github.com/LeXarDev/Server-Monitoring/internal/pkg/validate"
	pgrepo "github.com/LeXarDev/Server-Monitoring/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("server not found")
)

const maxNameLength = 100

type ServerStore interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]model.MonitoredServer, error)
	Create(ctx context.Context, ownerID int64, name, address string) (model.MonitoredServer, error)
	DeleteOwned(ctx context.Context, ownerID, serverID int64) error
}

type Service struct {
	store ServerStore
}

func NewService(store ServerStore) *Service {
	return &Service{store: store}
}

// List returns the owner's monitored endpoints, newest first. An owner with no
// entries gets an empty slice, never nil.
func (s *Service) List(ctx context.Context, ownerID int64) ([]model.MonitoredServer, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("invalid owner id: %w", ErrValidation)
	}
	if s.store == nil {
		return nil, fmt.Errorf("server store is nil")
	}

	list, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	if list == nil {
		list = []model.MonitoredServer{}
	}

	return list, nil
}

// Add validates and stores a new monitored endpoint for the owner.
func (s *Service) Add(ctx context.Context, ownerID int64, name, address string) (model.MonitoredServer, error) {
	if ownerID <= 0 {
		return model.MonitoredServer{}, fmt.Errorf("invalid owner id: %w", ErrValidation)
	}
	if s.store == nil {
		return model.MonitoredServer{}, fmt.Errorf("server store is nil")
	}

	name = sanitize.Clean(name)
	if !validate.Required(name) {
		return model.MonitoredServer{}, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if len(name) > maxNameLength {
		return model.MonitoredServer{}, fmt.Errorf("name too long: %w", ErrValidation)
	}
	if !validate.IsValidIPv4(address) {
		return model.MonitoredServer{}, fmt.Errorf("invalid ipv4 address: %w", ErrValidation)
	}

	server, err := s.store.Create(ctx, ownerID, name, address)
	if err != nil {
		return model.MonitoredServer{}, fmt.Errorf("create server: %w", err)
	}

	return server, nil
}

// Remove deletes an endpoint only when the requester owns it. A foreign or
// missing id reports not found, never anything about other owners' rows.
func (s *Service) Remove(ctx context.Context, ownerID, serverID int64) error {
	if ownerID <= 0 || serverID <= 0 {
		return fmt.Errorf("invalid id: %w", ErrValidation)
	}
	if s.store == nil {
		return fmt.Errorf("server store is nil")
	}

	if err := s.store.DeleteOwned(ctx, ownerID, serverID); err != nil {
		if errors.Is(err, pgrepo.ErrServerNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete server: %w", err)
	}

	return nil
}
