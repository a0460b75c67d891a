package profiles

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
	// ErrForbidden means the requester tried to touch another user's profile.
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("profile not found")
)

type ProfileStore interface {
	GetOrCreate(ctx context.Context, userID int64) (model.Profile, error)
	Update(ctx context.Context, userID int64, fullName, bio, phone, location *string) (model.Profile, error)
}

type LoginHistory interface {
	ListRecent(ctx context.Context, userID int64, limit int) ([]model.LoginRecord, error)
}

type Service struct {
	store   ProfileStore
	history LoginHistory
}

type UpdateInput struct {
	FullName *string
	Bio      *string
	Phone    *string
	Location *string
}

func NewService(store ProfileStore, history LoginHistory) *Service {
	return &Service{
		store:   store,
		history: history,
	}
}

func (s *Service) Get(ctx context.Context, requesterID, userID int64) (model.Profile, error) {
	if err := checkOwnership(requesterID, userID); err != nil {
		return model.Profile{}, err
	}
	if s.store == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}

	profile, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return model.Profile{}, mapStoreErr(err)
	}

	return profile, nil
}

// Update applies only the fields present in the input. Text passes through the
// sanitizer before it reaches storage.
func (s *Service) Update(ctx context.Context, requesterID, userID int64, in UpdateInput) (model.Profile, error) {
	if err := checkOwnership(requesterID, userID); err != nil {
		return model.Profile{}, err
	}
	if s.store == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}

	fullName := cleanOptional(in.FullName)
	bio := cleanOptional(in.Bio)
	phone := cleanOptional(in.Phone)
	location := cleanOptional(in.Location)

	if phone != nil && *phone != "" && !validate.IsValidPhone(*phone) {
		return model.Profile{}, fmt.Errorf("invalid phone: %w", ErrValidation)
	}

	profile, err := s.store.Update(ctx, userID, fullName, bio, phone, location)
	if err != nil {
		return model.Profile{}, mapStoreErr(err)
	}

	return profile, nil
}

// Logins returns the requester's most recent sign-ins, newest first.
func (s *Service) Logins(ctx context.Context, requesterID, userID int64, limit int) ([]model.LoginRecord, error) {
	if err := checkOwnership(requesterID, userID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, fmt.Errorf("login history is nil")
	}

	records, err := s.history.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list login history: %w", err)
	}

	return records, nil
}

func checkOwnership(requesterID, userID int64) error {
	if requesterID <= 0 || userID <= 0 {
		return fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if requesterID != userID {
		return ErrForbidden
	}
	return nil
}

func cleanOptional(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := sanitize.Clean(*value)
	return &cleaned
}

func mapStoreErr(err error) error {
	if errors.Is(err, pgrepo.ErrProfileNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("profile store: %w", err)
}
