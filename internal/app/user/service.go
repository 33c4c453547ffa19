package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
)

// Service keeps the minimal user directory: identity, role and display name.
type Service struct {
	store    interfaces.DocumentStore
	calendar *calendar.Service
	logger   logger.Logger
}

func NewService(store interfaces.DocumentStore, cal *calendar.Service, logger logger.Logger) *Service {
	return &Service{
		store:    store,
		calendar: cal,
		logger:   logger,
	}
}

// GetOrCreateByEmail returns the user registered under email, creating it on
// first use. The bool reports whether a record was created.
func (s *Service) GetOrCreateByEmail(ctx context.Context, name, email string, role domain.Role) (*domain.User, bool, error) {
	u, err := domain.NewUser(name, email, role, s.calendar.Now())
	if err != nil {
		return nil, false, err
	}

	existing, found, err := s.findByEmail(ctx, u.Email)
	if err != nil {
		return nil, false, err
	}
	if found {
		return existing, false, nil
	}

	if err := s.store.InsertOne(ctx, domain.CollectionUsers, u); err != nil {
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return nil, false, fmt.Errorf("failed to create user: %w", err)
		}
		existing, found, err = s.findByEmail(ctx, u.Email)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return nil, false, fmt.Errorf("user %s vanished after duplicate insert", u.Email)
		}
		return existing, false, nil
	}

	s.logger.Debug("user_created", "User registered", logger.RequestID(ctx), map[string]interface{}{
		"user_id": u.ID,
		"role":    u.Role,
	})
	return u, true, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	found, err := s.store.FindOne(ctx, domain.CollectionUsers, interfaces.Filter{"id": userID}, &u)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return &u, nil
}

// ResolveDisplayName implements interfaces.UserDirectory.
func (s *Service) ResolveDisplayName(ctx context.Context, userID string) (string, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Name, nil
}

func (s *Service) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", domain.ErrValidation, role)
	}
	var users []*domain.User
	if err := s.store.Find(ctx, domain.CollectionUsers, interfaces.Filter{"role": role}, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	var u domain.User
	found, err := s.store.FindOne(ctx, domain.CollectionUsers, interfaces.Filter{"email": email}, &u)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, found, nil
}
