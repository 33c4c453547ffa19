package meal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/shopspring/decimal"
)

type Service struct {
	store     interfaces.DocumentStore
	directory interfaces.UserDirectory
	calendar  *calendar.Service
	logger    logger.Logger
}

func NewService(store interfaces.DocumentStore, directory interfaces.UserDirectory, cal *calendar.Service, logger logger.Logger) *Service {
	return &Service{
		store:     store,
		directory: directory,
		calendar:  cal,
		logger:    logger,
	}
}

// GetOrCreate finds the cook's meal by name or creates it. An inactive meal
// with the same name is reactivated instead of duplicated.
func (s *Service) GetOrCreate(ctx context.Context, cookID, name string, price decimal.Decimal, details interfaces.MealDetails) (*domain.Meal, bool, error) {
	m, err := domain.NewMeal(cookID, name, price, s.calendar.Now())
	if err != nil {
		return nil, false, err
	}
	m.Description = details.Description
	m.Ingredients = details.Ingredients
	m.ImageURL = strings.TrimSpace(details.ImageURL)
	if err := m.Validate(); err != nil {
		return nil, false, err
	}

	existing, found, err := s.findByName(ctx, cookID, m.Name)
	if err != nil {
		return nil, false, err
	}
	if found {
		if !existing.IsActive {
			if err := s.setActive(ctx, existing, true); err != nil {
				return nil, false, err
			}
		}
		return existing, false, nil
	}

	if s.directory != nil {
		if cookName, err := s.directory.ResolveDisplayName(ctx, cookID); err == nil {
			m.CookName = cookName
		}
	}

	if err := s.store.InsertOne(ctx, domain.CollectionMeals, m); err != nil {
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return nil, false, fmt.Errorf("failed to create meal: %w", err)
		}
		existing, found, err = s.findByName(ctx, cookID, m.Name)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return nil, false, fmt.Errorf("meal %q vanished after duplicate insert", m.Name)
		}
		return existing, false, nil
	}

	s.logger.Debug("meal_created", "Meal added to catalogue", logger.RequestID(ctx), map[string]interface{}{
		"meal_id": m.ID,
		"cook_id": cookID,
	})
	return m, true, nil
}

func (s *Service) Get(ctx context.Context, mealID string) (*domain.Meal, error) {
	var m domain.Meal
	found, err := s.store.FindOne(ctx, domain.CollectionMeals, interfaces.Filter{"id": mealID}, &m)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: meal %s", domain.ErrNotFound, mealID)
	}
	return &m, nil
}

// ListByCook returns the cook's meals ordered by name.
func (s *Service) ListByCook(ctx context.Context, cookID string, activeOnly bool) ([]*domain.Meal, error) {
	filter := interfaces.Filter{"cook_id": cookID}
	if activeOnly {
		filter["is_active"] = true
	}

	var meals []*domain.Meal
	if err := s.store.Find(ctx, domain.CollectionMeals, filter, &meals); err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	sort.SliceStable(meals, func(i, j int) bool { return meals[i].Name < meals[j].Name })
	return meals, nil
}

// ListActiveCooks returns the ids of cooks with at least one active meal.
func (s *Service) ListActiveCooks(ctx context.Context) ([]string, error) {
	var meals []*domain.Meal
	if err := s.store.Find(ctx, domain.CollectionMeals, interfaces.Filter{"is_active": true}, &meals); err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}

	seen := make(map[string]bool)
	var cooks []string
	for _, m := range meals {
		if !seen[m.CookID] {
			seen[m.CookID] = true
			cooks = append(cooks, m.CookID)
		}
	}
	sort.Strings(cooks)
	return cooks, nil
}

// Deactivate hides a meal from new menus. Orders keep referencing it.
func (s *Service) Deactivate(ctx context.Context, mealID string) (*domain.Meal, error) {
	m, err := s.Get(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return m, nil
	}
	if err := s.setActive(ctx, m, false); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdatePrice changes the catalogue price. Existing orders keep their snapshot.
func (s *Service) UpdatePrice(ctx context.Context, mealID string, price decimal.Decimal) (*domain.Meal, error) {
	m, err := s.Get(ctx, mealID)
	if err != nil {
		return nil, err
	}
	m.Price = price
	m.UpdatedAt = s.calendar.Now()
	if err := m.Validate(); err != nil {
		return nil, err
	}

	_, err = s.store.UpdateFields(ctx, domain.CollectionMeals, interfaces.Filter{"id": m.ID}, map[string]any{
		"price":      m.Price,
		"updated_at": m.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update meal price: %w", err)
	}
	return m, nil
}

func (s *Service) setActive(ctx context.Context, m *domain.Meal, active bool) error {
	m.IsActive = active
	m.UpdatedAt = s.calendar.Now()
	_, err := s.store.UpdateFields(ctx, domain.CollectionMeals, interfaces.Filter{"id": m.ID}, map[string]any{
		"is_active":  active,
		"updated_at": m.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to update meal: %w", err)
	}
	s.logger.Debug("meal_active_changed", "Meal availability changed", logger.RequestID(ctx), map[string]interface{}{
		"meal_id":   m.ID,
		"is_active": active,
	})
	return nil
}

func (s *Service) findByName(ctx context.Context, cookID, name string) (*domain.Meal, bool, error) {
	var m domain.Meal
	found, err := s.store.FindOne(ctx, domain.CollectionMeals, interfaces.Filter{"cook_id": cookID, "name": name}, &m)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load meal: %w", err)
	}
	return &m, found, nil
}
