package review

import (
	"context"
	"fmt"
	"sort"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
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

// Upsert writes the user's review of a meal. A second review by the same user
// replaces the first and keeps its id.
func (s *Service) Upsert(ctx context.Context, mealID, userID string, rating int, comment string) (*domain.Review, error) {
	r, err := domain.NewReview(mealID, userID, rating, comment, s.calendar.Now())
	if err != nil {
		return nil, err
	}

	var meal domain.Meal
	found, err := s.store.FindOne(ctx, domain.CollectionMeals, interfaces.Filter{"id": mealID}, &meal)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: meal %s", domain.ErrNotFound, mealID)
	}

	if s.directory != nil {
		if name, err := s.directory.ResolveDisplayName(ctx, userID); err == nil {
			r.UserName = name
		}
	}

	key := interfaces.Filter{"meal_id": mealID, "user_id": userID}
	if err := s.store.ReplaceOrUpsert(ctx, domain.CollectionReviews, key, r); err != nil {
		return nil, fmt.Errorf("failed to store review: %w", err)
	}

	var stored domain.Review
	if _, err := s.store.FindOne(ctx, domain.CollectionReviews, key, &stored); err != nil {
		return nil, fmt.Errorf("failed to reload review: %w", err)
	}

	s.logger.Debug("review_saved", "Review stored", logger.RequestID(ctx), map[string]interface{}{
		"meal_id": mealID,
		"rating":  rating,
	})
	return &stored, nil
}

func (s *Service) Exists(ctx context.Context, mealID, userID string) (bool, error) {
	var r domain.Review
	found, err := s.store.FindOne(ctx, domain.CollectionReviews, interfaces.Filter{"meal_id": mealID, "user_id": userID}, &r)
	if err != nil {
		return false, fmt.Errorf("failed to load review: %w", err)
	}
	return found, nil
}

// ListByMeal returns a meal's reviews, newest first.
func (s *Service) ListByMeal(ctx context.Context, mealID string) ([]*domain.Review, error) {
	var reviews []*domain.Review
	if err := s.store.Find(ctx, domain.CollectionReviews, interfaces.Filter{"meal_id": mealID}, &reviews); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}
