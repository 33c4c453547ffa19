package seed

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/app/meal"
	"github.com/YelzhanWeb/lunchmate/internal/app/menu"
	"github.com/YelzhanWeb/lunchmate/internal/app/order"
	"github.com/YelzhanWeb/lunchmate/internal/app/review"
	"github.com/YelzhanWeb/lunchmate/internal/app/user"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/shopspring/decimal"
)

// Options control one seeding run.
type Options struct {
	TimeZone string
	// Preserve leaves existing reviews untouched instead of rewriting them.
	Preserve bool
	// BusinessDays defaults to a working week.
	BusinessDays int
}

// Report counts what a run changed. A second run over the same store reports
// zero creations.
type Report struct {
	UsersCreated    int                             `json:"users_created"`
	MealsCreated    int                             `json:"meals_created"`
	DaysPublished   int                             `json:"days_published"`
	DaysSkipped     int                             `json:"days_skipped"`
	OrdersCreated   int                             `json:"orders_created"`
	ReviewsWritten  int                             `json:"reviews_written"`
	ReviewsSkipped  int                             `json:"reviews_skipped"`
	BusinessDays    []domain.Date                   `json:"business_days"`
	OrderNoOpCauses map[interfaces.OrderOutcome]int `json:"order_no_op_causes"`
}

const reviewsPerCustomer = 2

type person struct {
	name  string
	email string
}

type mealTemplate struct {
	name        string
	description string
	ingredients string
	price       string
}

var cooks = []person{
	{"Chef Ana", "ana@demo.local"},
	{"Chef Bruno", "bruno@demo.local"},
}

var customers = []person{
	{"Carla", "carla@demo.local"},
	{"Diego", "diego@demo.local"},
	{"Elena", "elena@demo.local"},
	{"Fabio", "fabio@demo.local"},
	{"Gina", "gina@demo.local"},
}

var mealTemplates = []mealTemplate{
	{"Chicken and rice", "Slow cooked chicken with saffron rice", "chicken, rice, saffron, peas", "5.50"},
	{"Beef stew", "Beef stew with potatoes and carrots", "beef, potato, carrot, onion", "6.75"},
	{"Lentil soup", "Thick lentil soup with cumin", "lentils, cumin, tomato, onion", "4.25"},
	{"Grilled salmon", "Salmon fillet with lemon and greens", "salmon, lemon, spinach", "7.20"},
	{"Vegetable wrap", "Wheat wrap with roasted vegetables", "tortilla, pepper, zucchini, hummus", "3.90"},
	{"Pork ribs", "Oven ribs with barbecue glaze", "pork, barbecue sauce, garlic", "5.80"},
	{"Pasta bolognese", "Pasta with slow simmered meat sauce", "pasta, beef, tomato, basil", "5.10"},
	{"Shrimp curry", "Coconut shrimp curry with jasmine rice", "shrimp, coconut milk, curry, rice", "7.50"},
	{"Chicken salad", "Grilled chicken over mixed leaves", "chicken, lettuce, tomato, cucumber", "5.60"},
	{"Bean burrito", "Black bean burrito with cheese", "beans, tortilla, cheese, salsa", "5.40"},
}

var reviewComments = []string{
	"Arrived warm and on time.",
	"Generous portion, would order again.",
	"Good flavour, a little salty.",
	"Simple and tasty.",
	"Exactly as described.",
}

// Seeder populates a coherent demo schedule. Every step is find-or-create,
// so runs may be repeated or interrupted at any point.
type Seeder struct {
	users    *user.Service
	meals    *meal.Service
	menus    *menu.Manager
	orders   *order.Service
	reviews  *review.Service
	calendar *calendar.Service
	logger   logger.Logger
}

func NewSeeder(users *user.Service, meals *meal.Service, menus *menu.Manager, orders *order.Service, reviews *review.Service, cal *calendar.Service, logger logger.Logger) *Seeder {
	return &Seeder{
		users:    users,
		meals:    meals,
		menus:    menus,
		orders:   orders,
		reviews:  reviews,
		calendar: cal,
		logger:   logger,
	}
}

func (s *Seeder) Run(ctx context.Context, opts Options) (*Report, error) {
	reqID := logger.RequestID(ctx)
	report := &Report{OrderNoOpCauses: make(map[interfaces.OrderOutcome]int)}

	loc, err := s.calendar.ResolveTimeZone(opts.TimeZone)
	if err != nil {
		return nil, err
	}
	days := s.calendar.NextBusinessDays(loc, opts.BusinessDays)
	report.BusinessDays = days

	// 1. Пользователи
	cookIDs := make([]string, len(cooks))
	for i, c := range cooks {
		u, created, err := s.users.GetOrCreateByEmail(ctx, c.name, c.email, domain.RoleCook)
		if err != nil {
			return nil, fmt.Errorf("seed cook %s: %w", c.email, err)
		}
		cookIDs[i] = u.ID
		report.UsersCreated += boolToInt(created)
	}
	customerIDs := make([]string, len(customers))
	for i, c := range customers {
		u, created, err := s.users.GetOrCreateByEmail(ctx, c.name, c.email, domain.RoleCustomer)
		if err != nil {
			return nil, fmt.Errorf("seed customer %s: %w", c.email, err)
		}
		customerIDs[i] = u.ID
		report.UsersCreated += boolToInt(created)
	}

	// 2. Блюда
	mealsByCook := make(map[string][]*domain.Meal, len(cookIDs))
	for _, cookID := range cookIDs {
		for _, tpl := range mealTemplates {
			m, created, err := s.meals.GetOrCreate(ctx, cookID, tpl.name, decimal.RequireFromString(tpl.price), interfaces.MealDetails{
				Description: tpl.description,
				Ingredients: tpl.ingredients,
			})
			if err != nil {
				return nil, fmt.Errorf("seed meal %s: %w", tpl.name, err)
			}
			mealsByCook[cookID] = append(mealsByCook[cookID], m)
			report.MealsCreated += boolToInt(created)
		}
	}

	// 3. Меню на рабочую неделю
	for _, cookID := range cookIDs {
		for _, day := range days {
			published, err := s.publishDay(ctx, cookID, day, mealsByCook[cookID])
			if err != nil {
				return nil, err
			}
			if published {
				report.DaysPublished++
			} else {
				report.DaysSkipped++
			}
		}
	}

	// 4. Заказы
	for _, customerID := range customerIDs {
		for i, cookID := range cookIDs {
			perCook := 1
			if i == 0 {
				perCook = 2
			}
			rng := keyedRand("orders", customerID, cookID)
			count := min(1+rng.Intn(perCook), len(days))
			for _, idx := range rng.Perm(len(days))[:count] {
				res, err := s.orders.CreateIfAbsent(ctx, interfaces.CreateOrderCommand{
					CookID:     cookID,
					CustomerID: customerID,
					Date:       days[idx],
					TimeZone:   opts.TimeZone,
					SlotIndex:  1 + rng.Intn(domain.SlotsPerDay),
				})
				if err != nil {
					return nil, fmt.Errorf("seed order: %w", err)
				}
				if res.Created() {
					report.OrdersCreated++
				} else {
					report.OrderNoOpCauses[res.Outcome]++
				}
			}
		}
	}

	// 5. Отзывы
	var allMeals []*domain.Meal
	for _, cookID := range cookIDs {
		allMeals = append(allMeals, mealsByCook[cookID]...)
	}
	for _, customerID := range customerIDs {
		rng := keyedRand("reviews", customerID)
		for _, idx := range rng.Perm(len(allMeals))[:min(reviewsPerCustomer, len(allMeals))] {
			m := allMeals[idx]
			rating := 3 + rng.Intn(3)
			comment := reviewComments[rng.Intn(len(reviewComments))]

			if opts.Preserve {
				exists, err := s.reviews.Exists(ctx, m.ID, customerID)
				if err != nil {
					return nil, err
				}
				if exists {
					report.ReviewsSkipped++
					continue
				}
			}
			if _, err := s.reviews.Upsert(ctx, m.ID, customerID, rating, comment); err != nil {
				return nil, fmt.Errorf("seed review: %w", err)
			}
			report.ReviewsWritten++
		}
	}

	s.logger.Info("seed_completed", "Demo data seeded", reqID, map[string]interface{}{
		"users_created":   report.UsersCreated,
		"meals_created":   report.MealsCreated,
		"days_published":  report.DaysPublished,
		"orders_created":  report.OrdersCreated,
		"reviews_written": report.ReviewsWritten,
		"preserve":        opts.Preserve,
	})
	return report, nil
}

// publishDay fills the empty slots of a day with meals not yet on it. Days that
// are already complete and published are left alone.
func (s *Seeder) publishDay(ctx context.Context, cookID string, day domain.Date, meals []*domain.Meal) (bool, error) {
	md, err := s.menus.GetOrCreate(ctx, cookID, day)
	if err != nil {
		return false, fmt.Errorf("seed menu day %s: %w", day, err)
	}
	if md.Status == domain.MenuDayClosed {
		return false, nil
	}
	if md.Status == domain.MenuDayPublished && md.IsComplete() {
		return false, nil
	}

	used := make(map[string]bool, domain.SlotsPerDay)
	for _, slot := range md.Dishes {
		if !slot.IsEmpty() {
			used[slot.MealID] = true
		}
	}

	rng := keyedRand("menu", cookID, day.String())
	perm := rng.Perm(len(meals))
	var fill []domain.DishSlot
	next := 0
	for _, slot := range md.Dishes {
		if !slot.IsEmpty() {
			continue
		}
		for next < len(perm) && used[meals[perm[next]].ID] {
			next++
		}
		if next == len(perm) {
			break
		}
		m := meals[perm[next]]
		used[m.ID] = true
		fill = append(fill, domain.DishSlot{Index: slot.Index, MealID: m.ID})
	}

	if _, err := s.menus.Publish(ctx, cookID, day, fill); err != nil {
		if errors.Is(err, domain.ErrDayClosed) {
			return false, nil
		}
		return false, fmt.Errorf("seed publish %s: %w", day, err)
	}
	return true, nil
}

// keyedRand returns a generator whose sequence depends only on the key.
func keyedRand(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
