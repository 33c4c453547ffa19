package menu

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/memory"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bogota = "America/Bogota"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []interfaces.MenuDayMessage
}

func (p *recordingPublisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	return nil
}

func (p *recordingPublisher) PublishMenuDay(ctx context.Context, msg interfaces.MenuDayMessage) error {
	p.mu.Lock()
	p.events = append(p.events, msg)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Event
	}
	return out
}

type fixture struct {
	store     *memory.Store
	clock     *clock
	publisher *recordingPublisher
	manager   *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.EnsureIndexes(context.Background(), domain.Indexes()))

	// 2024-06-10 06:00 в Боготе, до отсечки
	clk := &clock{now: time.Date(2024, time.June, 10, 11, 0, 0, 0, time.UTC)}
	cal := calendar.NewService(domain.DefaultCutoff, clk.Now)
	pub := &recordingPublisher{}

	return &fixture{
		store:     store,
		clock:     clk,
		publisher: pub,
		manager:   NewManager(store, cal, nil, pub, logger.NewNop(), bogota),
	}
}

func (f *fixture) addMeal(t *testing.T, cookID, name string) *domain.Meal {
	t.Helper()
	meal, err := domain.NewMeal(cookID, name, decimal.RequireFromString("5.50"), f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.InsertOne(context.Background(), domain.CollectionMeals, meal))
	return meal
}

func assertThreeSlots(t *testing.T, md *domain.MenuDay) {
	t.Helper()
	require.Len(t, md.Dishes, domain.SlotsPerDay)
	seen := map[string]bool{}
	for i, s := range md.Dishes {
		assert.Equal(t, i+1, s.Index)
		if s.MealID != "" {
			assert.False(t, seen[s.MealID], "meal %s repeated", s.MealID)
			seen[s.MealID] = true
		}
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := domain.NewDate(2024, time.June, 11)

	first, err := f.manager.GetOrCreate(ctx, "cook-1", date)
	require.NoError(t, err)
	second, err := f.manager.GetOrCreate(ctx, "cook-1", date)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.MenuDayKey("cook-1", date), first.ID)
	assert.Equal(t, domain.MenuDayDraft, first.Status)
	assert.Equal(t, bogota, first.TimeZone)
	assertThreeSlots(t, first)
	assert.Equal(t, 1, f.store.Count(domain.CollectionMenuDays))
}

func TestGetOrCreateConcurrent(t *testing.T) {
	f := newFixture(t)
	date := domain.NewDate(2024, time.June, 12)

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			md, err := f.manager.GetOrCreate(context.Background(), "cook-1", date)
			assert.NoError(t, err)
			if md != nil {
				ids[i] = md.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, f.store.Count(domain.CollectionMenuDays))
}

// gatedStore holds the first FindOne until release is closed.
type gatedStore struct {
	interfaces.DocumentStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) FindOne(ctx context.Context, collection string, filter interfaces.Filter, out any) (bool, error) {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.DocumentStore.FindOne(ctx, collection, filter, out)
}

func TestGetOrCreateSurvivesCancelledFirstCaller(t *testing.T) {
	f := newFixture(t)
	gated := &gatedStore{DocumentStore: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	manager := NewManager(gated, calendar.NewService(domain.DefaultCutoff, f.clock.Now), nil, nil, logger.NewNop(), bogota)
	date := domain.Date{Year: 2024, Month: time.June, Day: 11}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := manager.GetOrCreate(firstCtx, "cook-1", date)
		firstErr <- err
	}()
	<-gated.entered

	type result struct {
		md  *domain.MenuDay
		err error
	}
	second := make(chan result, 1)
	go func() {
		md, err := manager.GetOrCreate(context.Background(), "cook-1", date)
		second <- result{md, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(gated.release)
	res := <-second
	require.NoError(t, res.err)
	assertThreeSlots(t, res.md)
	assert.Equal(t, 1, f.store.Count(domain.CollectionMenuDays))
}

func TestGetOrCreateRepairsStoredSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := domain.NewDate(2024, time.June, 13)

	broken := domain.NewMenuDay("cook-1", date, bogota, f.clock.Now())
	broken.Dishes = []domain.DishSlot{
		{Index: 3, MealID: "m-1"},
		{Index: 1, MealID: "m-1"},
		{Index: 7, MealID: "m-2"},
	}
	require.NoError(t, f.store.InsertOne(ctx, domain.CollectionMenuDays, broken))

	md, err := f.manager.GetOrCreate(ctx, "cook-1", date)
	require.NoError(t, err)
	assertThreeSlots(t, md)
	assert.Equal(t, "m-1", md.Dishes[0].MealID)
	assert.Empty(t, md.Dishes[2].MealID)

	var stored domain.MenuDay
	found, err := f.store.FindOne(ctx, domain.CollectionMenuDays, interfaces.Filter{"id": md.ID}, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assertThreeSlots(t, &stored)
}

func TestReturnedMenuDayIsACopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := domain.NewDate(2024, time.June, 11)

	md, err := f.manager.GetOrCreate(ctx, "cook-1", date)
	require.NoError(t, err)
	md.Dishes[0].MealID = "tampered"
	md.Dishes = md.Dishes[:1]

	again, err := f.manager.GetOrCreate(ctx, "cook-1", date)
	require.NoError(t, err)
	assertThreeSlots(t, again)
	assert.Empty(t, again.Dishes[0].MealID)
}

func TestPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := domain.NewDate(2024, time.June, 11)
	soup := f.addMeal(t, "cook-1", "Soup")
	rice := f.addMeal(t, "cook-1", "Rice")

	md, err := f.manager.Publish(ctx, "cook-1", date, []domain.DishSlot{
		{Index: 1, MealID: soup.ID},
		{Index: 2, MealID: rice.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MenuDayPublished, md.Status)
	assert.Equal(t, "Soup", md.Dishes[0].Name)
	assert.Equal(t, "Rice", md.Dishes[1].Name)
	require.NotNil(t, md.PublishedAt)
	firstPublished := *md.PublishedAt

	f.clock.Set(f.clock.Now().Add(time.Minute))
	md, err = f.manager.Publish(ctx, "cook-1", date, []domain.DishSlot{{Index: 3, MealID: soup.ID}})
	require.NoError(t, err)
	assertThreeSlots(t, md)
	assert.Equal(t, firstPublished, *md.PublishedAt)
	assert.Equal(t, []string{interfaces.EventMenuPublished, interfaces.EventMenuPublished}, f.publisher.Events())
}

func TestPublishRejectsForeignMeal(t *testing.T) {
	f := newFixture(t)
	other := f.addMeal(t, "cook-2", "Stew")

	_, err := f.manager.Publish(context.Background(), "cook-1", domain.NewDate(2024, time.June, 11),
		[]domain.DishSlot{{Index: 1, MealID: other.ID}})
	assert.ErrorIs(t, err, domain.ErrInvalidSlot)

	_, err = f.manager.Publish(context.Background(), "cook-1", domain.NewDate(2024, time.June, 11),
		[]domain.DishSlot{{Index: 4}})
	assert.ErrorIs(t, err, domain.ErrInvalidSlot)
}

func TestAutoCloseAtCutoff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := domain.NewDate(2024, time.June, 10)
	soup := f.addMeal(t, "cook-1", "Soup")

	_, err := f.manager.Publish(ctx, "cook-1", date, []domain.DishSlot{{Index: 1, MealID: soup.ID}})
	require.NoError(t, err)

	f.clock.Set(time.Date(2024, time.June, 10, 13, 0, 0, 0, time.UTC))
	md, err := f.manager.GetOrCreate(ctx, "cook-1", date)
	require.NoError(t, err)
	assert.Equal(t, domain.MenuDayClosed, md.Status)
	require.NotNil(t, md.ClosedAt)
	closedAt := *md.ClosedAt

	f.clock.Set(f.clock.Now().Add(time.Hour))
	md, err = f.manager.GetOrCreate(ctx, "cook-1", date)
	require.NoError(t, err)
	assert.Equal(t, closedAt, *md.ClosedAt)
	assert.Equal(t, "Soup", md.Dishes[0].Name)

	_, err = f.manager.Publish(ctx, "cook-1", date, []domain.DishSlot{{Index: 2, MealID: soup.ID}})
	assert.ErrorIs(t, err, domain.ErrDayClosed)
	assert.Equal(t, []string{interfaces.EventMenuPublished, interfaces.EventMenuClosed}, f.publisher.Events())
}

func TestListRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, d := range []int{14, 11, 12, 20} {
		_, err := f.manager.GetOrCreate(ctx, "cook-1", domain.NewDate(2024, time.June, d))
		require.NoError(t, err)
	}
	_, err := f.manager.GetOrCreate(ctx, "cook-2", domain.NewDate(2024, time.June, 12))
	require.NoError(t, err)

	days, err := f.manager.ListRange(ctx, "cook-1", domain.NewDate(2024, time.June, 14), domain.NewDate(2024, time.June, 10))
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-06-11", days[0].Date.String())
	assert.Equal(t, "2024-06-12", days[1].Date.String())
	assert.Equal(t, "2024-06-14", days[2].Date.String())
	for _, md := range days {
		assertThreeSlots(t, md)
	}
}

func TestFindDoesNotCreate(t *testing.T) {
	f := newFixture(t)

	_, found, err := f.manager.Find(context.Background(), "cook-1", domain.NewDate(2024, time.June, 11))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, f.store.Count(domain.CollectionMenuDays))
}
