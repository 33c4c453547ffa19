package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/adapter/memory"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/app/confirmation"
	"github.com/YelzhanWeb/lunchmate/internal/app/event"
	"github.com/YelzhanWeb/lunchmate/internal/app/inventory"
	"github.com/YelzhanWeb/lunchmate/internal/app/meal"
	"github.com/YelzhanWeb/lunchmate/internal/app/menu"
	"github.com/YelzhanWeb/lunchmate/internal/app/order"
	"github.com/YelzhanWeb/lunchmate/internal/app/review"
	"github.com/YelzhanWeb/lunchmate/internal/app/tracking"
	"github.com/YelzhanWeb/lunchmate/internal/app/user"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bogota = "America/Bogota"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.EnsureIndexes(context.Background(), domain.Indexes()))

	// Понедельник, 06:00 в Боготе
	now := time.Date(2024, time.June, 10, 11, 0, 0, 0, time.UTC)
	cal := calendar.NewService(domain.DefaultCutoff, func() time.Time { return now })
	log := logger.NewNop()

	users := user.NewService(store, cal, log)
	agg := confirmation.NewAggregator(store, cal, log, bogota)
	menus := menu.NewManager(store, cal, agg, nil, log, bogota)
	meals := meal.NewService(store, users, cal, log)

	return NewRouter(Handlers{
		Menus:         NewMenuHandler(menus, agg, cal, bogota, log),
		Orders:        NewOrderHandler(order.NewService(store, menus, cal, users, nil, log, bogota), cal, log),
		Tracking:      NewTrackingHandler(tracking.NewService(store, cal, log), log),
		Confirmations: NewConfirmationHandler(agg, log),
		Catalog:       NewCatalogHandler(meals, review.NewService(store, users, cal, log), inventory.NewService(store, cal, log), log),
		Events:        NewEventHandler(event.NewService(store, cal, log, bogota), log),
	}, nil, log)
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func publishMenu(t *testing.T, router *gin.Engine) string {
	t.Helper()

	rec := do(t, router, http.MethodPost, "/api/cooks/cook-1/meals", gin.H{"name": "Ajiaco", "price": "5.50"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var m domain.Meal
	decode(t, rec, &m)

	rec = do(t, router, http.MethodPut, "/api/cooks/cook-1/menu-days/2024-06-11", gin.H{
		"dishes": []gin.H{{"index": 1, "meal_id": m.ID}},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return m.ID
}

func TestOrderFlowOverHTTP(t *testing.T) {
	router := newRouter(t)
	mealID := publishMenu(t, router)

	create := gin.H{"cook_id": "cook-1", "customer_id": "cust-1", "date": "2024-06-11"}
	rec := do(t, router, http.MethodPost, "/api/orders", create, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created interfaces.CreateOrderResult
	decode(t, rec, &created)
	assert.Equal(t, interfaces.OutcomeCreated, created.Outcome)
	require.NotNil(t, created.Order)
	assert.Equal(t, mealID, created.Order.MealID)

	rec = do(t, router, http.MethodPost, "/api/orders", create, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var again interfaces.CreateOrderResult
	decode(t, rec, &again)
	assert.Equal(t, interfaces.OutcomeAlreadyExists, again.Outcome)
	assert.Equal(t, created.Order.ID, again.Order.ID)

	rec = do(t, router, http.MethodGet, "/api/orders/"+created.Order.ID+"/tracking", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tracked interfaces.TrackingOrderResponse
	decode(t, rec, &tracked)
	assert.True(t, tracked.Cancellable)

	rec = do(t, router, http.MethodPost, "/api/orders/"+created.Order.ID+"/cancel", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/orders/"+created.Order.ID+"/cancel", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/orders/"+created.Order.ID+"/history", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.StatusLog
	decode(t, rec, &history)
	assert.Len(t, history, 2)

	rec = do(t, router, http.MethodGet, "/api/cooks/cook-1/menu-days/2024-06-11/summary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary MenuSummaryResponse
	decode(t, rec, &summary)
	assert.Equal(t, 1, summary.Orders[domain.OrderCancelled])
}

func TestErrorMapping(t *testing.T) {
	router := newRouter(t)
	mealID := publishMenu(t, router)

	rec := do(t, router, http.MethodGet, "/api/orders/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/cooks/cook-1/menu-days/2024-06-12", gin.H{
		"dishes": []gin.H{{"index": 4, "meal_id": mealID}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/cooks/cook-2/menu-days/2024-06-12", gin.H{
		"dishes": []gin.H{{"index": 1, "meal_id": mealID}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/cooks/cook-1/menu-days/11-06-2024", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "date", resp.Errors[0].Field)

	rec = do(t, router, http.MethodGet, "/api/business-days?tz=Mars/Olympus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/meals/"+mealID+"/reviews", gin.H{"rating": 5}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/meals/"+mealID+"/reviews", gin.H{"rating": 9}, map[string]string{userIDHeader: "cust-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBusinessDays(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodGet, "/api/business-days?count=3", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TimeZone string        `json:"time_zone"`
		Days     []BusinessDay `json:"days"`
	}
	decode(t, rec, &body)
	assert.Equal(t, bogota, body.TimeZone)
	require.Len(t, body.Days, 3)
	for _, d := range body.Days {
		assert.NotEqual(t, time.Saturday, d.Date.Weekday())
		assert.NotEqual(t, time.Sunday, d.Date.Weekday())
		assert.Equal(t, 13, d.Cutoff.UTC().Hour())
	}

	rec = do(t, router, http.MethodGet, "/api/business-days?count=0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDAndRecovery(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware(), RecoveryMiddleware(logger.NewNop()))
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestID(c.Request.Context()))
	})

	rec := do(t, router, http.MethodGet, "/id", nil, map[string]string{requestIDHeader: "req-fixed"})
	assert.Equal(t, "req-fixed", rec.Body.String())
	assert.Equal(t, "req-fixed", rec.Header().Get(requestIDHeader))

	rec = do(t, router, http.MethodGet, "/id", nil, nil)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = do(t, router, http.MethodGet, "/boom", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCalendarEventsOverHTTP(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPost, "/api/cooks/cook-1/events", gin.H{
		"title":    "Market run",
		"start":    "2024-06-11T09:00:00-05:00",
		"end":      "2024-06-11T08:00:00-05:00",
		"category": "purchase",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ev domain.CalendarEvent
	decode(t, rec, &ev)
	assert.Equal(t, time.Date(2024, time.June, 11, 15, 0, 0, 0, time.UTC), ev.End.UTC())

	rec = do(t, router, http.MethodPost, "/api/cooks/cook-1/events", gin.H{"title": "Bad", "start": "2024-06-11T09:00:00Z", "priority": "urgent"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/cooks/cook-1/events?date=2024-06-11", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Events []domain.CalendarEvent `json:"events"`
	}
	decode(t, rec, &listed)
	require.Len(t, listed.Events, 1)
	assert.Equal(t, ev.ID, listed.Events[0].ID)

	rec = do(t, router, http.MethodGet, "/api/cooks/cook-1/events?from=2024-06-12&to=2024-06-14", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &listed)
	assert.Empty(t, listed.Events)

	rec = do(t, router, http.MethodPut, "/api/cooks/cook-1/events/"+ev.ID, gin.H{
		"title":  "Market run",
		"start":  "2024-06-11T09:00:00-05:00",
		"status": "done",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/cooks/cook-2/events/"+ev.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/cooks/cook-1/events/"+ev.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/cooks/cook-1/events/"+ev.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInventoryEditAndDeleteOverHTTP(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPost, "/api/cooks/cook-1/inventory", gin.H{"name": "Rice", "quantity": "5", "unit": "kg"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item domain.InventoryItem
	decode(t, rec, &item)

	update := gin.H{"name": "Basmati rice", "quantity": "4", "unit": "kg"}
	rec = do(t, router, http.MethodPut, "/api/cooks/cook-2/inventory/"+item.ID, update, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/cooks/cook-1/inventory/"+item.ID, update, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &item)
	assert.Equal(t, "Basmati rice", item.Name)

	rec = do(t, router, http.MethodDelete, "/api/cooks/cook-2/inventory/"+item.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, router, http.MethodDelete, "/api/cooks/cook-1/inventory/"+item.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
