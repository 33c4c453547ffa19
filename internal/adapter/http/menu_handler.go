package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/app/calendar"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/gin-gonic/gin"
)

const maxBusinessDays = calendar.DefaultBusinessDays

type MenuHandler struct {
	menus         interfaces.MenuService
	confirmations interfaces.ConfirmationService
	scheduler     interfaces.Scheduler
	timeZone      string
	logger        logger.Logger
}

func NewMenuHandler(menus interfaces.MenuService, confirmations interfaces.ConfirmationService, scheduler interfaces.Scheduler, timeZone string, logger logger.Logger) *MenuHandler {
	return &MenuHandler{
		menus:         menus,
		confirmations: confirmations,
		scheduler:     scheduler,
		timeZone:      timeZone,
		logger:        logger,
	}
}

type PublishMenuRequest struct {
	Dishes []DishRequest `json:"dishes" binding:"required,max=3,dive"`
}

type DishRequest struct {
	Index  int    `json:"index" binding:"required,min=1,max=3"`
	MealID string `json:"meal_id"`
	Notes  string `json:"notes"`
}

type MenuSummaryResponse struct {
	MenuDay       *domain.MenuDay            `json:"menu_day"`
	Confirmations map[int]int                `json:"confirmations"`
	Orders        map[domain.OrderStatus]int `json:"orders"`
}

type BusinessDay struct {
	Date   domain.Date `json:"date"`
	Cutoff time.Time   `json:"cutoff"`
}

func (h *MenuHandler) ListMenuDays(c *gin.Context) {
	from, ok := dateParam(c, c.Query("from"))
	if !ok {
		return
	}
	to, ok := dateParam(c, c.Query("to"))
	if !ok {
		return
	}

	days, err := h.menus.ListRange(c.Request.Context(), c.Param("cookId"), from, to)
	if err != nil {
		respondError(c, h.logger, "menu_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu_days": days})
}

// GetMenuDay returns the day, creating the three empty slots on first access.
func (h *MenuHandler) GetMenuDay(c *gin.Context) {
	date, ok := dateParam(c, c.Param("date"))
	if !ok {
		return
	}

	md, err := h.menus.GetOrCreate(c.Request.Context(), c.Param("cookId"), date)
	if err != nil {
		respondError(c, h.logger, "menu_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, md)
}

func (h *MenuHandler) PublishMenuDay(c *gin.Context) {
	date, ok := dateParam(c, c.Param("date"))
	if !ok {
		return
	}

	var req PublishMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	dishes := make([]domain.DishSlot, 0, len(req.Dishes))
	for _, d := range req.Dishes {
		dishes = append(dishes, domain.DishSlot{Index: d.Index, MealID: d.MealID, Notes: d.Notes})
	}

	md, err := h.menus.Publish(c.Request.Context(), c.Param("cookId"), date, dishes)
	if err != nil {
		respondError(c, h.logger, "menu_publish_failed", err)
		return
	}
	c.JSON(http.StatusOK, md)
}

// GetMenuSummary is the cook's view of a day: the menu plus confirmation and
// order counters.
func (h *MenuHandler) GetMenuSummary(c *gin.Context) {
	date, ok := dateParam(c, c.Param("date"))
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cookID := c.Param("cookId")

	md, err := h.menus.GetOrCreate(ctx, cookID, date)
	if err != nil {
		respondError(c, h.logger, "menu_summary_failed", err)
		return
	}
	confirmed, err := h.confirmations.CountConfirmed(ctx, cookID, date)
	if err != nil {
		respondError(c, h.logger, "menu_summary_failed", err)
		return
	}
	orders, err := h.confirmations.CountOrdersByStatus(ctx, cookID, date)
	if err != nil {
		respondError(c, h.logger, "menu_summary_failed", err)
		return
	}

	c.JSON(http.StatusOK, MenuSummaryResponse{MenuDay: md, Confirmations: confirmed, Orders: orders})
}

// ListBusinessDays returns the next weekdays with their cutoff instants.
func (h *MenuHandler) ListBusinessDays(c *gin.Context) {
	tz := c.DefaultQuery("tz", h.timeZone)
	count := calendar.DefaultBusinessDays
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxBusinessDays {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:  "Invalid count",
				Errors: []ValidationError{{Field: "count", Message: "must be between 1 and 5"}},
			})
			return
		}
		count = n
	}

	loc, err := h.scheduler.ResolveTimeZone(tz)
	if err != nil {
		respondError(c, h.logger, "business_days_failed", err)
		return
	}

	days := h.scheduler.NextBusinessDays(loc, count)
	out := make([]BusinessDay, 0, len(days))
	for _, d := range days {
		out = append(out, BusinessDay{Date: d, Cutoff: h.scheduler.CutoffInstantUTC(loc, d)})
	}
	c.JSON(http.StatusOK, gin.H{"time_zone": loc.String(), "days": out})
}
