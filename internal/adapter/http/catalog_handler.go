package http

import (
	"net/http"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const userIDHeader = "X-User-ID"

// CatalogHandler serves the cook's meals, their reviews and the pantry.
type CatalogHandler struct {
	meals     interfaces.MealService
	reviews   interfaces.ReviewService
	inventory interfaces.InventoryService
	logger    logger.Logger
}

func NewCatalogHandler(meals interfaces.MealService, reviews interfaces.ReviewService, inventory interfaces.InventoryService, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		meals:     meals,
		reviews:   reviews,
		inventory: inventory,
		logger:    logger,
	}
}

type CreateMealRequest struct {
	Name        string          `json:"name" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Ingredients string          `json:"ingredients"`
	ImageURL    string          `json:"image_url"`
}

type UpdatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type UpdateInventoryRequest struct {
	Name              string           `json:"name" binding:"required"`
	Quantity          decimal.Decimal  `json:"quantity"`
	Unit              string           `json:"unit" binding:"required"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
	Notes             string           `json:"notes"`
}

type AdjustInventoryRequest struct {
	Delta decimal.Decimal `json:"delta"`
}

func (h *CatalogHandler) CreateMeal(c *gin.Context) {
	var req CreateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	m, created, err := h.meals.GetOrCreate(c.Request.Context(), c.Param("cookId"), req.Name, req.Price, interfaces.MealDetails{
		Description: req.Description,
		Ingredients: req.Ingredients,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, h.logger, "meal_create_failed", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, m)
}

func (h *CatalogHandler) ListMeals(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") != "false"
	meals, err := h.meals.ListByCook(c.Request.Context(), c.Param("cookId"), activeOnly)
	if err != nil {
		respondError(c, h.logger, "meal_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

func (h *CatalogHandler) ListCooks(c *gin.Context) {
	cooks, err := h.meals.ListActiveCooks(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "cook_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cooks": cooks})
}

func (h *CatalogHandler) GetMeal(c *gin.Context) {
	m, err := h.meals.Get(c.Request.Context(), c.Param("mealId"))
	if err != nil {
		respondError(c, h.logger, "meal_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *CatalogHandler) UpdatePrice(c *gin.Context) {
	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	m, err := h.meals.UpdatePrice(c.Request.Context(), c.Param("mealId"), req.Price)
	if err != nil {
		respondError(c, h.logger, "meal_price_failed", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *CatalogHandler) DeactivateMeal(c *gin.Context) {
	m, err := h.meals.Deactivate(c.Request.Context(), c.Param("mealId"))
	if err != nil {
		respondError(c, h.logger, "meal_deactivate_failed", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// UpsertReview stores the caller's review of a meal. The caller is taken
// from the X-User-ID header.
func (h *CatalogHandler) UpsertReview(c *gin.Context) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "X-User-ID header is required"})
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	r, err := h.reviews.Upsert(c.Request.Context(), c.Param("mealId"), userID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, h.logger, "review_upsert_failed", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *CatalogHandler) ListReviews(c *gin.Context) {
	reviews, err := h.reviews.ListByMeal(c.Request.Context(), c.Param("mealId"))
	if err != nil {
		respondError(c, h.logger, "review_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

func (h *CatalogHandler) AddInventory(c *gin.Context) {
	var cmd interfaces.AddInventoryCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondBindError(c, err)
		return
	}
	cmd.CookID = c.Param("cookId")

	item, err := h.inventory.Add(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, h.logger, "inventory_add_failed", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *CatalogHandler) ListInventory(c *gin.Context) {
	ctx := c.Request.Context()
	cookID := c.Param("cookId")

	var (
		items interface{}
		err   error
	)
	if c.Query("low") == "true" {
		items, err = h.inventory.LowStock(ctx, cookID)
	} else {
		items, err = h.inventory.ListByCook(ctx, cookID)
	}
	if err != nil {
		respondError(c, h.logger, "inventory_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *CatalogHandler) AdjustInventory(c *gin.Context) {
	var req AdjustInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.inventory.AdjustQuantity(c.Request.Context(), c.Param("itemId"), req.Delta)
	if err != nil {
		respondError(c, h.logger, "inventory_adjust_failed", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) UpdateInventory(c *gin.Context) {
	var req UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.inventory.Update(c.Request.Context(), c.Param("cookId"), c.Param("itemId"), interfaces.UpdateInventoryCommand{
		Name:              req.Name,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		LowStockThreshold: req.LowStockThreshold,
		Notes:             req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, "inventory_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) DeleteInventory(c *gin.Context) {
	if err := h.inventory.Delete(c.Request.Context(), c.Param("cookId"), c.Param("itemId")); err != nil {
		respondError(c, h.logger, "inventory_delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
