package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"tajeats-api/logger"
	"tajeats-api/middleware"
	"tajeats-api/models"
	"tajeats-api/services"
	"tajeats-api/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ── Restaurants ─────────────────────────────────────────────────────────────

// ListRestaurants returns restaurants (public). Filters: category, open, search, minRating.
func (h *Handler) ListRestaurants(c *gin.Context) {
	f := services.RestaurantFilter{
		Category: c.Query("category"),
		Open:     boolQuery(c, "open"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("minRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid minRating"})
			return
		}
		f.MinRating = v
	}

	restaurants, err := h.Catalog.ListRestaurants(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

func (h *Handler) GetRestaurant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, err := h.Catalog.GetRestaurant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": r})
}

// GetMenu returns the dishes of a restaurant grouped by category (public)
func (h *Handler) GetMenu(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	dishes, err := h.Catalog.Menu(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurantId": id, "count": len(dishes), "menu": dishes})
}

// CreateRestaurant is open to admins and to owners without a restaurant. An
// owner is linked to the new restaurant and receives a refreshed token.
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req services.RestaurantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	actor := middleware.ActorFrom(c)
	if actor.Role != models.RoleRestaurantOwner {
		r, err := h.Catalog.CreateRestaurant(ctx, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": r})
		return
	}

	r, err := h.Catalog.CreateOwnedRestaurant(ctx, actor.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.Accounts.Token(ctx, actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": r, "token": token})
}

func (h *Handler) UpdateRestaurant(c *gin.Context) {
	id, ok := h.managedRestaurant(c)
	if !ok {
		return
	}
	var req services.RestaurantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	r, err := h.Catalog.UpdateRestaurant(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": r})
}

// DeleteRestaurant removes the restaurant with its dishes and reviews
func (h *Handler) DeleteRestaurant(c *gin.Context) {
	id, ok := h.managedRestaurant(c)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteRestaurant(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted"})
}

func (h *Handler) UploadRestaurantImage(c *gin.Context) {
	id, ok := h.managedRestaurant(c)
	if !ok {
		return
	}
	h.upload(c, func(ctx context.Context, data []byte) (string, error) {
		return h.Catalog.SetRestaurantImage(ctx, id, data)
	})
}

func (h *Handler) UploadRestaurantLogo(c *gin.Context) {
	id, ok := h.managedRestaurant(c)
	if !ok {
		return
	}
	h.upload(c, func(ctx context.Context, data []byte) (string, error) {
		return h.Catalog.SetRestaurantLogo(ctx, id, data)
	})
}

// managedRestaurant parses :id and checks that the caller may edit that restaurant
func (h *Handler) managedRestaurant(c *gin.Context) (uint, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return 0, false
	}
	if !middleware.ActorFrom(c).CanManageRestaurant(id) {
		forbidden(c, "You don't own this restaurant")
		return 0, false
	}
	return id, true
}

// ── Dishes ──────────────────────────────────────────────────────────────────

// ListDishes returns dishes (public). Filters: restaurantId, available, popular, category.
func (h *Handler) ListDishes(c *gin.Context) {
	f := services.DishFilter{
		Available: boolQuery(c, "available"),
		Popular:   boolQuery(c, "popular"),
		Category:  c.Query("category"),
	}
	if raw := c.Query("restaurantId"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurantId"})
			return
		}
		f.RestaurantID = uint(v)
	}
	dishes, err := h.Catalog.ListDishes(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(dishes), "dishes": dishes})
}

func (h *Handler) GetDish(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	d, err := h.Catalog.GetDish(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dish": d})
}

func (h *Handler) CreateDish(c *gin.Context) {
	var req services.DishInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !middleware.ActorFrom(c).CanManageRestaurant(req.RestaurantID) {
		forbidden(c, "You don't own this restaurant")
		return
	}
	d, err := h.Catalog.CreateDish(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Dish added", "dish": d})
}

func (h *Handler) UpdateDish(c *gin.Context) {
	id, ok := h.managedDish(c)
	if !ok {
		return
	}
	var req services.DishInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	d, err := h.Catalog.UpdateDish(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dish updated", "dish": d})
}

func (h *Handler) DeleteDish(c *gin.Context) {
	id, ok := h.managedDish(c)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteDish(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dish deleted"})
}

func (h *Handler) UploadDishImage(c *gin.Context) {
	id, ok := h.managedDish(c)
	if !ok {
		return
	}
	h.upload(c, func(ctx context.Context, data []byte) (string, error) {
		return h.Catalog.SetDishImage(ctx, id, data)
	})
}

// managedDish parses :id, loads the dish and checks ownership of its restaurant
func (h *Handler) managedDish(c *gin.Context) (uint, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return 0, false
	}
	d, err := h.Catalog.GetDish(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	if !middleware.ActorFrom(c).CanManageRestaurant(d.RestaurantID) {
		forbidden(c, "You don't own this dish")
		return 0, false
	}
	return id, true
}

// ── Images ──────────────────────────────────────────────────────────────────

// upload reads the multipart "file" field and hands it to store
func (h *Handler) upload(c *gin.Context, store func(ctx context.Context, data []byte) (string, error)) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart field \"file\" is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()

	limit := h.MaxImageBytes
	if limit <= 0 {
		limit = storage.DefaultMaxImageBytes
	}
	// one byte over the limit is enough for the store to reject it
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		logger.FromGin(c).Warn("Failed to read upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}

	url, err := store(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image uploaded", "url": url})
}
