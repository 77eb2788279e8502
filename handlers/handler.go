package handlers

import (
	"context"
	"net/http"
	"strconv"

	"tajeats-api/auth"
	"tajeats-api/services"

	"github.com/gin-gonic/gin"
)

// Handler serves the JSON API on top of the services
type Handler struct {
	Accounts *services.AccountService
	Catalog  *services.CatalogService
	Cart     *services.CartService
	Orders   *services.OrderService
	Reviews  *services.ReviewService

	Tokens    *auth.TokenManager
	Blacklist auth.TokenBlacklist

	// MaxImageBytes caps multipart image uploads
	MaxImageBytes int64
	// Ping reports store health for GET /health; nil skips the check
	Ping func(ctx context.Context) error
	// Service is the name reported by GET /health
	Service string
}

// idParam parses a positive numeric path parameter, writing a 400 when it is malformed
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}

// restaurantQuery parses the required restaurantId query parameter
func restaurantQuery(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Query("restaurantId"), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "restaurantId query parameter is required"})
		return 0, false
	}
	return uint(v), true
}

// boolQuery parses an optional boolean query parameter. Absent or malformed values yield nil.
func boolQuery(c *gin.Context, name string) *bool {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
