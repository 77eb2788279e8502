package handlers

import (
	"context"
	"net/http"

	"tajeats-api/middleware"
	"tajeats-api/models"

	"github.com/gin-gonic/gin"
)

type orderLister func(ctx context.Context, restaurantID uint) ([]models.Order, error)

// GetRestaurantOrders returns every order of the restaurant
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	h.restaurantOrders(c, h.Orders.ListByRestaurant)
}

// GetActiveOrders returns the restaurant's orders that are still being fulfilled
func (h *Handler) GetActiveOrders(c *gin.Context) {
	h.restaurantOrders(c, h.Orders.ListActiveByRestaurant)
}

func (h *Handler) restaurantOrders(c *gin.Context, list orderLister) {
	rid, ok := restaurantQuery(c)
	if !ok {
		return
	}
	if !middleware.ActorFrom(c).CanViewOrders(rid) {
		forbidden(c, "You do not work at this restaurant")
		return
	}

	orders, err := list(c.Request.Context(), rid)
	if err != nil {
		respondError(c, err)
		return
	}

	// dashboard summary by status
	summary := map[models.OrderStatus]int{}
	for _, o := range orders {
		summary[o.Status]++
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurantId":  rid,
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}
