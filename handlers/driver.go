package handlers

import (
	"net/http"

	"tajeats-api/middleware"
	"tajeats-api/models"

	"github.com/gin-gonic/gin"
)

// GetDeliveryOrders shows the delivery orders a rider of the restaurant has to handle
func (h *Handler) GetDeliveryOrders(c *gin.Context) {
	h.restaurantOrders(c, h.Orders.ListActiveDeliveryByRestaurant)
}

// GetRestaurantRiders lists the approved riders working for a restaurant
func (h *Handler) GetRestaurantRiders(c *gin.Context) {
	rid, ok := idParam(c, "restaurantId")
	if !ok {
		return
	}
	actor := middleware.ActorFrom(c)
	if actor.Role == models.RoleRestaurantOwner && !actor.CanManageRestaurant(rid) {
		forbidden(c, "You do not own this restaurant")
		return
	}
	riders, err := h.Accounts.ListRidersByRestaurant(c.Request.Context(), rid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(riders), "riders": riders})
}
