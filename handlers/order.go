package handlers

import (
	"net/http"

	"tajeats-api/middleware"
	"tajeats-api/models"
	"tajeats-api/services"

	"github.com/gin-gonic/gin"
)

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required,orderstatus"`
	Note   string             `json:"note"`
}

// CreateOrder places an order. Anonymous checkout is allowed; a signed-in
// caller is recorded as the author of the first history row.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var placedBy *uint
	if claims, ok := middleware.ClaimsFrom(c); ok {
		id := claims.UserID
		placedBy = &id
	}

	order, err := h.Orders.CreateOrder(c.Request.Context(), req, placedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":            "Order placed successfully",
		"order":              order,
		"estimated_delivery": order.EstimatedDelivery,
	})
}

// GetOrder returns an order with items and status history
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrder edits contact fields and optionally moves the status
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.Orders.UpdateOrder(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order updated", "order": order})
}

// UpdateOrderStatus runs one state machine transition
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), id, req.Status, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Order status updated",
		"order_id":       order.ID,
		"current_status": order.Status,
		"order":          order,
	})
}

// DeleteOrder removes an order with its items and history. Admin only.
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Orders.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}
