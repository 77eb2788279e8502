package handlers

import (
	"net/http"

	"tajeats-api/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AddToCartRequest struct {
	DishID   uint `json:"dishId" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func cartBody(sessionID string, items []models.CartItem) gin.H {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].LineTotal())
	}
	return gin.H{
		"sessionId": sessionID,
		"count":     len(items),
		"items":     items,
		"total":     total,
	}
}

// CreateCartSession issues a new anonymous cart session
func (h *Handler) CreateCartSession(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"sessionId": h.Cart.NewSessionID()})
}

// GetCart returns the session's cart with line items and running total
func (h *Handler) GetCart(c *gin.Context) {
	sid := c.Param("sessionId")
	items, err := h.Cart.ListCart(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(sid, items))
}

// AddToCart adds a dish, merging with an existing line for the same dish
func (h *Handler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	item, err := h.Cart.AddItem(c.Request.Context(), c.Param("sessionId"), req.DishID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart", "item": item})
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	item, err := h.Cart.UpdateQuantity(c.Request.Context(), c.Param("sessionId"), itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item updated", "item": item})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	if err := h.Cart.RemoveItem(c.Request.Context(), c.Param("sessionId"), itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item removed"})
}

func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.Cart.ClearCart(c.Request.Context(), c.Param("sessionId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
