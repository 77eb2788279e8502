package handlers

import (
	"net/http"
	"strconv"

	"tajeats-api/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateReview(c *gin.Context) {
	var req services.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	review, err := h.Reviews.CreateReview(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review added", "review": review})
}

// ListReviews returns reviews newest first, optionally for one restaurant
func (h *Handler) ListReviews(c *gin.Context) {
	var rid uint
	if raw := c.Query("restaurantId"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurantId"})
			return
		}
		rid = uint(v)
	}
	reviews, err := h.Reviews.ListReviews(c.Request.Context(), rid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(reviews), "reviews": reviews})
}

func (h *Handler) GetReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	review, err := h.Reviews.GetReview(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}

func (h *Handler) UpdateReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	review, err := h.Reviews.UpdateReview(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review updated", "review": review})
}

func (h *Handler) DeleteReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Reviews.DeleteReview(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}
