package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetPendingOwners lists restaurant owners waiting for approval
func (h *Handler) GetPendingOwners(c *gin.Context) {
	users, err := h.Accounts.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// GetPendingRiders lists riders waiting for approval
func (h *Handler) GetPendingRiders(c *gin.Context) {
	users, err := h.Accounts.ListPendingRiders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func (h *Handler) ApproveUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, err := h.Accounts.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User approved", "user": user})
}

// RejectUser deletes a pending account
func (h *Handler) RejectUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Accounts.Reject(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User rejected"})
}
