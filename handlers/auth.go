package handlers

import (
	"net/http"

	"tajeats-api/logger"
	"tajeats-api/middleware"
	"tajeats-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user account. Owners and riders must be approved before they can log in.
func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, err := h.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	msg := "Account created successfully"
	if !user.IsApproved {
		msg = "Account created, waiting for admin approval"
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "user": user.Profile()})
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   res.Token,
		"user":    res.User,
	})
}

// Me returns the authenticated user's profile
func (h *Handler) Me(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	profile, err := h.Accounts.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// Logout revokes the presented token until it would have expired
func (h *Handler) Logout(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	if err := h.Blacklist.Revoke(c.Request.Context(), claims.ID, h.Tokens.Remaining(claims)); err != nil {
		respondError(c, err)
		return
	}
	logger.FromGin(c).Info("Token revoked", zap.Uint("user_id", claims.UserID))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// LinkRestaurant ties a staff account to a restaurant and returns a token carrying the link
func (h *Handler) LinkRestaurant(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	rid, ok := idParam(c, "restaurantId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	profile, err := h.Accounts.LinkRestaurant(ctx, middleware.ActorFrom(c), userID, rid)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"message": "Restaurant linked", "user": profile}
	if claims, _ := middleware.ClaimsFrom(c); claims.UserID == userID {
		token, err := h.Accounts.Token(ctx, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		body["token"] = token
	}
	c.JSON(http.StatusOK, body)
}
