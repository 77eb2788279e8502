package routes

import (
	"net/http"

	"tajeats-api/handlers"
	"tajeats-api/middleware"
	"tajeats-api/models"

	"github.com/gin-gonic/gin"
)

// Options configures the parts of the router that depend on deployment
type Options struct {
	Tokens  middleware.TokenParser
	Revoked middleware.RevocationChecker
	// Staff, when set, resolves the current restaurant link of owner and rider tokens
	Staff middleware.StaffLinks
	// ImageDir, when set, is served under ImagePath for the local image store
	ImageDir  string
	ImagePath string
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, opts Options) {
	authRequired := middleware.AuthRequired(opts.Tokens, opts.Revoked, opts.Staff)
	adminOnly := middleware.RoleRequired(models.RoleAdmin)
	staff := middleware.RoleRequired(models.RoleRestaurantOwner, models.RoleRider, models.RoleAdmin)
	owners := middleware.RoleRequired(models.RoleRestaurantOwner, models.RoleAdmin)

	r.GET("/health", h.Health)
	if opts.ImageDir != "" && opts.ImagePath != "" {
		r.Static(opts.ImagePath, opts.ImageDir)
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	api := r.Group("/api")

	// ── Public routes ──────────────────────────────────────────────
	{
		api.GET("/health", h.Health)
		api.GET("/state-machine", h.GetStateMachineInfo)

		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		api.GET("/restaurants", h.ListRestaurants)
		api.GET("/restaurants/:id", h.GetRestaurant)
		api.GET("/restaurants/:id/menu", h.GetMenu)
		api.GET("/dishes", h.ListDishes)
		api.GET("/dishes/:id", h.GetDish)

		api.GET("/reviews", h.ListReviews)
		api.GET("/reviews/:id", h.GetReview)
		api.POST("/reviews", h.CreateReview)
	}

	// ── Cart (anonymous sessions) ──────────────────────────────────
	cart := api.Group("/cart")
	{
		cart.POST("/sessions", h.CreateCartSession)
		cart.GET("/session/:sessionId", h.GetCart)
		cart.POST("/session/:sessionId", h.AddToCart)
		cart.DELETE("/session/:sessionId", h.ClearCart)
		cart.PUT("/session/:sessionId/item/:itemId", h.UpdateCartItem)
		cart.DELETE("/session/:sessionId/item/:itemId", h.RemoveCartItem)
	}

	// ── Orders ─────────────────────────────────────────────────────
	orders := api.Group("/orders")
	{
		orders.POST("", middleware.OptionalAuth(opts.Tokens, opts.Revoked, opts.Staff), h.CreateOrder)

		orders.GET("", authRequired, staff, h.GetRestaurantOrders)
		orders.GET("/active", authRequired, staff, h.GetActiveOrders)
		orders.GET("/delivery", authRequired, staff, h.GetDeliveryOrders)

		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id", authRequired, h.UpdateOrder)
		orders.PUT("/:id/status", authRequired, h.UpdateOrderStatus)
		orders.DELETE("/:id", authRequired, adminOnly, h.DeleteOrder)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := api.Group("")
	authed.Use(authRequired)
	{
		authed.GET("/auth/me", h.Me)
		authed.POST("/auth/logout", h.Logout)

		authed.PUT("/users/:id/restaurant/:restaurantId", owners, h.LinkRestaurant)
		authed.GET("/users/riders/restaurant/:restaurantId", owners, h.GetRestaurantRiders)
	}

	// ── Catalog management (owner of the restaurant or admin) ──────
	catalog := api.Group("")
	catalog.Use(authRequired, owners)
	{
		catalog.POST("/restaurants", h.CreateRestaurant)
		catalog.PUT("/restaurants/:id", h.UpdateRestaurant)
		catalog.DELETE("/restaurants/:id", h.DeleteRestaurant)
		catalog.POST("/restaurants/:id/image", h.UploadRestaurantImage)
		catalog.POST("/restaurants/:id/logo", h.UploadRestaurantLogo)

		catalog.POST("/dishes", h.CreateDish)
		catalog.PUT("/dishes/:id", h.UpdateDish)
		catalog.DELETE("/dishes/:id", h.DeleteDish)
		catalog.POST("/dishes/:id/image", h.UploadDishImage)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := api.Group("")
	admin.Use(authRequired, adminOnly)
	{
		admin.GET("/users/pending", h.GetPendingOwners)
		admin.GET("/users/pending/riders", h.GetPendingRiders)
		admin.PUT("/users/:id/approve", h.ApproveUser)
		admin.DELETE("/users/:id/reject", h.RejectUser)

		admin.PUT("/reviews/:id", h.UpdateReview)
		admin.DELETE("/reviews/:id", h.DeleteReview)
	}
}
