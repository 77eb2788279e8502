package services

import (
	"errors"
	"fmt"
	"strings"

	"tajeats-api/apperr"
	"tajeats-api/models"

	"gorm.io/gorm"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID       uint
	Role         models.UserRole
	RestaurantID *uint
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// WorksAt reports whether the caller is staff (owner or rider) linked to the restaurant
func (a Actor) WorksAt(restaurantID uint) bool {
	if a.Role != models.RoleRestaurantOwner && a.Role != models.RoleRider {
		return false
	}
	return a.RestaurantID != nil && *a.RestaurantID == restaurantID
}

// CanManageRestaurant reports whether the caller may edit the restaurant's catalog
func (a Actor) CanManageRestaurant(restaurantID uint) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == models.RoleRestaurantOwner && a.RestaurantID != nil && *a.RestaurantID == restaurantID
}

// CanViewOrders reports whether the caller may see the restaurant's order views
func (a Actor) CanViewOrders(restaurantID uint) bool {
	return a.IsAdmin() || a.WorksAt(restaurantID)
}

// lookupErr converts a failed First/Take into NotFound or a wrapped store error
func lookupErr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity)
	}
	return fmt.Errorf("failed to load %s: %w", entity, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
