package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleCustomer        UserRole = "CUSTOMER"
	RoleRestaurantOwner UserRole = "RESTAURANT_OWNER"
	RoleRider           UserRole = "RIDER"
	RoleAdmin           UserRole = "ADMIN"
)

// Valid reports whether r is one of the known roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleRestaurantOwner, RoleRider, RoleAdmin:
		return true
	}
	return false
}

// RequiresApproval reports whether accounts of this role must be vetted before login
func (r UserRole) RequiresApproval() bool {
	return r == RoleRestaurantOwner || r == RoleRider
}

// SelfRegistrable reports whether the role may be chosen at registration
func (r UserRole) SelfRegistrable() bool {
	return r == RoleCustomer || r == RoleRestaurantOwner || r == RoleRider
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;index:idx_users_role_approved"`
	Phone        string    `json:"phone"`
	RestaurantID *uint     `json:"restaurantId" gorm:"index"`
	IsApproved   bool      `json:"isApproved" gorm:"not null;default:false;index:idx_users_role_approved"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public view of a user, safe to return to any client
type Profile struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         UserRole  `json:"role"`
	RestaurantID *uint     `json:"restaurantId"`
	IsApproved   bool      `json:"isApproved"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile returns the public profile of the user
func (u *User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		RestaurantID: u.RestaurantID,
		IsApproved:   u.IsApproved,
		CreatedAt:    u.CreatedAt,
	}
}
