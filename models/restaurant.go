package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryMode says which fulfilment types a restaurant offers
type DeliveryMode string

const (
	DeliveryModeDelivery DeliveryMode = "DELIVERY"
	DeliveryModePickup   DeliveryMode = "PICKUP"
	DeliveryModeBoth     DeliveryMode = "BOTH"
)

// Valid reports whether m is a known delivery mode
func (m DeliveryMode) Valid() bool {
	return m == DeliveryModeDelivery || m == DeliveryModePickup || m == DeliveryModeBoth
}

// Allows reports whether an order of type t can be placed under this mode.
// An unset mode allows everything.
func (m DeliveryMode) Allows(t DeliveryType) bool {
	switch m {
	case "", DeliveryModeBoth:
		return true
	case DeliveryModeDelivery:
		return t == DeliveryTypeDelivery
	case DeliveryModePickup:
		return t == DeliveryTypePickup
	}
	return false
}

type Restaurant struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"not null"`
	Image        string          `json:"image" gorm:"type:text"`
	Logo         string          `json:"logo" gorm:"type:text"`
	Category     string          `json:"category" gorm:"index"`
	Rating       float64         `json:"rating" gorm:"not null;default:0"`
	ReviewCount  int             `json:"reviewCount" gorm:"not null;default:0"`
	DeliveryTime string          `json:"deliveryTime"`
	DeliveryFee  decimal.Decimal `json:"deliveryFee" gorm:"type:decimal(10,2);not null;default:0"`
	MinOrder     decimal.Decimal `json:"minOrder" gorm:"type:decimal(10,2);not null;default:0"`
	Description  string          `json:"description" gorm:"type:text"`
	IsOpen       bool            `json:"isOpen" gorm:"not null"`

	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	PostalCode  string `json:"postalCode"`
	City        string `json:"city"`

	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`

	DeliveryMode DeliveryMode `json:"deliveryMode"`

	// Opening intervals per weekday, e.g. "11:00-22:00". Empty or nil means closed.
	OpeningMonday    *string `json:"openingMonday"`
	OpeningTuesday   *string `json:"openingTuesday"`
	OpeningWednesday *string `json:"openingWednesday"`
	OpeningThursday  *string `json:"openingThursday"`
	OpeningFriday    *string `json:"openingFriday"`
	OpeningSaturday  *string `json:"openingSaturday"`
	OpeningSunday    *string `json:"openingSunday"`

	Dishes    []Dish    `json:"dishes,omitempty" gorm:"foreignKey:RestaurantID"`
	Reviews   []Review  `json:"reviews,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OpeningHours returns the opening interval for the given weekday, or "" if closed
func (r *Restaurant) OpeningHours(day time.Weekday) string {
	var v *string
	switch day {
	case time.Monday:
		v = r.OpeningMonday
	case time.Tuesday:
		v = r.OpeningTuesday
	case time.Wednesday:
		v = r.OpeningWednesday
	case time.Thursday:
		v = r.OpeningThursday
	case time.Friday:
		v = r.OpeningFriday
	case time.Saturday:
		v = r.OpeningSaturday
	case time.Sunday:
		v = r.OpeningSunday
	}
	if v == nil {
		return ""
	}
	return *v
}

type Dish struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	RestaurantID uint            `json:"restaurantId" gorm:"not null;index"`
	Name         string          `json:"name" gorm:"not null"`
	Description  string          `json:"description" gorm:"type:text"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Image        string          `json:"image" gorm:"type:text"`
	Category     string          `json:"category" gorm:"index"`
	IsAvailable  bool            `json:"isAvailable" gorm:"not null"`
	IsPopular    bool            `json:"isPopular" gorm:"not null;default:false"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type Review struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurantId" gorm:"not null;index"`
	UserName     string    `json:"userName" gorm:"not null"`
	UserAvatar   string    `json:"userAvatar"`
	Rating       int       `json:"rating" gorm:"not null"`
	Comment      string    `json:"comment" gorm:"type:text"`
	Date         time.Time `json:"date" gorm:"index"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

const (
	MinReviewRating = 1
	MaxReviewRating = 5
)
