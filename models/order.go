package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents all possible states of a food delivery order
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusApproved  OrderStatus = "approved"
	StatusPreparing OrderStatus = "preparing"
	StatusOnTheWay  OrderStatus = "on-the-way"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []OrderStatus{
	StatusPlaced, StatusApproved, StatusPreparing, StatusOnTheWay, StatusDelivered, StatusCancelled,
}

// ActiveStatuses are the statuses of orders still being fulfilled
var ActiveStatuses = []OrderStatus{StatusPlaced, StatusApproved, StatusPreparing, StatusOnTheWay}

// DeliveryInProgressStatuses are the statuses a rider works on
var DeliveryInProgressStatuses = []OrderStatus{StatusApproved, StatusOnTheWay}

// ParseOrderStatus converts s into a known status
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Terminal reports whether no further transition can leave this status
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DeliveryType is how a single order is fulfilled
type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "DELIVERY"
	DeliveryTypePickup   DeliveryType = "PICKUP"
)

// Valid reports whether t is a known delivery type
func (t DeliveryType) Valid() bool {
	return t == DeliveryTypeDelivery || t == DeliveryTypePickup
}

// EstimatedDeliveryOffset is added to the creation time to get the delivery estimate
const EstimatedDeliveryOffset = 40 * time.Minute

type Order struct {
	ID                uint                 `json:"id" gorm:"primaryKey"`
	RestaurantID      uint                 `json:"restaurantId" gorm:"not null;index"`
	RestaurantName    string               `json:"restaurantName"` // snapshot at creation
	CustomerName      string               `json:"customerName"`
	CustomerPhone     string               `json:"customerPhone"`
	CustomerAddress   string               `json:"customerAddress"`
	CustomerID        *uint                `json:"customerId" gorm:"index"` // signed-in account that placed the order
	Total             decimal.Decimal      `json:"total" gorm:"type:decimal(10,2);not null;default:0"`
	Status            OrderStatus          `json:"status" gorm:"not null;index"`
	DeliveryType      DeliveryType         `json:"deliveryType" gorm:"not null"`
	CreatedAt         time.Time            `json:"createdAt" gorm:"index"`
	EstimatedDelivery time.Time            `json:"estimatedDelivery"`
	UpdatedAt         time.Time            `json:"updatedAt"`
	Items             []CartItem           `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory     []OrderStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  *uint       `json:"changedBy"` // nil when the change came from an anonymous checkout
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
}
