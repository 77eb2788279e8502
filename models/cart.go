package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCartItemUnlinked     = errors.New("cart item must belong to a session or an order")
	ErrCartItemDoubleLinked = errors.New("cart item cannot belong to both a session and an order")
	ErrCartItemQuantity     = errors.New("cart item quantity must be at least 1")
)

// CartLink is where a cart item lives: a pending session cart or a committed order
type CartLink interface {
	isCartLink()
}

// PendingLink ties an item to a pre-checkout session cart
type PendingLink struct {
	SessionID string
}

// CommittedLink ties an item to a placed order
type CommittedLink struct {
	OrderID uint
}

func (PendingLink) isCartLink()   {}
func (CommittedLink) isCartLink() {}

// CartItem is one dish selection. The session and order columns are mutually
// exclusive; build items with NewSessionCartItem or NewOrderCartItem.
type CartItem struct {
	ID        uint                `json:"id" gorm:"primaryKey"`
	Quantity  int                 `json:"quantity" gorm:"not null"`
	DishID    uint                `json:"dishId" gorm:"not null;index"`
	Dish      *Dish               `json:"dish,omitempty" gorm:"foreignKey:DishID"`
	SessionID *string             `json:"sessionId,omitempty" gorm:"index"`
	OrderID   *uint               `json:"orderId,omitempty" gorm:"index"`
	UnitPrice decimal.NullDecimal `json:"unitPrice" gorm:"type:decimal(10,2)"` // snapshot, committed items only
	DishName  string              `json:"dishName,omitempty"`                  // snapshot, committed items only
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// NewSessionCartItem builds a pending item for a session cart
func NewSessionCartItem(sessionID string, dishID uint, quantity int) *CartItem {
	return &CartItem{
		SessionID: &sessionID,
		DishID:    dishID,
		Quantity:  quantity,
	}
}

// NewOrderCartItem builds a committed item, snapshotting the dish's name and price
func NewOrderCartItem(orderID uint, dish *Dish, quantity int) *CartItem {
	return &CartItem{
		OrderID:   &orderID,
		DishID:    dish.ID,
		Quantity:  quantity,
		UnitPrice: decimal.NewNullDecimal(dish.Price),
		DishName:  dish.Name,
	}
}

// Link returns the item's linkage
func (c *CartItem) Link() (CartLink, error) {
	switch {
	case c.SessionID != nil && c.OrderID != nil:
		return nil, ErrCartItemDoubleLinked
	case c.SessionID != nil:
		return PendingLink{SessionID: *c.SessionID}, nil
	case c.OrderID != nil:
		return CommittedLink{OrderID: *c.OrderID}, nil
	}
	return nil, ErrCartItemUnlinked
}

// LineTotal is unit price times quantity. Pending items are priced from the
// preloaded dish; it returns zero when no price is known.
func (c *CartItem) LineTotal() decimal.Decimal {
	price := decimal.Zero
	switch {
	case c.UnitPrice.Valid:
		price = c.UnitPrice.Decimal
	case c.Dish != nil:
		price = c.Dish.Price
	}
	return price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// BeforeSave rejects items with an invalid linkage or quantity
func (c *CartItem) BeforeSave(tx *gorm.DB) error {
	if _, err := c.Link(); err != nil {
		return err
	}
	if c.Quantity < 1 {
		return ErrCartItemQuantity
	}
	return nil
}
