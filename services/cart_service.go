package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tajeats-api/apperr"
	"tajeats-api/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CartService keeps the pre-checkout cart of an anonymous session
type CartService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCartService(db *gorm.DB, log *zap.Logger) *CartService {
	return &CartService{db: db, log: log.Named("cart")}
}

// NewSessionID issues an opaque cart session id
func (s *CartService) NewSessionID() string {
	return uuid.NewString()
}

func validSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperr.InvalidArgument("sessionId is required")
	}
	return nil
}

func validQuantity(q int) error {
	if q < 1 {
		return apperr.InvalidArgument("quantity must be at least 1")
	}
	return nil
}

// AddItem puts a dish in the session cart. Adding a dish already in the cart
// increments its quantity; the cart never holds two rows for one dish.
func (s *CartService) AddItem(ctx context.Context, sessionID string, dishID uint, quantity int) (*models.CartItem, error) {
	if err := validSession(sessionID); err != nil {
		return nil, err
	}
	if err := validQuantity(quantity); err != nil {
		return nil, err
	}

	var item models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dish models.Dish
		if err := tx.First(&dish, dishID).Error; err != nil {
			return lookupErr(err, "dish")
		}

		var existing models.CartItem
		err := tx.Where("session_id = ? AND dish_id = ? AND order_id IS NULL", sessionID, dishID).
			Order("id ASC").First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created := models.NewSessionCartItem(sessionID, dishID, quantity)
			if err := tx.Create(created).Error; err != nil {
				return fmt.Errorf("failed to add cart item: %w", err)
			}
			item = *created
		case err != nil:
			return fmt.Errorf("failed to load cart item: %w", err)
		default:
			if err := tx.Model(&existing).
				Update("quantity", gorm.Expr("quantity + ?", quantity)).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
			if err := tx.First(&item, existing.ID).Error; err != nil {
				return fmt.Errorf("failed to reload cart item: %w", err)
			}
		}
		item.Dish = &dish
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListCart returns the session's items with their dish details, oldest first
func (s *CartService) ListCart(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	if err := validSession(sessionID); err != nil {
		return nil, err
	}
	items := []models.CartItem{}
	err := s.db.WithContext(ctx).Preload("Dish").
		Where("session_id = ? AND order_id IS NULL", sessionID).
		Order("id ASC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return items, nil
}

// ClearCart empties the session cart. Clearing an empty cart is not an error.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if err := validSession(sessionID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return clearSession(tx, sessionID)
	})
}

func clearSession(tx *gorm.DB, sessionID string) error {
	err := tx.Where("session_id = ? AND order_id IS NULL", sessionID).Delete(&models.CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// RemoveItem deletes one item from the session cart. Items of other sessions
// and items already committed to an order are reported as not found.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, itemID uint) error {
	if err := validSession(sessionID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND session_id = ? AND order_id IS NULL", itemID, sessionID).
			Delete(&models.CartItem{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove cart item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("cart item")
		}
		return nil
	})
}

// UpdateQuantity sets the quantity of one item in the session cart
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, itemID uint, quantity int) (*models.CartItem, error) {
	if err := validSession(sessionID); err != nil {
		return nil, err
	}
	if err := validQuantity(quantity); err != nil {
		return nil, err
	}

	var item models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND session_id = ? AND order_id IS NULL", itemID, sessionID).First(&item).Error
		if err != nil {
			return lookupErr(err, "cart item")
		}
		item.Quantity = quantity
		if err := tx.Model(&item).Update("quantity", quantity).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		return tx.Preload("Dish").First(&item, item.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
