package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tajeats-api/apperr"
	"tajeats-api/events"
	"tajeats-api/models"
	"tajeats-api/statemachine"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService turns checkouts into orders and drives them through the state machine
type OrderService struct {
	db        *gorm.DB
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewOrderService(db *gorm.DB, publisher events.Publisher, log *zap.Logger) *OrderService {
	return &OrderService{db: db, publisher: publisher, log: log.Named("orders"), now: time.Now}
}

type OrderItemInput struct {
	DishID   uint `json:"dishId" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

type CreateOrderInput struct {
	RestaurantID    uint                `json:"restaurantId" binding:"required"`
	CustomerName    string              `json:"customerName" binding:"required"`
	CustomerPhone   string              `json:"customerPhone"`
	CustomerAddress string              `json:"customerAddress"`
	Total           decimal.Decimal     `json:"total"`
	DeliveryType    models.DeliveryType `json:"deliveryType" binding:"omitempty,deliverytype"`
	// SessionID, when set, is the cart emptied by this checkout
	SessionID string           `json:"sessionId"`
	Items     []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderInput is a partial update; nil fields are left unchanged
type UpdateOrderInput struct {
	CustomerName    *string             `json:"customerName"`
	CustomerPhone   *string             `json:"customerPhone"`
	CustomerAddress *string             `json:"customerAddress"`
	Status          *models.OrderStatus `json:"status"`
	Note            string              `json:"note"`
}

// CreateOrder persists the order, its items and the first history row in one
// transaction. Nothing is written when any line item is invalid.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput, placedBy *uint) (*models.Order, error) {
	if in.DeliveryType == "" {
		in.DeliveryType = models.DeliveryTypeDelivery
	}
	if !in.DeliveryType.Valid() {
		return nil, apperr.InvalidArgument("invalid delivery type %q", in.DeliveryType)
	}
	if len(in.Items) == 0 {
		return nil, apperr.InvalidArgument("an order needs at least one item")
	}
	if in.Total.IsNegative() {
		return nil, apperr.InvalidArgument("total cannot be negative")
	}
	for _, it := range in.Items {
		if err := validQuantity(it.Quantity); err != nil {
			return nil, err
		}
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		if err := tx.First(&restaurant, in.RestaurantID).Error; err != nil {
			return lookupErr(err, "restaurant")
		}
		if !restaurant.DeliveryMode.Allows(in.DeliveryType) {
			return apperr.InvalidArgument("%s does not offer %s orders", restaurant.Name, strings.ToLower(string(in.DeliveryType)))
		}

		now := s.now()
		order = models.Order{
			RestaurantID:      restaurant.ID,
			RestaurantName:    restaurant.Name,
			CustomerName:      in.CustomerName,
			CustomerPhone:     in.CustomerPhone,
			CustomerAddress:   in.CustomerAddress,
			CustomerID:        placedBy,
			Total:             in.Total,
			Status:            models.StatusPlaced,
			DeliveryType:      in.DeliveryType,
			CreatedAt:         now,
			EstimatedDelivery: now.Add(models.EstimatedDeliveryOffset),
		}
		if err := tx.Omit("Items", "StatusHistory").Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		computed := decimal.Zero
		items := make([]models.CartItem, 0, len(in.Items))
		for _, it := range in.Items {
			var dish models.Dish
			if err := tx.First(&dish, it.DishID).Error; err != nil {
				return lookupErr(err, "dish")
			}
			if dish.RestaurantID != restaurant.ID {
				return apperr.InvalidArgument("dish %d does not belong to restaurant %d", dish.ID, restaurant.ID)
			}
			item := models.NewOrderCartItem(order.ID, &dish, it.Quantity)
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			computed = computed.Add(item.LineTotal())
			items = append(items, *item)
		}

		if order.Total.IsZero() && !computed.IsZero() {
			order.Total = computed
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
				Update("total", computed).Error; err != nil {
				return fmt.Errorf("failed to set order total: %w", err)
			}
		}
		order.Items = items

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPlaced,
			ChangedBy: placedBy,
			Note:      "Order placed",
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record order history: %w", err)
		}
		order.StatusHistory = []models.OrderStatusHistory{history}

		if in.SessionID != "" {
			return clearSession(tx, in.SessionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("restaurant_id", order.RestaurantID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	s.publish(ctx, events.Event{
		Type:         events.OrderCreated,
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		Status:       order.Status,
		ChangedBy:    placedBy,
		OccurredAt:   order.CreatedAt,
	})
	return &order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return loadOrder(s.db.WithContext(ctx), id)
}

func loadOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Dish").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, id).Error
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	return &order, nil
}

// UpdateOrder changes the customer contact fields and, through the state
// machine, the status. Restaurant and total never change.
func (s *OrderService) UpdateOrder(ctx context.Context, actor Actor, id uint, in UpdateOrderInput) (*models.Order, error) {
	var changed *events.Event
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := tx.First(&current, id).Error; err != nil {
			return lookupErr(err, "order")
		}
		if err := s.authorizeEdit(actor, &current); err != nil {
			return err
		}

		contactChange := in.CustomerName != nil || in.CustomerPhone != nil || in.CustomerAddress != nil
		if contactChange && actor.Role == models.RoleCustomer {
			return apperr.Forbidden("customers can only cancel an order")
		}

		updates := map[string]any{}
		if in.CustomerName != nil {
			updates["customer_name"] = *in.CustomerName
		}
		if in.CustomerPhone != nil {
			updates["customer_phone"] = *in.CustomerPhone
		}
		if in.CustomerAddress != nil {
			updates["customer_address"] = *in.CustomerAddress
		}
		if len(updates) > 0 {
			if err := tx.Model(&current).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update order: %w", err)
			}
		}

		if in.Status != nil && *in.Status != current.Status {
			ev, err := s.transition(tx, actor, &current, *in.Status, in.Note)
			if err != nil {
				return err
			}
			changed = ev
		}

		var err error
		order, err = loadOrder(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed != nil {
		s.publish(ctx, *changed)
	}
	return order, nil
}

// UpdateStatus moves the order to status if the state machine allows the actor to
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uint, status models.OrderStatus, note string) (*models.Order, error) {
	var ev *events.Event
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := tx.First(&current, id).Error; err != nil {
			return lookupErr(err, "order")
		}
		var err error
		if ev, err = s.transition(tx, actor, &current, status, note); err != nil {
			return err
		}
		order, err = loadOrder(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, *ev)
	return order, nil
}

// authorizeEdit checks that the actor may touch the order at all
func (s *OrderService) authorizeEdit(actor Actor, o *models.Order) error {
	switch {
	case actor.IsAdmin(), actor.WorksAt(o.RestaurantID):
		return nil
	case actor.Role == models.RoleCustomer:
		// the state machine then limits customers to cancelling
		if o.CustomerID != nil && *o.CustomerID == actor.UserID {
			return nil
		}
		return apperr.Forbidden("order %d was not placed by you", o.ID)
	}
	return apperr.Forbidden("you do not work at restaurant %d", o.RestaurantID)
}

// transition validates and records one status change inside tx
func (s *OrderService) transition(tx *gorm.DB, actor Actor, o *models.Order, to models.OrderStatus, note string) (*events.Event, error) {
	if _, ok := models.ParseOrderStatus(string(to)); !ok {
		return nil, apperr.InvalidArgument("unknown order status %q", to)
	}
	if err := s.authorizeEdit(actor, o); err != nil {
		return nil, err
	}
	if err := statemachine.CanTransition(o.Status, to, actor.Role); err != nil {
		return nil, apperr.InvalidTransition(o.Status, to, statemachine.ValidTransitionsFor(o.Status, actor.Role), err)
	}
	if to == models.StatusOnTheWay && o.DeliveryType == models.DeliveryTypePickup {
		return nil, apperr.InvalidArgument("pickup orders are handed over at the restaurant and never go on the way")
	}

	from := o.Status
	res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", o.ID, from).
		Updates(map[string]any{"status": to, "updated_at": s.now()})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.InvalidTransition(from, to, nil, errors.New("order status changed concurrently, reload and retry"))
	}

	var changedBy *uint
	if actor.UserID != 0 {
		id := actor.UserID
		changedBy = &id
	}
	history := models.OrderStatusHistory{
		OrderID:    o.ID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
		Note:       note,
	}
	if err := tx.Create(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to record order history: %w", err)
	}
	o.Status = to

	s.log.Info("Order status changed",
		zap.Uint("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_role", string(actor.Role)),
	)
	return &events.Event{
		Type:           events.OrderStatusChanged,
		OrderID:        o.ID,
		RestaurantID:   o.RestaurantID,
		Status:         to,
		PreviousStatus: from,
		ChangedBy:      changedBy,
		OccurredAt:     s.now(),
	}, nil
}

// ListByRestaurant returns every order of the restaurant, newest first
func (s *OrderService) ListByRestaurant(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	return s.list(ctx, s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID))
}

// ListActiveByRestaurant returns orders still being fulfilled, newest first
func (s *OrderService) ListActiveByRestaurant(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	return s.list(ctx, s.db.WithContext(ctx).
		Where("restaurant_id = ? AND status IN ?", restaurantID, models.ActiveStatuses))
}

// ListActiveDeliveryByRestaurant returns delivery orders a rider has to handle, newest first
func (s *OrderService) ListActiveDeliveryByRestaurant(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	return s.list(ctx, s.db.WithContext(ctx).
		Where("restaurant_id = ? AND delivery_type = ? AND status IN ?",
			restaurantID, models.DeliveryTypeDelivery, models.DeliveryInProgressStatuses))
}

func (s *OrderService) list(_ context.Context, q *gorm.DB) ([]models.Order, error) {
	orders := []models.Order{}
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Dish").
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// DeleteOrder removes the order with its items and history
func (s *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return lookupErr(err, "order")
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderStatusHistory{}).Error; err != nil {
			return fmt.Errorf("failed to delete order history: %w", err)
		}
		if err := tx.Delete(&models.Order{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:         events.OrderDeleted,
		OrderID:      id,
		RestaurantID: order.RestaurantID,
		Status:       order.Status,
		OccurredAt:   s.now(),
	})
	return nil
}

// publish runs after commit. A broker failure never undoes an order change.
func (s *OrderService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Error("Failed to publish order event",
			zap.String("type", e.Type),
			zap.Uint("order_id", e.OrderID),
			zap.Error(err),
		)
	}
}
