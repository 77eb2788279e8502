package events

import (
	"context"
	"time"

	"tajeats-api/models"

	"go.uber.org/zap"
)

// Event types
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderDeleted       = "order.deleted"
)

// Event describes something that happened to an order
type Event struct {
	Type           string             `json:"type"`
	OrderID        uint               `json:"orderId"`
	RestaurantID   uint               `json:"restaurantId"`
	Status         models.OrderStatus `json:"status,omitempty"`
	PreviousStatus models.OrderStatus `json:"previousStatus,omitempty"`
	ChangedBy      *uint              `json:"changedBy,omitempty"`
	OccurredAt     time.Time          `json:"occurredAt"`
}

// Publisher delivers order events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher only logs events. Used when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.log.Info("Order event",
		zap.String("type", e.Type),
		zap.Uint("order_id", e.OrderID),
		zap.Uint("restaurant_id", e.RestaurantID),
		zap.String("status", string(e.Status)),
		zap.String("previous_status", string(e.PreviousStatus)),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the recorded event types in order
func (r *Recorder) Types() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}

var (
	_ Publisher = (*LogPublisher)(nil)
	_ Publisher = (*Recorder)(nil)
)
