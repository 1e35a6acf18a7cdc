// Package event is the in-process domain event bus. Events are immutable
// facts published after a successful state commit; handlers are independent
// and a handler failure never propagates back to the publisher.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/fieldforge/fieldforge/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// OrderCompleted is published once per successful transition into the
// Completed status, after the status write is durably committed.
type OrderCompleted struct {
	OrderID   snowflake.ID
	CompanyID snowflake.ID
}

const orderCompletedName = "order.completed"

// OrderCompletedHandler consumes OrderCompleted events.
type OrderCompletedHandler interface {
	Name() string
	HandleOrderCompleted(ctx context.Context, evt OrderCompleted) error
}

// Bus dispatches typed events to registered handler lists. Publish is
// synchronous: the publisher returns after every handler ran, but handler
// errors and panics are logged and counted, never returned.
type Bus struct {
	mu      sync.RWMutex
	log     *zap.Logger
	metrics *metrics.Metrics

	orderCompleted []OrderCompletedHandler
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func NewBus(p Params) *Bus {
	return &Bus{
		log:     p.Log.Named("event.bus"),
		metrics: p.Metrics,
	}
}

// SubscribeOrderCompleted registers a handler. Registration happens during
// startup wiring, before any publish.
func (b *Bus) SubscribeOrderCompleted(h OrderCompletedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orderCompleted = append(b.orderCompleted, h)
}

// PublishOrderCompleted runs every subscribed handler. Each handler runs
// even when an earlier one failed.
func (b *Bus) PublishOrderCompleted(ctx context.Context, evt OrderCompleted) {
	b.mu.RLock()
	handlers := make([]OrderCompletedHandler, len(b.orderCompleted))
	copy(handlers, b.orderCompleted)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.invoke(ctx, h, evt)
	}
}

func (b *Bus) invoke(ctx context.Context, h OrderCompletedHandler, evt OrderCompleted) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.EventHandlerFailures.WithLabelValues(orderCompletedName, h.Name()).Inc()
			b.log.Error("event handler panicked",
				zap.String("event", orderCompletedName),
				zap.String("handler", h.Name()),
				zap.String("order_id", evt.OrderID.String()),
				zap.Error(fmt.Errorf("panic: %v", r)))
		}
	}()

	if err := h.HandleOrderCompleted(ctx, evt); err != nil {
		b.metrics.EventHandlerFailures.WithLabelValues(orderCompletedName, h.Name()).Inc()
		b.log.Error("event handler failed",
			zap.String("event", orderCompletedName),
			zap.String("handler", h.Name()),
			zap.String("order_id", evt.OrderID.String()),
			zap.Error(err))
	}
}

// Module provides the bus.
var Module = fx.Module("event.bus",
	fx.Provide(NewBus),
)
