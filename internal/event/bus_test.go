package event

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fieldforge/fieldforge/internal/observability/metrics"
)

type handlerStub struct {
	name   string
	calls  int
	fail   error
	panics bool
}

func (h *handlerStub) Name() string { return h.name }

func (h *handlerStub) HandleOrderCompleted(ctx context.Context, evt OrderCompleted) error {
	h.calls++
	if h.panics {
		panic("handler blew up")
	}
	return h.fail
}

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	return NewBus(Params{
		Log:     zap.NewNop(),
		Metrics: metrics.NewWith(prometheus.NewRegistry()),
	})
}

func testEvent(t *testing.T) OrderCompleted {
	t.Helper()
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return OrderCompleted{OrderID: node.Generate(), CompanyID: node.Generate()}
}

func TestPublishReachesAllHandlers(t *testing.T) {
	bus := newTestBus(t)
	a := &handlerStub{name: "a"}
	b := &handlerStub{name: "b"}
	bus.SubscribeOrderCompleted(a)
	bus.SubscribeOrderCompleted(b)

	bus.PublishOrderCompleted(context.Background(), testEvent(t))

	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("calls = %d, %d, want 1, 1", a.calls, b.calls)
	}
}

func TestPublishIsolatesFailingHandler(t *testing.T) {
	bus := newTestBus(t)
	failing := &handlerStub{name: "failing", fail: errors.New("boom")}
	after := &handlerStub{name: "after"}
	bus.SubscribeOrderCompleted(failing)
	bus.SubscribeOrderCompleted(after)

	bus.PublishOrderCompleted(context.Background(), testEvent(t))

	if after.calls != 1 {
		t.Fatalf("handler after failure not invoked, calls = %d", after.calls)
	}
}

func TestPublishRecoversPanickingHandler(t *testing.T) {
	bus := newTestBus(t)
	panicking := &handlerStub{name: "panicking", panics: true}
	after := &handlerStub{name: "after"}
	bus.SubscribeOrderCompleted(panicking)
	bus.SubscribeOrderCompleted(after)

	bus.PublishOrderCompleted(context.Background(), testEvent(t))

	if panicking.calls != 1 || after.calls != 1 {
		t.Fatalf("calls = %d, %d, want 1, 1", panicking.calls, after.calls)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := newTestBus(t)
	bus.PublishOrderCompleted(context.Background(), testEvent(t))
}
