package generator

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/event"
	"github.com/fieldforge/fieldforge/internal/invoice/domain"
	invoicerepo "github.com/fieldforge/fieldforge/internal/invoice/repository"
	"github.com/fieldforge/fieldforge/internal/observability/metrics"
	orderdomain "github.com/fieldforge/fieldforge/internal/order/domain"
	orderrepo "github.com/fieldforge/fieldforge/internal/order/repository"
	dbpkg "github.com/fieldforge/fieldforge/pkg/db"
)

func setupGenerator(t *testing.T) (*Generator, *gorm.DB, *snowflake.Node) {
	t.Helper()

	gdb, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&orderdomain.ServiceOrder{}, &orderdomain.Assignment{}, &domain.Invoice{}, &domain.LineItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	gen := New(Params{
		DB:      gdb,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    invoicerepo.Provide(),
		Orders:  orderrepo.Provide(),
		Pricing: config.NewStaticPricingHolder(config.DefaultPricingConfig()),
		Metrics: metrics.NewWith(prometheus.NewRegistry()),
	})
	return gen, gdb, node
}

func seedCompletedOrder(t *testing.T, gdb *gorm.DB, node *snowflake.Node) orderdomain.ServiceOrder {
	t.Helper()
	order := orderdomain.ServiceOrder{
		ID:          node.Generate(),
		CompanyID:   node.Generate(),
		CustomerID:  node.Generate(),
		AddressLine: "1 Main St",
		City:        "Springfield",
		ScheduledAt: time.Now().UTC(),
		Status:      orderdomain.StatusCompleted,
		LastUpdated: time.Now().UTC(),
	}
	if err := gdb.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestGeneratorCreatesInvoiceFromPricing(t *testing.T) {
	gen, gdb, node := setupGenerator(t)
	order := seedCompletedOrder(t, gdb, node)
	before := time.Now().UTC()

	err := gen.HandleOrderCompleted(context.Background(), event.OrderCompleted{
		OrderID:   order.ID,
		CompanyID: order.CompanyID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	var invoice domain.Invoice
	if err := gdb.Preload("LineItems").Where("service_order_id = ?", order.ID).First(&invoice).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if invoice.AmountDueCents != 10_000 {
		t.Fatalf("amount due = %d, want 10000", invoice.AmountDueCents)
	}
	if invoice.Currency != "USD" || invoice.Status != domain.StatusPending {
		t.Fatalf("unexpected invoice: currency=%s status=%s", invoice.Currency, invoice.Status)
	}
	if invoice.CompanyID != order.CompanyID || invoice.CustomerID != order.CustomerID {
		t.Fatalf("invoice not linked to order: %+v", invoice)
	}
	wantDue := before.AddDate(0, 0, 30)
	if invoice.DueAt.Before(wantDue.Add(-time.Minute)) || invoice.DueAt.After(wantDue.Add(time.Minute)) {
		t.Fatalf("due date = %v, want about %v", invoice.DueAt, wantDue)
	}
	if len(invoice.LineItems) != 1 {
		t.Fatalf("expected one line item, got %d", len(invoice.LineItems))
	}
	item := invoice.LineItems[0]
	if item.Description != "Service Call" || item.Quantity != 1 || item.UnitPriceCents != 10_000 || item.LineTotalCents != 10_000 {
		t.Fatalf("unexpected line item: %+v", item)
	}
}

func TestGeneratorIdempotentOnDuplicateEvent(t *testing.T) {
	gen, gdb, node := setupGenerator(t)
	order := seedCompletedOrder(t, gdb, node)
	evt := event.OrderCompleted{OrderID: order.ID, CompanyID: order.CompanyID}

	for i := 0; i < 3; i++ {
		if err := gen.HandleOrderCompleted(context.Background(), evt); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}

	var count int64
	if err := gdb.Model(&domain.Invoice{}).Where("service_order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one invoice, got %d", count)
	}
}

func TestGeneratorSkipsVanishedOrder(t *testing.T) {
	gen, gdb, node := setupGenerator(t)

	err := gen.HandleOrderCompleted(context.Background(), event.OrderCompleted{
		OrderID:   node.Generate(),
		CompanyID: node.Generate(),
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	var count int64
	if err := gdb.Model(&domain.Invoice{}).Count(&count).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no invoices, got %d", count)
	}
}

func TestGeneratorRespectsReloadedPricing(t *testing.T) {
	gen, gdb, node := setupGenerator(t)
	gen.pricing = config.NewStaticPricingHolder(config.PricingConfig{
		Currency:        "EUR",
		FlatRateCents:   25_500,
		DueInDays:       14,
		LineDescription: "Emergency Call",
	})
	order := seedCompletedOrder(t, gdb, node)

	err := gen.HandleOrderCompleted(context.Background(), event.OrderCompleted{
		OrderID:   order.ID,
		CompanyID: order.CompanyID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	var invoice domain.Invoice
	if err := gdb.Preload("LineItems").Where("service_order_id = ?", order.ID).First(&invoice).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if invoice.AmountDueCents != 25_500 || invoice.Currency != "EUR" {
		t.Fatalf("pricing not applied: %+v", invoice)
	}
	if invoice.LineItems[0].Description != "Emergency Call" {
		t.Fatalf("line description not applied: %+v", invoice.LineItems[0])
	}
}
