// Package generator turns completed service orders into invoices.
package generator

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/event"
	"github.com/fieldforge/fieldforge/internal/invoice/domain"
	"github.com/fieldforge/fieldforge/internal/observability/metrics"
	orderdomain "github.com/fieldforge/fieldforge/internal/order/domain"
	dbpkg "github.com/fieldforge/fieldforge/pkg/db"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Orders  orderdomain.Repository
	Pricing *config.PricingConfigHolder
	Metrics *metrics.Metrics
}

// Generator subscribes to order completions and creates the invoice. It is
// idempotent against duplicate events: the unique index on service_order_id
// rejects a second insert and the duplicate is swallowed.
type Generator struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	orders  orderdomain.Repository
	pricing *config.PricingConfigHolder
	metrics *metrics.Metrics
}

func New(p Params) *Generator {
	return &Generator{
		db:      p.DB,
		log:     p.Log.Named("invoice.generator"),
		genID:   p.GenID,
		repo:    p.Repo,
		orders:  p.Orders,
		pricing: p.Pricing,
		metrics: p.Metrics,
	}
}

func (g *Generator) Name() string { return "invoice.generator" }

func (g *Generator) HandleOrderCompleted(ctx context.Context, evt event.OrderCompleted) error {
	order, err := g.orders.FindByIDForCompany(ctx, g.db, evt.CompanyID, evt.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		// Order deleted between commit and handling; nothing to bill.
		g.log.Warn("completed order vanished, skipping invoice",
			zap.String("order_id", evt.OrderID.String()))
		return nil
	}

	existing, err := g.repo.FindByServiceOrder(ctx, g.db, evt.OrderID)
	if err != nil {
		return err
	}
	if existing != nil {
		g.metrics.DuplicateCompletions.Inc()
		return nil
	}

	pricing := g.pricing.Get()
	now := time.Now().UTC()
	invoiceID := g.genID.Generate()
	invoice := domain.Invoice{
		ID:             invoiceID,
		CompanyID:      order.CompanyID,
		CustomerID:     order.CustomerID,
		ServiceOrderID: order.ID,
		AmountDueCents: pricing.FlatRateCents,
		Currency:       pricing.Currency,
		Status:         domain.StatusPending,
		CreatedAt:      now,
		DueAt:          now.AddDate(0, 0, pricing.DueInDays),
		LineItems: []domain.LineItem{{
			ID:             g.genID.Generate(),
			InvoiceID:      invoiceID,
			Description:    pricing.LineDescription,
			Quantity:       1,
			UnitPriceCents: pricing.FlatRateCents,
			LineTotalCents: pricing.FlatRateCents,
		}},
	}

	if err := g.repo.InsertWithItems(ctx, g.db, &invoice); err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			g.metrics.DuplicateCompletions.Inc()
			return nil
		}
		return err
	}

	g.metrics.InvoicesGenerated.Inc()
	g.log.Info("invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("order_id", order.ID.String()),
		zap.Int64("amount_due_cents", invoice.AmountDueCents))
	return nil
}
