package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/fieldforge/fieldforge/internal/company"
	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/customer"
	"github.com/fieldforge/fieldforge/internal/event"
	"github.com/fieldforge/fieldforge/internal/invoice"
	"github.com/fieldforge/fieldforge/internal/lock"
	"github.com/fieldforge/fieldforge/internal/migration"
	"github.com/fieldforge/fieldforge/internal/notification"
	"github.com/fieldforge/fieldforge/internal/observability"
	"github.com/fieldforge/fieldforge/internal/order"
	"github.com/fieldforge/fieldforge/internal/profile"
	"github.com/fieldforge/fieldforge/internal/providers"
	"github.com/fieldforge/fieldforge/internal/push"
	"github.com/fieldforge/fieldforge/internal/redisconn"
	"github.com/fieldforge/fieldforge/internal/server"
	"github.com/fieldforge/fieldforge/internal/tenant"
	"github.com/fieldforge/fieldforge/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		fx.Provide(config.NewPricingConfigHolder),
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		redisconn.Module,

		company.Module,
		customer.Module,
		tenant.Module,
		event.Module,
		lock.Module,
		push.Module,
		profile.Module,
		providers.Module,
		notification.Module,
		order.Module,
		invoice.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
