package order

import (
	"github.com/fieldforge/fieldforge/internal/order/repository"
	"github.com/fieldforge/fieldforge/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
