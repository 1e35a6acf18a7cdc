package invoice

import (
	"github.com/fieldforge/fieldforge/internal/event"
	"github.com/fieldforge/fieldforge/internal/invoice/generator"
	"github.com/fieldforge/fieldforge/internal/invoice/repository"
	"github.com/fieldforge/fieldforge/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(generator.New),
	fx.Invoke(func(bus *event.Bus, gen *generator.Generator) {
		bus.SubscribeOrderCompleted(gen)
	}),
)
