package company

import (
	"github.com/fieldforge/fieldforge/internal/company/repository"
	"github.com/fieldforge/fieldforge/internal/company/service"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
