package customer

import (
	"github.com/fieldforge/fieldforge/internal/customer/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.repository",
	fx.Provide(repository.Provide),
)
