package providers

import (
	"github.com/fieldforge/fieldforge/internal/providers/email"
	"github.com/fieldforge/fieldforge/internal/providers/pdf"
	"github.com/fieldforge/fieldforge/internal/providers/sms"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
	sms.Module,
)
