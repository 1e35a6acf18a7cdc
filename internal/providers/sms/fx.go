package sms

import (
	"github.com/fieldforge/fieldforge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.sms",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.SMSGatewayURL == "" {
		return &NoOpProvider{}
	}
	return NewGateway(Config{
		BaseURL: cfg.SMSGatewayURL,
		Token:   cfg.SMSGatewayToken,
		Sender:  cfg.SMSSenderNumber,
	}, log)
}
