package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PricingConfig describes the flat-rate invoicing policy. Amounts are in
// minor currency units (cents).
type PricingConfig struct {
	Currency        string `mapstructure:"currency"`
	FlatRateCents   int64  `mapstructure:"flatRateCents"`
	DueInDays       int    `mapstructure:"dueInDays"`
	LineDescription string `mapstructure:"lineDescription"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Currency:        "USD",
		FlatRateCents:   10_000,
		DueInDays:       30,
		LineDescription: "Service Call",
	}
}

// PricingConfigHolder exposes the pricing policy with hot reload; invoice
// generation reads the current snapshot on every event.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder(cfg Config, logger *zap.Logger) (*PricingConfigHolder, error) {
	log := logger.Named("config.pricing")
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	for _, path := range cfg.PricingConfigPaths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("FIELDFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingConfig()
		v.SetDefault("pricing.currency", defaults.Currency)
		v.SetDefault("pricing.flatRateCents", defaults.FlatRateCents)
		v.SetDefault("pricing.dueInDays", defaults.DueInDays)
		v.SetDefault("pricing.lineDescription", defaults.LineDescription)
	}

	var pricing PricingConfig
	if err := v.UnmarshalKey("pricing", &pricing); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(pricing); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(pricing)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Warn("pricing reload failed", zap.Error(err))
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Warn("invalid pricing config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("pricing config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticPricingHolder wraps a fixed policy, used by tests.
func NewStaticPricingHolder(pricing PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(pricing)
	return holder
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

func validatePricingConfig(pricing PricingConfig) error {
	if pricing.FlatRateCents <= 0 {
		return errors.New("pricing.flatRateCents must be positive")
	}
	if pricing.DueInDays <= 0 {
		return errors.New("pricing.dueInDays must be positive")
	}
	if strings.TrimSpace(pricing.Currency) == "" {
		return errors.New("pricing.currency cannot be empty")
	}
	return nil
}
