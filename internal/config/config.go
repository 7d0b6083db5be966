package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Server     ServerConfig     `mapstructure:"server"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

type DeploymentConfig struct {
	Mode string `mapstructure:"mode"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StripeConfig carries the provider credentials, the static price catalog and
// the subscription policy knobs.
type StripeConfig struct {
	APIKey               string             `mapstructure:"api_key"`
	Products             ProductsConfig     `mapstructure:"products"`
	Subscription         SubscriptionConfig `mapstructure:"subscription"`
	MaxRequestsPerSecond int                `mapstructure:"max_requests_per_second"`
}

type ProductsConfig struct {
	Main     ProductConfig `mapstructure:"main"`
	Location ProductConfig `mapstructure:"location"`
}

type ProductConfig struct {
	ID      string      `mapstructure:"id"`
	Monthly PriceConfig `mapstructure:"monthly"`
	Yearly  PriceConfig `mapstructure:"yearly"`
}

// PriceConfig describes one provider price: its reference and the per-unit
// amount in the currency's minor units (cents for USD).
type PriceConfig struct {
	ID         string `mapstructure:"id"`
	UnitAmount int64  `mapstructure:"unit_amount"`
	Currency   string `mapstructure:"currency"`
}

// SubscriptionConfig holds the trial and refund-grace policy windows.
type SubscriptionConfig struct {
	TrialPeriodInSeconds int64 `mapstructure:"trial_period_in_seconds"`
	GracePeriodInSeconds int64 `mapstructure:"grace_period_in_seconds"`
}

type LoggingConfig struct {
	Level          types.LogLevel `mapstructure:"level"`
	FluentdEnabled bool           `mapstructure:"fluentd_enabled"`
	FluentdHost    string         `mapstructure:"fluentd_host"`
	FluentdPort    int            `mapstructure:"fluentd_port"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type CacheConfig struct {
	Type string `mapstructure:"type"`
}

// NewConfig loads configuration from config.yaml and the environment. A local
// .env file is loaded first when present so development matches production
// env-var wiring.
func NewConfig() (*Configuration, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Env-only deployments run without a config file.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read configuration file").
				Mark(ierr.ErrConfiguration)
		}
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to unmarshal configuration").
			Mark(ierr.ErrConfiguration)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", "api")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("cache.type", "inmemory")
	v.SetDefault("sentry.sample_rate", 1.0)
	v.SetDefault("stripe.max_requests_per_second", 25)
	v.SetDefault("stripe.subscription.trial_period_in_seconds", 0)
	v.SetDefault("stripe.subscription.grace_period_in_seconds", 0)
}

func (c *Configuration) Validate() error {
	if c.Stripe.APIKey == "" {
		return ierr.NewError("stripe api key is required").
			WithHint("Set BILLING_STRIPE_API_KEY or stripe.api_key in config.yaml").
			Mark(ierr.ErrConfiguration)
	}
	if c.Stripe.Subscription.GracePeriodInSeconds < 0 || c.Stripe.Subscription.TrialPeriodInSeconds < 0 {
		return ierr.NewError("subscription policy windows must be non-negative").
			Mark(ierr.ErrConfiguration)
	}
	if !c.Logging.Level.Validate() {
		return ierr.NewErrorf("invalid logging level: %s", c.Logging.Level).
			Mark(ierr.ErrConfiguration)
	}
	return nil
}

// GetDefaultConfig returns a minimal configuration used by package init paths
// (global logger bootstrap) and scripts. It never reads the environment.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: "local"},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Cache:      CacheConfig{Type: "inmemory"},
		Stripe: StripeConfig{
			MaxRequestsPerSecond: 25,
		},
	}
}
