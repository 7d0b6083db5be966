package sentry

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/reservize/billing/internal/config"
	"github.com/reservize/billing/internal/logger"
)

// Initialize configures the global Sentry client when enabled. It returns a
// flush function suitable for fx lifecycle shutdown hooks.
func Initialize(cfg *config.Configuration, log *logger.Logger) (func(), error) {
	if !cfg.Sentry.Enabled || cfg.Sentry.DSN == "" {
		log.Debugw("sentry disabled")
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		TracesSampleRate: cfg.Sentry.SampleRate,
		EnableTracing:    true,
	})
	if err != nil {
		return nil, err
	}

	log.Infow("sentry initialized", "environment", cfg.Sentry.Environment)
	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}
