package stripe

import (
	"context"
	"errors"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"golang.org/x/time/rate"

	"github.com/reservize/billing/internal/config"
	ierr "github.com/reservize/billing/internal/errors"
	"github.com/reservize/billing/internal/idempotency"
	"github.com/reservize/billing/internal/logger"
)

// Client holds the shared Stripe API plumbing: the SDK handle, a client-side
// rate limiter and the idempotency key generator. The per-entity repositories
// in this package all run through it.
type Client struct {
	api         *client.API
	cfg         *config.Configuration
	limiter     *rate.Limiter
	idempotency idempotency.Generator
	logger      *logger.Logger
}

// NewClient builds the Stripe client. HTTP transport retries are handled by
// retryablehttp underneath the SDK; idempotency keys on mutations make those
// retries safe.
func NewClient(cfg *config.Configuration, idem idempotency.Generator, log *logger.Logger) (*Client, error) {
	if cfg.Stripe.APIKey == "" {
		return nil, ierr.NewError("stripe api key is not configured").
			WithHint("Set the Stripe API key before starting the service").
			Mark(ierr.ErrConfiguration)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = log.GetRetryableHTTPLogger()

	httpClient := retryClient.StandardClient()
	httpClient.Timeout = 30 * time.Second

	rps := cfg.Stripe.MaxRequestsPerSecond
	if rps <= 0 {
		rps = 25
	}

	return &Client{
		api:         client.New(cfg.Stripe.APIKey, stripe.NewBackends(httpClient)),
		cfg:         cfg,
		limiter:     rate.NewLimiter(rate.Limit(rps), rps),
		idempotency: idem,
		logger:      log,
	}, nil
}

// wait blocks until the rate limiter admits one provider call.
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return ierr.WithError(err).
			WithHint("Provider call canceled while rate limited").
			Mark(ierr.ErrProvider)
	}
	return nil
}

// providerError converts a Stripe SDK error into the error taxonomy. Missing
// resources map to not-found; everything else is a provider failure.
func (c *Client) providerError(err error, hint string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		builder := ierr.WithError(err).
			WithHint(hint).
			WithReportableDetails(map[string]interface{}{
				"stripe_code": string(stripeErr.Code),
				"stripe_type": string(stripeErr.Type),
			})
		if stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return builder.Mark(ierr.ErrNotFound)
		}
		return builder.Mark(ierr.ErrProvider)
	}
	return ierr.WithError(err).
		WithHint(hint).
		Mark(ierr.ErrProvider)
}
