package mediaprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/wayfarerhq/wayfarer-go/internal/conf"
	"github.com/wayfarerhq/wayfarer-go/internal/errors"
	"github.com/wayfarerhq/wayfarer-go/internal/httpclient"
	"github.com/wayfarerhq/wayfarer-go/internal/observability/metrics"
)

const (
	maxRetries          = 2
	defaultRatePerSec   = 2.0
	maxResponseBodySize = 4 * 1024 * 1024
)

// transport bundles the shared request plumbing every provider client uses:
// client-side rate limiting, a per-call timeout, retry with exponential
// backoff, a circuit breaker, a cooldown cache for queries that just failed,
// and per-provider request metrics.
type transport struct {
	name     string
	client   *httpclient.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	failures *cache.Cache
	metrics  *metrics.ProviderMetrics
}

func newTransport(name string, client *httpclient.Client, cfg conf.ProviderSettings, failureBackoff time.Duration, pm *metrics.ProviderMetrics) *transport {
	if client == nil {
		client = httpclient.New(nil)
	}
	ratePerSec := cfg.RequestsPerSecond
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	if failureBackoff <= 0 {
		failureBackoff = 15 * time.Minute
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    name,
		Timeout: failureBackoff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &transport{
		name:     name,
		client:   client,
		timeout:  cfg.Timeout,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 1),
		breaker:  breaker,
		failures: cache.New(failureBackoff, 2*failureBackoff),
		metrics:  pm,
	}
}

// inCooldown reports whether the given query failed recently enough that we
// should not hit the provider again yet.
func (t *transport) inCooldown(query string) bool {
	_, found := t.failures.Get(query)
	return found
}

func (t *transport) markFailure(query string) {
	t.failures.SetDefault(query, time.Now())
}

// observeResults records the result count of one completed search.
func (t *transport) observeResults(count int) {
	if t.metrics != nil {
		t.metrics.ObserveResults(t.name, float64(count))
	}
}

// fetch performs one provider request through the limiter, breaker and retry
// policy and returns the raw response body. The whole call, retries included,
// runs under the provider's configured timeout.
func (t *transport) fetch(ctx context.Context, newRequest func() (*http.Request, error)) ([]byte, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, errors.New(err).
			Component("mediaprovider").
			Category(errors.CategoryCancellation).
			Context("provider", t.name).
			Build()
	}

	if t.metrics != nil {
		t.metrics.IncrementRequests(t.name)
	}
	start := time.Now()

	body, err := t.breaker.Execute(func() ([]byte, error) {
		var body []byte
		operation := func() error {
			req, err := newRequest()
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Header.Set("X-Request-Id", uuid.NewString())

			resp, err := t.client.Do(ctx, req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				_, _ = io.Copy(io.Discard, resp.Body)
				statusErr := errors.Newf("unexpected status %d from %s", resp.StatusCode, t.name).
					Component("mediaprovider").
					Category(errors.CategoryMediaFetch).
					Context("provider", t.name).
					Context("status_code", resp.StatusCode).
					Build()
				// client errors other than rate limiting will not heal on retry
				if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
					return backoff.Permanent(statusErr)
				}
				return statusErr
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
			if err != nil {
				return fmt.Errorf("reading %s response: %w", t.name, err)
			}
			return nil
		}

		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
		if err := backoff.Retry(operation, policy); err != nil {
			return nil, err
		}
		return body, nil
	})

	if t.metrics != nil {
		t.metrics.ObserveRequestDuration(t.name, time.Since(start).Seconds())
		if err != nil {
			t.metrics.IncrementErrors(t.name)
		}
	}
	return body, err
}
