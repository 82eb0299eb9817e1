package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-report/internal/weather"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 1 << 20

// HTTPClientConfig bundles the HTTP client and outbound throttling.
type HTTPClientConfig struct {
	Client  *http.Client
	Limiter *rate.Limiter // nil = unlimited
}

var (
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
	errRateLimited  = errors.New("outbound rate limit")
)

// newCircuitBreaker trips after five consecutive transport failures or 5xx
// answers. Caller cancellations do not count against the provider.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// newLimiter allows perMinute requests per minute with a burst of the same
// size. Zero or less disables limiting.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// doRequest performs exactly one HTTP exchange through the circuit breaker.
// Any HTTP answer, including 4xx and 5xx, is returned as a ProviderResponse;
// an error means no answer was obtained.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (weather.ProviderResponse, error) {
	if cfg.Client == nil {
		return weather.ProviderResponse{}, errNoHTTPClient
	}

	if cfg.Limiter != nil {
		if err := cfg.Limiter.Wait(ctx); err != nil {
			return weather.ProviderResponse{}, fmt.Errorf("%w: %w", errRateLimited, err)
		}
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return weather.ProviderResponse{}, err
	}

	var out weather.ProviderResponse
	_, err = cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, fmt.Errorf("read body: %w", readErr)
		}
		out = weather.ProviderResponse{StatusCode: resp.StatusCode, Body: body}

		// 5xx counts against the breaker but is still handed back to the caller.
		if resp.StatusCode >= 500 {
			return nil, errServerError
		}
		return nil, nil
	})

	switch {
	case err == nil, errors.Is(err, errServerError):
		return out, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return weather.ProviderResponse{}, fmt.Errorf("%w: %w", errCircuitOpen, err)
	default:
		return weather.ProviderResponse{}, err
	}
}
