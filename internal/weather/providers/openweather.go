package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-report/internal/weather"
)

// DefaultOpenWeatherURL is the current-weather endpoint of OpenWeatherMap.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// Option configures an OpenWeatherProvider.
type Option func(*OpenWeatherProvider)

// WithBaseURL points the provider at another endpoint (tests, proxies).
func WithBaseURL(u string) Option {
	return func(p *OpenWeatherProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithRateLimit caps outbound requests per minute; zero disables the cap.
func WithRateLimit(perMinute int) Option {
	return func(p *OpenWeatherProvider) {
		p.httpCfg.Limiter = newLimiter(perMinute)
	}
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	p := &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: DefaultOpenWeatherURL,
		httpCfg: HTTPClientConfig{
			Client: client,
		},
		circuit: newCircuitBreaker("openweather"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Fetch asks for the current weather of query ("city,country" or
// "city,state,country") in the given unit system.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, query string, units weather.Units) (weather.ProviderResponse, error) {
	if p.apiKey == "" {
		return weather.ProviderResponse{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("appid", p.apiKey)
		values.Set("units", string(units))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	return doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
}
