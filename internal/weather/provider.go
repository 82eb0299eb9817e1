package weather

import (
	"context"
)

// ProviderResponse is the raw HTTP answer of a weather provider.
type ProviderResponse struct {
	StatusCode int
	Body       []byte
}

// Success reports whether the provider answered with a 2xx status.
func (r ProviderResponse) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Provider abstracts the upstream weather source. A non-nil error means no
// HTTP response was obtained at all; non-2xx answers come back as a
// ProviderResponse.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, query string, units Units) (ProviderResponse, error)
}

// Cache is the report cache the Service reads through. Implementations never
// fail observably: backend problems degrade to a miss or a dropped write.
type Cache interface {
	Get(ctx context.Context, key LocationKey) (Report, bool)
	Set(ctx context.Context, key LocationKey, report Report)
}
