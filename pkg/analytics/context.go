package analytics

import "context"

type contextKey struct{}

var providerKey contextKey

// NewContext returns a context carrying the provider, for handing the bus to
// descendant components.
func NewContext(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey, p)
}

// FromContext returns the provider stored in ctx. Calling it outside a
// provider context is a programming error and panics immediately; there is
// no meaningful runtime recovery.
func FromContext(ctx context.Context) *Provider {
	p, ok := ctx.Value(providerKey).(*Provider)
	if !ok {
		panic("analytics: FromContext called outside a provider context")
	}
	return p
}

// ProviderFromContext is like FromContext but reports absence instead of
// panicking.
func ProviderFromContext(ctx context.Context) (*Provider, bool) {
	p, ok := ctx.Value(providerKey).(*Provider)
	return p, ok
}
