package analytics

import (
	"log/slog"

	"github.com/jamalsoueidan/hydrogen/pkg/analytics/config"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/consent"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/deferred"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/dispatch"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/observability"
)

// Option configures a Provider.
type Option func(*Provider)

// WithDispatcher uses an existing dispatcher instead of constructing one.
// Useful when several providers must share one bus.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(p *Provider) {
		p.dispatcher = d
	}
}

// WithShop supplies the possibly-deferred shop input. The provider resolves
// it in the background and starts the built-in collaborators once resolved.
func WithShop(input *deferred.Deferred[Shop]) Option {
	return func(p *Provider) {
		p.shopInput = input
	}
}

// WithResolvedShop supplies an already-resolved shop value.
func WithResolvedShop(shop Shop) Option {
	return WithShop(deferred.Resolved(shop))
}

// WithCart supplies the possibly-deferred cart input. Resolution advances
// the carts snapshot, and the cart change emitter is mounted once the shop
// resolves.
func WithCart(input *deferred.Deferred[Cart]) Option {
	return func(p *Provider) {
		p.cartInput = input
	}
}

// WithResolvedCart supplies an already-resolved cart value.
func WithResolvedCart(cart Cart) Option {
	return WithCart(deferred.Resolved(cart))
}

// WithCanTrack installs a permanent tracking predicate. No consent signal
// listener is attached when an override is supplied.
func WithCanTrack(decider consent.Decider) Option {
	return func(p *Provider) {
		p.overrideDecider = decider
	}
}

// WithConsentSignal supplies the privacy-API-loaded signal the provider
// listens on. At most one listener is attached per provider, and none when
// WithCanTrack is used.
func WithConsentSignal(signal *consent.LoadedSignal) Option {
	return func(p *Provider) {
		p.signal = signal
	}
}

// WithDefaultDecider sets the platform-provided detector used before the
// consent signal arrives and after a truthy signal without its own decider.
// Default: consent.Allow.
func WithDefaultDecider(decider consent.Decider) Option {
	return func(p *Provider) {
		p.defaultDecider = decider
	}
}

// WithCustomData sets the custom payload exposed through the context value.
func WithCustomData(data map[string]any) Option {
	return func(p *Provider) {
		p.customData = data
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics recorder passed to the dispatcher.
// Default: no-op.
func WithMetrics(metrics observability.MetricsRecorder) Option {
	return func(p *Provider) {
		p.metrics = metrics
	}
}

// WithTransport sets the transport the first-party emitter forwards events
// to. Default: a transport that debug-logs each event.
func WithTransport(t Transport) Option {
	return func(p *Provider) {
		p.transport = t
	}
}

// DisableFirstPartyAnalytics skips mounting the first-party emitter.
func DisableFirstPartyAnalytics() Option {
	return func(p *Provider) {
		p.firstPartyOff = true
	}
}

// WithConfig applies file-loadable settings:
//
//	first_party.disabled: bool
//	first_party.events:   list of event type names to forward
//	default_can_track:    bool
func WithConfig(cfg config.Config) Option {
	return func(p *Provider) {
		if cfg.Bool("first_party.disabled", false) {
			p.firstPartyOff = true
		}
		p.firstPartyTypes = cfg.EventTypes("first_party.events", p.firstPartyTypes)
		if cfg.Has("default_can_track") {
			if cfg.Bool("default_can_track", true) {
				p.defaultDecider = consent.Allow
			} else {
				p.defaultDecider = consent.Deny
			}
		}
	}
}
