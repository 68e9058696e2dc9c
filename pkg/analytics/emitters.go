package analytics

import (
	"context"
	"log/slog"

	"github.com/jamalsoueidan/hydrogen/pkg/analytics/dispatch"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/event"
)

// Registration keys for the built-in collaborators.
const (
	pageViewKey   = "page-view"
	cartKey       = "cart"
	firstPartyKey = "first-party-analytics"
)

// Transport delivers first-party events out of the process. Implementations
// own batching, endpoints, and retries; the emitter only forwards.
type Transport interface {
	Send(ctx context.Context, evt event.Envelope) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, evt event.Envelope) error

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, evt event.Envelope) error {
	return f(ctx, evt)
}

// logTransport is the default transport: it debug-logs each event.
type logTransport struct {
	logger *slog.Logger
}

func (t logTransport) Send(_ context.Context, evt event.Envelope) error {
	if t.logger != nil {
		t.logger.Debug("first-party event",
			slog.String("event_id", evt.ID()),
			slog.String("event_type", evt.Type().String()),
		)
	}
	return nil
}

// PageViewEmitter publishes page_viewed events on behalf of the host's
// route changes. It interacts with the core only through Register, ready,
// and Publish.
type PageViewEmitter struct {
	provider *Provider
}

func startPageViewEmitter(p *Provider) *PageViewEmitter {
	ready := p.Register(pageViewKey)
	ready()
	return &PageViewEmitter{provider: p}
}

// View publishes a page_viewed event for the given page.
func (e *PageViewEmitter) View(ctx context.Context, view event.PageView) {
	e.provider.Publish(ctx, event.New(view, event.WithShopID(e.provider.shopID())))
}

// CollectionView publishes a collection_viewed event.
func (e *PageViewEmitter) CollectionView(ctx context.Context, view event.CollectionView) {
	e.provider.Publish(ctx, event.New(view, event.WithShopID(e.provider.shopID())))
}

// ProductView publishes a product_viewed event.
func (e *PageViewEmitter) ProductView(ctx context.Context, view event.ProductView) {
	e.provider.Publish(ctx, event.New(view, event.WithShopID(e.provider.shopID())))
}

// CartEmitter publishes cart_updated events whenever the provider's carts
// snapshot advances.
type CartEmitter struct {
	provider *Provider
}

func startCartEmitter(p *Provider) *CartEmitter {
	ready := p.Register(cartKey)
	ready()
	return &CartEmitter{provider: p}
}

// cartChanged publishes the transition from prev to cur.
func (e *CartEmitter) cartChanged(cur, prev *Cart) {
	payload := event.CartUpdate{Cart: cur, PrevCart: prev}
	e.provider.Publish(context.Background(), event.New(payload, event.WithShopID(e.provider.shopID())))
}

// ViewCart publishes a cart_viewed event for the current cart.
func (e *CartEmitter) ViewCart(ctx context.Context) {
	cart, _ := e.provider.Carts()
	e.provider.Publish(ctx, event.New(event.CartView{Cart: cart}, event.WithShopID(e.provider.shopID())))
}

// FirstPartyEmitter subscribes to the configured event types and forwards
// delivered events to the transport, subject to tracking consent. Consent is
// checked per event at delivery time; the dispatcher itself never consults
// it.
type FirstPartyEmitter struct {
	provider  *Provider
	transport Transport
	subs      []*dispatch.Subscription
}

func startFirstPartyEmitter(p *Provider) *FirstPartyEmitter {
	ready := p.Register(firstPartyKey)

	e := &FirstPartyEmitter{
		provider:  p,
		transport: p.transport,
	}
	for _, t := range p.firstPartyTypes {
		e.subs = append(e.subs, p.Subscribe(t, event.HandlerFunc(e.forward)))
	}

	ready()
	return e
}

// forward sends one delivered event to the transport.
func (e *FirstPartyEmitter) forward(ctx context.Context, evt event.Envelope) error {
	if !e.provider.CanTrack() {
		return nil
	}
	return e.transport.Send(ctx, evt)
}

// Stop unsubscribes the emitter from the bus.
func (e *FirstPartyEmitter) Stop() {
	for _, sub := range e.subs {
		sub.Unsubscribe()
	}
}
