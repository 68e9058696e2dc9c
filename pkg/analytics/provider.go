package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jamalsoueidan/hydrogen/pkg/analytics/consent"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/deferred"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/dispatch"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/event"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/observability"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/registry"
)

// Shop and Cart are the commerce data shapes carried through the bus.
type (
	Shop = event.Shop
	Cart = event.Cart
)

// ErrNoShopInput is returned by AwaitShop when the provider was built
// without a shop input.
var ErrNoShopInput = errors.New("analytics: no shop input configured")

// Snapshot is the context value exposed to descendants: the current resolved
// state plus the dispatcher's entry points. Revision changes exactly when the
// tracking predicate, the cart update timestamp, the previous cart reference,
// the custom payload, or the resolved shop changes.
type Snapshot struct {
	CanTrack   func() bool
	Cart       *Cart
	PrevCart   *Cart
	CustomData map[string]any
	Shop       *Shop
	Publish    func(ctx context.Context, evt event.Envelope)
	Subscribe  func(t event.Type, h event.Handler) *dispatch.Subscription
	Register   func(key string) registry.ReadyFunc
	SetCarts   func(cart *Cart)
	Revision   uint64
}

// Provider owns the dispatcher, resolves deferred shop/cart inputs into
// synchronous state, and wires tracking consent. Construct one per
// application root and hand it to descendants via NewContext.
type Provider struct {
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	metrics    observability.MetricsRecorder

	signal          *consent.LoadedSignal
	defaultDecider  consent.Decider
	overrideDecider consent.Decider
	firstPartyOff   bool
	firstPartyTypes []event.Type
	transport       Transport

	mu            sync.Mutex
	decider       consent.Decider
	shopInput     *deferred.Deferred[Shop]
	shopGen       int
	shopApplied   chan struct{}
	cartInput     *deferred.Deferred[Cart]
	shop          *Shop
	cart          *Cart
	prevCart      *Cart
	cartUpdatedAt time.Time
	customData    map[string]any
	revision      uint64
	started       bool

	pageViews  *PageViewEmitter
	carts      *CartEmitter
	firstParty *FirstPartyEmitter
}

// New creates a provider. Shop and cart inputs resolve in the background;
// the built-in collaborators start once the shop is resolved.
func New(opts ...Option) *Provider {
	p := &Provider{
		logger:          slog.Default(),
		metrics:         observability.NoopMetrics{},
		defaultDecider:  consent.Allow,
		firstPartyTypes: event.Types(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.dispatcher == nil {
		p.dispatcher = dispatch.New(dispatch.Config{
			Logger:  p.logger,
			Metrics: p.metrics,
		})
	}
	if p.transport == nil {
		p.transport = logTransport{logger: p.logger}
	}

	// An explicit canTrack override is permanent: no consent listener is
	// attached at all.
	if p.overrideDecider != nil {
		p.decider = p.overrideDecider
	} else {
		p.decider = p.defaultDecider
		if p.signal != nil {
			p.signal.Listen(p.onConsentLoaded)
		}
	}

	if p.shopInput != nil {
		p.shopApplied = make(chan struct{})
		go p.watchShop(p.shopInput, p.shopGen, p.shopApplied)
	}
	if p.cartInput != nil {
		go p.watchCart(p.cartInput)
	}

	return p
}

// onConsentLoaded reacts to the one-shot privacy-API-loaded signal. A falsy
// detail pins tracking to denied; a truthy detail installs the platform
// decider, falling back to the default one.
func (p *Provider) onConsentLoaded(detail consent.Detail) {
	p.mu.Lock()
	switch {
	case !detail.Allowed:
		p.decider = consent.Deny
	case detail.Decider != nil:
		p.decider = detail.Decider
	default:
		p.decider = p.defaultDecider
	}
	p.revision++
	p.mu.Unlock()
}

// CanTrack reports whether the current visitor may be tracked. The decider
// is consulted lazily on every call, never cached.
func (p *Provider) CanTrack() bool {
	p.mu.Lock()
	decider := p.decider
	p.mu.Unlock()
	return decider.CanTrack()
}

// Publish forwards to the dispatcher.
func (p *Provider) Publish(ctx context.Context, evt event.Envelope) {
	p.dispatcher.Publish(ctx, evt)
}

// Subscribe forwards to the dispatcher.
func (p *Provider) Subscribe(t event.Type, h event.Handler) *dispatch.Subscription {
	return p.dispatcher.Subscribe(t, h)
}

// Register forwards to the dispatcher's readiness gate.
func (p *Provider) Register(key string) registry.ReadyFunc {
	return p.dispatcher.Register(key)
}

// Dispatcher returns the underlying dispatcher.
func (p *Provider) Dispatcher() *dispatch.Dispatcher {
	return p.dispatcher
}

// watchShop awaits one shop input generation and applies the result.
// A failed resolution leaves the prior resolved state unchanged.
func (p *Provider) watchShop(input *deferred.Deferred[Shop], gen int, applied chan struct{}) {
	defer close(applied)

	shop, err := input.Await(context.Background())

	p.mu.Lock()
	if p.shopGen != gen {
		// A newer input replaced this one while it was resolving.
		p.mu.Unlock()
		return
	}
	if err != nil {
		p.mu.Unlock()
		observability.LogResolutionError(p.logger, "shop", err)
		return
	}
	p.shop = &shop
	p.revision++
	start := !p.started
	p.started = true
	p.mu.Unlock()

	observability.LogShopResolved(p.logger, shop.ShopID)
	if start {
		p.startCollaborators()
	}
}

// watchCart awaits the cart input and advances the carts snapshot.
func (p *Provider) watchCart(input *deferred.Deferred[Cart]) {
	cart, err := input.Await(context.Background())
	if err != nil {
		observability.LogResolutionError(p.logger, "cart", err)
		return
	}
	p.SetCarts(&cart)
}

// ReplaceShop re-resolves from a new shop input, mirroring an input
// reference change in the host. A resolution still in flight for the old
// input is discarded.
func (p *Provider) ReplaceShop(input *deferred.Deferred[Shop]) {
	p.mu.Lock()
	p.shopGen++
	p.shopInput = input
	applied := make(chan struct{})
	p.shopApplied = applied
	gen := p.shopGen
	p.mu.Unlock()

	go p.watchShop(input, gen, applied)
}

// AwaitShop blocks until the current shop input has been applied (or failed)
// and returns the resolved shop. On failure the prior state is returned
// together with the resolution error.
func (p *Provider) AwaitShop(ctx context.Context) (*Shop, error) {
	p.mu.Lock()
	applied := p.shopApplied
	input := p.shopInput
	p.mu.Unlock()

	if applied == nil {
		return nil, ErrNoShopInput
	}

	select {
	case <-applied:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	shop := p.shop
	p.mu.Unlock()
	return shop, input.Err()
}

// Shop returns the resolved shop, or nil while unresolved.
func (p *Provider) Shop() *Shop {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shop
}

// SetCarts advances the carts snapshot: the new cart becomes current, the
// old current becomes previous. The cart change emitter, when running,
// publishes a cart_updated event for the transition.
func (p *Provider) SetCarts(cart *Cart) {
	p.mu.Lock()
	p.prevCart = p.cart
	p.cart = cart
	p.cartUpdatedAt = time.Now()
	p.revision++
	emitter := p.carts
	cur, prev := p.cart, p.prevCart
	p.mu.Unlock()

	if emitter != nil {
		emitter.cartChanged(cur, prev)
	}
}

// Carts returns the current and previous cart snapshots.
func (p *Provider) Carts() (cart, prevCart *Cart) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cart, p.prevCart
}

// SetCustomData replaces the custom payload merged into the context value.
func (p *Provider) SetCustomData(data map[string]any) {
	p.mu.Lock()
	p.customData = data
	p.revision++
	p.mu.Unlock()
}

// Snapshot returns the current context value.
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		CanTrack:   p.CanTrack,
		Cart:       p.cart,
		PrevCart:   p.prevCart,
		CustomData: p.customData,
		Shop:       p.shop,
		Publish:    p.dispatcher.Publish,
		Subscribe:  p.dispatcher.Subscribe,
		Register:   p.dispatcher.Register,
		SetCarts:   p.SetCarts,
		Revision:   p.revision,
	}
}

// startCollaborators mounts the built-in emitters once the shop is resolved:
// page views always, cart changes only when a cart input was supplied, and
// first-party analytics unless disabled.
func (p *Provider) startCollaborators() {
	pageViews := startPageViewEmitter(p)

	var carts *CartEmitter
	if p.cartInput != nil {
		carts = startCartEmitter(p)
	}

	var firstParty *FirstPartyEmitter
	if !p.firstPartyOff {
		firstParty = startFirstPartyEmitter(p)
	}

	p.mu.Lock()
	p.pageViews = pageViews
	p.carts = carts
	p.firstParty = firstParty
	p.mu.Unlock()
}

// PageViews returns the page view emitter, or nil before the shop resolves.
func (p *Provider) PageViews() *PageViewEmitter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageViews
}

// CartEmitter returns the cart emitter, or nil before the shop resolves or
// when no cart input was supplied.
func (p *Provider) CartEmitter() *CartEmitter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.carts
}

// FirstParty returns the first-party emitter, or nil before the shop
// resolves or when disabled.
func (p *Provider) FirstParty() *FirstPartyEmitter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.firstParty
}

// shopID returns the resolved shop ID, or empty while unresolved.
func (p *Provider) shopID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shop == nil {
		return ""
	}
	return p.shop.ShopID
}
