// Package analytics provides an in-process event bus for e-commerce
// analytics events, fronted by a Provider that bridges asynchronously
// resolving shop and cart inputs into synchronous state for producers and
// consumers.
//
// Producers publish typed events; consumers (analytics integrations)
// subscribe to them. Delivery is gated on readiness: every registered
// integration must signal that its own initialization is complete before any
// event is delivered. Until then the most recent event per type is held in a
// single-slot queue and flushed when the gate opens.
//
// Basic usage:
//
//	provider := analytics.New(
//	    analytics.WithShop(shopInput),
//	    analytics.WithCart(cartInput),
//	)
//
//	ready := provider.Register("my-pixel")
//	provider.Subscribe(event.PageViewed, event.HandlerFunc(track))
//	ready()
//
//	provider.Publish(ctx, event.New(event.PageView{URL: "/"}))
//
// Tracking consent is a separate gate from readiness: the dispatcher never
// consults it. Consumers ask the provider's CanTrack predicate before acting
// on a delivered event.
package analytics
