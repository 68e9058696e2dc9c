package benchmarks

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jamalsoueidan/hydrogen/pkg/analytics/dispatch"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/event"
)

// BenchmarkPublish_1Subscriber measures immediate delivery to one subscriber.
func BenchmarkPublish_1Subscriber(b *testing.B) {
	bus := newReadyBus(1)
	ctx := context.Background()
	evt := event.New(event.PageView{URL: "https://shop.test/", Path: "/"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Publish(ctx, evt)
	}
}

// BenchmarkPublish_10Subscribers measures immediate delivery to ten subscribers.
func BenchmarkPublish_10Subscribers(b *testing.B) {
	bus := newReadyBus(10)
	ctx := context.Background()
	evt := event.New(event.PageView{URL: "https://shop.test/", Path: "/"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Publish(ctx, evt)
	}
}

// BenchmarkPublish_100Subscribers measures immediate delivery to a hundred subscribers.
func BenchmarkPublish_100Subscribers(b *testing.B) {
	bus := newReadyBus(100)
	ctx := context.Background()
	evt := event.New(event.PageView{URL: "https://shop.test/", Path: "/"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Publish(ctx, evt)
	}
}

// BenchmarkPublish_Queued measures publish while the gate is closed
// (overwrite of the single pending slot).
func BenchmarkPublish_Queued(b *testing.B) {
	bus := newBus()
	bus.Register("never-ready")
	ctx := context.Background()
	evt := event.New(event.PageView{URL: "https://shop.test/", Path: "/"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Publish(ctx, evt)
	}
}

// BenchmarkFlush measures a full gate cycle: queue one event per type, then
// open the gate and flush.
func BenchmarkFlush(b *testing.B) {
	ctx := context.Background()
	types := event.Types()
	events := make([]event.Envelope, len(types))
	events[0] = event.New(event.PageView{URL: "https://shop.test/"})
	events[1] = event.New(event.ProductView{Products: []event.Product{{ProductID: "p1"}}})
	events[2] = event.New(event.CollectionView{CollectionID: "c1"})
	events[3] = event.New(event.CartView{})
	events[4] = event.New(event.CartUpdate{Cart: &event.Cart{ID: "cart-1"}})
	events[5] = event.New(event.Custom{Name: "promo"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus := newBus()
		bus.Subscribe(event.PageViewed, noopHandler)
		bus.Subscribe(event.CartUpdated, noopHandler)
		ready := bus.Register("pixel")
		for _, evt := range events {
			bus.Publish(ctx, evt)
		}
		ready()
	}
}

// BenchmarkSubscribeUnsubscribe measures subscription handle churn.
func BenchmarkSubscribeUnsubscribe(b *testing.B) {
	bus := newBus()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sub := bus.Subscribe(event.PageViewed, noopHandler)
		sub.Unsubscribe()
	}
}

// BenchmarkEnvelopeCreation measures envelope construction overhead.
func BenchmarkEnvelopeCreation(b *testing.B) {
	payload := event.PageView{URL: "https://shop.test/", Path: "/"}
	for i := 0; i < b.N; i++ {
		event.New(payload, event.WithShopID("shop-1"))
	}
}

// Helper functions

var noopHandler = event.HandlerFunc(func(context.Context, event.Envelope) error {
	return nil
})

func newBus() *dispatch.Dispatcher {
	return dispatch.New(dispatch.Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func newReadyBus(subscribers int) *dispatch.Dispatcher {
	bus := newBus()
	for i := 0; i < subscribers; i++ {
		bus.Subscribe(event.PageViewed, noopHandler)
	}
	return bus
}
