package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jamalsoueidan/hydrogen/pkg/analytics/dispatch"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/event"
)

func collect(received *[]event.Envelope) event.Handler {
	return event.HandlerFunc(func(_ context.Context, evt event.Envelope) error {
		*received = append(*received, evt)
		return nil
	})
}

func TestQueueThenFlush(t *testing.T) {
	d := dispatch.New(dispatch.Config{})

	ready := d.Register("pixel")

	var received []event.Envelope
	d.Subscribe(event.PageViewed, collect(&received))

	// Gate closed: publish queues, nothing delivered.
	d.Publish(context.Background(), event.New(event.PageView{URL: "/a"}))
	if len(received) != 0 {
		t.Fatalf("expected no delivery before ready, got %d", len(received))
	}
	if d.PendingLen() != 1 {
		t.Fatalf("expected 1 pending entry, got %d", d.PendingLen())
	}

	// Last registration ready: flush delivers, queue empties.
	ready()
	if len(received) != 1 {
		t.Fatalf("expected 1 delivery after flush, got %d", len(received))
	}
	if got := received[0].Payload.(event.PageView).URL; got != "/a" {
		t.Errorf("expected payload /a, got %s", got)
	}
	if d.PendingLen() != 0 {
		t.Errorf("expected empty queue after flush, got %d", d.PendingLen())
	}
}

func TestImmediateDeliveryPostReady(t *testing.T) {
	d := dispatch.New(dispatch.Config{})

	ready := d.Register("pixel")
	ready()

	var received []event.Envelope
	// Event type never published before the gate opened.
	d.Subscribe(event.CustomEvent, collect(&received))

	d.Publish(context.Background(), event.New(event.Custom{Name: "signup"}))
	if len(received) != 1 {
		t.Fatalf("expected synchronous delivery, got %d", len(received))
	}
	if d.PendingLen() != 0 {
		t.Errorf("expected no queuing once ready, got %d pending", d.PendingLen())
	}
}

func TestOverwriteSemantics(t *testing.T) {
	d := dispatch.New(dispatch.Config{})
	ready := d.Register("pixel")

	var received []event.Envelope
	d.Subscribe(event.CartUpdated, collect(&received))

	first := &event.Cart{ID: "c1", TotalQuantity: 1}
	second := &event.Cart{ID: "c1", TotalQuantity: 2}
	d.Publish(context.Background(), event.New(event.CartUpdate{Cart: first}))
	d.Publish(context.Background(), event.New(event.CartUpdate{Cart: second}))

	if d.PendingLen() != 1 {
		t.Fatalf("expected single-slot queue, got %d entries", d.PendingLen())
	}

	ready()
	if len(received) != 1 {
		t.Fatalf("expected only the latest payload, got %d deliveries", len(received))
	}
	if got := received[0].Payload.(event.CartUpdate).Cart.TotalQuantity; got != 2 {
		t.Errorf("expected second payload delivered, got quantity %d", got)
	}
}

func TestFlushOrderIsFirstPendingInsertion(t *testing.T) {
	d := dispatch.New(dispatch.Config{})
	ready := d.Register("pixel")

	var order []event.Type
	for _, typ := range []event.Type{event.PageViewed, event.CartUpdated, event.CustomEvent} {
		d.Subscribe(typ, event.HandlerFunc(func(_ context.Context, evt event.Envelope) error {
			order = append(order, evt.Type())
			return nil
		}))
	}

	d.Publish(context.Background(), event.New(event.PageView{URL: "/a"}))
	d.Publish(context.Background(), event.New(event.Custom{Name: "x"}))
	d.Publish(context.Background(), event.New(event.CartUpdate{}))
	// Overwrite must not move page_viewed from its first-insertion slot.
	d.Publish(context.Background(), event.New(event.PageView{URL: "/b"}))

	ready()

	want := []event.Type{event.PageViewed, event.CustomEvent, event.CartUpdated}
	if len(order) != len(want) {
		t.Fatalf("expected %d flushed events, got %d", len(want), len(order))
	}
	for i, typ := range want {
		if order[i] != typ {
			t.Errorf("flush position %d: expected %s, got %s", i, typ, order[i])
		}
	}
}

func TestIdempotentRegistration(t *testing.T) {
	d := dispatch.New(dispatch.Config{})

	ready1 := d.Register("x")
	ready2 := d.Register("x")

	var received []event.Envelope
	d.Subscribe(event.PageViewed, collect(&received))
	d.Publish(context.Background(), event.New(event.PageView{URL: "/"}))

	// Both closures operate on the same underlying flag for "x".
	ready2()
	if len(received) != 1 {
		t.Fatalf("expected flush after either closure marks x ready, got %d", len(received))
	}

	// The other closure is now redundant and must not redeliver.
	ready1()
	if len(received) != 1 {
		t.Errorf("expected no second flush, got %d deliveries", len(received))
	}
}

func TestErrorIsolation(t *testing.T) {
	var failures []string
	d := dispatch.New(dispatch.Config{
		OnError: func(_ event.Envelope, handler string, _ error) {
			failures = append(failures, handler)
		},
	})

	var received []event.Envelope
	d.Subscribe(event.PageViewed, event.HandlerFunc(func(_ context.Context, _ event.Envelope) error {
		return errors.New("boom")
	}))
	d.Subscribe(event.PageViewed, collect(&received))

	d.Publish(context.Background(), event.New(event.PageView{URL: "/"}))

	if len(received) != 1 {
		t.Fatalf("expected second subscriber to run despite first failing, got %d", len(received))
	}
	if len(failures) != 1 {
		t.Errorf("expected 1 reported failure, got %d", len(failures))
	}
}

func TestPanicIsolation(t *testing.T) {
	var failures int
	d := dispatch.New(dispatch.Config{
		OnError: func(_ event.Envelope, _ string, _ error) {
			failures++
		},
	})

	var received []event.Envelope
	d.Subscribe(event.PageViewed, event.HandlerFunc(func(_ context.Context, _ event.Envelope) error {
		panic("subscriber bug")
	}))
	d.Subscribe(event.PageViewed, collect(&received))

	// Must not panic through to the publisher.
	d.Publish(context.Background(), event.New(event.PageView{URL: "/"}))

	if len(received) != 1 {
		t.Fatalf("expected delivery to continue past panicking subscriber, got %d", len(received))
	}
	if failures != 1 {
		t.Errorf("expected panic reported as failure, got %d", failures)
	}
}

func TestVacuousReadiness(t *testing.T) {
	d := dispatch.New(dispatch.Config{})

	if !d.Ready() {
		t.Fatal("expected empty registry to be vacuously ready")
	}

	var received []event.Envelope
	d.Subscribe(event.PageViewed, collect(&received))
	d.Publish(context.Background(), event.New(event.PageView{URL: "/"}))

	if len(received) != 1 {
		t.Fatalf("expected immediate delivery with zero registrations, got %d", len(received))
	}
	if d.PendingLen() != 0 {
		t.Errorf("expected no queuing, got %d pending", d.PendingLen())
	}
}

func TestSubscriberOrderPreserved(t *testing.T) {
	d := dispatch.New(dispatch.Config{})

	var order []string
	d.Subscribe(event.PageViewed, event.HandlerFunc(func(_ context.Context, _ event.Envelope) error {
		order = append(order, "A")
		return nil
	}))
	d.Subscribe(event.PageViewed, event.HandlerFunc(func(_ context.Context, _ event.Envelope) error {
		order = append(order, "B")
		return nil
	}))

	d.Publish(context.Background(), event.New(event.PageView{URL: "/"}))

	if len(order) != 2 || order[0] != "A" || order[1] != "B" {
		t.Fatalf("expected [A B], got %v", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	d := dispatch.New(dispatch.Config{})

	var received []event.Envelope
	sub := d.Subscribe(event.PageViewed, collect(&received))

	d.Publish(context.Background(), event.New(event.PageView{URL: "/"}))
	if len(received) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(received))
	}

	sub.Unsubscribe()
	sub.Unsubscribe() // second call is a no-op

	d.Publish(context.Background(), event.New(event.PageView{URL: "/"}))
	if len(received) != 1 {
		t.Errorf("expected no delivery after unsubscribe, got %d", len(received))
	}
	if d.SubscriberLen(event.PageViewed) != 0 {
		t.Errorf("expected empty subscriber list, got %d", d.SubscriberLen(event.PageViewed))
	}
}

func TestDuplicateHandlerIsDistinctSubscription(t *testing.T) {
	d := dispatch.New(dispatch.Config{})

	var count int
	handler := event.HandlerFunc(func(_ context.Context, _ event.Envelope) error {
		count++
		return nil
	})

	// Identity is the subscription handle, not the function: subscribing the
	// same handler twice yields two deliveries.
	d.Subscribe(event.PageViewed, handler)
	d.Subscribe(event.PageViewed, handler)

	d.Publish(context.Background(), event.New(event.PageView{URL: "/"}))
	if count != 2 {
		t.Fatalf("expected 2 deliveries for 2 subscriptions, got %d", count)
	}
}

func TestReentrantPublish(t *testing.T) {
	d := dispatch.New(dispatch.Config{})

	var custom []event.Envelope
	d.Subscribe(event.CustomEvent, collect(&custom))

	// A page view subscriber that publishes a derived custom event.
	d.Subscribe(event.PageViewed, event.HandlerFunc(func(ctx context.Context, _ event.Envelope) error {
		d.Publish(ctx, event.New(event.Custom{Name: "derived"}))
		return nil
	}))

	d.Publish(context.Background(), event.New(event.PageView{URL: "/"}))

	if len(custom) != 1 {
		t.Fatalf("expected re-entrant publish to deliver, got %d", len(custom))
	}
}

func TestLateSubscriberMissesFlushedTypesOnlyIfUnsubscribed(t *testing.T) {
	d := dispatch.New(dispatch.Config{})
	ready := d.Register("pixel")

	d.Publish(context.Background(), event.New(event.PageView{URL: "/"}))

	// Subscriber added after the publish but before the flush still receives
	// the queued payload: flush uses the current subscriber table.
	var received []event.Envelope
	d.Subscribe(event.PageViewed, collect(&received))

	ready()
	if len(received) != 1 {
		t.Fatalf("expected flush to reach current subscribers, got %d", len(received))
	}
}
