package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jamalsoueidan/hydrogen/pkg/analytics/event"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/observability"
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/registry"
)

// Config configures dispatcher behavior.
type Config struct {
	// Logger for structured delivery logs. Default: slog.Default().
	Logger *slog.Logger

	// Metrics records publish/delivery/flush metrics.
	// Default: observability.NoopMetrics{}.
	Metrics observability.MetricsRecorder

	// Spans traces publish and flush operations.
	// Default: observability.NoopSpanManager{}.
	Spans observability.SpanManager

	// OnError is called after a subscriber fails (for custom handling on top
	// of the built-in logging).
	OnError func(evt event.Envelope, handler string, err error)
}

// Dispatcher is the publish/subscribe engine. All state sits behind a single
// mutex; handler invocation happens outside the lock from an immutable
// snapshot, so subscribers may publish or subscribe re-entrantly.
type Dispatcher struct {
	config    Config
	readiness *registry.Readiness

	mu           sync.Mutex
	subscribers  map[event.Type][]*Subscription
	nextSubID    int64
	pending      map[event.Type]event.Envelope
	pendingOrder []event.Type
}

// New creates a dispatcher with its own readiness registry.
func New(config Config) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Metrics == nil {
		config.Metrics = observability.NoopMetrics{}
	}
	if config.Spans == nil {
		config.Spans = observability.NoopSpanManager{}
	}

	d := &Dispatcher{
		config:      config,
		readiness:   registry.New(),
		subscribers: make(map[event.Type][]*Subscription),
		pending:     make(map[event.Type]event.Envelope),
	}
	d.readiness.OnAllReady(d.flush)
	return d
}

// Register adds an integration to the readiness gate and returns its ready
// callback. Registration is idempotent by key. The callback that completes
// the gate triggers the flush of all pending events before it returns.
func (d *Dispatcher) Register(key string) registry.ReadyFunc {
	ready := d.readiness.Register(key)
	observability.LogRegistration(d.config.Logger, key)

	return func() {
		ready()
		observability.LogReady(d.config.Logger, key, d.readiness.Ready())
	}
}

// Ready reports whether the readiness gate is open. With zero registrations
// the gate is vacuously open and every publish delivers immediately.
func (d *Dispatcher) Ready() bool {
	return d.readiness.Ready()
}

// Subscribe registers handler for eventType and returns the subscription
// handle. Handlers for one type run in subscription order. Subscribing the
// same function twice creates two independent subscriptions; identity is the
// returned handle, never the function itself.
func (d *Dispatcher) Subscribe(eventType event.Type, handler event.Handler) *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextSubID++
	sub := &Subscription{
		id:         d.nextSubID,
		eventType:  eventType,
		handler:    handler,
		dispatcher: d,
	}
	d.subscribers[eventType] = append(d.subscribers[eventType], sub)
	return sub
}

// Publish delivers evt to subscribers of its type, or queues it while the
// readiness gate is closed. Queued publishes overwrite the pending payload
// for the type but keep its original queue position. Subscriber failures
// never propagate to the caller.
func (d *Dispatcher) Publish(ctx context.Context, evt event.Envelope) {
	ctx, span := d.config.Spans.StartPublishSpan(ctx, evt.Type().String(), evt.ID())
	defer d.config.Spans.EndSpanWithError(span, nil)

	d.mu.Lock()
	if !d.readiness.Ready() {
		_, overwrote := d.pending[evt.Type()]
		d.pending[evt.Type()] = evt
		if !overwrote {
			d.pendingOrder = append(d.pendingOrder, evt.Type())
		}
		d.mu.Unlock()

		observability.LogQueued(d.config.Logger, evt.ID(), evt.Type().String(), overwrote)
		d.config.Metrics.RecordPublish(ctx, evt.Type().String(), true)
		if overwrote {
			d.config.Metrics.RecordOverwrite(ctx, evt.Type().String())
		}
		return
	}
	subs := d.snapshotLocked(evt.Type())
	d.mu.Unlock()

	d.config.Metrics.RecordPublish(ctx, evt.Type().String(), false)
	d.deliver(ctx, evt, subs)
}

// flush delivers every pending entry in first-pending-insertion order, then
// clears the queue. Runs once per gate transition, off the registry lock.
func (d *Dispatcher) flush() {
	ctx := context.Background()

	d.mu.Lock()
	order := d.pendingOrder
	queued := make([]event.Envelope, 0, len(order))
	for _, t := range order {
		queued = append(queued, d.pending[t])
	}
	d.pending = make(map[event.Type]event.Envelope)
	d.pendingOrder = nil
	d.mu.Unlock()

	if len(queued) == 0 {
		return
	}

	ctx, span := d.config.Spans.StartFlushSpan(ctx, len(queued))
	defer d.config.Spans.EndSpanWithError(span, nil)

	done := observability.TimedOperation()
	start := time.Now()
	for _, evt := range queued {
		d.mu.Lock()
		subs := d.snapshotLocked(evt.Type())
		d.mu.Unlock()
		d.deliver(ctx, evt, subs)
	}
	d.config.Metrics.RecordFlush(ctx, len(queued), time.Since(start))
	observability.LogFlush(d.config.Logger, len(queued), done())
}

// snapshotLocked copies the subscriber list for t. Callers hold d.mu.
func (d *Dispatcher) snapshotLocked(t event.Type) []*Subscription {
	subs := d.subscribers[t]
	out := make([]*Subscription, len(subs))
	copy(out, subs)
	return out
}

// deliver invokes each subscriber in order. Each invocation is isolated: an
// error or panic is logged and reported, and remaining subscribers still run.
func (d *Dispatcher) deliver(ctx context.Context, evt event.Envelope, subs []*Subscription) {
	observability.LogPublish(d.config.Logger, evt.ID(), evt.Type().String(), len(subs))

	for _, sub := range subs {
		start := time.Now()
		err := d.invoke(ctx, sub, evt)
		d.config.Metrics.RecordDelivery(ctx, evt.Type().String(), time.Since(start), err)

		if err != nil {
			name := handlerName(sub.handler)
			observability.LogSubscriberError(d.config.Logger, evt.ID(), evt.Type().String(), name, err)
			if d.config.OnError != nil {
				d.config.OnError(evt, name, err)
			}
		}
	}
}

// invoke runs one handler, converting a panic into a delivery error.
func (d *Dispatcher) invoke(ctx context.Context, sub *Subscription, evt event.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = event.NewError(evt, handlerName(sub.handler), fmt.Sprintf("subscriber panic: %v", r), nil)
		}
	}()
	return sub.handler.Handle(ctx, evt)
}

// PendingLen returns the number of event types with a queued payload.
func (d *Dispatcher) PendingLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// SubscriberLen returns the number of live subscriptions for t.
func (d *Dispatcher) SubscriberLen(t event.Type) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subscribers[t])
}

// handlerName extracts a name for a handler (for logging/metrics).
func handlerName(h event.Handler) string {
	return fmt.Sprintf("%T", h)
}
