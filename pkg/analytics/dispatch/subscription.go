package dispatch

import (
	"github.com/jamalsoueidan/hydrogen/pkg/analytics/event"
)

// Subscription is the handle returned by Subscribe. It is the identity of
// one (event type, handler) binding: two subscriptions over the same
// function are distinct and both receive deliveries.
type Subscription struct {
	id         int64
	eventType  event.Type
	handler    event.Handler
	dispatcher *Dispatcher
}

// EventType returns the event type this subscription is bound to.
func (s *Subscription) EventType() event.Type {
	return s.eventType
}

// Unsubscribe removes the subscription. Order of the remaining subscribers
// is preserved. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	d := s.dispatcher
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.subscribers[s.eventType]
	for i, sub := range subs {
		if sub.id == s.id {
			d.subscribers[s.eventType] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
