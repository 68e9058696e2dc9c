// Package dispatch implements the publish/subscribe engine behind the
// analytics bus: the subscriber table, the pending queue, and the readiness
// gate that ties them together.
//
// A Dispatcher is an explicit object constructed once per application root
// and passed by reference to producers and consumers. There is no package
// level state, so independent instances (and tests) cannot leak into each
// other.
//
// Delivery semantics:
//   - While the gate is not ready, Publish stores the envelope as the single
//     pending entry for its type, overwriting any earlier one. No subscriber
//     runs.
//   - When the last outstanding registration signals ready, every pending
//     entry is flushed to its subscribers in first-pending-insertion order,
//     then the queue is cleared.
//   - Once the gate is ready, Publish delivers synchronously to the current
//     subscribers of the event type, in subscription order.
//
// A failing subscriber (error return or panic) is logged and counted but
// never stops remaining subscribers and never reaches the publisher.
package dispatch
