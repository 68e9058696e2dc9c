// Package event defines the analytics event model: the closed set of event
// types, the payload union carried by each type, and the envelope that moves
// through the dispatcher.
//
// The dispatcher treats payloads as opaque data. Typing lives entirely at the
// edges: producers construct a concrete payload, consumers switch on the
// envelope type and narrow the payload back down. The set of event types is
// fixed; there is no registration mechanism for new kinds.
package event
