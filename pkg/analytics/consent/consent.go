// Package consent models the tracking-consent side of analytics: the
// predicate that reports whether the current visitor may be tracked, and the
// one-shot host signal announcing that the customer privacy API has loaded.
//
// Consent gates caller-side policy only. It is a separate gate from
// registration readiness and is never consulted by the dispatcher.
package consent

import "sync"

// Decider reports whether the current visitor may be tracked. Deciders are
// invoked lazily at call time; results must not be cached as booleans, since
// consent can be granted or revoked while the page lives.
type Decider interface {
	CanTrack() bool
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func() bool

// CanTrack implements Decider.
func (f DeciderFunc) CanTrack() bool {
	return f()
}

// Allow is a Decider that always permits tracking.
var Allow Decider = DeciderFunc(func() bool { return true })

// Deny is a Decider that never permits tracking.
var Deny Decider = DeciderFunc(func() bool { return false })

// Detail is the payload of the privacy-API-loaded signal. Allowed mirrors the
// truthiness of the host notification; Decider optionally carries the
// platform-provided detector to use from then on.
type Detail struct {
	Allowed bool
	Decider Decider
}

// LoadedSignal is the in-process stand-in for the document-level
// "customerPrivacyApiLoaded" notification. Dispatch is one-shot: the first
// call records the detail and notifies listeners, later calls are ignored.
// A listener attached after dispatch fires immediately with the recorded
// detail.
type LoadedSignal struct {
	mu         sync.Mutex
	dispatched bool
	detail     Detail
	listeners  []func(Detail)
}

// NewLoadedSignal creates an undelivered signal.
func NewLoadedSignal() *LoadedSignal {
	return &LoadedSignal{}
}

// Listen attaches fn to the signal. If the signal has already been
// dispatched, fn runs immediately with the recorded detail; otherwise it runs
// once when Dispatch is called.
func (s *LoadedSignal) Listen(fn func(Detail)) {
	s.mu.Lock()
	if s.dispatched {
		detail := s.detail
		s.mu.Unlock()
		fn(detail)
		return
	}
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Dispatch delivers the signal. Only the first call has any effect.
func (s *LoadedSignal) Dispatch(detail Detail) {
	s.mu.Lock()
	if s.dispatched {
		s.mu.Unlock()
		return
	}
	s.dispatched = true
	s.detail = detail
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(detail)
	}
}

// Dispatched reports whether the signal has been delivered.
func (s *LoadedSignal) Dispatched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatched
}
