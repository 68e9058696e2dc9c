// Package observability provides production-grade observability features for
// the analytics bus: structured logging, metrics, and tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds analytics context to a logger.
// Returns a new logger with integration and event_type fields.
func EnrichLogger(logger *slog.Logger, integration, eventType string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("integration", integration),
		slog.String("event_type", eventType),
	)
}

// LogRegistration logs an integration registering with the readiness gate.
func LogRegistration(logger *slog.Logger, key string) {
	if logger == nil {
		return
	}
	logger.Debug("integration registered",
		slog.String("key", key),
	)
}

// LogReady logs an integration signaling readiness.
func LogReady(logger *slog.Logger, key string, gateReady bool) {
	if logger == nil {
		return
	}
	logger.Debug("integration ready",
		slog.String("key", key),
		slog.Bool("gate_ready", gateReady),
	)
}

// LogPublish logs a synchronous delivery.
func LogPublish(logger *slog.Logger, eventID, eventType string, subscribers int) {
	if logger == nil {
		return
	}
	logger.Debug("event published",
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.Int("subscribers", subscribers),
	)
}

// LogQueued logs an event held back by the readiness gate.
func LogQueued(logger *slog.Logger, eventID, eventType string, overwrote bool) {
	if logger == nil {
		return
	}
	logger.Debug("event queued",
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.Bool("overwrote_pending", overwrote),
	)
}

// LogFlush logs the delivery of queued events after the gate opened.
func LogFlush(logger *slog.Logger, events int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("pending events flushed",
		slog.Int("events", events),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSubscriberError logs a failing subscriber callback (non-fatal).
func LogSubscriberError(logger *slog.Logger, eventID, eventType, handler string, err error) {
	if logger == nil {
		return
	}
	logger.Error("subscriber failed",
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.String("handler", handler),
		slog.String("error", err.Error()),
	)
}

// LogShopResolved logs shop input resolution.
func LogShopResolved(logger *slog.Logger, shopID string) {
	if logger == nil {
		return
	}
	logger.Debug("shop resolved",
		slog.String("shop_id", shopID),
	)
}

// LogResolutionError logs a failed deferred input (non-fatal, prior state is
// kept).
func LogResolutionError(logger *slog.Logger, input string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("deferred input failed",
		slog.String("input", input),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
