package event

import (
	"fmt"
	"time"
)

// Error represents a failure while delivering an event to a subscriber.
type Error struct {
	EventID   string    // The event that failed
	EventType Type      // Its type
	Handler   string    // Handler that failed (if known)
	Message   string    // Error message
	Err       error     // Underlying error
	Timestamp time.Time // When the error occurred
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("event %s (%s): %s: %v", e.EventID, e.EventType, e.Message, e.Err)
	}
	return fmt.Sprintf("event %s (%s): %s", e.EventID, e.EventType, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a delivery error for an envelope.
func NewError(evt Envelope, handler, message string, err error) *Error {
	return &Error{
		EventID:   evt.ID(),
		EventType: evt.Type(),
		Handler:   handler,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}
