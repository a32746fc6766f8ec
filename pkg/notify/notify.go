// Package notify delivers side-channel alerts for notable health
// events, such as the overall status changing between probe requests.
// Delivery is best-effort and never influences reports or responses.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event represents a notification event.
type Event struct {
	ID        string
	Type      string
	Message   string
	Timestamp time.Time
}

// NewEvent constructs an Event with a fresh ID.
func NewEvent(eventType, message string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Notifier sends alerts when notable events occur.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}
