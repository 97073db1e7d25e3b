package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving batch events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, batchID, eventType string, payload []byte, metadata map[string]string) error

	// GetByBatchID retrieves all events for a specific batch.
	GetByBatchID(ctx context.Context, batchID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// AppendEvent stores an event built by one of the New* constructors.
func AppendEvent(ctx context.Context, s Store, e Event) error {
	return s.Append(ctx, e.BatchID(), e.Type(), e.Payload(), e.Metadata())
}
