package out

import (
	"context"

	"sift_server/core/domain"
)

// EventRepository persists extracted calendar events.
type EventRepository interface {
	// InsertBatch writes records in order as one logical write. The first
	// failing row aborts with a StorageError; rows already written stay
	// written.
	InsertBatch(ctx context.Context, events []*domain.Event) error
	// ListFrom returns events with date >= from, ordered by (date, time).
	ListFrom(ctx context.Context, from string) ([]*domain.Event, error)
}

// SentimentRepository persists extracted sentiment records.
type SentimentRepository interface {
	InsertBatch(ctx context.Context, sentiments []*domain.Sentiment) error
	// List returns all sentiment records, most recent date first.
	List(ctx context.Context) ([]*domain.Sentiment, error)
}
