// Package persistence provides database adapters.
package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"sift_server/core/domain"
	"sift_server/core/port/out"
	"sift_server/pkg/apperr"
)

const eventSchema = `
	CREATE TABLE IF NOT EXISTS events (
		id          BIGSERIAL PRIMARY KEY,
		date        TEXT,
		name        TEXT,
		time        TEXT,
		location    TEXT,
		description TEXT,
		price       TEXT
	)`

// EventAdapter implements out.EventRepository using PostgreSQL.
type EventAdapter struct {
	db *sqlx.DB
}

func NewEventAdapter(db *sqlx.DB) *EventAdapter {
	return &EventAdapter{db: db}
}

// InitSchema creates the events table if absent. Safe to run at every start.
func (a *EventAdapter) InitSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, eventSchema); err != nil {
		return apperr.Storage("create events table", err)
	}
	return nil
}

// InsertBatch writes events in extraction order. Rows are inserted
// individually so a failure leaves earlier rows committed; no dedup against
// prior runs is attempted.
func (a *EventAdapter) InsertBatch(ctx context.Context, events []*domain.Event) error {
	query := `
		INSERT INTO events (date, name, time, location, description, price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, ev := range events {
		if _, err := a.db.ExecContext(ctx, query,
			ev.Date, ev.Name, ev.Time, ev.Location, ev.Description, ev.Price,
		); err != nil {
			return apperr.Storage("insert event", err)
		}
	}
	return nil
}

// ListFrom returns events with date >= from, ordered by date then time.
func (a *EventAdapter) ListFrom(ctx context.Context, from string) ([]*domain.Event, error) {
	var events []*domain.Event
	query := `
		SELECT id, date, name, time, location, description, price
		FROM events
		WHERE date >= $1
		ORDER BY date, time`

	if err := a.db.SelectContext(ctx, &events, query, from); err != nil {
		return nil, apperr.Storage("list events", err)
	}
	return events, nil
}

var _ out.EventRepository = (*EventAdapter)(nil)
