package repository

import (
	"context"
	"time"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/database"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/event/entity"
)

// EventRepository is the read-only view onto the event store used by the
// reconciliation engine.
type EventRepository interface {
	// ListCandidates returns approved, published events starting inside
	// [from, from+window), ordered ascending by start time, capped at limit.
	ListCandidates(ctx context.Context, from time.Time, window time.Duration, limit int) ([]entity.Event, error)
}

type eventRepository struct {
	db database.IDatabase
}

func NewEventRepository(db database.IDatabase) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) ListCandidates(ctx context.Context, from time.Time, window time.Duration, limit int) ([]entity.Event, error) {
	query := `
		SELECT id, title, starts_at, ends_at, all_day, description, location, url, approved, published
		FROM events
		WHERE approved = true
		  AND published = true
		  AND starts_at >= $1
		  AND starts_at < $2
		ORDER BY starts_at ASC
		LIMIT $3
	`
	var events []entity.Event
	if err := r.db.SelectContext(ctx, &events, query, from, from.Add(window), limit); err != nil {
		logger.Error("EventRepository:ListCandidates:Error", "error", err)
		return nil, err
	}
	return events, nil
}
