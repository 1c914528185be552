package entity

import (
	"time"
)

// Event is an internally-managed event as exposed by the event store. This
// service only ever reads approved, published events; the approval workflow
// itself lives elsewhere.
type Event struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	StartsAt    time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt      *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	AllDay      bool       `db:"all_day" json:"all_day"`
	Description *string    `db:"description" json:"description,omitempty"`
	Location    *string    `db:"location" json:"location,omitempty"`
	URL         *string    `db:"url" json:"url,omitempty"`
	Approved    bool       `db:"approved" json:"approved"`
	Published   bool       `db:"published" json:"published"`
}
