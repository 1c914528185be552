package mapper

import (
	"testing"
	"time"

	"github.com/Yvan2XEro/calendar-sync-sub002/modules/event/entity"
)

func strPtr(s string) *string { return &s }

func TestToCalendarEventTimed(t *testing.T) {
	start := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	event := &entity.Event{
		ID:          "evt-1",
		Title:       "Community meetup",
		StartsAt:    start,
		EndsAt:      &end,
		Description: strPtr("Monthly gathering"),
		Location:    strPtr("Town hall"),
		URL:         strPtr("https://example.org/meetup"),
	}

	out := ToCalendarEvent(event)
	if out.Summary != "Community meetup" || out.Description != "Monthly gathering" || out.Location != "Town hall" {
		t.Fatalf("mapped = %+v", out)
	}
	if out.Start.DateTime != start.Format(time.RFC3339) || out.Start.Date != "" {
		t.Fatalf("start = %+v, want RFC3339 date-time", out.Start)
	}
	if out.End.DateTime != end.Format(time.RFC3339) {
		t.Fatalf("end = %+v", out.End)
	}
	if out.Source == nil || out.Source.Url != "https://example.org/meetup" {
		t.Fatalf("source = %+v", out.Source)
	}
}

func TestToCalendarEventAllDay(t *testing.T) {
	start := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	event := &entity.Event{
		ID:       "evt-2",
		Title:    "Street fair",
		StartsAt: start,
		AllDay:   true,
	}

	out := ToCalendarEvent(event)
	if out.Start.Date != "2026-09-12" || out.Start.DateTime != "" {
		t.Fatalf("start = %+v, want whole date", out.Start)
	}
	if out.End.Date == "" {
		t.Fatalf("end = %+v, want derived whole date", out.End)
	}
}

func TestToCalendarEventDefaultsDuration(t *testing.T) {
	start := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	event := &entity.Event{ID: "evt-3", Title: "Talk", StartsAt: start}

	out := ToCalendarEvent(event)
	if out.End.DateTime != start.Add(time.Hour).Format(time.RFC3339) {
		t.Fatalf("end = %+v, want start plus one hour", out.End)
	}
}
