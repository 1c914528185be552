package mapper

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/Yvan2XEro/calendar-sync-sub002/modules/event/entity"
)

// ToCalendarEvent maps an internal event to its provider representation.
// All-day events carry whole dates; timed events carry RFC3339 timestamps.
// An event with no end time is given a one hour duration so the provider
// accepts it.
func ToCalendarEvent(event *entity.Event) *calendar.Event {
	out := &calendar.Event{
		Summary: event.Title,
	}
	if event.Description != nil {
		out.Description = *event.Description
	}
	if event.Location != nil {
		out.Location = *event.Location
	}
	if event.URL != nil && *event.URL != "" {
		out.Source = &calendar.EventSource{
			Title: event.Title,
			Url:   *event.URL,
		}
	}

	endsAt := event.StartsAt.Add(time.Hour)
	if event.EndsAt != nil {
		endsAt = *event.EndsAt
	}

	if event.AllDay {
		out.Start = &calendar.EventDateTime{Date: event.StartsAt.Format("2006-01-02")}
		out.End = &calendar.EventDateTime{Date: endsAt.Format("2006-01-02")}
	} else {
		out.Start = &calendar.EventDateTime{DateTime: event.StartsAt.Format(time.RFC3339)}
		out.End = &calendar.EventDateTime{DateTime: endsAt.Format(time.RFC3339)}
	}
	return out
}
