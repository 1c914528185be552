package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client is the calendar surface the reconciliation engine writes through.
type Client interface {
	// CalendarID is the resolved target calendar for this account.
	CalendarID() string
	UpdateEvent(ctx context.Context, calendarID string, eventID string, event *calendar.Event) error
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) error
}

type googleClient struct {
	svc        *calendar.Service
	calendarID string
}

// NewGoogleClient builds an authenticated Google Calendar client for one
// account.
func NewGoogleClient(ctx context.Context, ts oauth2.TokenSource, calendarID string) (Client, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &googleClient{svc: svc, calendarID: calendarID}, nil
}

func (c *googleClient) CalendarID() string {
	return c.calendarID
}

func (c *googleClient) UpdateEvent(ctx context.Context, calendarID string, eventID string, event *calendar.Event) error {
	_, err := c.svc.Events.Update(calendarID, eventID, event).Context(ctx).Do()
	return err
}

func (c *googleClient) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) error {
	_, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	return err
}

// IsNotFound reports whether the provider said the addressed event does not
// exist.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound, http.StatusGone)
}

// IsConflict reports whether an insert collided with an existing event id.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func hasStatus(err error, codes ...int) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.Code == code {
			return true
		}
	}
	return false
}
