package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	authEntity "github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/entity"
	eventEntity "github.com/Yvan2XEro/calendar-sync-sub002/modules/event/entity"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/dto"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/provider"
)

type stubEventRepo struct {
	events    []eventEntity.Event
	err       error
	gotLimit  int
	gotWindow time.Duration
}

func (s *stubEventRepo) ListCandidates(ctx context.Context, from time.Time, window time.Duration, limit int) ([]eventEntity.Event, error) {
	s.gotLimit = limit
	s.gotWindow = window
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.events) {
		return s.events[:limit], nil
	}
	return s.events, nil
}

type stubAccountRepo struct {
	userIDs []uuid.UUID
	err     error
}

func (s *stubAccountRepo) GetActiveByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*authEntity.LinkedAccount, error) {
	return nil, nil
}

func (s *stubAccountRepo) ListLinkedUserIDs(ctx context.Context, provider string) ([]uuid.UUID, error) {
	return s.userIDs, s.err
}

func (s *stubAccountRepo) SaveTokens(ctx context.Context, account *authEntity.LinkedAccount) error {
	return nil
}

func (s *stubAccountRepo) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, refreshToken string, expiresAt time.Time) error {
	return nil
}

// scriptedClient pops one queued error per call; an empty queue means
// success. Calls are recorded in order.
type scriptedClient struct {
	updateErrs map[string][]error
	insertErrs map[string][]error
	calls      []string
	insertIDs  []string
}

func (c *scriptedClient) CalendarID() string { return "primary" }

func pop(queues map[string][]error, id string) error {
	q := queues[id]
	if len(q) == 0 {
		return nil
	}
	queues[id] = q[1:]
	return q[0]
}

func (c *scriptedClient) UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) error {
	c.calls = append(c.calls, "update:"+eventID)
	return pop(c.updateErrs, eventID)
}

func (c *scriptedClient) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) error {
	c.calls = append(c.calls, "insert:"+event.Id)
	c.insertIDs = append(c.insertIDs, event.Id)
	return pop(c.insertErrs, event.Id)
}

type stubCredentials struct {
	clients map[uuid.UUID]provider.Client
	errs    map[uuid.UUID]*errors.AppError
	called  bool
}

func (s *stubCredentials) ClientForUser(ctx context.Context, userID uuid.UUID) (provider.Client, *errors.AppError) {
	s.called = true
	if appErr, ok := s.errs[userID]; ok {
		return nil, appErr
	}
	return s.clients[userID], nil
}

func testEvents(n int) []eventEntity.Event {
	events := make([]eventEntity.Event, 0, n)
	base := time.Now().Add(time.Hour)
	for i := 0; i < n; i++ {
		events = append(events, eventEntity.Event{
			ID:        uuid.NewString(),
			Title:     "event",
			StartsAt:  base.Add(time.Duration(i) * time.Hour),
			Approved:  true,
			Published: true,
		})
	}
	return events
}

func notFoundErr() error { return &googleapi.Error{Code: http.StatusNotFound} }
func conflictErr() error { return &googleapi.Error{Code: http.StatusConflict} }

func checkInvariant(t *testing.T, s dto.SyncSummary) {
	t.Helper()
	if got, want := s.Created+s.Updated+s.Skipped, s.EventsConsidered*s.AccountsSucceeded; got != want {
		t.Fatalf("invariant violated: created+updated+skipped = %d, want %d", got, want)
	}
}

func TestRunInsertsMissingEvents(t *testing.T) {
	events := testEvents(2)
	userID := uuid.New()
	client := &scriptedClient{
		updateErrs: map[string][]error{
			events[0].ID: {notFoundErr()},
			events[1].ID: {notFoundErr()},
		},
		insertErrs: map[string][]error{},
	}

	svc := NewSyncService(
		&stubEventRepo{events: events},
		&stubAccountRepo{userIDs: []uuid.UUID{userID}},
		&stubCredentials{clients: map[uuid.UUID]provider.Client{userID: client}},
		nil,
	)

	result, appErr := svc.Run(context.Background(), dto.RunOptions{Limit: 2, LookaheadHours: 24})
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}

	want := dto.SyncSummary{
		AccountsProcessed: 1,
		AccountsSucceeded: 1,
		EventsConsidered:  2,
		Created:           2,
	}
	if result.Summary != want {
		t.Fatalf("summary = %+v, want %+v", result.Summary, want)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
	checkInvariant(t, result.Summary)

	// Inserts carry the internal event id as explicit external id.
	if len(client.insertIDs) != 2 || client.insertIDs[0] != events[0].ID || client.insertIDs[1] != events[1].ID {
		t.Fatalf("insert ids = %v, want internal event ids", client.insertIDs)
	}
}

func TestRunRetriesInsertConflictAsUpdate(t *testing.T) {
	events := testEvents(2)
	userID := uuid.New()
	client := &scriptedClient{
		updateErrs: map[string][]error{
			events[0].ID: {notFoundErr()},
			events[1].ID: {notFoundErr()},
		},
		insertErrs: map[string][]error{
			events[1].ID: {conflictErr()},
		},
	}

	svc := NewSyncService(
		&stubEventRepo{events: events},
		&stubAccountRepo{userIDs: []uuid.UUID{userID}},
		&stubCredentials{clients: map[uuid.UUID]provider.Client{userID: client}},
		nil,
	)

	result, appErr := svc.Run(context.Background(), dto.RunOptions{Limit: 2, LookaheadHours: 24})
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if result.Summary.Created != 1 || result.Summary.Updated != 1 || result.Summary.Skipped != 0 {
		t.Fatalf("summary = %+v, want created:1 updated:1 skipped:0", result.Summary)
	}
	checkInvariant(t, result.Summary)
}

func TestRunSecondPassConvergesToUpdates(t *testing.T) {
	events := testEvents(2)
	userID := uuid.New()
	// Everything already exists: updates succeed immediately.
	client := &scriptedClient{updateErrs: map[string][]error{}, insertErrs: map[string][]error{}}

	svc := NewSyncService(
		&stubEventRepo{events: events},
		&stubAccountRepo{userIDs: []uuid.UUID{userID}},
		&stubCredentials{clients: map[uuid.UUID]provider.Client{userID: client}},
		nil,
	)

	result, appErr := svc.Run(context.Background(), dto.RunOptions{})
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if result.Summary.Updated != 2 || result.Summary.Created != 0 {
		t.Fatalf("summary = %+v, want all updates", result.Summary)
	}
	for _, call := range client.calls {
		if call[:6] != "update" {
			t.Fatalf("unexpected call %q on converged run", call)
		}
	}
	checkInvariant(t, result.Summary)
}

func TestRunIsolatesAccountFailures(t *testing.T) {
	events := testEvents(2)
	badUser := uuid.New()
	goodUser := uuid.New()
	client := &scriptedClient{updateErrs: map[string][]error{}, insertErrs: map[string][]error{}}

	svc := NewSyncService(
		&stubEventRepo{events: events},
		&stubAccountRepo{userIDs: []uuid.UUID{badUser, goodUser}},
		&stubCredentials{
			clients: map[uuid.UUID]provider.Client{goodUser: client},
			errs: map[uuid.UUID]*errors.AppError{
				badUser: errors.NewAppError(errors.ErrCredentialUnavailable, "no linked account", nil),
			},
		},
		nil,
	)

	result, appErr := svc.Run(context.Background(), dto.RunOptions{})
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}

	s := result.Summary
	if s.AccountsProcessed != 2 || s.AccountsSucceeded != 1 || s.AccountsFailed != 1 {
		t.Fatalf("summary = %+v, want processed:2 succeeded:1 failed:1", s)
	}
	if s.Updated != 2 {
		t.Fatalf("updated = %d, want 2 (good account unaffected)", s.Updated)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want one account-level entry", result.Errors)
	}
	if result.Errors[0].AccountID != badUser.String() || result.Errors[0].EventID != "" {
		t.Fatalf("error = %+v, want account-level record for failed user", result.Errors[0])
	}
	checkInvariant(t, s)
}

func TestRunIsolatesEventFailures(t *testing.T) {
	events := testEvents(2)
	userID := uuid.New()
	client := &scriptedClient{
		updateErrs: map[string][]error{
			events[0].ID: {&googleapi.Error{Code: http.StatusInternalServerError}},
		},
		insertErrs: map[string][]error{},
	}

	svc := NewSyncService(
		&stubEventRepo{events: events},
		&stubAccountRepo{userIDs: []uuid.UUID{userID}},
		&stubCredentials{clients: map[uuid.UUID]provider.Client{userID: client}},
		nil,
	)

	result, appErr := svc.Run(context.Background(), dto.RunOptions{})
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}

	s := result.Summary
	if s.Skipped != 1 || s.Updated != 1 || s.AccountsSucceeded != 1 {
		t.Fatalf("summary = %+v, want skipped:1 updated:1 succeeded:1", s)
	}
	if len(result.Errors) != 1 || result.Errors[0].EventID != events[0].ID {
		t.Fatalf("errors = %v, want one entry for the failing event", result.Errors)
	}
	checkInvariant(t, s)
}

func TestRunShortCircuitsOnEmptySets(t *testing.T) {
	cases := []struct {
		name    string
		events  []eventEntity.Event
		userIDs []uuid.UUID
	}{
		{name: "no events", events: nil, userIDs: []uuid.UUID{uuid.New()}},
		{name: "no accounts", events: testEvents(2), userIDs: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			creds := &stubCredentials{}
			svc := NewSyncService(
				&stubEventRepo{events: tc.events},
				&stubAccountRepo{userIDs: tc.userIDs},
				creds,
				nil,
			)

			result, appErr := svc.Run(context.Background(), dto.RunOptions{})
			if appErr != nil {
				t.Fatalf("unexpected error: %v", appErr)
			}
			if result.Summary != (dto.SyncSummary{}) {
				t.Fatalf("summary = %+v, want all zero", result.Summary)
			}
			if creds.called {
				t.Fatal("credential provider called on empty run")
			}
		})
	}
}

func TestRunClampsOptions(t *testing.T) {
	cases := []struct {
		name       string
		opts       dto.RunOptions
		wantLimit  int
		wantWindow time.Duration
	}{
		{name: "defaults", opts: dto.RunOptions{}, wantLimit: 50, wantWindow: 720 * time.Hour},
		{name: "above max", opts: dto.RunOptions{Limit: 1000, LookaheadHours: 9000}, wantLimit: 200, wantWindow: 8760 * time.Hour},
		{name: "below min", opts: dto.RunOptions{Limit: -3, LookaheadHours: -1}, wantLimit: 1, wantWindow: time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubEventRepo{}
			svc := NewSyncService(repo, &stubAccountRepo{}, &stubCredentials{}, nil)

			if _, appErr := svc.Run(context.Background(), tc.opts); appErr != nil {
				t.Fatalf("unexpected error: %v", appErr)
			}
			if repo.gotLimit != tc.wantLimit {
				t.Fatalf("limit = %d, want %d", repo.gotLimit, tc.wantLimit)
			}
			if repo.gotWindow != tc.wantWindow {
				t.Fatalf("window = %v, want %v", repo.gotWindow, tc.wantWindow)
			}
		})
	}
}
