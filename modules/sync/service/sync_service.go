package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/constants"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	authRepo "github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/repository"
	eventEntity "github.com/Yvan2XEro/calendar-sync-sub002/modules/event/entity"
	eventRepo "github.com/Yvan2XEro/calendar-sync-sub002/modules/event/repository"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/dto"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/mapper"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/provider"
)

// CredentialProvider yields an authenticated calendar client for one user.
// Satisfied by the auth module's CredentialService.
type CredentialProvider interface {
	ClientForUser(ctx context.Context, userID uuid.UUID) (provider.Client, *errors.AppError)
}

// ReportArchiver persists a finished run's result somewhere durable.
// Archival is best-effort and never fails the run.
type ReportArchiver interface {
	Archive(ctx context.Context, result *dto.SyncResult) error
}

type SyncService interface {
	Run(ctx context.Context, opts dto.RunOptions) (*dto.SyncResult, *errors.AppError)
}

type syncService struct {
	events      eventRepo.EventRepository
	accounts    authRepo.LinkedAccountRepository
	credentials CredentialProvider
	archiver    ReportArchiver
	now         func() time.Time
}

func NewSyncService(
	events eventRepo.EventRepository,
	accounts authRepo.LinkedAccountRepository,
	credentials CredentialProvider,
	archiver ReportArchiver,
) SyncService {
	return &syncService{
		events:      events,
		accounts:    accounts,
		credentials: credentials,
		archiver:    archiver,
		now:         time.Now,
	}
}

func clamp(value, def, min, max int) int {
	if value == 0 {
		return def
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Run executes one reconciliation pass: every linked account receives an
// upsert of every candidate event. Accounts and events are processed
// sequentially; one failure never aborts its siblings.
func (s *syncService) Run(ctx context.Context, opts dto.RunOptions) (*dto.SyncResult, *errors.AppError) {
	limit := clamp(opts.Limit, constants.SyncDefaultLimit, 1, constants.SyncMaxLimit)
	lookaheadHours := clamp(opts.LookaheadHours, constants.SyncDefaultLookaheadH, 1, constants.SyncMaxLookaheadH)

	result := &dto.SyncResult{Errors: []dto.SyncError{}}

	from := s.now()
	window := time.Duration(lookaheadHours) * time.Hour
	events, err := s.events.ListCandidates(ctx, from, window, limit)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list candidate events", err)
	}
	result.Summary.EventsConsidered = len(events)

	userIDs, err := s.accounts.ListLinkedUserIDs(ctx, constants.ProviderGoogle)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list linked accounts", err)
	}

	// Nothing to reconcile: report zeroes without touching the provider.
	if len(events) == 0 || len(userIDs) == 0 {
		result.Summary.EventsConsidered = 0
		s.archive(ctx, result)
		return result, nil
	}

	for _, userID := range userIDs {
		result.Summary.AccountsProcessed++

		client, appErr := s.credentials.ClientForUser(ctx, userID)
		if appErr != nil {
			result.Summary.AccountsFailed++
			result.Errors = append(result.Errors, dto.SyncError{
				AccountID: userID.String(),
				Message:   appErr.Message,
			})
			logger.Warn("SyncService:Run:AccountSkipped", "user_id", userID, "error", appErr)
			continue
		}

		for i := range events {
			s.upsertEvent(ctx, client, userID, &events[i], result)
		}
		result.Summary.AccountsSucceeded++
	}

	logger.Info("SyncService:Run:Done",
		"accounts_processed", result.Summary.AccountsProcessed,
		"accounts_succeeded", result.Summary.AccountsSucceeded,
		"accounts_failed", result.Summary.AccountsFailed,
		"events_considered", result.Summary.EventsConsidered,
		"created", result.Summary.Created,
		"updated", result.Summary.Updated,
		"skipped", result.Summary.Skipped,
	)

	s.archive(ctx, result)
	return result, nil
}

// upsertEvent pushes one event to one account. The external event id equals
// the internal event id, so update is attempted first; a not-found answer
// falls back to insert with that explicit id, and an insert conflict (a
// prior run won the race) retries as update.
func (s *syncService) upsertEvent(ctx context.Context, client provider.Client, userID uuid.UUID, event *eventEntity.Event, result *dto.SyncResult) {
	calendarID := client.CalendarID()
	payload := mapper.ToCalendarEvent(event)

	err := client.UpdateEvent(ctx, calendarID, event.ID, payload)
	if err == nil {
		result.Summary.Updated++
		return
	}

	if provider.IsNotFound(err) {
		payload.Id = event.ID
		insertErr := client.InsertEvent(ctx, calendarID, payload)
		if insertErr == nil {
			result.Summary.Created++
			return
		}
		if provider.IsConflict(insertErr) {
			retryErr := client.UpdateEvent(ctx, calendarID, event.ID, payload)
			if retryErr == nil {
				result.Summary.Updated++
				return
			}
			err = retryErr
		} else {
			err = insertErr
		}
	}

	result.Summary.Skipped++
	result.Errors = append(result.Errors, dto.SyncError{
		AccountID: userID.String(),
		EventID:   event.ID,
		Message:   err.Error(),
	})
	logger.Warn("SyncService:UpsertEvent:Error", "user_id", userID, "event_id", event.ID, "error", err)
}

func (s *syncService) archive(ctx context.Context, result *dto.SyncResult) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(ctx, result); err != nil {
		logger.Warn("SyncService:Archive:Error", "error", err)
	}
}
