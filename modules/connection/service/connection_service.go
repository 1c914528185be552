package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/constants"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/entity"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/repository"
)

// ConnectionService owns the lifecycle transitions of calendar connections.
type ConnectionService interface {
	UpsertPending(ctx context.Context, memberID uuid.UUID, provider string, stateToken string, patch entity.ConnectionMetadata) (uuid.UUID, *errors.AppError)
	CompleteConnection(ctx context.Context, id uuid.UUID, creds entity.Credentials, externalAccountID string, calendarID string) *errors.AppError
	MarkError(ctx context.Context, id uuid.UUID, reason string) *errors.AppError
	Revoke(ctx context.Context, id uuid.UUID) *errors.AppError
	UpdateCalendarTarget(ctx context.Context, id uuid.UUID, calendarID string) *errors.AppError

	Get(ctx context.Context, id uuid.UUID) (*entity.CalendarConnection, *errors.AppError)
	ListForMember(ctx context.Context, memberID uuid.UUID) ([]entity.CalendarConnection, *errors.AppError)
	ListForMembers(ctx context.Context, memberIDs []uuid.UUID) ([]entity.CalendarConnection, *errors.AppError)
}

type connectionService struct {
	repo repository.ConnectionRepository
}

func NewConnectionService(repo repository.ConnectionRepository) ConnectionService {
	return &connectionService{repo: repo}
}

func (s *connectionService) UpsertPending(ctx context.Context, memberID uuid.UUID, provider string, stateToken string, patch entity.ConnectionMetadata) (uuid.UUID, *errors.AppError) {
	if stateToken == "" {
		return uuid.Nil, errors.NewAppError(errors.ErrInvalidInput, "state token is required", nil)
	}

	id, err := s.repo.UpsertPending(ctx, memberID, provider, stateToken, patch)
	if err != nil {
		return uuid.Nil, errors.NewAppError(errors.ErrInternalServer, "failed to upsert pending connection", err)
	}
	return id, nil
}

func (s *connectionService) CompleteConnection(ctx context.Context, id uuid.UUID, creds entity.Credentials, externalAccountID string, calendarID string) *errors.AppError {
	if calendarID == "" {
		calendarID = constants.DefaultCalendarID
	}

	now := time.Now().UTC()
	patch := entity.ConnectionMetadata{
		ConnectedAt: &now,
	}
	if externalAccountID != "" {
		patch.AccountEmail = &externalAccountID
	}

	if err := s.repo.CompleteConnection(ctx, id, creds, externalAccountID, calendarID, patch); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to complete connection", err)
	}
	return nil
}

func (s *connectionService) MarkError(ctx context.Context, id uuid.UUID, reason string) *errors.AppError {
	if err := s.repo.MarkError(ctx, id, reason); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to record connection error", err)
	}
	return nil
}

func (s *connectionService) Revoke(ctx context.Context, id uuid.UUID) *errors.AppError {
	conn, appErr := s.Get(ctx, id)
	if appErr != nil {
		return appErr
	}
	if conn == nil {
		return errors.NewAppError(errors.ErrNotFound, "connection not found", nil)
	}

	if err := s.repo.Revoke(ctx, id, constants.RevokedByAdminReason); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to revoke connection", err)
	}

	logger.Info("ConnectionService:Revoke", "connection_id", id, "member_id", conn.MemberID)
	return nil
}

func (s *connectionService) UpdateCalendarTarget(ctx context.Context, id uuid.UUID, calendarID string) *errors.AppError {
	if strings.TrimSpace(calendarID) == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "calendar id must not be blank", nil)
	}

	conn, appErr := s.Get(ctx, id)
	if appErr != nil {
		return appErr
	}
	if conn == nil {
		return errors.NewAppError(errors.ErrNotFound, "connection not found", nil)
	}
	// A revoked connection stays revoked; retargeting does not revive it.
	if conn.Status == entity.StatusRevoked {
		return errors.NewAppError(errors.ErrInvalidInput, "cannot change the calendar of a revoked connection", nil)
	}

	if err := s.repo.UpdateCalendarTarget(ctx, id, calendarID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to update calendar target", err)
	}
	return nil
}

func (s *connectionService) Get(ctx context.Context, id uuid.UUID) (*entity.CalendarConnection, *errors.AppError) {
	conn, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to get connection", err)
	}
	return conn, nil
}

func (s *connectionService) ListForMember(ctx context.Context, memberID uuid.UUID) ([]entity.CalendarConnection, *errors.AppError) {
	connections, err := s.repo.ListForMember(ctx, memberID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list connections", err)
	}
	return connections, nil
}

func (s *connectionService) ListForMembers(ctx context.Context, memberIDs []uuid.UUID) ([]entity.CalendarConnection, *errors.AppError) {
	connections, err := s.repo.ListForMembers(ctx, memberIDs)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list connections", err)
	}
	return connections, nil
}
