package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/admin/dto"
	connService "github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/service"
	directoryRepo "github.com/Yvan2XEro/calendar-sync-sub002/modules/directory/repository"
)

// AdminService exposes organization-scoped management of calendar
// connections. Every operation authorizes the acting user against the
// organization before touching a connection.
type AdminService interface {
	ListConnections(ctx context.Context, actorID uuid.UUID, orgSlug string) ([]dto.ConnectionResponse, *errors.AppError)
	Disconnect(ctx context.Context, actorID uuid.UUID, orgSlug string, connectionID uuid.UUID) *errors.AppError
	UpdateCalendarTarget(ctx context.Context, actorID uuid.UUID, orgSlug string, connectionID uuid.UUID, calendarID string) *errors.AppError
}

type adminService struct {
	connections connService.ConnectionService
	directory   directoryRepo.DirectoryRepository
}

func NewAdminService(connections connService.ConnectionService, directory directoryRepo.DirectoryRepository) AdminService {
	return &adminService{
		connections: connections,
		directory:   directory,
	}
}

// authorize resolves the organization and verifies the actor holds an owner
// or admin role in it.
func (s *adminService) authorize(ctx context.Context, actorID uuid.UUID, orgSlug string) (*directoryRepo.Organization, *errors.AppError) {
	org, err := s.directory.GetOrganizationBySlug(ctx, orgSlug)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to resolve organization", err)
	}
	if org == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "organization not found", nil)
	}

	isAdmin, err := s.directory.IsOrgAdmin(ctx, actorID, org.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to check organization role", err)
	}
	if !isAdmin {
		return nil, errors.NewAppError(errors.ErrForbidden, "caller is not an organization admin", nil)
	}
	return org, nil
}

// connectionInOrg fetches the connection and verifies its member belongs to
// the organization; cross-organization ids are treated as forbidden, not
// merely missing.
func (s *adminService) connectionInOrg(ctx context.Context, org *directoryRepo.Organization, connectionID uuid.UUID) *errors.AppError {
	conn, appErr := s.connections.Get(ctx, connectionID)
	if appErr != nil {
		return appErr
	}
	if conn == nil {
		return errors.NewAppError(errors.ErrNotFound, "connection not found", nil)
	}

	isMember, err := s.directory.IsOrgMember(ctx, conn.MemberID, org.ID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to check organization membership", err)
	}
	if !isMember {
		return errors.NewAppError(errors.ErrForbidden, "connection does not belong to this organization", nil)
	}
	return nil
}

func (s *adminService) ListConnections(ctx context.Context, actorID uuid.UUID, orgSlug string) ([]dto.ConnectionResponse, *errors.AppError) {
	org, appErr := s.authorize(ctx, actorID, orgSlug)
	if appErr != nil {
		return nil, appErr
	}

	memberIDs, err := s.directory.ListMemberIDs(ctx, org.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list organization members", err)
	}
	if len(memberIDs) == 0 {
		return []dto.ConnectionResponse{}, nil
	}

	conns, appErr := s.connections.ListForMembers(ctx, memberIDs)
	if appErr != nil {
		return nil, appErr
	}
	return dto.ToConnectionResponses(conns), nil
}

func (s *adminService) Disconnect(ctx context.Context, actorID uuid.UUID, orgSlug string, connectionID uuid.UUID) *errors.AppError {
	org, appErr := s.authorize(ctx, actorID, orgSlug)
	if appErr != nil {
		return appErr
	}
	if appErr := s.connectionInOrg(ctx, org, connectionID); appErr != nil {
		return appErr
	}

	if appErr := s.connections.Revoke(ctx, connectionID); appErr != nil {
		return appErr
	}
	logger.Info("AdminService:Disconnect:Done", "connection_id", connectionID, "actor_id", actorID, "org", orgSlug)
	return nil
}

func (s *adminService) UpdateCalendarTarget(ctx context.Context, actorID uuid.UUID, orgSlug string, connectionID uuid.UUID, calendarID string) *errors.AppError {
	org, appErr := s.authorize(ctx, actorID, orgSlug)
	if appErr != nil {
		return appErr
	}
	if appErr := s.connectionInOrg(ctx, org, connectionID); appErr != nil {
		return appErr
	}

	return s.connections.UpdateCalendarTarget(ctx, connectionID, calendarID)
}
