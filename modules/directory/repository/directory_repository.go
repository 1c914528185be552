package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/database"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
)

// Organization is the minimal directory record this service needs.
type Organization struct {
	ID   uuid.UUID `db:"id"`
	Slug string    `db:"slug"`
	Name string    `db:"name"`
}

// DirectoryRepository is the narrow interface onto the organization/member
// directory. Role semantics live in the directory; this service only asks
// yes/no questions and resolves memberships.
type DirectoryRepository interface {
	GetOrganizationBySlug(ctx context.Context, orgSlug string) (*Organization, error)
	IsOrgAdmin(ctx context.Context, userID uuid.UUID, orgID uuid.UUID) (bool, error)
	IsOrgMember(ctx context.Context, memberID uuid.UUID, orgID uuid.UUID) (bool, error)
	ListMemberIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error)
}

type directoryRepository struct {
	db database.IDatabase
}

func NewDirectoryRepository(db database.IDatabase) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) GetOrganizationBySlug(ctx context.Context, orgSlug string) (*Organization, error) {
	var org Organization
	query := `SELECT id, slug, name FROM organizations WHERE slug = $1`
	if err := r.db.GetContext(ctx, &org, query, slug.Make(orgSlug)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("DirectoryRepository:GetOrganizationBySlug:Error", "error", err, "slug", orgSlug)
		return nil, err
	}
	return &org, nil
}

func (r *directoryRepository) IsOrgAdmin(ctx context.Context, userID uuid.UUID, orgID uuid.UUID) (bool, error) {
	var isAdmin bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM organization_members
			WHERE organization_id = $1 AND member_id = $2 AND role IN ('owner', 'admin')
		)
	`
	if err := r.db.GetContext(ctx, &isAdmin, query, orgID, userID); err != nil {
		logger.Error("DirectoryRepository:IsOrgAdmin:Error", "error", err, "user_id", userID, "org_id", orgID)
		return false, err
	}
	return isAdmin, nil
}

func (r *directoryRepository) IsOrgMember(ctx context.Context, memberID uuid.UUID, orgID uuid.UUID) (bool, error) {
	var isMember bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM organization_members
			WHERE organization_id = $1 AND member_id = $2
		)
	`
	if err := r.db.GetContext(ctx, &isMember, query, orgID, memberID); err != nil {
		logger.Error("DirectoryRepository:IsOrgMember:Error", "error", err, "member_id", memberID, "org_id", orgID)
		return false, err
	}
	return isMember, nil
}

func (r *directoryRepository) ListMemberIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT member_id FROM organization_members WHERE organization_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, orgID); err != nil {
		logger.Error("DirectoryRepository:ListMemberIDs:Error", "error", err, "org_id", orgID)
		return nil, err
	}
	return ids, nil
}
