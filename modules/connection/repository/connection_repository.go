package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/database"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/entity"
)

type ConnectionRepository interface {
	UpsertPending(ctx context.Context, memberID uuid.UUID, provider string, stateToken string, patch entity.ConnectionMetadata) (uuid.UUID, error)
	CompleteConnection(ctx context.Context, id uuid.UUID, creds entity.Credentials, externalAccountID string, calendarID string, patch entity.ConnectionMetadata) error
	MarkError(ctx context.Context, id uuid.UUID, reason string) error
	Revoke(ctx context.Context, id uuid.UUID, reason string) error
	UpdateCalendarTarget(ctx context.Context, id uuid.UUID, calendarID string) error
	SaveRefreshedToken(ctx context.Context, memberID uuid.UUID, provider string, accessToken string, refreshToken string, expiresAt time.Time) error

	Get(ctx context.Context, id uuid.UUID) (*entity.CalendarConnection, error)
	GetByMemberAndProvider(ctx context.Context, memberID uuid.UUID, provider string) (*entity.CalendarConnection, error)
	ListForMember(ctx context.Context, memberID uuid.UUID) ([]entity.CalendarConnection, error)
	ListForMembers(ctx context.Context, memberIDs []uuid.UUID) ([]entity.CalendarConnection, error)
}

type connectionRepository struct {
	db database.IDatabase
}

func NewConnectionRepository(db database.IDatabase) ConnectionRepository {
	return &connectionRepository{db: db}
}

const connectionColumns = `
	id, member_id, provider, status, state_token, failure_reason,
	access_token, refresh_token, token_expires_at, scope,
	calendar_id, external_account_id, metadata, created_at, updated_at`

// UpsertPending creates the (member, provider) row or resets an existing one
// back to pending. Replacing state_token invalidates any earlier
// authorization attempt for the same row.
func (r *connectionRepository) UpsertPending(ctx context.Context, memberID uuid.UUID, provider string, stateToken string, patch entity.ConnectionMetadata) (uuid.UUID, error) {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return uuid.Nil, err
	}

	query := `
		INSERT INTO calendar_connections (id, member_id, provider, status, state_token, metadata, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, 'pending', $3, $4::jsonb, NOW(), NOW())
		ON CONFLICT (member_id, provider)
		DO UPDATE SET
			status = 'pending',
			state_token = $3,
			failure_reason = NULL,
			metadata = calendar_connections.metadata || $4::jsonb,
			updated_at = NOW()
		RETURNING id
	`
	var id uuid.UUID
	if err := r.db.QueryRowContext(ctx, query, memberID, provider, stateToken, patchJSON).Scan(&id); err != nil {
		logger.Error("ConnectionRepository:UpsertPending:Error", "error", err, "member_id", memberID, "provider", provider)
		return uuid.Nil, err
	}
	return id, nil
}

// CompleteConnection writes credentials and flips the row to connected. The
// state token is cleared so the callback cannot be replayed.
func (r *connectionRepository) CompleteConnection(ctx context.Context, id uuid.UUID, creds entity.Credentials, externalAccountID string, calendarID string, patch entity.ConnectionMetadata) error {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return err
	}

	query := `
		UPDATE calendar_connections
		SET status = 'connected',
			state_token = NULL,
			failure_reason = NULL,
			access_token = $2,
			refresh_token = $3,
			token_expires_at = $4,
			scope = NULLIF($5, ''),
			calendar_id = $6,
			external_account_id = $7,
			metadata = metadata || $8::jsonb,
			updated_at = NOW()
		WHERE id = $1
	`
	if err := r.db.ExecContext(ctx, query, id,
		creds.AccessToken, nullIfEmpty(creds.RefreshToken), creds.ExpiresAt, creds.Scope,
		calendarID, externalAccountID, patchJSON,
	); err != nil {
		logger.Error("ConnectionRepository:CompleteConnection:Error", "error", err, "connection_id", id)
		return err
	}
	return nil
}

func (r *connectionRepository) MarkError(ctx context.Context, id uuid.UUID, reason string) error {
	patchJSON, err := json.Marshal(map[string]any{
		"last_error":    reason,
		"last_error_at": time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	query := `
		UPDATE calendar_connections
		SET status = 'error',
			state_token = NULL,
			failure_reason = $2,
			metadata = metadata || $3::jsonb,
			updated_at = NOW()
		WHERE id = $1
	`
	if err := r.db.ExecContext(ctx, query, id, reason, patchJSON); err != nil {
		logger.Error("ConnectionRepository:MarkError:Error", "error", err, "connection_id", id)
		return err
	}
	return nil
}

// Revoke clears every credential field. Rows are never hard-deleted.
func (r *connectionRepository) Revoke(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE calendar_connections
		SET status = 'revoked',
			state_token = NULL,
			failure_reason = $2,
			access_token = NULL,
			refresh_token = NULL,
			token_expires_at = NULL,
			scope = NULL,
			external_account_id = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	if err := r.db.ExecContext(ctx, query, id, reason); err != nil {
		logger.Error("ConnectionRepository:Revoke:Error", "error", err, "connection_id", id)
		return err
	}
	return nil
}

func (r *connectionRepository) UpdateCalendarTarget(ctx context.Context, id uuid.UUID, calendarID string) error {
	query := `
		UPDATE calendar_connections
		SET calendar_id = $2, updated_at = NOW()
		WHERE id = $1
	`
	if err := r.db.ExecContext(ctx, query, id, calendarID); err != nil {
		logger.Error("ConnectionRepository:UpdateCalendarTarget:Error", "error", err, "connection_id", id)
		return err
	}
	return nil
}

// SaveRefreshedToken rotates credentials in place without a status change.
func (r *connectionRepository) SaveRefreshedToken(ctx context.Context, memberID uuid.UUID, provider string, accessToken string, refreshToken string, expiresAt time.Time) error {
	patchJSON, err := json.Marshal(map[string]any{
		"last_token_refreshed_at": time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	query := `
		UPDATE calendar_connections
		SET access_token = $3,
			refresh_token = COALESCE(NULLIF($4, ''), refresh_token),
			token_expires_at = $5,
			metadata = metadata || $6::jsonb,
			updated_at = NOW()
		WHERE member_id = $1 AND provider = $2
	`
	if err := r.db.ExecContext(ctx, query, memberID, provider, accessToken, refreshToken, expiresAt, patchJSON); err != nil {
		logger.Error("ConnectionRepository:SaveRefreshedToken:Error", "error", err, "member_id", memberID)
		return err
	}
	return nil
}

func (r *connectionRepository) Get(ctx context.Context, id uuid.UUID) (*entity.CalendarConnection, error) {
	var conn entity.CalendarConnection
	query := `SELECT ` + connectionColumns + ` FROM calendar_connections WHERE id = $1`
	if err := r.db.GetContext(ctx, &conn, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ConnectionRepository:Get:Error", "error", err, "connection_id", id)
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) GetByMemberAndProvider(ctx context.Context, memberID uuid.UUID, provider string) (*entity.CalendarConnection, error) {
	var conn entity.CalendarConnection
	query := `SELECT ` + connectionColumns + ` FROM calendar_connections WHERE member_id = $1 AND provider = $2`
	if err := r.db.GetContext(ctx, &conn, query, memberID, provider); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ConnectionRepository:GetByMemberAndProvider:Error", "error", err, "member_id", memberID)
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) ListForMember(ctx context.Context, memberID uuid.UUID) ([]entity.CalendarConnection, error) {
	var connections []entity.CalendarConnection
	query := `SELECT ` + connectionColumns + ` FROM calendar_connections WHERE member_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &connections, query, memberID); err != nil {
		logger.Error("ConnectionRepository:ListForMember:Error", "error", err, "member_id", memberID)
		return nil, err
	}
	return connections, nil
}

func (r *connectionRepository) ListForMembers(ctx context.Context, memberIDs []uuid.UUID) ([]entity.CalendarConnection, error) {
	if len(memberIDs) == 0 {
		return []entity.CalendarConnection{}, nil
	}

	ids := make([]string, len(memberIDs))
	for i, id := range memberIDs {
		ids[i] = id.String()
	}

	var connections []entity.CalendarConnection
	query := `SELECT ` + connectionColumns + ` FROM calendar_connections WHERE member_id = ANY($1::uuid[]) ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &connections, query, pq.Array(ids)); err != nil {
		logger.Error("ConnectionRepository:ListForMembers:Error", "error", err)
		return nil, err
	}
	return connections, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
