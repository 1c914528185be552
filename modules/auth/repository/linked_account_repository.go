package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/database"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/entity"
)

type LinkedAccountRepository interface {
	GetActiveByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.LinkedAccount, error)
	// ListLinkedUserIDs returns every user with an active linked account for
	// the provider, system-wide.
	ListLinkedUserIDs(ctx context.Context, provider string) ([]uuid.UUID, error)
	SaveTokens(ctx context.Context, account *entity.LinkedAccount) error
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, refreshToken string, expiresAt time.Time) error
}

type linkedAccountRepository struct {
	db database.IDatabase
}

func NewLinkedAccountRepository(db database.IDatabase) LinkedAccountRepository {
	return &linkedAccountRepository{db: db}
}

func (r *linkedAccountRepository) GetActiveByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.LinkedAccount, error) {
	var account entity.LinkedAccount
	query := `
		SELECT id, user_id, provider, provider_email, access_token, refresh_token, token_expires_at, is_active, created_at, updated_at
		FROM linked_accounts
		WHERE user_id = $1 AND provider = $2 AND is_active = true
	`
	if err := r.db.GetContext(ctx, &account, query, userID, provider); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("LinkedAccountRepository:GetActiveByUserAndProvider:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return &account, nil
}

func (r *linkedAccountRepository) ListLinkedUserIDs(ctx context.Context, provider string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `
		SELECT DISTINCT user_id
		FROM linked_accounts
		WHERE provider = $1 AND is_active = true AND access_token IS NOT NULL
		ORDER BY user_id
	`
	if err := r.db.SelectContext(ctx, &ids, query, provider); err != nil {
		logger.Error("LinkedAccountRepository:ListLinkedUserIDs:Error", "error", err, "provider", provider)
		return nil, err
	}
	return ids, nil
}

// SaveTokens upserts the linked account row for (user, provider).
func (r *linkedAccountRepository) SaveTokens(ctx context.Context, account *entity.LinkedAccount) error {
	query := `
		INSERT INTO linked_accounts (id, user_id, provider, provider_email, access_token, refresh_token, token_expires_at, is_active, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, true, NOW(), NOW())
		ON CONFLICT (user_id, provider)
		DO UPDATE SET
			provider_email = COALESCE(EXCLUDED.provider_email, linked_accounts.provider_email),
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, linked_accounts.refresh_token),
			token_expires_at = EXCLUDED.token_expires_at,
			is_active = true,
			updated_at = NOW()
	`
	if err := r.db.ExecContext(ctx, query,
		account.UserID, account.Provider, account.ProviderEmail,
		account.AccessToken, account.RefreshToken, account.TokenExpiresAt,
	); err != nil {
		logger.Error("LinkedAccountRepository:SaveTokens:Error", "error", err, "user_id", account.UserID)
		return err
	}
	return nil
}

func (r *linkedAccountRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE linked_accounts
		SET access_token = $2,
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			token_expires_at = $4,
			updated_at = NOW()
		WHERE id = $1
	`
	if err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, expiresAt); err != nil {
		logger.Error("LinkedAccountRepository:UpdateTokens:Error", "error", err, "id", id)
		return err
	}
	return nil
}
