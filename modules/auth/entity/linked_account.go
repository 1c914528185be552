package entity

import (
	"time"

	"github.com/google/uuid"
)

// LinkedAccount is a provider account attached to an internal user. It is
// looked up independently of CalendarConnection: any active linked account
// makes the user eligible for reconciliation.
type LinkedAccount struct {
	ID             uuid.UUID  `db:"id"`
	UserID         uuid.UUID  `db:"user_id"`
	Provider       string     `db:"provider"`
	ProviderEmail  *string    `db:"provider_email"`
	AccessToken    *string    `db:"access_token"`
	RefreshToken   *string    `db:"refresh_token"`
	TokenExpiresAt *time.Time `db:"token_expires_at"`
	IsActive       bool       `db:"is_active"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}
