package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/entity"
)

// ConnectionResponse is the admin-facing view of a calendar connection.
// Credentials are reduced to a presence flag and never serialized.
type ConnectionResponse struct {
	ID                uuid.UUID                 `json:"id"`
	MemberID          uuid.UUID                 `json:"member_id"`
	Provider          string                    `json:"provider"`
	Status            entity.ConnectionStatus   `json:"status"`
	FailureReason     *string                   `json:"failure_reason,omitempty"`
	CalendarID        string                    `json:"calendar_id"`
	ExternalAccountID *string                   `json:"external_account_id,omitempty"`
	HasCredentials    bool                      `json:"has_credentials"`
	Metadata          entity.ConnectionMetadata `json:"metadata"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

type UpdateCalendarTargetRequest struct {
	CalendarID string `json:"calendar_id"`
}

// ToConnectionResponse strips token material from a stored connection.
func ToConnectionResponse(conn *entity.CalendarConnection) *ConnectionResponse {
	return &ConnectionResponse{
		ID:                conn.ID,
		MemberID:          conn.MemberID,
		Provider:          conn.Provider,
		Status:            conn.Status,
		FailureReason:     conn.FailureReason,
		CalendarID:        conn.CalendarID,
		ExternalAccountID: conn.ExternalAccountID,
		HasCredentials:    conn.HasCredentials(),
		Metadata:          conn.Metadata,
		CreatedAt:         conn.CreatedAt,
		UpdatedAt:         conn.UpdatedAt,
	}
}

func ToConnectionResponses(conns []entity.CalendarConnection) []ConnectionResponse {
	out := make([]ConnectionResponse, 0, len(conns))
	for i := range conns {
		out = append(out, *ToConnectionResponse(&conns[i]))
	}
	return out
}
