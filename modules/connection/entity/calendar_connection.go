package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	StatusPending   ConnectionStatus = "pending"
	StatusConnected ConnectionStatus = "connected"
	StatusError     ConnectionStatus = "error"
	StatusRevoked   ConnectionStatus = "revoked"
)

// ConnectionMetadata is the audit trail attached to a connection. Fields are
// additive and never authoritative for control flow. Unknown keys survive a
// round trip through Extra.
type ConnectionMetadata struct {
	LastError             *string    `json:"last_error,omitempty"`
	LastErrorAt           *time.Time `json:"last_error_at,omitempty"`
	ConnectedAt           *time.Time `json:"connected_at,omitempty"`
	ConnectedBy           *string    `json:"connected_by,omitempty"`
	AccountEmail          *string    `json:"account_email,omitempty"`
	LastConnectionStartAt *time.Time `json:"last_connection_start_at,omitempty"`
	LastConnectionStartBy *string    `json:"last_connection_start_by,omitempty"`
	LastTokenRefreshedAt  *time.Time `json:"last_token_refreshed_at,omitempty"`

	Extra map[string]any `json:"-"`
}

var knownMetadataKeys = map[string]struct{}{
	"last_error":               {},
	"last_error_at":            {},
	"connected_at":             {},
	"connected_by":             {},
	"account_email":            {},
	"last_connection_start_at": {},
	"last_connection_start_by": {},
	"last_token_refreshed_at":  {},
}

func (m ConnectionMetadata) MarshalJSON() ([]byte, error) {
	type plain ConnectionMetadata
	raw, err := json.Marshal(plain(m))
	if err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, known := knownMetadataKeys[k]; known {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return json.Marshal(out)
}

func (m *ConnectionMetadata) UnmarshalJSON(data []byte) error {
	type plain ConnectionMetadata
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range knownMetadataKeys {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Extra = all
	}
	*m = ConnectionMetadata(p)
	return nil
}

// Value implements driver.Valuer for JSONB storage.
func (m ConnectionMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB storage.
func (m *ConnectionMetadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = ConnectionMetadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
}

// Credentials is the provider token material written on a successful
// authorization.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
}

// CalendarConnection binds an organization member to one external calendar
// provider account. One row per (member_id, provider).
type CalendarConnection struct {
	ID                uuid.UUID          `db:"id" json:"id"`
	MemberID          uuid.UUID          `db:"member_id" json:"member_id"`
	Provider          string             `db:"provider" json:"provider"`
	Status            ConnectionStatus   `db:"status" json:"status"`
	StateToken        *string            `db:"state_token" json:"-"`
	FailureReason     *string            `db:"failure_reason" json:"failure_reason,omitempty"`
	AccessToken       *string            `db:"access_token" json:"-"`
	RefreshToken      *string            `db:"refresh_token" json:"-"`
	TokenExpiresAt    *time.Time         `db:"token_expires_at" json:"token_expires_at,omitempty"`
	Scope             *string            `db:"scope" json:"-"`
	CalendarID        string             `db:"calendar_id" json:"calendar_id"`
	ExternalAccountID *string            `db:"external_account_id" json:"external_account_id,omitempty"`
	Metadata          ConnectionMetadata `db:"metadata" json:"metadata"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
}

// HasCredentials reports whether any provider token material is present.
func (c *CalendarConnection) HasCredentials() bool {
	return (c.AccessToken != nil && *c.AccessToken != "") ||
		(c.RefreshToken != nil && *c.RefreshToken != "")
}

func (CalendarConnection) TableName() string {
	return "calendar_connections"
}
