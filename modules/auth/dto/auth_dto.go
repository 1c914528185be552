package dto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// StateBlob is the opaque OAuth state parameter. It is base64url-encoded
// JSON, not signed: integrity relies solely on Token matching the single-use
// nonce stored on the connection row.
type StateBlob struct {
	ConnectionID uuid.UUID `json:"connection_id"`
	Org          string    `json:"org"`
	Token        string    `json:"token"`
	ReturnTo     string    `json:"return_to,omitempty"`
}

func (b StateBlob) Encode() (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func DecodeStateBlob(raw string) (*StateBlob, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("state is not valid base64url: %w", err)
	}
	var blob StateBlob
	if err := json.Unmarshal(decoded, &blob); err != nil {
		return nil, fmt.Errorf("state is not valid JSON: %w", err)
	}
	if blob.ConnectionID == uuid.Nil || blob.Org == "" || blob.Token == "" {
		return nil, fmt.Errorf("state is missing required fields")
	}
	return &blob, nil
}

// StartAuthorizationRequest starts the OAuth flow for a member.
type StartAuthorizationRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	ReturnTo string `json:"return_to"`
}

// StartAuthorizationResponse carries the provider consent URL.
type StartAuthorizationResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	ConnectionID     string `json:"connection_id"`
}

// Callback redirect statuses.
const (
	CallbackStatusSuccess = "success"
	CallbackStatusError   = "error"
)

// CallbackRedirect describes where the browser is sent after the OAuth
// callback has been processed.
type CallbackRedirect struct {
	Path         string
	Organization string
	Status       string
	Message      string
}

// Location renders the redirect target with its query parameters.
func (r CallbackRedirect) Location() string {
	q := url.Values{}
	q.Set("organization", r.Organization)
	q.Set("status", r.Status)
	if r.Message != "" {
		q.Set("message", r.Message)
	}
	sep := "?"
	if strings.Contains(r.Path, "?") {
		sep = "&"
	}
	return r.Path + sep + q.Encode()
}
