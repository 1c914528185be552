package entity

import (
	"encoding/json"
	"testing"
	"time"
)

func TestConnectionMetadataPreservesUnknownKeys(t *testing.T) {
	raw := []byte(`{"connected_by":"admin-1","legacy_import_id":"imp-9","flags":{"beta":true}}`)

	var m ConnectionMetadata
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if m.ConnectedBy == nil || *m.ConnectedBy != "admin-1" {
		t.Fatalf("connected_by = %v", m.ConnectedBy)
	}
	if m.Extra["legacy_import_id"] != "imp-9" {
		t.Fatalf("extra = %v, unknown key lost", m.Extra)
	}

	now := time.Now().UTC().Truncate(time.Second)
	m.ConnectedAt = &now

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var round map[string]any
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatal(err)
	}
	if round["legacy_import_id"] != "imp-9" {
		t.Fatalf("round = %v, unknown key dropped on marshal", round)
	}
	if round["connected_by"] != "admin-1" || round["connected_at"] == nil {
		t.Fatalf("round = %v", round)
	}
	if _, ok := round["flags"].(map[string]any); !ok {
		t.Fatalf("round = %v, nested unknown value mangled", round)
	}
}

func TestConnectionMetadataScanNil(t *testing.T) {
	email := "user@example.com"
	m := ConnectionMetadata{AccountEmail: &email}
	if err := m.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if m.AccountEmail != nil {
		t.Fatal("nil scan did not reset metadata")
	}
}

func TestHasCredentials(t *testing.T) {
	var conn CalendarConnection
	if conn.HasCredentials() {
		t.Fatal("empty connection reports credentials")
	}
	empty := ""
	conn.AccessToken = &empty
	if conn.HasCredentials() {
		t.Fatal("blank access token reports credentials")
	}
	rt := "rt"
	conn.RefreshToken = &rt
	if !conn.HasCredentials() {
		t.Fatal("refresh token alone should count")
	}
}
