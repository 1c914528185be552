package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/config"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/constants"
)

func TestTokenRoundTrip(t *testing.T) {
	config.Set(&config.Config{JWT: config.JWTConfig{Secret: "test-secret"}})

	userID := uuid.New()
	raw, err := GenerateToken(userID, "user@example.com", constants.ScopeTokenAccess)
	if err != nil {
		t.Fatal(err)
	}

	data, err := ValidateAndParseToken(raw)
	if err != nil {
		t.Fatal(err)
	}
	if data.UserID != userID || data.Email != "user@example.com" || data.Scope != constants.ScopeTokenAccess {
		t.Fatalf("data = %+v", data)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	config.Set(&config.Config{JWT: config.JWTConfig{Secret: "test-secret"}})

	raw, err := GenerateToken(uuid.New(), "", constants.ScopeTokenAccess)
	if err != nil {
		t.Fatal(err)
	}
	tampered := raw[:strings.LastIndex(raw, ".")+1] + "forgedsignature"

	if _, err := ValidateAndParseToken(tampered); err == nil {
		t.Fatal("tampered token accepted")
	}
}

func TestGenerateRandomStringLength(t *testing.T) {
	s := GenerateRandomString(constants.StateTokenLength)
	if len(s) < constants.StateTokenLength {
		t.Fatalf("len = %d, want at least %d", len(s), constants.StateTokenLength)
	}
	if s == GenerateRandomString(constants.StateTokenLength) {
		t.Fatal("two generated tokens collide")
	}
}
