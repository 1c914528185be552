package constants

import "time"

// Request handling
const (
	DefaultTimeout = 30 * time.Second
)

// Database pool settings
const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"
)

// Calendar provider
const (
	ProviderGoogle = "google"

	DefaultCalendarID = "primary"
)

// OAuth flow
const (
	StateTokenLength      = 32
	DefaultCallbackReturn = "/settings/calendar"
	RevokedByAdminReason  = "disconnected by administrator"
	MissingAuthCodeReason = "authorization code missing from provider callback"
)

// Reconciliation defaults and clamps
const (
	SyncDefaultLimit      = 50
	SyncMaxLimit          = 200
	SyncDefaultLookaheadH = 720
	SyncMaxLookaheadH     = 8760

	SyncSecretHeader = "X-Sync-Secret"
	SyncTaskType     = "sync:run"
)

// Auth tokens
const (
	ScopeTokenAccess  = "access"
	ScopeTokenRefresh = "refresh"

	AccessTokenTTL = 24 * time.Hour
)
