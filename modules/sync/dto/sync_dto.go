package dto

// RunOptions control one reconciliation run. Zero values mean "use the
// default"; out-of-range values are clamped, never rejected.
type RunOptions struct {
	Limit          int `json:"limit"`
	LookaheadHours int `json:"lookahead_hours"`
}

// SyncSummary aggregates the counters of a single run.
type SyncSummary struct {
	AccountsProcessed int `json:"accounts_processed"`
	AccountsSucceeded int `json:"accounts_succeeded"`
	AccountsFailed    int `json:"accounts_failed"`
	EventsConsidered  int `json:"events_considered"`
	Created           int `json:"created"`
	Updated           int `json:"updated"`
	Skipped           int `json:"skipped"`
}

// SyncError records one isolated failure. EventID is empty for
// account-level failures.
type SyncError struct {
	AccountID string `json:"account_id"`
	EventID   string `json:"event_id,omitempty"`
	Message   string `json:"message"`
}

type SyncResult struct {
	Summary SyncSummary `json:"summary"`
	Errors  []SyncError `json:"errors"`
}
