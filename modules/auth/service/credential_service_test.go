package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/constants"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	authEntity "github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/entity"
	connEntity "github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/entity"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/provider"
)

type credAccountRepo struct {
	account *authEntity.LinkedAccount

	updatedAccess  string
	updatedRefresh string
	updateCalls    int
}

func (f *credAccountRepo) GetActiveByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*authEntity.LinkedAccount, error) {
	return f.account, nil
}

func (f *credAccountRepo) ListLinkedUserIDs(ctx context.Context, provider string) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *credAccountRepo) SaveTokens(ctx context.Context, account *authEntity.LinkedAccount) error {
	return nil
}

func (f *credAccountRepo) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, refreshToken string, expiresAt time.Time) error {
	f.updateCalls++
	f.updatedAccess = accessToken
	f.updatedRefresh = refreshToken
	return nil
}

type credConnRepo struct {
	connection *connEntity.CalendarConnection

	refreshSaved  bool
	erroredReason string
}

func (f *credConnRepo) UpsertPending(ctx context.Context, memberID uuid.UUID, provider string, stateToken string, patch connEntity.ConnectionMetadata) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (f *credConnRepo) CompleteConnection(ctx context.Context, id uuid.UUID, creds connEntity.Credentials, externalAccountID string, calendarID string, patch connEntity.ConnectionMetadata) error {
	return nil
}

func (f *credConnRepo) MarkError(ctx context.Context, id uuid.UUID, reason string) error {
	f.erroredReason = reason
	return nil
}

func (f *credConnRepo) Revoke(ctx context.Context, id uuid.UUID, reason string) error {
	return nil
}

func (f *credConnRepo) UpdateCalendarTarget(ctx context.Context, id uuid.UUID, calendarID string) error {
	return nil
}

func (f *credConnRepo) SaveRefreshedToken(ctx context.Context, memberID uuid.UUID, provider string, accessToken string, refreshToken string, expiresAt time.Time) error {
	f.refreshSaved = true
	return nil
}

func (f *credConnRepo) Get(ctx context.Context, id uuid.UUID) (*connEntity.CalendarConnection, error) {
	return f.connection, nil
}

func (f *credConnRepo) GetByMemberAndProvider(ctx context.Context, memberID uuid.UUID, provider string) (*connEntity.CalendarConnection, error) {
	return f.connection, nil
}

func (f *credConnRepo) ListForMember(ctx context.Context, memberID uuid.UUID) ([]connEntity.CalendarConnection, error) {
	return nil, nil
}

func (f *credConnRepo) ListForMembers(ctx context.Context, memberIDs []uuid.UUID) ([]connEntity.CalendarConnection, error) {
	return nil, nil
}

// refreshExchanger hands out a fixed refreshed token, or an error.
type refreshExchanger struct {
	refreshed *oauth2.Token
	err       error
}

func (f *refreshExchanger) AuthCodeURL(state string) string { return "" }

func (f *refreshExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return nil, fmt.Errorf("not used")
}

func (f *refreshExchanger) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return tokenSourceFunc(func() (*oauth2.Token, error) {
		return f.refreshed, f.err
	})
}

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }

type recordingClient struct {
	calendarID string
}

func (c *recordingClient) CalendarID() string { return c.calendarID }

func (c *recordingClient) UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) error {
	return nil
}

func (c *recordingClient) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) error {
	return nil
}

func newCredentialFixture(account *authEntity.LinkedAccount, conn *connEntity.CalendarConnection, exchanger OAuthExchanger) (*credAccountRepo, *credConnRepo, CredentialService) {
	accounts := &credAccountRepo{account: account}
	conns := &credConnRepo{connection: conn}

	factory := func() (OAuthExchanger, error) { return exchanger, nil }
	newClient := func(ctx context.Context, token *oauth2.Token, calendarID string) (provider.Client, error) {
		return &recordingClient{calendarID: calendarID}, nil
	}

	svc := NewCredentialService(accounts, conns, factory, newClient)
	return accounts, conns, svc
}

func linkedAccount(access, refresh string, expiry time.Time) *authEntity.LinkedAccount {
	account := &authEntity.LinkedAccount{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Provider: constants.ProviderGoogle,
		IsActive: true,
	}
	if access != "" {
		account.AccessToken = &access
	}
	if refresh != "" {
		account.RefreshToken = &refresh
	}
	if !expiry.IsZero() {
		account.TokenExpiresAt = &expiry
	}
	return account
}

func TestClientForUserWithoutLinkedAccount(t *testing.T) {
	_, _, svc := newCredentialFixture(nil, nil, &refreshExchanger{})

	_, appErr := svc.ClientForUser(context.Background(), uuid.New())
	if appErr == nil || appErr.Code != errors.ErrCredentialUnavailable {
		t.Fatalf("error = %v, want ErrCredentialUnavailable", appErr)
	}
}

func TestClientForUserValidTokenSkipsRefresh(t *testing.T) {
	account := linkedAccount("live-token", "rt", time.Now().Add(time.Hour))
	accounts, conns, svc := newCredentialFixture(account, nil, &refreshExchanger{err: fmt.Errorf("must not refresh")})

	client, appErr := svc.ClientForUser(context.Background(), account.UserID)
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if client.CalendarID() != constants.DefaultCalendarID {
		t.Fatalf("calendar = %q, want default with no connection", client.CalendarID())
	}
	if accounts.updateCalls != 0 || conns.refreshSaved {
		t.Fatal("valid token triggered a persist")
	}
}

func TestClientForUserRefreshPersistsBeforeReturning(t *testing.T) {
	account := linkedAccount("stale-token", "rt", time.Now().Add(-time.Hour))
	refreshed := &oauth2.Token{
		AccessToken:  "fresh-token",
		RefreshToken: "rotated-rt",
		Expiry:       time.Now().Add(time.Hour),
	}
	conn := &connEntity.CalendarConnection{
		ID:         uuid.New(),
		MemberID:   account.UserID,
		Provider:   constants.ProviderGoogle,
		Status:     connEntity.StatusConnected,
		CalendarID: "team@group.calendar.google.com",
	}
	accounts, conns, svc := newCredentialFixture(account, conn, &refreshExchanger{refreshed: refreshed})

	client, appErr := svc.ClientForUser(context.Background(), account.UserID)
	if appErr != nil {
		t.Fatalf("unexpected error: %v", appErr)
	}
	if accounts.updateCalls != 1 || accounts.updatedAccess != "fresh-token" || accounts.updatedRefresh != "rotated-rt" {
		t.Fatalf("refreshed token not persisted: %+v", accounts)
	}
	if !conns.refreshSaved {
		t.Fatal("refreshed token not mirrored onto connection")
	}
	if client.CalendarID() != "team@group.calendar.google.com" {
		t.Fatalf("calendar = %q, want connection target", client.CalendarID())
	}
}

func TestClientForUserExpiredWithoutRefreshToken(t *testing.T) {
	account := linkedAccount("stale-token", "", time.Now().Add(-time.Hour))
	_, _, svc := newCredentialFixture(account, nil, &refreshExchanger{})

	_, appErr := svc.ClientForUser(context.Background(), account.UserID)
	if appErr == nil || appErr.Code != errors.ErrCredentialUnavailable {
		t.Fatalf("error = %v, want ErrCredentialUnavailable", appErr)
	}
}

func TestClientForUserRefreshFailureMarksConnection(t *testing.T) {
	account := linkedAccount("stale-token", "rt", time.Now().Add(-time.Hour))
	conn := &connEntity.CalendarConnection{
		ID:       uuid.New(),
		MemberID: account.UserID,
		Provider: constants.ProviderGoogle,
		Status:   connEntity.StatusConnected,
	}
	accounts, conns, svc := newCredentialFixture(account, conn, &refreshExchanger{err: fmt.Errorf("invalid_grant")})

	_, appErr := svc.ClientForUser(context.Background(), account.UserID)
	if appErr == nil || appErr.Code != errors.ErrOAuthProvider {
		t.Fatalf("error = %v, want ErrOAuthProvider", appErr)
	}
	if conns.erroredReason == "" {
		t.Fatal("connection not marked errored after refresh failure")
	}
	if accounts.updateCalls != 0 {
		t.Fatal("failed refresh persisted tokens")
	}
}
