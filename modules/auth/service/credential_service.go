package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/constants"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	authRepo "github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/repository"
	connRepo "github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/repository"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/provider"
)

// ClientFactory turns a usable token into a provider client. Swapped for a
// fake in tests.
type ClientFactory func(ctx context.Context, token *oauth2.Token, calendarID string) (provider.Client, error)

// CredentialService resolves a usable, auto-refreshing provider client for an
// internal user.
type CredentialService interface {
	ClientForUser(ctx context.Context, userID uuid.UUID) (provider.Client, *errors.AppError)
}

type credentialService struct {
	accounts     authRepo.LinkedAccountRepository
	connections  connRepo.ConnectionRepository
	newExchanger ExchangerFactory
	newClient    ClientFactory
	group        singleflight.Group
}

func NewCredentialService(
	accounts authRepo.LinkedAccountRepository,
	connections connRepo.ConnectionRepository,
	newExchanger ExchangerFactory,
	newClient ClientFactory,
) CredentialService {
	s := &credentialService{
		accounts:     accounts,
		connections:  connections,
		newExchanger: newExchanger,
		newClient:    newClient,
	}
	if s.newClient == nil {
		s.newClient = defaultClientFactory(newExchanger)
	}
	return s
}

func defaultClientFactory(newExchanger ExchangerFactory) ClientFactory {
	return func(ctx context.Context, token *oauth2.Token, calendarID string) (provider.Client, error) {
		exchanger, err := newExchanger()
		if err != nil {
			return nil, err
		}
		return provider.NewGoogleClient(ctx, exchanger.TokenSource(ctx, token), calendarID)
	}
}

func (s *credentialService) ClientForUser(ctx context.Context, userID uuid.UUID) (provider.Client, *errors.AppError) {
	// Single-flight per user so concurrent callers cannot rotate the refresh
	// token independently.
	v, err, _ := s.group.Do(userID.String(), func() (any, error) {
		return s.resolveToken(ctx, userID)
	})
	if err != nil {
		if ae, ok := err.(*errors.AppError); ok {
			return nil, ae
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to resolve credentials", err)
	}
	token := v.(*oauth2.Token)

	calendarID := s.targetCalendarID(ctx, userID)

	client, err := s.newClient(ctx, token, calendarID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrExternalAPI, "failed to build provider client", err)
	}
	return client, nil
}

// resolveToken returns a non-expired token for the user, refreshing and
// persisting it first when needed.
func (s *credentialService) resolveToken(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	account, err := s.accounts.GetActiveByUserAndProvider(ctx, userID, constants.ProviderGoogle)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to look up linked account", err)
	}
	if account == nil || account.AccessToken == nil {
		return nil, errors.NewAppError(errors.ErrCredentialUnavailable, "no linked provider account", nil)
	}

	token := &oauth2.Token{AccessToken: *account.AccessToken}
	if account.RefreshToken != nil {
		token.RefreshToken = *account.RefreshToken
	}
	if account.TokenExpiresAt != nil {
		token.Expiry = *account.TokenExpiresAt
	}

	if token.Valid() {
		return token, nil
	}
	if token.RefreshToken == "" {
		return nil, errors.NewAppError(errors.ErrCredentialUnavailable, "access token expired and no refresh token available", nil)
	}

	exchanger, err := s.newExchanger()
	if err != nil {
		return nil, errors.NewAppError(errors.ErrConfigMissing, "OAuth client is not configured", err)
	}

	refreshed, err := exchanger.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken}).Token()
	if err != nil {
		logger.Error("CredentialService:resolveToken:Refresh:Error", "error", err, "user_id", userID)
		s.markConnectionError(ctx, userID, "failed to refresh provider token")
		return nil, errors.NewAppError(errors.ErrOAuthProvider, "failed to refresh provider token", err)
	}

	// Persist before returning so the rotated refresh token is never lost.
	if err := s.accounts.UpdateTokens(ctx, account.ID, refreshed.AccessToken, refreshed.RefreshToken, refreshed.Expiry); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to persist refreshed token", err)
	}
	if err := s.connections.SaveRefreshedToken(ctx, userID, constants.ProviderGoogle, refreshed.AccessToken, refreshed.RefreshToken, refreshed.Expiry); err != nil {
		logger.Error("CredentialService:resolveToken:SaveRefreshedToken:Error", "error", err, "user_id", userID)
	}

	return refreshed, nil
}

// targetCalendarID prefers the member's connected calendar target, falling
// back to the provider default.
func (s *credentialService) targetCalendarID(ctx context.Context, userID uuid.UUID) string {
	conn, err := s.connections.GetByMemberAndProvider(ctx, userID, constants.ProviderGoogle)
	if err != nil || conn == nil || conn.CalendarID == "" {
		return constants.DefaultCalendarID
	}
	return conn.CalendarID
}

func (s *credentialService) markConnectionError(ctx context.Context, userID uuid.UUID, reason string) {
	conn, err := s.connections.GetByMemberAndProvider(ctx, userID, constants.ProviderGoogle)
	if err != nil || conn == nil {
		return
	}
	if err := s.connections.MarkError(ctx, conn.ID, reason); err != nil {
		logger.Error("CredentialService:markConnectionError:Error", "error", err, "connection_id", conn.ID)
	}
}
