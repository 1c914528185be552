package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/constants"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/utils"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/dto"
	authEntity "github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/entity"
	authRepo "github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/repository"
	connEntity "github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/entity"
	connService "github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/service"
)

// AuthorizationService drives the OAuth connection state machine:
// pending -> {connected | error}, error/connected -> pending on reconnect.
type AuthorizationService interface {
	StartAuthorization(ctx context.Context, memberID uuid.UUID, orgSlug string, actorID uuid.UUID, returnTo string) (*dto.StartAuthorizationResponse, *errors.AppError)
	CompleteAuthorization(ctx context.Context, rawState string, code string, providerError string, providerErrorDescription string) (*dto.CallbackRedirect, *errors.AppError)
}

type authorizationService struct {
	connections  connService.ConnectionService
	accounts     authRepo.LinkedAccountRepository
	newExchanger ExchangerFactory
	verifier     IdentityVerifier
}

func NewAuthorizationService(
	connections connService.ConnectionService,
	accounts authRepo.LinkedAccountRepository,
	newExchanger ExchangerFactory,
	verifier IdentityVerifier,
) AuthorizationService {
	return &authorizationService{
		connections:  connections,
		accounts:     accounts,
		newExchanger: newExchanger,
		verifier:     verifier,
	}
}

func (s *authorizationService) StartAuthorization(ctx context.Context, memberID uuid.UUID, orgSlug string, actorID uuid.UUID, returnTo string) (*dto.StartAuthorizationResponse, *errors.AppError) {
	exchanger, err := s.newExchanger()
	if err != nil {
		return nil, errors.NewAppError(errors.ErrConfigMissing, "OAuth client is not configured", err)
	}

	nonce := generateStateToken()
	now := time.Now().UTC()
	actor := actorID.String()
	patch := connEntity.ConnectionMetadata{
		LastConnectionStartAt: &now,
		LastConnectionStartBy: &actor,
	}

	connectionID, appErr := s.connections.UpsertPending(ctx, memberID, constants.ProviderGoogle, nonce, patch)
	if appErr != nil {
		return nil, appErr
	}

	blob := dto.StateBlob{
		ConnectionID: connectionID,
		Org:          orgSlug,
		Token:        nonce,
		ReturnTo:     returnTo,
	}
	state, err := blob.Encode()
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to encode state", err)
	}

	logger.Info("AuthorizationService:StartAuthorization",
		"connection_id", connectionID,
		"member_id", memberID,
		"organization", orgSlug,
	)

	return &dto.StartAuthorizationResponse{
		AuthorizationURL: exchanger.AuthCodeURL(state),
		ConnectionID:     connectionID.String(),
	}, nil
}

func (s *authorizationService) CompleteAuthorization(ctx context.Context, rawState string, code string, providerError string, providerErrorDescription string) (*dto.CallbackRedirect, *errors.AppError) {
	blob, err := dto.DecodeStateBlob(rawState)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrOAuthStateInvalid, "invalid state parameter", err)
	}

	conn, appErr := s.connections.Get(ctx, blob.ConnectionID)
	if appErr != nil {
		return nil, appErr
	}
	// The stored stateToken is a single-use capability: anything short of an
	// exact match leaves the connection untouched.
	if conn == nil || conn.StateToken == nil || *conn.StateToken != blob.Token {
		return nil, errors.NewAppError(errors.ErrOAuthStateInvalid, "state token does not match", nil)
	}

	redirect := dto.CallbackRedirect{
		Path:         sanitizeReturnTo(blob.ReturnTo),
		Organization: blob.Org,
	}

	if providerError != "" || code == "" {
		reason := providerError
		if providerErrorDescription != "" {
			reason = providerError + ": " + providerErrorDescription
		}
		if reason == "" {
			reason = constants.MissingAuthCodeReason
		}
		return s.failAuthorization(ctx, conn.ID, redirect, reason)
	}

	exchanger, err := s.newExchanger()
	if err != nil {
		return s.failAuthorization(ctx, conn.ID, redirect, "OAuth client is not configured")
	}

	token, err := exchanger.Exchange(ctx, code)
	if err != nil {
		logger.Error("AuthorizationService:CompleteAuthorization:Exchange:Error", "error", err, "connection_id", conn.ID)
		return s.failAuthorization(ctx, conn.ID, redirect, "failed to exchange authorization code")
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return s.failAuthorization(ctx, conn.ID, redirect, "provider response is missing an identity token")
	}

	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		logger.Error("AuthorizationService:CompleteAuthorization:Verify:Error", "error", err, "connection_id", conn.ID)
		return s.failAuthorization(ctx, conn.ID, redirect, "failed to verify provider identity")
	}

	scope, _ := token.Extra("scope").(string)
	creds := connEntity.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		Scope:        scope,
	}

	calendarID := conn.CalendarID
	if calendarID == "" {
		calendarID = constants.DefaultCalendarID
	}

	if appErr := s.connections.CompleteConnection(ctx, conn.ID, creds, claims.Email, calendarID); appErr != nil {
		return nil, appErr
	}

	// Mirror the tokens onto the linked account so the credential provider
	// can resolve this user without consulting the connection.
	expiresAt := token.Expiry
	account := &authEntity.LinkedAccount{
		UserID:         conn.MemberID,
		Provider:       constants.ProviderGoogle,
		ProviderEmail:  &claims.Email,
		AccessToken:    &token.AccessToken,
		TokenExpiresAt: &expiresAt,
	}
	if token.RefreshToken != "" {
		account.RefreshToken = &token.RefreshToken
	}
	if err := s.accounts.SaveTokens(ctx, account); err != nil {
		logger.Error("AuthorizationService:CompleteAuthorization:SaveTokens:Error", "error", err, "member_id", conn.MemberID)
	}

	logger.Info("AuthorizationService:CompleteAuthorization:Connected",
		"connection_id", conn.ID,
		"member_id", conn.MemberID,
		"account_email", claims.Email,
	)

	redirect.Status = dto.CallbackStatusSuccess
	return &redirect, nil
}

func (s *authorizationService) failAuthorization(ctx context.Context, connectionID uuid.UUID, redirect dto.CallbackRedirect, reason string) (*dto.CallbackRedirect, *errors.AppError) {
	if appErr := s.connections.MarkError(ctx, connectionID, reason); appErr != nil {
		return nil, appErr
	}
	redirect.Status = dto.CallbackStatusError
	redirect.Message = reason
	return &redirect, nil
}

func generateStateToken() string {
	return utils.GenerateRandomString(constants.StateTokenLength)
}

// sanitizeReturnTo only accepts site-relative paths.
func sanitizeReturnTo(returnTo string) string {
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return constants.DefaultCallbackReturn
	}
	return returnTo
}
