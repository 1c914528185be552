package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/cache"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/constants"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/controller"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/utils"
)

const ContextKeyUserID = "user_id"

type Middleware struct {
	cache cache.Cache
}

func NewMiddleware(c cache.Cache) *Middleware {
	return &Middleware{cache: c}
}

// AuthMiddleware validates the Bearer token and stores the caller's user id
// in the request context.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return controller.NewErrorResponse(http.StatusUnauthorized, errors.ErrMissingAuthorizationHeader, "missing Authorization header")
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				return controller.NewErrorResponse(http.StatusUnauthorized, errors.ErrInvalidTokenFormat, "expected Bearer token")
			}

			if m.cache != nil {
				blacklisted, err := m.cache.IsTokenBlacklisted(c.Request().Context(), token)
				if err != nil {
					logger.Error("Middleware:AuthMiddleware:IsTokenBlacklisted:Error", "error", err)
					return controller.NewErrorResponse(http.StatusInternalServerError, errors.ErrInternalServer, "failed to check token")
				}
				if blacklisted {
					return controller.NewErrorResponse(http.StatusUnauthorized, errors.ErrUnauthorized, "token is blacklisted")
				}
			}

			tokenData, err := utils.ValidateAndParseToken(token)
			if err != nil {
				return controller.NewErrorResponse(http.StatusUnauthorized, errors.ErrUnauthorized, "invalid token")
			}
			if tokenData.Scope != constants.ScopeTokenAccess {
				return controller.NewErrorResponse(http.StatusUnauthorized, errors.ErrUnauthorized, "invalid token scope")
			}

			c.Set(ContextKeyUserID, tokenData.UserID)
			return next(c)
		}
	}
}

// SharedSecretMiddleware gates the internal reconciliation trigger behind a
// pre-shared header value.
func (m *Middleware) SharedSecretMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return controller.NewErrorResponse(http.StatusUnauthorized, errors.ErrConfigMissing, "sync secret not configured")
			}
			got := c.Request().Header.Get(constants.SyncSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return controller.NewErrorResponse(http.StatusUnauthorized, errors.ErrUnauthorized, "invalid sync secret")
			}
			return next(c)
		}
	}
}
