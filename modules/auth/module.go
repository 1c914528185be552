package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/cache"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/database"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/middleware"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/controller"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/repository"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/router"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/service"
	connRepository "github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/repository"
	connService "github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/service"
	directoryRepository "github.com/Yvan2XEro/calendar-sync-sub002/modules/directory/repository"
)

func Init(e *echo.Echo, db database.IDatabase, c cache.Cache) {
	accountRepo := repository.NewLinkedAccountRepository(db)
	connRepo := connRepository.NewConnectionRepository(db)
	connSvc := connService.NewConnectionService(connRepo)
	directoryRepo := directoryRepository.NewDirectoryRepository(db)

	authorizationSvc := service.NewAuthorizationService(
		connSvc,
		accountRepo,
		service.NewGoogleExchanger,
		service.NewGoogleIdentityVerifier(),
	)

	ctrl := controller.NewAuthController(authorizationSvc, directoryRepo)
	mw := middleware.NewMiddleware(c)

	router.NewAuthRouter(ctrl).Setup(e, mw)
}

// GetCredentialService builds the credential provider used by other modules.
func GetCredentialService(db database.IDatabase) service.CredentialService {
	accountRepo := repository.NewLinkedAccountRepository(db)
	connRepo := connRepository.NewConnectionRepository(db)
	return service.NewCredentialService(accountRepo, connRepo, service.NewGoogleExchanger, nil)
}
