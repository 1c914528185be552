package admin

import (
	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/cache"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/database"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/middleware"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/admin/controller"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/admin/router"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/admin/service"
	connRepository "github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/repository"
	connService "github.com/Yvan2XEro/calendar-sync-sub002/modules/connection/service"
	directoryRepository "github.com/Yvan2XEro/calendar-sync-sub002/modules/directory/repository"
)

func Init(e *echo.Echo, db database.IDatabase, c cache.Cache) {
	connRepo := connRepository.NewConnectionRepository(db)
	connSvc := connService.NewConnectionService(connRepo)
	directoryRepo := directoryRepository.NewDirectoryRepository(db)

	adminSvc := service.NewAdminService(connSvc, directoryRepo)

	ctrl := controller.NewAdminController(adminSvc)
	mw := middleware.NewMiddleware(c)
	router.NewAdminRouter(ctrl).Setup(e, mw)
}
