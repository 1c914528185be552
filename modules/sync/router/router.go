package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/middleware"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/controller"
)

type SyncRouter struct {
	Controller *controller.SyncController
}

func NewSyncRouter(ctrl *controller.SyncController) *SyncRouter {
	return &SyncRouter{Controller: ctrl}
}

func (r *SyncRouter) Setup(e *echo.Echo, mw *middleware.Middleware, syncSecret string) {
	internal := e.Group("/api/v1/internal", mw.SharedSecretMiddleware(syncSecret))
	internal.POST("/sync/run", r.Controller.Run)
}
