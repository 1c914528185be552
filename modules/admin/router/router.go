package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/middleware"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/admin/controller"
)

type AdminRouter struct {
	Controller *controller.AdminController
}

func NewAdminRouter(ctrl *controller.AdminController) *AdminRouter {
	return &AdminRouter{Controller: ctrl}
}

func (r *AdminRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	private := e.Group("/api/v1/private", mw.AuthMiddleware())

	connections := private.Group("/admin/organizations/:slug/calendar/connections")
	connections.GET("", r.Controller.ListConnections)
	connections.DELETE("/:id", r.Controller.Disconnect)
	connections.PUT("/:id/calendar", r.Controller.UpdateCalendarTarget)
}
