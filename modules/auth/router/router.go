package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/middleware"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/controller"
)

type AuthRouter struct {
	Controller *controller.AuthController
}

func NewAuthRouter(ctrl *controller.AuthController) *AuthRouter {
	return &AuthRouter{Controller: ctrl}
}

func (r *AuthRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	public := v1.Group("/public")
	public.GET("/calendar/oauth/callback", r.Controller.HandleCallback)

	private := v1.Group("/private", mw.AuthMiddleware())
	private.POST("/admin/organizations/:slug/calendar/connections", r.Controller.StartAuthorization)
}
