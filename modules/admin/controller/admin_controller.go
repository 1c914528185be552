package controller

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/controller"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/middleware"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/admin/dto"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/admin/service"
)

type AdminController struct {
	controller.BaseController
	AdminService service.AdminService
}

func NewAdminController(adminService service.AdminService) *AdminController {
	return &AdminController{
		BaseController: controller.NewBaseController(),
		AdminService:   adminService,
	}
}

func (controller *AdminController) actor(c echo.Context) (uuid.UUID, bool) {
	actorID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	return actorID, ok
}

func (controller *AdminController) ListConnections(c echo.Context) error {
	ctx := c.Request().Context()

	actorID, ok := controller.actor(c)
	if !ok {
		return controller.Unauthorized(errors.ErrUnauthorized, "Invalid session")
	}

	connections, appErr := controller.AdminService.ListConnections(ctx, actorID, c.Param("slug"))
	if appErr != nil {
		return controller.ErrorResponse(c, appErr)
	}

	return controller.SuccessResponse(c, connections, "Connections retrieved")
}

func (controller *AdminController) Disconnect(c echo.Context) error {
	ctx := c.Request().Context()

	actorID, ok := controller.actor(c)
	if !ok {
		return controller.Unauthorized(errors.ErrUnauthorized, "Invalid session")
	}

	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return controller.BadRequest(errors.ErrInvalidInput, "Invalid connection id", nil)
	}

	if appErr := controller.AdminService.Disconnect(ctx, actorID, c.Param("slug"), connectionID); appErr != nil {
		return controller.ErrorResponse(c, appErr)
	}

	return controller.SuccessResponse(c, nil, "Connection disconnected")
}

func (controller *AdminController) UpdateCalendarTarget(c echo.Context) error {
	ctx := c.Request().Context()

	actorID, ok := controller.actor(c)
	if !ok {
		return controller.Unauthorized(errors.ErrUnauthorized, "Invalid session")
	}

	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return controller.BadRequest(errors.ErrInvalidInput, "Invalid connection id", nil)
	}

	requestData := new(dto.UpdateCalendarTargetRequest)
	if err := c.Bind(requestData); err != nil {
		return controller.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", nil)
	}

	if appErr := controller.AdminService.UpdateCalendarTarget(ctx, actorID, c.Param("slug"), connectionID, requestData.CalendarID); appErr != nil {
		return controller.ErrorResponse(c, appErr)
	}

	return controller.SuccessResponse(c, nil, "Calendar target updated")
}
