package controller

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/controller"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/middleware"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/dto"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/service"
	directoryRepo "github.com/Yvan2XEro/calendar-sync-sub002/modules/directory/repository"
)

type AuthController struct {
	controller.BaseController
	AuthorizationService service.AuthorizationService
	Directory            directoryRepo.DirectoryRepository
}

func NewAuthController(authorizationService service.AuthorizationService, directory directoryRepo.DirectoryRepository) *AuthController {
	return &AuthController{
		BaseController:       controller.NewBaseController(),
		AuthorizationService: authorizationService,
		Directory:            directory,
	}
}

// StartAuthorization begins the OAuth flow for one organization member.
func (controller *AuthController) StartAuthorization(c echo.Context) error {
	ctx := c.Request().Context()

	actorID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return controller.Unauthorized(errors.ErrUnauthorized, "Invalid session")
	}

	requestData := new(dto.StartAuthorizationRequest)
	if err := c.Bind(requestData); err != nil {
		return controller.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", nil)
	}
	memberID, err := uuid.Parse(requestData.MemberID)
	if err != nil {
		return controller.BadRequest(errors.ErrInvalidInput, "Invalid member id", nil)
	}

	org, err := controller.Directory.GetOrganizationBySlug(ctx, c.Param("slug"))
	if err != nil {
		return controller.ErrorResponse(c, err)
	}
	if org == nil {
		return controller.NotFound(errors.ErrNotFound, "Organization not found", nil)
	}

	isAdmin, err := controller.Directory.IsOrgAdmin(ctx, actorID, org.ID)
	if err != nil {
		return controller.ErrorResponse(c, err)
	}
	if !isAdmin {
		return controller.Forbidden(errors.ErrForbidden, "Caller is not an organization admin", nil)
	}

	isMember, err := controller.Directory.IsOrgMember(ctx, memberID, org.ID)
	if err != nil {
		return controller.ErrorResponse(c, err)
	}
	if !isMember {
		return controller.Forbidden(errors.ErrForbidden, "Member does not belong to this organization", nil)
	}

	startResponse, appErr := controller.AuthorizationService.StartAuthorization(ctx, memberID, org.Slug, actorID, requestData.ReturnTo)
	if appErr != nil {
		return controller.ErrorResponse(c, appErr)
	}

	return controller.SuccessResponse(c, startResponse, "Authorization started")
}

// HandleCallback completes the OAuth flow and redirects the browser back
// to the application.
func (controller *AuthController) HandleCallback(c echo.Context) error {
	ctx := c.Request().Context()

	redirect, appErr := controller.AuthorizationService.CompleteAuthorization(
		ctx,
		c.QueryParam("state"),
		c.QueryParam("code"),
		c.QueryParam("error"),
		c.QueryParam("error_description"),
	)
	if appErr != nil {
		return controller.ErrorResponse(c, appErr)
	}

	return c.Redirect(http.StatusFound, redirect.Location())
}
