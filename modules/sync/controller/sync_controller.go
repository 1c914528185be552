package controller

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/controller"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/errors"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/dto"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/service"
)

type SyncController struct {
	controller.BaseController
	SyncService service.SyncService
}

func NewSyncController(syncService service.SyncService) *SyncController {
	return &SyncController{
		BaseController: controller.NewBaseController(),
		SyncService:    syncService,
	}
}

// Run triggers one reconciliation pass and returns its summary.
func (controller *SyncController) Run(c echo.Context) error {
	ctx := c.Request().Context()

	opts := dto.RunOptions{}

	limit, err := parseIntParam(c.QueryParam("limit"))
	if err != nil {
		return controller.BadRequest(errors.ErrInvalidInput, "Invalid limit parameter", nil)
	}
	opts.Limit = limit

	lookahead, err := parseIntParam(c.QueryParam("lookaheadHours"))
	if err != nil {
		return controller.BadRequest(errors.ErrInvalidInput, "Invalid lookaheadHours parameter", nil)
	}
	opts.LookaheadHours = lookahead

	result, appErr := controller.SyncService.Run(ctx, opts)
	if appErr != nil {
		return controller.ErrorResponse(c, appErr)
	}

	return controller.SuccessResponse(c, result, "Sync run complete")
}

// parseIntParam accepts any finite numeric string, truncating fractions the
// way a loosely typed caller would expect. Empty means "use the default".
func parseIntParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return int(f), nil
}
