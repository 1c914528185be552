package sync

import (
	"github.com/labstack/echo/v4"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/cache"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/config"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/database"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/middleware"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth"
	authRepository "github.com/Yvan2XEro/calendar-sync-sub002/modules/auth/repository"
	eventRepository "github.com/Yvan2XEro/calendar-sync-sub002/modules/event/repository"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/controller"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/router"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/service"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/worker"
)

// Init wires the reconciliation engine behind the internal HTTP trigger and,
// when a schedule is configured, the background worker. The returned worker
// is nil when scheduling is disabled.
func Init(e *echo.Echo, db database.IDatabase, c cache.Cache, cfg *config.Config) *worker.Worker {
	eventRepo := eventRepository.NewEventRepository(db)
	accountRepo := authRepository.NewLinkedAccountRepository(db)
	credentials := auth.GetCredentialService(db)
	archiver := service.NewS3ReportArchiver(cfg)

	syncSvc := service.NewSyncService(eventRepo, accountRepo, credentials, archiver)

	ctrl := controller.NewSyncController(syncSvc)
	mw := middleware.NewMiddleware(c)
	router.NewSyncRouter(ctrl).Setup(e, mw, cfg.Sync.Secret)

	if cfg.Sync.Schedule == "" {
		return nil
	}

	w := worker.New(cfg, syncSvc)
	if err := w.Start(); err != nil {
		logger.Error("SyncModule:Init:WorkerStartFailed", "error", err)
		return nil
	}
	return w
}
