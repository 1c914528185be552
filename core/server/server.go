package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/cache"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/config"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/constants"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/database"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/admin"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/auth"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync"
)

// Run boots the service and blocks until SIGINT/SIGTERM.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Server.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}
	defer db.Close()

	c, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		logger.Warn("Server:Run:RedisUnavailable", "error", err)
		c = nil
	} else {
		defer c.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(ctx echo.Context, v echoMiddleware.RequestLoggerValues) error {
			logger.Info("Request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	auth.Init(e, db, c)
	admin.Init(e, db, c)
	syncWorker := sync.Init(e, db, c, cfg)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:StartFailed", "error", err)
		}
	}()
	logger.Info("Server:Run:Started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server:Run:ShuttingDown")
	if syncWorker != nil {
		syncWorker.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
