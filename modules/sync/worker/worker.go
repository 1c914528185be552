package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/config"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/constants"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/dto"
	"github.com/Yvan2XEro/calendar-sync-sub002/modules/sync/service"
)

// Worker runs scheduled reconciliation passes off a redis-backed queue.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

// SyncTaskPayload carries run options for a queued reconciliation task.
type SyncTaskPayload struct {
	Limit          int `json:"limit"`
	LookaheadHours int `json:"lookahead_hours"`
}

func New(cfg *config.Config, syncService service.SyncService) *Worker {
	schedule := cfg.Sync.Schedule
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 1,
	})

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if schedule != "" {
		task := asynq.NewTask(constants.SyncTaskType, nil)
		if _, err := scheduler.Register(schedule, task); err != nil {
			logger.Error("SyncWorker:RegisterSchedule:Error", "error", err, "schedule", schedule)
		}
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(constants.SyncTaskType, func(ctx context.Context, t *asynq.Task) error {
		var payload SyncTaskPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				logger.Warn("SyncWorker:HandleTask:BadPayload", "error", err)
			}
		}

		result, appErr := syncService.Run(ctx, dto.RunOptions{
			Limit:          payload.Limit,
			LookaheadHours: payload.LookaheadHours,
		})
		if appErr != nil {
			logger.Error("SyncWorker:HandleTask:Error", "error", appErr)
			return appErr
		}
		logger.Info("SyncWorker:HandleTask:Done",
			"accounts_succeeded", result.Summary.AccountsSucceeded,
			"accounts_failed", result.Summary.AccountsFailed,
		)
		return nil
	})

	return &Worker{server: server, scheduler: scheduler, mux: mux}
}

// Start launches the queue consumer and the scheduler in the background.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start sync worker: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("failed to start sync scheduler: %w", err)
	}
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}
