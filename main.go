package main

import (
	"github.com/joho/godotenv"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
