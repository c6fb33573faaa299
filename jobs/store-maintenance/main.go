package main

import (
	"context"
	"log/slog"
	"time"
)

func main() {
	slog.Info("Starting store maintenance job")
	start := time.Now()

	if conf.RunTasks.CleanUpUnverifiedUsers {
		cleanUpUnverifiedUsers()
	}
	if conf.RunTasks.RemoveOrphanedRefreshTokens {
		removeOrphanedRefreshTokens()
	}

	slog.Info("Store maintenance job completed", slog.Duration("duration", time.Since(start)))
}

func cleanUpUnverifiedUsers() {
	slog.Debug("Start cleaning up unverified users")

	createdBefore := time.Now().Add(-conf.MaintenanceConfig.DeleteUnverifiedUsersAfter)
	count, err := portalDBService.DeleteUnverifiedUsers(context.Background(), createdBefore)
	if err != nil {
		slog.Error("Error cleaning up unverified users", slog.String("error", err.Error()))
		return
	}

	slog.Info("Clean up unverified users finished", slog.Int("count", int(count)))
}

func removeOrphanedRefreshTokens() {
	slog.Debug("Start removing orphaned refresh tokens")

	count, err := portalDBService.RemoveOrphanedRefreshTokens(context.Background())
	if err != nil {
		slog.Error("Error removing orphaned refresh tokens", slog.String("error", err.Error()))
		return
	}

	slog.Info("Removing orphaned refresh tokens finished", slog.Int("count", int(count)))
}
