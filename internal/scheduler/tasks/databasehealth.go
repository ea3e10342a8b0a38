package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/metadex/metadex/internal/health"
	"github.com/metadex/metadex/internal/scheduler"
)

// DatabaseHealthID is the id of the database health task.
const DatabaseHealthID = "database-health"

// RegisterDatabaseHealthTask registers a periodic database ping.
func RegisterDatabaseHealthTask(sched *scheduler.Scheduler, checker *health.DatabaseChecker, logger *zerolog.Logger) error {
	log := logger.With().Str("task", DatabaseHealthID).Logger()
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          DatabaseHealthID,
		Name:        "Database health",
		Description: "Pings the profile database and updates its health status",
		Cron:        "*/5 * * * *",
		Func: func(ctx context.Context) error {
			if err := checker.Check(ctx); err != nil {
				log.Warn().Err(err).Msg("Database health check failed")
				return err
			}
			return nil
		},
		RunOnStart: true,
	})
}
