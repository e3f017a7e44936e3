package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultAggregateCron = "*/15 * * * *"
	aggregateJobTimeout  = 2 * time.Minute
)

// AggregateRefresher recomputes client booking aggregates from the
// reservation log and reports how many clients were written.
type AggregateRefresher interface {
	RefreshAggregates(ctx context.Context) (int, error)
}

// RegisterClientAggregateJob schedules the client aggregate refresh on svc.
func RegisterClientAggregateJob(svc *Service, refresher AggregateRefresher, cronExpr string) error {
	if refresher == nil {
		return fmt.Errorf("client aggregate job requires a refresher")
	}
	if cronExpr == "" {
		cronExpr = DefaultAggregateCron
	}

	jobName := "client_aggregates"
	jobLogger := log.With().
		Str("component", "client_aggregates_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := svc.AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), aggregateJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		updated, err := refresher.RefreshAggregates(ctx)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to refresh client aggregates")
			return
		}
		jobLogger.Info().Int("clients_updated", updated).Msg("Client aggregates refreshed")
	})
	return err
}
