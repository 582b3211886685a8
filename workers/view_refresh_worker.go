package workers

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/VeinDevTtv/ugcbounty-sub000/services"
)

// ViewRefresher is satisfied by *services.RefreshService.
type ViewRefresher interface {
	RefreshAll(ctx context.Context) (services.RefreshReport, error)
}

// StartViewRefreshScheduler runs a refresh every interval until ctx ends.
// Runs never overlap.
func StartViewRefreshScheduler(ctx context.Context, refresher ViewRefresher, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			runCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()
			if _, err := refresher.RefreshAll(runCtx); err != nil {
				zap.L().Error("[SCHEDULER] view refresh failed", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			zap.L().Warn("[SCHEDULER] shutdown error", zap.Error(err))
		}
	}()

	zap.L().Info("[SCHEDULER] view refresh scheduled", zap.Duration("every", interval))
	return sched, nil
}
