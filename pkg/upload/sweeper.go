package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"connkit/pkg/logger"
	"connkit/pkg/telemetry"
)

// StartSweeper starts the cron-scheduled orphan sweep. An empty cron
// expression defaults to hourly. Returns a cancel func stopping the
// scheduler goroutine.
func StartSweeper(ctx context.Context, cronExpr string, maxAge time.Duration) (context.CancelFunc, error) {
	if !Ready() {
		return nil, fmt.Errorf("upload ledger not opened")
	}
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweeper_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid sweep cron expression: %s", cronExpr)
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}

	logger.Info("sweeper_enabled", "cron", cronExpr, "max_age", maxAge.String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, maxAge)
	return cancel, nil
}

// RunImmediate triggers a single sweep, for tests and admin triggers.
func RunImmediate(maxAge time.Duration) (int, error) {
	return runOnce(maxAge)
}

// runScheduler computes the next tick for the cron expression via gronx
// and sleeps until then, sweeping on each tick.
func runScheduler(ctx context.Context, cronExpr string, maxAge time.Duration) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweeper_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("sweeper_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			wait = time.Second
		}
		select {
		case <-time.After(wait):
			if _, err := runOnce(maxAge); err != nil {
				logger.Error("sweeper_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		}
	}
}

func runOnce(maxAge time.Duration) (int, error) {
	telemetry.SweepRunsTotal.Inc()
	removed, err := Sweep(maxAge)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		telemetry.SweepRemovedTotal.Add(float64(removed))
		logger.Info("sweep_completed", "removed", removed)
	}
	return removed, nil
}
