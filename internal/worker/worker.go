package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"insurance-service/internal/config"
	"insurance-service/internal/services"

	"github.com/robfig/cron/v3"
)

// Worker runs the background jobs that keep the system moving without
// client traffic: rotating the replay protection ring and expiring
// policies past their end timestamp.
type Worker struct {
	cron          *cron.Cron
	oracleService *services.OracleService
	policyService *services.PolicyService
	cfg           config.WorkerConfig
}

func New(cfg config.WorkerConfig, oracleService *services.OracleService, policyService *services.PolicyService) *Worker {
	return &Worker{
		cron:          cron.New(),
		oracleService: oracleService,
		policyService: policyService,
		cfg:           cfg,
	}
}

// Start schedules the crank and expiration jobs and starts the cron loop.
func (w *Worker) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(every(w.cfg.CrankInterval), func() {
		w.runCrank(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule crank job: %w", err)
	}

	_, err = w.cron.AddFunc(every(w.cfg.ExpirationInterval), func() {
		w.runExpirationSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule expiration sweep: %w", err)
	}

	w.cron.Start()
	slog.Info("Background worker started",
		"crank_interval", w.cfg.CrankInterval,
		"expiration_interval", w.cfg.ExpirationInterval,
	)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (w *Worker) Stop() {
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	slog.Info("Background worker stopped")
}

func (w *Worker) runCrank(ctx context.Context) {
	if err := w.oracleService.Crank(ctx); err != nil {
		slog.Error("Crank failed", "error", err)
		return
	}
	slog.Debug("Replay protection ring rotated")
}

func (w *Worker) runExpirationSweep(ctx context.Context) {
	expired, err := w.policyService.ExpireDuePolicies(ctx, time.Now())
	if err != nil {
		slog.Error("Expiration sweep failed", "error", err)
		return
	}
	if expired > 0 {
		slog.Info("Expired policies past end timestamp", "count", expired)
	}
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
