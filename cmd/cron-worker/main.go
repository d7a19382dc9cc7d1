package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/friotec/fieldservice-backend/internal/bootstrap"
	"github.com/friotec/fieldservice-backend/internal/cron"
	"github.com/friotec/fieldservice-backend/internal/serviceorders"
	"github.com/friotec/fieldservice-backend/pkg/config"
	"github.com/friotec/fieldservice-backend/pkg/metrics"
	"github.com/friotec/fieldservice-backend/pkg/outbox"
)

const serviceKind = "cron-worker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, serviceKind)
	bootstrap.Exit(nil, "cron worker bootstrap failed", err)

	err = run(ctx, rt)
	if closeErr := rt.Close(); closeErr != nil {
		rt.Logger.Error(ctx, "error closing connections", closeErr)
	}
	bootstrap.Exit(rt.Logger, "cron worker stopped unexpectedly", err)
	rt.Logger.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg := rt.Config
	jobs, err := buildJobs(rt)
	if err != nil {
		return err
	}
	lock, err := cron.NewRedisLock(rt.Redis, serviceKind, cfg.Cron.LockTTL)
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   rt.Logger,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	ctx = rt.Context(ctx, map[string]any{"jobs": len(jobs.Jobs())})
	rt.Logger.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildJobs(rt *bootstrap.Runtime) (*cron.Registry, error) {
	jobs := cron.NewRegistry()

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        rt.Logger,
		DB:            rt.DB,
		Repository:    outbox.NewRepository(rt.DB.DB()),
		RetentionDays: rt.Config.Outbox.RetentionDays,
		MinAttempts:   rt.Config.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}
	jobs.Register(retention)

	if rt.Config.Orders.Strategy() != config.OrderCodeStrategySequence {
		return jobs, nil
	}
	sequence, err := cron.NewCodeSequenceJob(cron.CodeSequenceJobParams{
		Logger: rt.Logger,
		Orders: serviceorders.NewRepository(rt.DB.DB()),
		Store:  rt.Redis,
	})
	if err != nil {
		return nil, fmt.Errorf("code sequence job: %w", err)
	}
	jobs.Register(sequence)
	return jobs, nil
}
