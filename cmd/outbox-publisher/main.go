package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/friotec/fieldservice-backend/internal/bootstrap"
	"github.com/friotec/fieldservice-backend/pkg/outbox"
	"github.com/friotec/fieldservice-backend/pkg/outbox/idempotency"
	"github.com/friotec/fieldservice-backend/pkg/outbox/registry"
	"github.com/friotec/fieldservice-backend/pkg/pubsub"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, publisherConsumer)
	bootstrap.Exit(nil, "outbox publisher bootstrap failed", err)

	err = run(ctx, rt)
	if closeErr := rt.Close(); closeErr != nil {
		rt.Logger.Error(ctx, "error closing connections", closeErr)
	}
	bootstrap.Exit(rt.Logger, "outbox publisher stopped unexpectedly", err)
	rt.Logger.Info(ctx, "outbox publisher shutting down gracefully")
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg := rt.Config
	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, rt.Logger)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			rt.Logger.Error(ctx, "error closing pubsub client", err)
		}
	}()

	guard, err := idempotency.NewManager(rt.Redis, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		return fmt.Errorf("publish guard: %w", err)
	}
	events, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return fmt.Errorf("event registry: %w", err)
	}
	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        rt.Logger,
		DB:            rt.DB,
		Topics:        client,
		Repository:    outbox.NewRepository(rt.DB.DB()),
		Registry:      events,
		DLQRepository: outbox.NewDLQRepository(rt.DB.DB()),
		Guard:         guard,
	})
	if err != nil {
		return err
	}

	ctx = rt.Context(ctx, nil)
	rt.Logger.Info(ctx, "starting outbox publisher")
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
