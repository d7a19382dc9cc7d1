package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friotec/fieldservice-backend/pkg/config"
	"github.com/friotec/fieldservice-backend/pkg/db/models"
	"github.com/friotec/fieldservice-backend/pkg/logger"
	"github.com/friotec/fieldservice-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	publisherConsumer     = "outbox-publisher"
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// publishGuard remembers event ids already handed to Pub/Sub so a row whose
// MarkPublished was lost to a rollback is not delivered twice.
type publishGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            dbClient
	Topics        topicSource
	Repository    outboxRepository
	Registry      registryResolver
	DLQRepository dlqRepository
	Guard         publishGuard
}

// Service drains the service order outbox into Pub/Sub.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	topics       *topicCache
	repo         outboxRepository
	registry     registryResolver
	dlq          dlqRepository
	guard        publishGuard
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Topics == nil:
		return nil, errors.New("pubsub topics are required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	cfg := params.Config.Outbox
	svc := &Service{
		logg:         params.Logger,
		db:           params.DB,
		topics:       newTopicCache(params.Topics),
		repo:         params.Repository,
		registry:     params.Registry,
		dlq:          params.DLQRepository,
		guard:        params.Guard,
		batchSize:    positiveOr(cfg.BatchSize, defaultBatchSize),
		maxAttempts:  positiveOr(cfg.MaxAttempts, defaultMaxAttempts),
		pollInterval: defaultPollInterval,
		now:          time.Now,
	}
	if cfg.PollIntervalMS > 0 {
		svc.pollInterval = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}
	return svc, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run polls until ctx is cancelled. A batch that moved nothing waits one poll
// interval; a failed batch backs off exponentially.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ping(ctx); err != nil {
		return err
	}
	defer s.topics.stop()

	backoff := s.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		stats, err := s.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			wait = withJitter(backoff)
		case stats.empty():
			backoff = s.pollInterval
			wait = withJitter(s.pollInterval)
		default:
			backoff = s.pollInterval
			s.logg.Debug(s.logg.WithFields(ctx, stats.fields()), "outbox batch processed")
			if !stats.progressed() {
				wait = withJitter(s.pollInterval)
			}
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (s *Service) ping(ctx context.Context) error {
	for name, fn := range map[string]func(context.Context) error{
		"database": s.db.Ping,
		"pubsub":   s.topics.source.Ping,
	} {
		if err := fn(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
