package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friotec/fieldservice-backend/pkg/db/models"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	"github.com/friotec/fieldservice-backend/pkg/outbox/registry"
)

type outcome int

const (
	outcomePublished outcome = iota
	outcomeDeduplicated
	outcomeRetried
	outcomeDeferred
	outcomeParked
)

type batchStats struct {
	published, deduplicated, retried, deferred, parked int
}

func (b *batchStats) add(o outcome) {
	switch o {
	case outcomePublished:
		b.published++
	case outcomeDeduplicated:
		b.deduplicated++
	case outcomeRetried:
		b.retried++
	case outcomeDeferred:
		b.deferred++
	case outcomeParked:
		b.parked++
	}
}

func (b batchStats) empty() bool {
	return b.published+b.deduplicated+b.retried+b.deferred+b.parked == 0
}

// progressed reports whether the batch moved any row out of the queue.
func (b batchStats) progressed() bool {
	return b.published+b.deduplicated+b.parked > 0
}

func (b batchStats) fields() map[string]any {
	return map[string]any{
		"published":    b.published,
		"deduplicated": b.deduplicated,
		"retried":      b.retried,
		"deferred":     b.deferred,
		"parked":       b.parked,
	}
}

// processBatch claims one batch and dispatches it in created order. Once an
// order's event fails with a retryable error, its later events in the batch
// are deferred so subscribers never see them ahead of the failed one.
func (s *Service) processBatch(ctx context.Context) (batchStats, error) {
	var stats batchStats
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		stats = batchStats{}
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		stalled := map[uuid.UUID]bool{}
		for _, event := range events {
			if stalled[event.AggregateID] {
				stats.add(outcomeDeferred)
				continue
			}
			result, err := s.dispatch(ctx, tx, event)
			if err != nil {
				return err
			}
			if result == outcomeRetried {
				stalled[event.AggregateID] = true
			}
			stats.add(result)
		}
		return nil
	})
	return stats, err
}

func (s *Service) dispatch(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (outcome, error) {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return outcomeParked, s.park(s.eventContext(ctx, event, nil), tx, event, enums.OutboxDLQReasonNonRetryable, err)
	}
	logCtx := s.eventContext(ctx, event, resolved)

	if s.alreadyPublished(logCtx, event) {
		s.logg.Info(logCtx, "outbox event already published, marking row")
		return outcomeDeduplicated, s.markPublished(tx, event)
	}

	err = s.publish(ctx, event, resolved)
	if err == nil {
		if err := s.markPublished(tx, event); err != nil {
			return outcomePublished, err
		}
		s.logg.Info(logCtx, "outbox event published")
		return outcomePublished, nil
	}

	s.releaseGuard(logCtx, event)
	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return outcomeParked, s.park(logCtx, tx, event, enums.OutboxDLQReasonNonRetryable, err)
	}
	if event.AttemptCount+1 >= s.maxAttempts {
		return outcomeParked, s.park(logCtx, tx, event, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", err))
	}

	s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{
		"error":         err.Error(),
		"attempt_count": event.AttemptCount + 1,
	}), "outbox publish failed")
	if err := s.repo.MarkFailedTx(tx, event.ID, err); err != nil {
		return outcomeRetried, fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return outcomeRetried, nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.topics.get(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	msg := buildMessage(event, resolved)
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	if _, err := result.Get(publishCtx); err != nil {
		// An ordered publisher pauses the key after a failure.
		pub.ResumePublish(msg.OrderingKey)
		return err
	}
	return nil
}

func (s *Service) markPublished(tx *gorm.DB, event models.OutboxEvent) error {
	if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
		return fmt.Errorf("mark published %s: %w", event.ID, err)
	}
	return nil
}

// park moves the event to the DLQ and stops the publisher from claiming it again.
func (s *Service) park(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"error":        cause.Error(),
		"error_reason": reason,
	}), "outbox event will not be retried")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      s.now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

// alreadyPublished fails open: a guard error means the event is published
// again rather than stuck.
func (s *Service) alreadyPublished(ctx context.Context, event models.OutboxEvent) bool {
	if s.guard == nil {
		return false
	}
	seen, err := s.guard.CheckAndMarkProcessed(ctx, publisherConsumer, event.ID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "outbox publish guard unavailable")
		return false
	}
	return seen
}

func (s *Service) releaseGuard(ctx context.Context, event models.OutboxEvent) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Delete(ctx, publisherConsumer, event.ID); err != nil {
		s.logg.Error(ctx, "release outbox publish guard", err)
	}
}

func (s *Service) eventContext(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) context.Context {
	fields := map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"attempt_count": event.AttemptCount,
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		if resolved.Envelope.EventID != "" {
			fields["event_id"] = resolved.Envelope.EventID
		}
	}
	return s.logg.WithFields(s.logg.WithServiceOrderID(ctx, event.AggregateID.String()), fields)
}
