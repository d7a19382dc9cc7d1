package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/friotec/fieldservice-backend/api/responses"
	"github.com/friotec/fieldservice-backend/api/validators"
	"github.com/friotec/fieldservice-backend/pkg/db/models"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/logger"
	"github.com/friotec/fieldservice-backend/pkg/outbox"
	"github.com/friotec/fieldservice-backend/pkg/outbox/registry"
	"github.com/friotec/fieldservice-backend/pkg/pagination"
)

// DLQReader reads parked outbox events.
type DLQReader interface {
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error)
}

// EventResolver decodes an outbox row into its typed payload.
type EventResolver interface {
	Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type dlqEntryDTO struct {
	EventID       uuid.UUID                  `json:"event_id"`
	EventType     enums.OutboxEventType      `json:"event_type"`
	AggregateType enums.OutboxAggregateType  `json:"aggregate_type"`
	AggregateID   uuid.UUID                  `json:"aggregate_id"`
	ErrorReason   enums.OutboxDLQErrorReason `json:"error_reason"`
	ErrorMessage  *string                    `json:"error_message,omitempty"`
	AttemptCount  int                        `json:"attempt_count"`
	FailedAt      time.Time                  `json:"failed_at"`
	Actor         *outbox.ActorRef           `json:"actor,omitempty"`
	Payload       any                        `json:"payload,omitempty"`
	DecodeError   string                     `json:"decode_error,omitempty"`
}

func dlqEntryFromModel(row models.OutboxDLQ) dlqEntryDTO {
	return dlqEntryDTO{
		EventID:       row.EventID,
		EventType:     row.EventType,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		ErrorReason:   row.ErrorReason,
		ErrorMessage:  row.ErrorMessage,
		AttemptCount:  row.AttemptCount,
		FailedAt:      row.FailedAt,
	}
}

// AdminListOutboxDLQ lists parked events, newest failure first.
func AdminListOutboxDLQ(repo DLQReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dlq repository unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := repo.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list outbox dlq"))
			return
		}
		out := make([]dlqEntryDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, dlqEntryFromModel(row))
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminGetOutboxDLQ returns one parked event with its decoded payload. A
// payload that no longer decodes is returned raw next to the decode error.
func AdminGetOutboxDLQ(repo DLQReader, resolver EventResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dlq repository unavailable"))
			return
		}
		eventID, err := validators.ParsePathUUID(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := repo.FindByEventID(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load outbox dlq entry"))
			return
		}
		if row == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "dlq entry not found"))
			return
		}

		dto := dlqEntryFromModel(*row)
		dto.Payload = json.RawMessage(row.Payload)
		if resolver != nil {
			resolved, err := resolver.Resolve(models.OutboxEvent{
				ID:            row.EventID,
				EventType:     row.EventType,
				AggregateType: row.AggregateType,
				AggregateID:   row.AggregateID,
				Payload:       row.Payload,
			})
			if err != nil {
				dto.DecodeError = err.Error()
			} else {
				dto.Actor = resolved.Envelope.Actor
				dto.Payload = resolved.Payload
			}
		}
		responses.WriteSuccess(w, dto)
	}
}
