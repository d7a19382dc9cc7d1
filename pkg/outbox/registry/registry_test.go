package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/friotec/fieldservice-backend/pkg/config"
	"github.com/friotec/fieldservice-backend/pkg/db/models"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	"github.com/friotec/fieldservice-backend/pkg/outbox"
	"github.com/friotec/fieldservice-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	orderID := uuid.New()
	payloadBytes := mustMarshal(t, payloads.ServiceOrderCancelledEvent{
		ServiceOrderID: orderID,
		Code:           "OS-00012",
		From:           enums.ServiceOrderStatusStarted,
		Origin:         enums.StatusChangeOriginDetail,
		Store:          enums.StoreMain,
		Reason:         "client gave up",
		CancelledAt:    time.Now().UTC(),
	})

	event := models.OutboxEvent{
		EventType:     enums.EventServiceOrderCancelled,
		AggregateType: enums.AggregateServiceOrder,
		AggregateID:   orderID,
		Payload:       mustEnvelope(t, payloadBytes),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "service-orders-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.ServiceOrderCancelledEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.ServiceOrderID != orderID || payload.Reason != "client gave up" {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
}

func TestEventRegistryCoversAllEventTypes(t *testing.T) {
	reg := newTestEventRegistry(t)
	for _, eventType := range []enums.OutboxEventType{
		enums.EventServiceOrderCreated,
		enums.EventServiceOrderStatusChanged,
		enums.EventServiceOrderCompleted,
		enums.EventServiceOrderCancelled,
	} {
		if _, ok := reg.entries[eventType]; !ok {
			t.Fatalf("missing descriptor for %s", eventType)
		}
	}
}

func TestEventRegistryRequiresTopic(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatalf("expected error without topic")
	}
}

func TestEventRegistryResolveUnknownEvent(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.OutboxEventType("service_order_archived"),
		AggregateType: enums.AggregateServiceOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"reason":"none"}`)),
	}

	assertNonRetryable(t, reg, event)
}

func TestEventRegistryResolveAggregateMismatch(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventServiceOrderCreated,
		AggregateType: enums.OutboxAggregateType("client"),
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"code":"OS-00001"}`)),
	}

	assertNonRetryable(t, reg, event)
}

func TestEventRegistryResolveMissingAggregateID(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventServiceOrderCreated,
		AggregateType: enums.AggregateServiceOrder,
		AggregateID:   uuid.Nil,
		Payload:       mustEnvelope(t, []byte(`{}`)),
	}

	assertNonRetryable(t, reg, event)
}

func TestEventRegistryResolveNullPayload(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventServiceOrderCompleted,
		AggregateType: enums.AggregateServiceOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte("null")),
	}

	assertNonRetryable(t, reg, event)
}

func TestEventRegistryRejectsNewerEnvelope(t *testing.T) {
	reg := newTestEventRegistry(t)
	data, err := json.Marshal(outbox.PayloadEnvelope{
		Version: maxEnvelopeVersion + 1,
		EventID: uuid.NewString(),
		Data:    json.RawMessage(`{"code":"OS-00002"}`),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	assertNonRetryable(t, reg, models.OutboxEvent{
		EventType:     enums.EventServiceOrderCreated,
		AggregateType: enums.AggregateServiceOrder,
		AggregateID:   uuid.New(),
		Payload:       data,
	})
}

func assertNonRetryable(t *testing.T, reg *EventRegistry, event models.OutboxEvent) {
	t.Helper()
	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %T", err)
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{ServiceOrdersTopic: "service-orders-topic"})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}
