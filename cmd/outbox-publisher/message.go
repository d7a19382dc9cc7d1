package main

import (
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/friotec/fieldservice-backend/pkg/db/models"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	"github.com/friotec/fieldservice-backend/pkg/outbox/payloads"
	"github.com/friotec/fieldservice-backend/pkg/outbox/registry"
)

// orderFacts are the payload values promoted to message attributes so
// subscriptions can filter without decoding the body.
type orderFacts struct {
	code   string
	store  enums.Store
	status enums.ServiceOrderStatus
}

func factsFromPayload(payload any) orderFacts {
	switch p := payload.(type) {
	case *payloads.ServiceOrderCreatedEvent:
		return orderFacts{code: p.Code, store: p.Store, status: p.Status}
	case *payloads.ServiceOrderStatusChangedEvent:
		return orderFacts{code: p.Code, store: p.Store, status: p.To}
	case *payloads.ServiceOrderCompletedEvent:
		return orderFacts{code: p.Code, store: p.Store, status: enums.ServiceOrderStatusCompleted}
	case *payloads.ServiceOrderCancelledEvent:
		return orderFacts{code: p.Code, store: p.Store, status: enums.ServiceOrderStatusCancelled}
	default:
		return orderFacts{}
	}
}

// buildMessage keys every message by its service order so subscribers see
// one order's lifecycle in commit order.
func buildMessage(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	facts := factsFromPayload(resolved.Payload)
	if facts.code != "" {
		attrs["service_order_code"] = facts.code
	}
	if facts.status != "" {
		attrs["status"] = string(facts.status)
	}

	store := string(facts.store)
	if actor := resolved.Envelope.Actor; actor != nil {
		attrs["actor_user_id"] = actor.UserID.String()
		if store == "" {
			store = actor.Store
		}
	}
	if store != "" {
		attrs["store"] = store
	}

	return &gcppubsub.Message{
		Data:        event.Payload,
		Attributes:  attrs,
		OrderingKey: event.AggregateID.String(),
	}
}
