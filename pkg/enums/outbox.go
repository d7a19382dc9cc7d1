package enums

import "slices"

// OutboxAggregateType is the aggregate_type column of outbox_events.
type OutboxAggregateType string

const AggregateServiceOrder OutboxAggregateType = "service_order"

func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateServiceOrder
}

// OutboxEventType is the event_type column of outbox_events and the
// event_type attribute on published messages.
type OutboxEventType string

const (
	EventServiceOrderCreated       OutboxEventType = "service_order_created"
	EventServiceOrderStatusChanged OutboxEventType = "service_order_status_changed"
	EventServiceOrderCompleted     OutboxEventType = "service_order_completed"
	EventServiceOrderCancelled     OutboxEventType = "service_order_cancelled"
)

var outboxEventTypes = []OutboxEventType{
	EventServiceOrderCreated,
	EventServiceOrderStatusChanged,
	EventServiceOrderCompleted,
	EventServiceOrderCancelled,
}

func (e OutboxEventType) IsValid() bool {
	return slices.Contains(outboxEventTypes, e)
}

// OutboxDLQErrorReason records why a row was moved to outbox_dlq.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
