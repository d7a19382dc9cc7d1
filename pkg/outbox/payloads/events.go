package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/friotec/fieldservice-backend/pkg/enums"
)

// ServiceOrderCreatedEvent signals a newly opened service order.
type ServiceOrderCreatedEvent struct {
	ServiceOrderID uuid.UUID                  `json:"service_order_id"`
	Code           string                     `json:"code"`
	ClientID       uuid.UUID                  `json:"client_id"`
	Type           enums.ServiceOrderType     `json:"type"`
	Priority       enums.ServiceOrderPriority `json:"priority"`
	Status         enums.ServiceOrderStatus   `json:"status"`
	Store          enums.Store                `json:"store"`
	ScheduledAt    *time.Time                 `json:"scheduled_at,omitempty"`
}

// ServiceOrderStatusChangedEvent is emitted for every non-terminal transition.
type ServiceOrderStatusChangedEvent struct {
	ServiceOrderID uuid.UUID                `json:"service_order_id"`
	Code           string                   `json:"code"`
	From           enums.ServiceOrderStatus `json:"from"`
	To             enums.ServiceOrderStatus `json:"to"`
	Origin         enums.StatusChangeOrigin `json:"origin"`
	Store          enums.Store              `json:"store"`
}

// ServiceOrderCompletedEvent is emitted once an order passes the completion gate.
type ServiceOrderCompletedEvent struct {
	ServiceOrderID uuid.UUID                `json:"service_order_id"`
	Code           string                   `json:"code"`
	From           enums.ServiceOrderStatus `json:"from"`
	Origin         enums.StatusChangeOrigin `json:"origin"`
	Store          enums.Store              `json:"store"`
	CompletedAt    time.Time                `json:"completed_at"`
}

// ServiceOrderCancelledEvent carries the cancellation reason.
type ServiceOrderCancelledEvent struct {
	ServiceOrderID uuid.UUID                `json:"service_order_id"`
	Code           string                   `json:"code"`
	From           enums.ServiceOrderStatus `json:"from"`
	Origin         enums.StatusChangeOrigin `json:"origin"`
	Store          enums.Store              `json:"store"`
	Reason         string                   `json:"reason"`
	CancelledAt    time.Time                `json:"cancelled_at"`
}
