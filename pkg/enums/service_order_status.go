package enums

import (
	"fmt"
	"strings"
)

// ServiceOrderStatus tracks the lifecycle of a service order.
type ServiceOrderStatus string

const (
	ServiceOrderStatusNotStarted    ServiceOrderStatus = "not_started"
	ServiceOrderStatusStarted       ServiceOrderStatus = "started"
	ServiceOrderStatusForQuote      ServiceOrderStatus = "for_quote"
	ServiceOrderStatusQuoteSent     ServiceOrderStatus = "quote_sent"
	ServiceOrderStatusAwaitingParts ServiceOrderStatus = "awaiting_parts"
	ServiceOrderStatusPartsReceived ServiceOrderStatus = "parts_received"
	ServiceOrderStatusCompleted     ServiceOrderStatus = "completed"
	ServiceOrderStatusCancelled     ServiceOrderStatus = "cancelled"
)

// validServiceOrderStatuses is ordered by display weight.
var validServiceOrderStatuses = []ServiceOrderStatus{
	ServiceOrderStatusNotStarted,
	ServiceOrderStatusStarted,
	ServiceOrderStatusForQuote,
	ServiceOrderStatusQuoteSent,
	ServiceOrderStatusAwaitingParts,
	ServiceOrderStatusPartsReceived,
	ServiceOrderStatusCompleted,
	ServiceOrderStatusCancelled,
}

// ServiceOrderStatuses returns every status in display order.
func ServiceOrderStatuses() []ServiceOrderStatus {
	out := make([]ServiceOrderStatus, len(validServiceOrderStatuses))
	copy(out, validServiceOrderStatuses)
	return out
}

// String implements fmt.Stringer.
func (s ServiceOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceOrderStatus.
func (s ServiceOrderStatus) IsValid() bool {
	return s.Weight() >= 0
}

// Weight is the list display priority, 0 for not_started through 7 for cancelled.
// Unknown statuses return -1.
func (s ServiceOrderStatus) Weight() int {
	for idx, candidate := range validServiceOrderStatuses {
		if candidate == s {
			return idx
		}
	}
	return -1
}

// Label returns the uppercase business label, e.g. "AWAITING PARTS".
func (s ServiceOrderStatus) Label() string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

// IsTerminal reports whether the status closes the order.
func (s ServiceOrderStatus) IsTerminal() bool {
	return s == ServiceOrderStatusCompleted || s == ServiceOrderStatusCancelled
}

// ParseServiceOrderStatus converts raw input into a ServiceOrderStatus.
// Labels ("AWAITING PARTS") are accepted alongside canonical values.
func ParseServiceOrderStatus(value string) (ServiceOrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, candidate := range validServiceOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service order status %q", value)
}
