package enums

import (
	"fmt"
	"strings"
)

// ServiceOrderType classifies the field work requested.
type ServiceOrderType string

const (
	ServiceOrderTypeInstallation ServiceOrderType = "installation"
	ServiceOrderTypeMaintenance  ServiceOrderType = "maintenance"
	ServiceOrderTypeBreakdown    ServiceOrderType = "breakdown"
	ServiceOrderTypeInspection   ServiceOrderType = "inspection"
)

var validServiceOrderTypes = []ServiceOrderType{
	ServiceOrderTypeInstallation,
	ServiceOrderTypeMaintenance,
	ServiceOrderTypeBreakdown,
	ServiceOrderTypeInspection,
}

// String implements fmt.Stringer.
func (t ServiceOrderType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ServiceOrderType.
func (t ServiceOrderType) IsValid() bool {
	for _, candidate := range validServiceOrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseServiceOrderType converts raw input into a ServiceOrderType.
func ParseServiceOrderType(value string) (ServiceOrderType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validServiceOrderTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service order type %q", value)
}

// ServiceOrderPriority is the urgency assigned by back office.
type ServiceOrderPriority string

const (
	ServiceOrderPriorityLow    ServiceOrderPriority = "low"
	ServiceOrderPriorityMedium ServiceOrderPriority = "medium"
	ServiceOrderPriorityHigh   ServiceOrderPriority = "high"
	ServiceOrderPriorityUrgent ServiceOrderPriority = "urgent"
)

var validServiceOrderPriorities = []ServiceOrderPriority{
	ServiceOrderPriorityLow,
	ServiceOrderPriorityMedium,
	ServiceOrderPriorityHigh,
	ServiceOrderPriorityUrgent,
}

// String implements fmt.Stringer.
func (p ServiceOrderPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ServiceOrderPriority.
func (p ServiceOrderPriority) IsValid() bool {
	for _, candidate := range validServiceOrderPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseServiceOrderPriority converts raw input into a ServiceOrderPriority.
func ParseServiceOrderPriority(value string) (ServiceOrderPriority, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validServiceOrderPriorities {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service order priority %q", value)
}

// StatusChangeOrigin records which view issued a status change.
type StatusChangeOrigin string

const (
	StatusChangeOriginList   StatusChangeOrigin = "list"
	StatusChangeOriginDetail StatusChangeOrigin = "detail"
	StatusChangeOriginBulk   StatusChangeOrigin = "bulk"
)

var validStatusChangeOrigins = []StatusChangeOrigin{
	StatusChangeOriginList,
	StatusChangeOriginDetail,
	StatusChangeOriginBulk,
}

// String implements fmt.Stringer.
func (o StatusChangeOrigin) String() string {
	return string(o)
}

// IsValid reports whether the value is a known StatusChangeOrigin.
func (o StatusChangeOrigin) IsValid() bool {
	for _, candidate := range validStatusChangeOrigins {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseStatusChangeOrigin converts raw input into a StatusChangeOrigin.
func ParseStatusChangeOrigin(value string) (StatusChangeOrigin, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validStatusChangeOrigins {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid status change origin %q", value)
}
