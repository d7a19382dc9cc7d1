package serviceorders

import (
	"strings"

	"github.com/friotec/fieldservice-backend/pkg/db/models"
)

const (
	FieldRootCause           = "root cause"
	FieldClientSignature     = "client signature"
	FieldTechnicianSignature = "technician signature"
)

// MissingCompletionFields lists, in fixed order, the fields an order still needs
// before it can be completed. Whitespace-only values count as missing.
func MissingCompletionFields(order models.ServiceOrder) []string {
	missing := []string{}
	if isBlank(order.Cause) {
		missing = append(missing, FieldRootCause)
	}
	if isBlank(order.ClientSignature) {
		missing = append(missing, FieldClientSignature)
	}
	if isBlank(order.TechnicianSignature) {
		missing = append(missing, FieldTechnicianSignature)
	}
	return missing
}

func isBlank(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == ""
}
