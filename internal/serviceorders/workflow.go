package serviceorders

import "github.com/friotec/fieldservice-backend/pkg/enums"

// CanTransition is intentionally permissive: any known status may move to any
// other known status, including out of completed or cancelled. Replace with an
// explicit table if the business tightens the lifecycle.
func CanTransition(from, to enums.ServiceOrderStatus) bool {
	return from.IsValid() && to.IsValid()
}

// requiresGate reports whether moving into to needs input beyond the status itself.
func requiresGate(to enums.ServiceOrderStatus) bool {
	return to == enums.ServiceOrderStatusCompleted || to == enums.ServiceOrderStatusCancelled
}
