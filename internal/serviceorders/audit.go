package serviceorders

import (
	"fmt"
	"strings"

	"github.com/friotec/fieldservice-backend/pkg/enums"
)

// ActivityKind selects the description template for an Activity.
type ActivityKind string

const (
	ActivityStatusChanged ActivityKind = "status_changed"
	ActivityCompleted     ActivityKind = "completed"
	ActivityCancelled     ActivityKind = "cancelled"
	ActivityCreated       ActivityKind = "created"
	ActivityFieldsUpdated ActivityKind = "fields_updated"
	ActivityTimerStarted  ActivityKind = "timer_started"
	ActivityTimerStopped  ActivityKind = "timer_stopped"
	ActivityNoteAdded     ActivityKind = "note_added"
)

// ActivityInput carries the values the templates interpolate.
type ActivityInput struct {
	Status enums.ServiceOrderStatus
	Origin enums.StatusChangeOrigin
	Reason string
	Code   string
	Fields []string
}

// ActivityDescription renders the uppercase audit line for a mutation.
func ActivityDescription(kind ActivityKind, in ActivityInput) string {
	var desc string
	switch kind {
	case ActivityStatusChanged:
		desc = fmt.Sprintf("changed order status to %s (%s)", in.Status.Label(), originLabel(in.Origin))
	case ActivityCompleted:
		desc = fmt.Sprintf("completed the service order (%s)", originLabel(in.Origin))
	case ActivityCancelled:
		desc = fmt.Sprintf("cancelled the service order (%s). reason: %s", originLabel(in.Origin), strings.TrimSpace(in.Reason))
	case ActivityCreated:
		desc = fmt.Sprintf("created service order %s", in.Code)
	case ActivityFieldsUpdated:
		desc = fmt.Sprintf("updated service order fields: %s", strings.Join(in.Fields, ", "))
	case ActivityTimerStarted:
		desc = "started the service timer"
	case ActivityTimerStopped:
		desc = "stopped the service timer"
	case ActivityNoteAdded:
		desc = "added a note"
	default:
		desc = string(kind)
	}
	return strings.ToUpper(desc)
}

// activityForTransition picks the template for a status change into to.
func activityForTransition(to enums.ServiceOrderStatus) ActivityKind {
	switch to {
	case enums.ServiceOrderStatusCompleted:
		return ActivityCompleted
	case enums.ServiceOrderStatusCancelled:
		return ActivityCancelled
	default:
		return ActivityStatusChanged
	}
}

// CancellationNote is the Note body written alongside a cancellation.
func CancellationNote(actorName, reason string) string {
	return fmt.Sprintf("%s: %s", strings.TrimSpace(actorName), strings.TrimSpace(reason))
}

func originLabel(origin enums.StatusChangeOrigin) string {
	switch origin {
	case enums.StatusChangeOriginBulk:
		return "bulk action"
	case enums.StatusChangeOriginList:
		return "list view"
	default:
		return "detail view"
	}
}
