package serviceorders

import (
	"sort"

	"github.com/friotec/fieldservice-backend/pkg/db/models"
)

// SortForListing orders in place: running timers first, then status weight
// ascending, then newest first. The sort is stable. Repository listings
// apply the same order in SQL (listingOrder).
func SortForListing(orders []models.ServiceOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		return listingLess(orders[i], orders[j])
	})
}

func listingLess(a, b models.ServiceOrder) bool {
	if a.TimerActive() != b.TimerActive() {
		return a.TimerActive()
	}
	if wa, wb := a.Status.Weight(), b.Status.Weight(); wa != wb {
		return wa < wb
	}
	return a.CreatedAt.After(b.CreatedAt)
}
