package aggregate

import (
	"slices"
	"time"

	"github.com/yukikurage/oppuss/internal/models"
)

// ActiveItems returns the items not yet completed, most recent first.
func ActiveItems(items []models.ShoppingItem) []models.ShoppingItem {
	return filterSorted(items, false, time.Now())
}

// CompletedItems returns the completed items, most recent first.
func CompletedItems(items []models.ShoppingItem) []models.ShoppingItem {
	return filterSorted(items, true, time.Now())
}

// filterSorted treats a missing creation time as now.
func filterSorted(items []models.ShoppingItem, completed bool, now time.Time) []models.ShoppingItem {
	out := make([]models.ShoppingItem, 0, len(items))
	for _, it := range items {
		if it.Completed == completed {
			out = append(out, it)
		}
	}

	createdAt := func(it models.ShoppingItem) time.Time {
		if it.CreatedAt.IsZero() {
			return now
		}
		return it.CreatedAt
	}
	slices.SortStableFunc(out, func(a, b models.ShoppingItem) int {
		return createdAt(b).Compare(createdAt(a))
	})
	return out
}
