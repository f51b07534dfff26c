package trips

import (
	"slices"

	"github.com/pocketbase/pocketbase/core"
)

// canEdit reports whether actor owns the trip or collaborates on it.
func canEdit(trip *core.Record, actor string) bool {
	if actor == "" {
		return false
	}
	return trip.GetString("owner_id") == actor ||
		slices.Contains(trip.GetStringSlice("collaborators"), actor)
}

// canView additionally admits anyone to a public trip.
func canView(trip *core.Record, actor string) bool {
	return canEdit(trip, actor) || trip.GetString("visibility") == "public"
}

// canEditExpense admits the expense's payer besides the trip's editors, so a
// contributor can fix their own entry on a trip they do not belong to.
func canEditExpense(trip, expense *core.Record, actor string) bool {
	if canEdit(trip, actor) {
		return true
	}
	payer := expense.GetString("payer_id")
	return payer != "" && payer == actor
}
