// Package schema holds the canonical shapes of trips, itinerary items and
// expenses, and the whitelist/default/validate steps every untrusted payload
// goes through before it reaches storage.
package schema

import (
	"maps"
	"strings"

	"github.com/samber/lo"
)

// Record is a loosely typed entity payload: a client request body, an entry of
// a model proposal or an exported storage row.
type Record = map[string]any

// DefaultCurrency is used whenever a trip or an expense omits its currency.
const DefaultCurrency = "CNY"

var (
	// TripFields are the stored trip attributes.
	TripFields = []string{
		"id", "owner_id", "title", "description", "start_date", "end_date",
		"estimated_budget", "currency", "status", "visibility", "collaborators",
		"metadata", "created_at", "updated_at",
	}

	// TripUpdateFields may be changed on an existing trip. Ownership is not
	// transferable through an update.
	TripUpdateFields = []string{
		"title", "description", "start_date", "end_date", "estimated_budget",
		"currency", "status", "visibility", "collaborators", "metadata",
	}

	// ItemFields are the stored itinerary item attributes.
	ItemFields = []string{
		"id", "trip_id", "day_index", "date", "start_time", "end_time", "title",
		"type", "description", "notes", "location", "est_cost", "actual_cost",
		"currency", "sequence", "created_at", "updated_at", "extra",
	}

	// ProposedItemFields additionally keep the transient local_id a model
	// assigns to a not yet created item.
	ProposedItemFields = append(lo.Without(ItemFields), "local_id")

	ItemUpdateFields = lo.Without(ItemFields, "id", "created_at", "updated_at")

	// ExpenseFields are the stored expense attributes. The legacy
	// "description" alias is folded into "note" and never stored.
	ExpenseFields = []string{
		"id", "trip_id", "itinerary_item_id", "user_id", "amount", "currency",
		"category", "date", "note", "recorded_via", "raw_transcript",
		"created_at", "payer_id", "status", "payment_method", "vendor",
		"receipt_url", "split",
	}

	ExpenseUpdateFields = lo.Without(ExpenseFields, "id", "created_at")
)

// Pick returns a copy of r restricted to keys. Unknown keys are dropped
// silently.
func Pick(r Record, keys []string) Record {
	return lo.PickByKeys(r, keys)
}

// SanitizeExpense folds description into note when note is blank, accepts
// the item_id and itineraryItemId spellings of itinerary_item_id and
// whitelists the result against ExpenseFields. The input is not modified.
func SanitizeExpense(raw Record) Record {
	r := maps.Clone(raw)
	if r == nil {
		r = Record{}
	}
	renameAlias(r, "description", "note")
	renameAlias(r, "item_id", "itinerary_item_id")
	renameAlias(r, "itineraryItemId", "itinerary_item_id")
	return Pick(r, ExpenseFields)
}

// SanitizeItem whitelists a proposed itinerary item, keeping local_id.
func SanitizeItem(raw Record) Record {
	return Pick(raw, ProposedItemFields)
}

// IsBlank reports whether v is absent for defaulting purposes: nil or a
// whitespace-only string.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// String returns r[key] when it holds a string, "" otherwise.
func String(r Record, key string) string {
	s, _ := r[key].(string)
	return s
}

func setDefault(r Record, key string, value any) {
	if IsBlank(r[key]) {
		r[key] = value
	}
}

// renameAlias copies r[from] into r[to] when r[to] is blank.
func renameAlias(r Record, from, to string) {
	if IsBlank(r[to]) && !IsBlank(r[from]) {
		r[to] = r[from]
	}
}
