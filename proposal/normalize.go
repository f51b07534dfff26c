package proposal

import (
	"encoding/json"

	"github.com/spf13/cast"

	"tripplanner/schema"
)

// Proposal is the normalized reconciliation unit built from one model answer.
// Every slice is non-nil after Normalize.
type Proposal struct {
	NewItems       []schema.Record `json:"new_items"`
	UpdateItems    []schema.Record `json:"update_items"`
	NewExpenses    []schema.Record `json:"new_expenses"`
	UpdateExpenses []schema.Record `json:"update_expenses"`
	TripUpdates    *TripUpdate     `json:"trip_updates"`
}

// TripUpdate targets a trip by id. An empty ID means the trip the proposal
// was requested for.
type TripUpdate struct {
	ID      string
	Updates schema.Record
}

func (u TripUpdate) MarshalJSON() ([]byte, error) {
	var id any
	if u.ID != "" {
		id = u.ID
	}
	updates := u.Updates
	if updates == nil {
		updates = schema.Record{}
	}
	return json.Marshal(map[string]any{"id": id, "updates": updates})
}

// Empty reports whether p carries nothing to apply.
func (p Proposal) Empty() bool {
	return len(p.NewItems) == 0 && len(p.UpdateItems) == 0 &&
		len(p.NewExpenses) == 0 && len(p.UpdateExpenses) == 0 && p.TripUpdates == nil
}

// Normalize maps an extracted JSON value onto the Proposal shape. It never
// fails: a non-object input yields an empty proposal, non-array fields become
// empty slices and non-object entries are dropped. Unknown entry keys are
// dropped and the expense description alias is folded into note.
func Normalize(v any) Proposal {
	obj, _ := v.(map[string]any)

	p := Proposal{
		NewItems:       records(obj["new_items"], schema.SanitizeItem),
		UpdateItems:    records(obj["update_items"], schema.SanitizeItem),
		NewExpenses:    records(obj["new_expenses"], schema.SanitizeExpense),
		UpdateExpenses: records(obj["update_expenses"], schema.SanitizeExpense),
	}

	if raw, ok := obj["trip_updates"].(map[string]any); ok {
		p.TripUpdates = normalizeTripUpdate(raw)
	}

	return p
}

func normalizeTripUpdate(raw map[string]any) *TripUpdate {
	if updates, ok := raw["updates"].(map[string]any); ok {
		return &TripUpdate{ID: idString(raw["id"]), Updates: updates}
	}
	return &TripUpdate{ID: idString(raw["id"]), Updates: raw}
}

func records(v any, sanitize func(schema.Record) schema.Record) []schema.Record {
	list, _ := v.([]any)
	out := make([]schema.Record, 0, len(list))
	for _, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, sanitize(obj))
	}
	return out
}

func idString(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

// PlanDay groups generated items under a calendar date.
type PlanDay struct {
	Date  string          `json:"date,omitempty"`
	Items []schema.Record `json:"items"`
}

// TripPlan is a freshly generated trip with its days and suggested expenses.
type TripPlan struct {
	Trip     schema.Record   `json:"trip"`
	Days     []PlanDay       `json:"days"`
	Expenses []schema.Record `json:"expenses"`
}

// NormalizePlan maps a generated trip object onto a TripPlan. Trip keys are
// whitelisted, items inherit their day's date when they have none and
// expenses get the description alias folded into note.
func NormalizePlan(v any) TripPlan {
	obj, _ := v.(map[string]any)

	plan := TripPlan{
		Trip:     schema.Pick(obj, schema.TripFields),
		Days:     []PlanDay{},
		Expenses: records(obj["expenses"], schema.SanitizeExpense),
	}
	if schema.IsBlank(plan.Trip["description"]) && !schema.IsBlank(obj["notes"]) {
		plan.Trip["description"] = obj["notes"]
	}

	days, _ := obj["days"].([]any)
	for _, el := range days {
		day, ok := el.(map[string]any)
		if !ok {
			continue
		}
		pd := PlanDay{Date: schema.String(day, "date"), Items: records(day["items"], schema.SanitizeItem)}
		for _, item := range pd.Items {
			if schema.IsBlank(item["date"]) && pd.Date != "" {
				item["date"] = pd.Date
			}
		}
		plan.Days = append(plan.Days, pd)
	}

	return plan
}

// Proposal flattens the plan into creation entries for the trip it describes.
func (t TripPlan) Proposal() Proposal {
	p := Proposal{
		NewItems:       []schema.Record{},
		UpdateItems:    []schema.Record{},
		NewExpenses:    t.Expenses,
		UpdateExpenses: []schema.Record{},
	}
	for _, day := range t.Days {
		p.NewItems = append(p.NewItems, day.Items...)
	}
	if p.NewExpenses == nil {
		p.NewExpenses = []schema.Record{}
	}
	return p
}
