package proposal

import (
	"fmt"
	"net/http"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"tripplanner/schema"
)

// CallKind names one persistence operation.
type CallKind string

const (
	CreateItem    CallKind = "create_item"
	UpdateItem    CallKind = "update_item"
	CreateExpense CallKind = "create_expense"
	UpdateExpense CallKind = "update_expense"
	UpdateTrip    CallKind = "update_trip"
)

// phase orders kinds for dispatch: expenses may reference items created
// earlier in the same run.
var phase = map[CallKind]int{
	CreateItem:    0,
	UpdateItem:    1,
	CreateExpense: 2,
	UpdateExpense: 3,
	UpdateTrip:    4,
}

func (k CallKind) Method() string {
	switch k {
	case CreateItem, CreateExpense:
		return http.MethodPost
	}
	return http.MethodPatch
}

// Endpoint returns the HTTP route serving the same operation.
func (k CallKind) Endpoint(tripID, id string) string {
	switch k {
	case CreateItem:
		return "/api/trips/" + tripID + "/items"
	case CreateExpense:
		return "/api/trips/" + tripID + "/expenses"
	case UpdateItem:
		return "/api/items/" + id
	case UpdateExpense:
		return "/api/expenses/" + id
	case UpdateTrip:
		return "/api/trips/" + id
	}
	return ""
}

// Call describes one persistence operation derived from a proposal.
type Call struct {
	Kind     CallKind      `json:"kind"`
	Method   string        `json:"method"`
	Endpoint string        `json:"endpoint"`
	TripID   string        `json:"trip_id,omitempty"`
	ID       string        `json:"id,omitempty"`
	LocalID  string        `json:"local_id,omitempty"`
	Payload  schema.Record `json:"payload"`
}

// fields a model may send on a new entry that storage assigns itself
var assignedFields = []string{"id", "local_id", "created_at", "updated_at"}

// Build turns a normalized proposal into the ordered list of calls for
// tripID on behalf of actorID. New entries receive trip_id and owner_id when
// absent; update entries carry their id separately and nothing is injected.
//
// An update entry without an id, a trip update without a target or a local
// id declared twice rejects the whole proposal with a *schema.ValidationError
// and no calls.
func Build(p Proposal, tripID, actorID string) ([]Call, error) {
	var issues []schema.Issue
	calls := make([]Call, 0, len(p.NewItems)+len(p.UpdateItems)+len(p.NewExpenses)+len(p.UpdateExpenses)+1)

	seen := map[string]int{}
	for i, item := range p.NewItems {
		localID := idString(item["local_id"])
		if localID != "" {
			if first, dup := seen[localID]; dup {
				issues = append(issues, schema.Issue{
					Path:    fmt.Sprintf("new_items[%d].local_id", i),
					Message: fmt.Sprintf("duplicates new_items[%d].local_id", first),
				})
			} else {
				seen[localID] = i
			}
		}
		calls = append(calls, newEntryCall(CreateItem, item, tripID, actorID, localID))
	}

	for i, item := range p.UpdateItems {
		id, ok := entryID(item)
		if !ok {
			issues = append(issues, missingID("update_items", i))
			continue
		}
		calls = append(calls, updateCall(UpdateItem, id, "", schema.Pick(item, schema.ItemUpdateFields)))
	}

	for _, expense := range p.NewExpenses {
		calls = append(calls, newEntryCall(CreateExpense, expense, tripID, actorID, ""))
	}

	for i, expense := range p.UpdateExpenses {
		id, ok := entryID(expense)
		if !ok {
			issues = append(issues, missingID("update_expenses", i))
			continue
		}
		calls = append(calls, updateCall(UpdateExpense, id, "", schema.Pick(expense, schema.ExpenseUpdateFields)))
	}

	if tu := p.TripUpdates; tu != nil {
		id := lo.CoalesceOrEmpty(tu.ID, tripID)
		if id == "" {
			issues = append(issues, schema.Issue{Path: "trip_updates.id", Message: "is required"})
		} else {
			calls = append(calls, updateCall(UpdateTrip, id, id, schema.Pick(tu.Updates, schema.TripUpdateFields)))
		}
	}

	if len(issues) > 0 {
		return nil, &schema.ValidationError{Issues: issues}
	}
	return calls, nil
}

func newEntryCall(kind CallKind, entry schema.Record, tripID, actorID, localID string) Call {
	payload := lo.OmitByKeys(entry, assignedFields)
	if schema.IsBlank(payload["trip_id"]) && tripID != "" {
		payload["trip_id"] = tripID
	}
	if schema.IsBlank(payload["owner_id"]) && actorID != "" {
		payload["owner_id"] = actorID
	}
	target := cast.ToString(payload["trip_id"])
	return Call{
		Kind:     kind,
		Method:   kind.Method(),
		Endpoint: kind.Endpoint(target, ""),
		TripID:   target,
		LocalID:  localID,
		Payload:  payload,
	}
}

func updateCall(kind CallKind, id, tripID string, payload schema.Record) Call {
	return Call{
		Kind:     kind,
		Method:   kind.Method(),
		Endpoint: kind.Endpoint(tripID, id),
		TripID:   tripID,
		ID:       id,
		Payload:  payload,
	}
}

func entryID(entry schema.Record) (string, bool) {
	id, ok := entry["id"].(string)
	return id, ok && id != ""
}

func missingID(field string, i int) schema.Issue {
	return schema.Issue{Path: fmt.Sprintf("%s[%d].id", field, i), Message: "is required"}
}
