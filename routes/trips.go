package routes

import (
	"encoding/json"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"tripplanner/schema"
)

// decodeRecord reads a JSON object body. When the object wraps the payload
// under key, as in {"item": {...}}, the inner object is returned.
func decodeRecord(e *core.RequestEvent, key string) (schema.Record, error) {
	var body schema.Record
	if err := json.NewDecoder(e.Request.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		body = schema.Record{}
	}
	if inner, ok := body[key].(map[string]any); ok && key != "" {
		return inner, nil
	}
	return body, nil
}

func (r *Routes) listTrips(e *core.RequestEvent) error {
	list, err := r.session(e).ListTrips(e.Request.Context())
	if err != nil {
		return r.fail(e, err)
	}
	return e.JSON(http.StatusOK, list)
}

func (r *Routes) createTrip(e *core.RequestEvent) error {
	body, err := decodeRecord(e, "trip")
	if err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}
	trip, err := r.session(e).CreateTrip(e.Request.Context(), body)
	if err != nil {
		return r.fail(e, err)
	}
	return e.JSON(http.StatusCreated, trip)
}

func (r *Routes) getTrip(e *core.RequestEvent) error {
	trip, err := r.session(e).GetTrip(e.Request.Context(), e.Request.PathValue("tripId"))
	if err != nil {
		return r.fail(e, err)
	}
	return e.JSON(http.StatusOK, trip)
}

func (r *Routes) updateTrip(e *core.RequestEvent) error {
	body, err := decodeRecord(e, "updates")
	if err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}
	trip, err := r.session(e).UpdateTrip(e.Request.Context(), e.Request.PathValue("tripId"), body)
	if err != nil {
		return r.fail(e, err)
	}
	return e.JSON(http.StatusOK, trip)
}

func (r *Routes) createItem(e *core.RequestEvent) error {
	body, err := decodeRecord(e, "item")
	if err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}
	item, err := r.session(e).CreateItem(e.Request.Context(), e.Request.PathValue("tripId"), body)
	if err != nil {
		return r.fail(e, err)
	}
	return e.JSON(http.StatusCreated, item)
}

func (r *Routes) updateItem(e *core.RequestEvent) error {
	body, err := decodeRecord(e, "updates")
	if err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}
	item, err := r.session(e).UpdateItem(e.Request.Context(), e.Request.PathValue("id"), body)
	if err != nil {
		return r.fail(e, err)
	}
	return e.JSON(http.StatusOK, item)
}

func (r *Routes) createExpense(e *core.RequestEvent) error {
	body, err := decodeRecord(e, "expense")
	if err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}
	expense, err := r.session(e).CreateExpense(e.Request.Context(), e.Request.PathValue("tripId"), body)
	if err != nil {
		return r.fail(e, err)
	}
	return e.JSON(http.StatusCreated, expense)
}

func (r *Routes) updateExpense(e *core.RequestEvent) error {
	body, err := decodeRecord(e, "updates")
	if err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}
	expense, err := r.session(e).UpdateExpense(e.Request.Context(), e.Request.PathValue("id"), body)
	if err != nil {
		return r.fail(e, err)
	}
	return e.JSON(http.StatusOK, expense)
}

func (r *Routes) calendar(e *core.RequestEvent) error {
	out, err := r.session(e).ExportCalendar(e.Request.Context(), e.Request.PathValue("tripId"))
	if err != nil {
		return r.fail(e, err)
	}
	e.Response.Header().Set("Content-Disposition", `attachment; filename="itinerary.ics"`)
	return e.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(out))
}
