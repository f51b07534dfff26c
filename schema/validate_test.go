package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuePaths(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	paths := make([]string, 0, len(verr.Issues))
	for _, issue := range verr.Issues {
		paths = append(paths, issue.Path)
	}
	return paths
}

func TestSanitizeExpenseFoldsDescription(t *testing.T) {
	in := Record{"amount": 120.0, "description": "snacks", "hallucinated": true}

	out := SanitizeExpense(in)

	assert.Equal(t, Record{"amount": 120.0, "note": "snacks"}, out)
	assert.Contains(t, in, "description", "input must not be modified")
}

func TestSanitizeExpenseKeepsExistingNote(t *testing.T) {
	out := SanitizeExpense(Record{"note": "taxi", "description": "ignored"})
	assert.Equal(t, Record{"note": "taxi"}, out)
}

func TestSanitizeItemKeepsLocalID(t *testing.T) {
	out := SanitizeItem(Record{"local_id": "local_1", "title": "Walk", "owner_id": "u1"})
	assert.Equal(t, Record{"local_id": "local_1", "title": "Walk"}, out)
}

func TestValidateTripDefaults(t *testing.T) {
	out, err := ValidateTrip(Record{
		"title":      "Beijing weekend",
		"start_date": "2025-11-01",
		"end_date":   "2025-11-03",
		"notes":      "short one",
		"days":       []any{},
	})
	require.NoError(t, err)

	assert.Equal(t, "CNY", out["currency"])
	assert.Equal(t, "draft", out["status"])
	assert.Equal(t, "short one", out["description"])
	assert.NotContains(t, out, "days")
}

func TestValidateTripRejects(t *testing.T) {
	_, err := ValidateTrip(Record{"title": "", "start_date": "2025-13-01", "currency": "XX"})
	assert.Equal(t, []string{"currency", "end_date", "start_date", "title"}, issuePaths(t, err))

	_, err = ValidateTrip(Record{"title": "t", "start_date": "2025-11-03", "end_date": "2025-11-01"})
	assert.Equal(t, []string{"end_date"}, issuePaths(t, err))
}

func TestValidateItem(t *testing.T) {
	out, err := ValidateItem(Record{
		"local_id": "local_1",
		"title":    "City walk",
		"date":     "2025-12-05",
		"est_cost": "80",
		"location": map[string]any{"lat": "39.9", "lng": 116.4, "address": "Wangfujing"},
	})
	require.NoError(t, err)

	assert.NotContains(t, out, "local_id")
	assert.Nil(t, out["start_time"])
	assert.Contains(t, out, "end_time")
	assert.Equal(t, 80.0, out["est_cost"])
	assert.Equal(t, 39.9, out["location"].(map[string]any)["lat"])
}

func TestValidateItemRejects(t *testing.T) {
	_, err := ValidateItem(Record{"date": "tomorrow", "start_time": "9am", "location": "somewhere"})
	assert.Equal(t, []string{"date", "location", "start_time", "title"}, issuePaths(t, err))

	_, err = ValidateItem(Record{"title": "x", "date": "2025-12-05", "location": map[string]any{"lat": 120.0}})
	assert.Equal(t, []string{"location.lat"}, issuePaths(t, err))
}

func TestValidateExpense(t *testing.T) {
	out, err := ValidateExpense(Record{"amount": "120", "description": "snacks", "currency": "usd"})
	require.NoError(t, err)
	assert.Equal(t, Record{"amount": 120.0, "note": "snacks", "currency": "USD"}, out)

	out, err = ValidateExpense(Record{"amount": 0.0})
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, out["currency"])
}

func TestValidateExpenseRejects(t *testing.T) {
	_, err := ValidateExpense(Record{"currency": "CNY"})
	assert.Equal(t, []string{"amount"}, issuePaths(t, err))

	_, err = ValidateExpense(Record{"amount": "lots"})
	assert.Equal(t, []string{"amount"}, issuePaths(t, err))
}

func TestValidateUpdatesArePartial(t *testing.T) {
	out, err := ValidateItemUpdates(Record{"id": "i1", "start_time": "09:00", "notes": "bring cash"})
	require.NoError(t, err)
	assert.Equal(t, Record{"start_time": "09:00", "notes": "bring cash", "description": "bring cash"}, out)

	out, err = ValidateExpenseUpdates(Record{"id": "e1", "amount": 800})
	require.NoError(t, err)
	assert.Equal(t, Record{"amount": 800.0}, out)

	out, err = ValidateTripUpdates(Record{"owner_id": "someone", "estimated_budget": nil})
	require.NoError(t, err)
	assert.Equal(t, Record{"estimated_budget": nil}, out)

	_, err = ValidateTripUpdates(Record{"title": ""})
	assert.Equal(t, []string{"title"}, issuePaths(t, err))
}

func TestValidationErrorPrefixed(t *testing.T) {
	err := NewValidationError("id", "is required").Prefixed("update_items[1]")
	assert.Equal(t, "update_items[1].id", err.Issues[0].Path)
	assert.Equal(t, 400, err.HTTPStatus())
}

func TestSanitizeExpenseItemAliases(t *testing.T) {
	assert.Equal(t, Record{"itinerary_item_id": "i1"}, SanitizeExpense(Record{"item_id": "i1"}))
	assert.Equal(t, Record{"itinerary_item_id": "i2"}, SanitizeExpense(Record{"itineraryItemId": "i2"}))
	assert.Equal(t, Record{"itinerary_item_id": "i3"}, SanitizeExpense(Record{"itinerary_item_id": "i3", "item_id": "i4"}))
}
