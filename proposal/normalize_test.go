package proposal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/schema"
)

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestNormalizeFillsAllKeys(t *testing.T) {
	for _, in := range []any{
		nil,
		"a string",
		[]any{1, 2},
		map[string]any{},
		map[string]any{"new_items": "oops", "update_expenses": map[string]any{"id": "x"}},
	} {
		p := Normalize(in)
		assert.Equal(t, []schema.Record{}, p.NewItems)
		assert.Equal(t, []schema.Record{}, p.UpdateItems)
		assert.Equal(t, []schema.Record{}, p.NewExpenses)
		assert.Equal(t, []schema.Record{}, p.UpdateExpenses)
		assert.Nil(t, p.TripUpdates)
		assert.True(t, p.Empty())

		assert.Equal(t, map[string]any{
			"new_items":       []any{},
			"update_items":    []any{},
			"new_expenses":    []any{},
			"update_expenses": []any{},
			"trip_updates":    nil,
		}, roundTrip(t, p))
	}
}

func TestNormalizeExpenseAliasAndWhitelist(t *testing.T) {
	p := Normalize(map[string]any{
		"new_expenses": []any{
			map[string]any{"amount": 120.0, "currency": "CNY", "description": "snacks", "mood": "happy"},
			"not an object",
		},
		"update_expenses": []any{map[string]any{"id": "e1", "description": "fixed"}},
	})

	require.Len(t, p.NewExpenses, 1)
	assert.Equal(t, schema.Record{"amount": 120.0, "currency": "CNY", "note": "snacks"}, p.NewExpenses[0])
	assert.Equal(t, schema.Record{"id": "e1", "note": "fixed"}, p.UpdateExpenses[0])
}

func TestNormalizeItemWhitelist(t *testing.T) {
	p := Normalize(map[string]any{
		"new_items":    []any{map[string]any{"local_id": "local_1", "title": "Walk", "rating": 5.0}},
		"update_items": []any{map[string]any{"id": "i1", "title": "New", "owner_id": "u"}},
	})
	assert.Equal(t, schema.Record{"local_id": "local_1", "title": "Walk"}, p.NewItems[0])
	assert.Equal(t, schema.Record{"id": "i1", "title": "New"}, p.UpdateItems[0])
}

func TestNormalizeTripUpdates(t *testing.T) {
	wrapped := Normalize(map[string]any{
		"trip_updates": map[string]any{"id": "t1", "updates": map[string]any{"end_date": "2025-12-05"}},
	})
	assert.Equal(t, &TripUpdate{ID: "t1", Updates: schema.Record{"end_date": "2025-12-05"}}, wrapped.TripUpdates)

	flat := Normalize(map[string]any{
		"trip_updates": map[string]any{"title": "Beijing", "estimated_budget": 7000.0},
	})
	assert.Equal(t, &TripUpdate{Updates: schema.Record{"title": "Beijing", "estimated_budget": 7000.0}}, flat.TripUpdates)

	assert.Equal(t, map[string]any{
		"id":      nil,
		"updates": map[string]any{"title": "Beijing", "estimated_budget": 7000.0},
	}, roundTrip(t, flat).(map[string]any)["trip_updates"])

	ignored := Normalize(map[string]any{"trip_updates": "extend by a day"})
	assert.Nil(t, ignored.TripUpdates)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []any{
		map[string]any{
			"new_items": []any{map[string]any{
				"local_id": "local_1", "title": "City walk", "date": "2025-12-05",
				"location": map[string]any{"address": "Downtown"}, "junk": true,
			}},
			"update_items":    []any{map[string]any{"id": "i1", "start_time": "09:00"}},
			"new_expenses":    []any{map[string]any{"amount": 120.0, "description": "snacks", "itinerary_item_id": "local_1"}},
			"update_expenses": []any{map[string]any{"id": "e1", "amount": 800.0}, 3.0},
			"trip_updates":    map[string]any{"id": "t1", "end_date": "2025-12-05"},
		},
		map[string]any{"trip_updates": map[string]any{"id": nil, "updates": map[string]any{"status": "generated"}}},
		nil,
	}

	for _, in := range inputs {
		first := Normalize(in)
		second := Normalize(roundTrip(t, first))
		assert.Equal(t, first, second)
		assert.Equal(t, roundTrip(t, first), roundTrip(t, second))
	}
}

func TestNormalizePlan(t *testing.T) {
	plan := NormalizePlan(map[string]any{
		"title":      "Sanya family trip",
		"start_date": "2025-12-10",
		"end_date":   "2025-12-14",
		"currency":   "CNY",
		"owner_id":   nil,
		"days": []any{
			map[string]any{
				"date": "2025-12-10",
				"items": []any{
					map[string]any{"local_id": "local_1", "title": "Check in", "start_time": "15:00", "vibe": "chill"},
					map[string]any{"title": "Dinner", "date": "2025-12-10"},
				},
			},
			"garbage",
			map[string]any{"date": "2025-12-11"},
		},
		"expenses": []any{map[string]any{"amount": 1200.0, "description": "flights", "itinerary_item_id": "local_1"}},
	})

	assert.Equal(t, "Sanya family trip", plan.Trip["title"])
	assert.NotContains(t, plan.Trip, "days")
	assert.NotContains(t, plan.Trip, "expenses")
	require.Len(t, plan.Days, 2)
	assert.Equal(t, schema.Record{"local_id": "local_1", "title": "Check in", "start_time": "15:00", "date": "2025-12-10"}, plan.Days[0].Items[0])
	assert.Empty(t, plan.Days[1].Items)
	assert.Equal(t, schema.Record{"amount": 1200.0, "note": "flights", "itinerary_item_id": "local_1"}, plan.Expenses[0])

	p := plan.Proposal()
	assert.Len(t, p.NewItems, 2)
	assert.Len(t, p.NewExpenses, 1)
	assert.Nil(t, p.TripUpdates)
	assert.Equal(t, []schema.Record{}, p.UpdateItems)
}
