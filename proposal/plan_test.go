package proposal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/schema"
)

func TestBuildOrderAndInjection(t *testing.T) {
	p := Normalize(map[string]any{
		"trip_updates":    map[string]any{"updates": map[string]any{"end_date": "2025-12-05", "owner_id": "thief"}},
		"update_expenses": []any{map[string]any{"id": "e1", "amount": 800.0, "trip_id": "t1"}},
		"new_expenses":    []any{map[string]any{"amount": 120.0, "itinerary_item_id": "local_1"}},
		"update_items":    []any{map[string]any{"id": "i9", "title": "Osaka castle", "local_id": "x"}},
		"new_items":       []any{map[string]any{"local_id": "local_1", "id": "model-made", "title": "City walk"}},
	})

	calls, err := Build(p, "t1", "u1")
	require.NoError(t, err)
	require.Len(t, calls, 5)

	assert.Equal(t, Call{
		Kind: CreateItem, Method: "POST", Endpoint: "/api/trips/t1/items", TripID: "t1", LocalID: "local_1",
		Payload: schema.Record{"title": "City walk", "trip_id": "t1", "owner_id": "u1"},
	}, calls[0])
	assert.Equal(t, Call{
		Kind: UpdateItem, Method: "PATCH", Endpoint: "/api/items/i9", ID: "i9",
		Payload: schema.Record{"title": "Osaka castle"},
	}, calls[1])
	assert.Equal(t, Call{
		Kind: CreateExpense, Method: "POST", Endpoint: "/api/trips/t1/expenses", TripID: "t1",
		Payload: schema.Record{"amount": 120.0, "itinerary_item_id": "local_1", "trip_id": "t1", "owner_id": "u1"},
	}, calls[2])
	assert.Equal(t, Call{
		Kind: UpdateExpense, Method: "PATCH", Endpoint: "/api/expenses/e1", ID: "e1",
		Payload: schema.Record{"amount": 800.0, "trip_id": "t1"},
	}, calls[3])
	assert.Equal(t, Call{
		Kind: UpdateTrip, Method: "PATCH", Endpoint: "/api/trips/t1", TripID: "t1", ID: "t1",
		Payload: schema.Record{"end_date": "2025-12-05"},
	}, calls[4])
}

func TestBuildKeepsExplicitTripAndOwner(t *testing.T) {
	p := Normalize(map[string]any{
		"new_expenses": []any{map[string]any{"amount": 5.0, "trip_id": "t2", "user_id": "u7"}},
	})
	calls, err := Build(p, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "t2", calls[0].TripID)
	assert.Equal(t, "/api/trips/t2/expenses", calls[0].Endpoint)
	assert.Equal(t, "u1", calls[0].Payload["owner_id"])
}

func TestBuildRejectsUpdatesWithoutID(t *testing.T) {
	p := Normalize(map[string]any{
		"new_items":       []any{map[string]any{"title": "fine"}},
		"update_items":    []any{map[string]any{"id": "i1"}, map[string]any{"title": "no id"}},
		"update_expenses": []any{map[string]any{"id": 42.0, "amount": 1.0}},
	})

	calls, err := Build(p, "t1", "u1")
	assert.Nil(t, calls)

	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []schema.Issue{
		{Path: "update_items[1].id", Message: "is required"},
		{Path: "update_expenses[0].id", Message: "is required"},
	}, verr.Issues)
}

func TestBuildRejectsDuplicateLocalIDs(t *testing.T) {
	p := Normalize(map[string]any{
		"new_items": []any{
			map[string]any{"local_id": "local_1", "title": "a"},
			map[string]any{"local_id": "local_1", "title": "b"},
		},
	})
	_, err := Build(p, "t1", "u1")

	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "new_items[1].local_id", verr.Issues[0].Path)
}

func TestBuildTripUpdateNeedsTarget(t *testing.T) {
	p := Normalize(map[string]any{"trip_updates": map[string]any{"title": "x"}})
	_, err := Build(p, "", "u1")
	assert.Error(t, err)

	p = Normalize(map[string]any{"trip_updates": map[string]any{"id": "t5", "updates": map[string]any{"title": "x"}}})
	calls, err := Build(p, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "t5", calls[0].ID)
}

func TestBuildEmptyProposal(t *testing.T) {
	calls, err := Build(Normalize(nil), "t1", "u1")
	require.NoError(t, err)
	assert.Empty(t, calls)
}
