// Package trips is the storage side of the planner: PocketBase collections
// for trips, itinerary items and expenses, permission-checked reads and
// writes, budget bookkeeping and calendar export.
package trips

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

const (
	TripsCollection    = "trips"
	ItemsCollection    = "itinerary_items"
	ExpensesCollection = "expenses"
	usersCollection    = "users"
)

// EnsureCollections creates the planner collections that do not exist yet.
// Existing collections are left untouched.
func EnsureCollections(app core.App) error {
	users, err := app.FindCollectionByNameOrId(usersCollection)
	if err != nil {
		return fmt.Errorf("find users collection: %w", err)
	}

	trips, err := ensure(app, TripsCollection, func(c *core.Collection) {
		c.Fields.Add(
			&core.RelationField{Name: "owner_id", CollectionId: users.Id, MaxSelect: 1, Required: true},
			&core.TextField{Name: "title", Required: true, Max: 300},
			&core.TextField{Name: "description", Max: 5000},
			&core.TextField{Name: "start_date", Required: true, Max: 10},
			&core.TextField{Name: "end_date", Required: true, Max: 10},
			&core.JSONField{Name: "estimated_budget"},
			&core.NumberField{Name: "estimated_budget_consumed"},
			&core.JSONField{Name: "estimated_budget_remaining"},
			&core.DateField{Name: "last_budget_recalc_at"},
			&core.TextField{Name: "currency", Max: 3},
			&core.TextField{Name: "status", Max: 50},
			&core.TextField{Name: "visibility", Max: 50},
			&core.RelationField{Name: "collaborators", CollectionId: users.Id, MaxSelect: 100},
			&core.JSONField{Name: "metadata"},
			&core.AutodateField{Name: "created_at", OnCreate: true},
			&core.AutodateField{Name: "updated_at", OnCreate: true, OnUpdate: true},
		)
		c.AddIndex("idx_trips_owner", false, "owner_id", "")
	})
	if err != nil {
		return err
	}

	items, err := ensure(app, ItemsCollection, func(c *core.Collection) {
		c.Fields.Add(
			&core.RelationField{Name: "trip_id", CollectionId: trips.Id, MaxSelect: 1, Required: true, CascadeDelete: true},
			&core.JSONField{Name: "day_index"},
			&core.TextField{Name: "date", Required: true, Max: 10},
			&core.TextField{Name: "start_time", Max: 8},
			&core.TextField{Name: "end_time", Max: 8},
			&core.TextField{Name: "title", Required: true, Max: 300},
			&core.TextField{Name: "type", Max: 50},
			&core.TextField{Name: "description", Max: 5000},
			&core.JSONField{Name: "location"},
			&core.JSONField{Name: "est_cost"},
			&core.JSONField{Name: "actual_cost"},
			&core.TextField{Name: "currency", Max: 3},
			&core.JSONField{Name: "sequence"},
			&core.JSONField{Name: "extra"},
			&core.AutodateField{Name: "created_at", OnCreate: true},
			&core.AutodateField{Name: "updated_at", OnCreate: true, OnUpdate: true},
		)
		c.AddIndex("idx_items_trip_date", false, "trip_id, date, start_time", "")
	})
	if err != nil {
		return err
	}

	_, err = ensure(app, ExpensesCollection, func(c *core.Collection) {
		c.Fields.Add(
			&core.RelationField{Name: "trip_id", CollectionId: trips.Id, MaxSelect: 1, Required: true, CascadeDelete: true},
			&core.RelationField{Name: "itinerary_item_id", CollectionId: items.Id, MaxSelect: 1},
			&core.TextField{Name: "user_id"},
			&core.TextField{Name: "payer_id"},
			&core.NumberField{Name: "amount"},
			&core.TextField{Name: "currency", Required: true, Max: 3},
			&core.TextField{Name: "category", Max: 100},
			&core.TextField{Name: "date", Max: 10},
			&core.TextField{Name: "note", Max: 5000},
			&core.TextField{Name: "vendor", Max: 300},
			&core.TextField{Name: "payment_method", Max: 100},
			&core.TextField{Name: "status", Max: 50},
			&core.TextField{Name: "recorded_via", Max: 50},
			&core.TextField{Name: "raw_transcript", Max: 20000},
			&core.URLField{Name: "receipt_url"},
			&core.JSONField{Name: "split"},
			&core.AutodateField{Name: "created_at", OnCreate: true},
		)
		c.AddIndex("idx_expenses_trip_date", false, "trip_id, date", "")
	})
	return err
}

// DropCollections removes the planner collections, dependents first.
func DropCollections(app core.App) error {
	for _, name := range []string{ExpensesCollection, ItemsCollection, TripsCollection} {
		c, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			continue
		}
		if err := app.Delete(c); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	return nil
}

func ensure(app core.App, name string, define func(*core.Collection)) (*core.Collection, error) {
	if existing, err := app.FindCollectionByNameOrId(name); err == nil {
		return existing, nil
	}
	c := core.NewBaseCollection(name)
	define(c)
	if err := app.Save(c); err != nil {
		return nil, fmt.Errorf("create %s collection: %w", name, err)
	}
	return c, nil
}
