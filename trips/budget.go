package trips

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	pbtypes "github.com/pocketbase/pocketbase/tools/types"
)

// consumed sums the trip's expenses recorded in the trip currency.
func consumed(ctx context.Context, app core.App, trip *core.Record) (float64, error) {
	var sum float64
	err := app.DB().
		Select("COALESCE(SUM([[amount]]), 0)").
		From(ExpensesCollection).
		Where(dbx.HashExp{"trip_id": trip.Id, "currency": trip.GetString("currency")}).
		WithContext(ctx).
		Row(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum expenses of trip %s: %w", trip.Id, err)
	}
	return sum, nil
}

// recalculateBudget refreshes the consumed and remaining budget of trip and
// saves it. Remaining is null while the trip has no budget.
func recalculateBudget(ctx context.Context, app core.App, trip *core.Record) error {
	sum, err := consumed(ctx, app, trip)
	if err != nil {
		return err
	}

	trip.Set("estimated_budget_consumed", sum)
	if budget := nullableNumber(trip, "estimated_budget"); budget != nil {
		trip.Set("estimated_budget_remaining", *budget-sum)
	} else {
		trip.Set("estimated_budget_remaining", nil)
	}
	trip.Set("last_budget_recalc_at", pbtypes.NowDateTime())

	if err := app.SaveWithContext(ctx, trip); err != nil {
		return storageError(TripsCollection, trip.Id, err)
	}
	return nil
}
