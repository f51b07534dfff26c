package trips

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/samber/lo"

	"tripplanner/proposal"
	"tripplanner/schema"
)

var _ proposal.Store = (*Session)(nil)

// Service owns storage access for the planner collections.
type Service struct {
	app    core.App
	zones  *Timezones
	logger *slog.Logger
}

func NewService(app core.App, defaultZone *time.Location) *Service {
	return &Service{
		app:    app,
		zones:  NewTimezones(defaultZone, app.Logger()),
		logger: app.Logger(),
	}
}

// As binds the service to the acting user. Every Session call is checked
// against that user's permissions before anything is written.
func (s *Service) As(actorID string) *Session {
	return &Session{svc: s, app: s.app, actor: actorID}
}

// Session implements the persistence surface for one acting user.
type Session struct {
	svc   *Service
	app   core.App
	actor string
}

func (s *Session) Actor() string {
	return s.actor
}

// CreateTrip stores a new trip owned by the actor.
func (s *Session) CreateTrip(ctx context.Context, in schema.Record) (schema.Record, error) {
	data, err := schema.ValidateTrip(in)
	if err != nil {
		return nil, err
	}

	collection, err := s.app.FindCollectionByNameOrId(TripsCollection)
	if err != nil {
		return nil, err
	}

	record := core.NewRecord(collection)
	assign(record, data)
	record.Set("owner_id", s.actor)
	if budget, ok := data["estimated_budget"].(float64); ok {
		record.Set("estimated_budget_remaining", budget)
		record.Set("last_budget_recalc_at", time.Now().UTC())
	}

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, storageError(TripsCollection, "", err)
	}
	return export(record), nil
}

// ListTrips returns the trips the actor owns or collaborates on, newest
// first.
func (s *Session) ListTrips(ctx context.Context) ([]schema.Record, error) {
	records, err := s.app.FindRecordsByFilter(
		TripsCollection,
		"owner_id = {:actor} || collaborators.id ?= {:actor}",
		"-created_at",
		0,
		0,
		dbx.Params{"actor": s.actor},
	)
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r *core.Record, _ int) schema.Record { return export(r) }), nil
}

// GetTrip returns the trip with its items grouped into days by date and its
// expenses ordered by date.
func (s *Session) GetTrip(ctx context.Context, id string) (schema.Record, error) {
	trip, err := s.viewableTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRecords(ctx, trip.Id)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRecords(ctx, trip.Id)
	if err != nil {
		return nil, err
	}

	byDate := lo.GroupBy(items, func(r *core.Record) string {
		return lo.CoalesceOrEmpty(r.GetString("date"), "unknown")
	})
	dates := lo.Keys(byDate)
	sort.Strings(dates)

	days := make([]schema.Record, 0, len(dates))
	for _, date := range dates {
		days = append(days, schema.Record{
			"date":  date,
			"items": lo.Map(byDate[date], func(r *core.Record, _ int) schema.Record { return export(r) }),
		})
	}

	out := export(trip)
	out["days"] = days
	out["expenses"] = lo.Map(expenses, func(r *core.Record, _ int) schema.Record { return export(r) })
	return out, nil
}

// Items returns the trip's itinerary ordered by date then start time.
func (s *Session) Items(ctx context.Context, tripID string) ([]schema.Record, error) {
	trip, err := s.viewableTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	records, err := s.itemRecords(ctx, trip.Id)
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r *core.Record, _ int) schema.Record { return export(r) }), nil
}

// Expenses returns the trip's expenses ordered by date.
func (s *Session) Expenses(ctx context.Context, tripID string) ([]schema.Record, error) {
	trip, err := s.viewableTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	records, err := s.expenseRecords(ctx, trip.Id)
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r *core.Record, _ int) schema.Record { return export(r) }), nil
}

// CreateItem adds an itinerary item to tripID.
func (s *Session) CreateItem(ctx context.Context, tripID string, in schema.Record) (schema.Record, error) {
	trip, err := s.editableTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	data, err := schema.ValidateItem(in)
	if err != nil {
		return nil, err
	}
	if schema.IsBlank(data["description"]) {
		data["description"] = data["notes"]
	}

	collection, err := s.app.FindCollectionByNameOrId(ItemsCollection)
	if err != nil {
		return nil, err
	}

	record := core.NewRecord(collection)
	assign(record, data)
	record.Set("trip_id", trip.Id)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, storageError(ItemsCollection, "", err)
	}
	return export(record), nil
}

// UpdateItem applies a partial update to an itinerary item.
func (s *Session) UpdateItem(ctx context.Context, id string, updates schema.Record) (schema.Record, error) {
	record, err := s.find(ctx, ItemsCollection, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableTrip(ctx, record.GetString("trip_id")); err != nil {
		return nil, err
	}

	data, err := schema.ValidateItemUpdates(updates)
	if err != nil {
		return nil, err
	}
	delete(data, "trip_id")
	assign(record, data)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, storageError(ItemsCollection, id, err)
	}
	return export(record), nil
}

// CreateExpense records an expense on tripID and refreshes the trip budget.
// user_id defaults to the payload's owner_id, falling back to the actor.
func (s *Session) CreateExpense(ctx context.Context, tripID string, in schema.Record) (schema.Record, error) {
	trip, err := s.editableTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	data, err := schema.ValidateExpense(in)
	if err != nil {
		return nil, err
	}
	if schema.IsBlank(data["user_id"]) {
		data["user_id"] = lo.CoalesceOrEmpty(trimmed(in["owner_id"]), s.actor)
	}
	if schema.IsBlank(data["date"]) {
		data["date"] = today()
	}
	if schema.IsBlank(data["status"]) {
		data["status"] = "pending"
	}
	if schema.IsBlank(data["recorded_via"]) {
		data["recorded_via"] = "web"
	}

	collection, err := s.app.FindCollectionByNameOrId(ExpensesCollection)
	if err != nil {
		return nil, err
	}

	record := core.NewRecord(collection)
	assign(record, data)
	record.Set("trip_id", trip.Id)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, storageError(ExpensesCollection, "", err)
	}
	s.refreshBudget(ctx, trip)
	return export(record), nil
}

// UpdateExpense applies a partial update to an expense. Besides the trip's
// editors the expense's payer may change it.
func (s *Session) UpdateExpense(ctx context.Context, id string, updates schema.Record) (schema.Record, error) {
	record, err := s.find(ctx, ExpensesCollection, id)
	if err != nil {
		return nil, err
	}
	trip, err := s.find(ctx, TripsCollection, record.GetString("trip_id"))
	if err != nil {
		return nil, err
	}
	if !canEditExpense(trip, record, s.actor) {
		return nil, &AccessError{Actor: s.actor, Action: "modify", Collection: ExpensesCollection, ID: id}
	}

	data, err := schema.ValidateExpenseUpdates(updates)
	if err != nil {
		return nil, err
	}
	delete(data, "trip_id")
	assign(record, data)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, storageError(ExpensesCollection, id, err)
	}
	s.refreshBudget(ctx, trip)
	return export(record), nil
}

// UpdateTrip applies a partial update to a trip. Ownership never changes.
func (s *Session) UpdateTrip(ctx context.Context, id string, updates schema.Record) (schema.Record, error) {
	trip, err := s.editableTrip(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := schema.ValidateTripUpdates(updates)
	if err != nil {
		return nil, err
	}

	merged := schema.Record{
		"start_date": lo.CoalesceOrEmpty(schema.String(data, "start_date"), trip.GetString("start_date")),
		"end_date":   lo.CoalesceOrEmpty(schema.String(data, "end_date"), trip.GetString("end_date")),
	}
	if merged["end_date"].(string) < merged["start_date"].(string) {
		return nil, schema.NewValidationError("end_date", "must not be before start_date")
	}

	_, budgetChanged := data["estimated_budget"]
	_, currencyChanged := data["currency"]
	assign(trip, data)

	if err := s.app.SaveWithContext(ctx, trip); err != nil {
		return nil, storageError(TripsCollection, id, err)
	}
	if budgetChanged || currencyChanged {
		s.refreshBudget(ctx, trip)
	}
	return export(trip), nil
}

// refreshBudget keeps the derived budget columns current. The write it
// follows has already succeeded, so a failure here is only logged.
func (s *Session) refreshBudget(ctx context.Context, trip *core.Record) {
	if err := recalculateBudget(ctx, s.app, trip); err != nil {
		s.svc.logger.Error("Budget recalculation failed", "error", err, "tripId", trip.Id)
	}
}

func (s *Session) find(ctx context.Context, collection, id string) (*core.Record, error) {
	if id == "" {
		return nil, &NotFoundError{Collection: collection, ID: id}
	}
	record, err := s.app.FindRecordById(collection, id, withContext(ctx))
	if err != nil {
		return nil, storageError(collection, id, err)
	}
	return record, nil
}

// Trip returns the trip record when the actor may view it.
func (s *Session) Trip(ctx context.Context, id string) (*core.Record, error) {
	return s.viewableTrip(ctx, id)
}

// EditableTrip returns the trip record when the actor may change it.
func (s *Session) EditableTrip(ctx context.Context, id string) (*core.Record, error) {
	return s.editableTrip(ctx, id)
}

func (s *Session) editableTrip(ctx context.Context, id string) (*core.Record, error) {
	trip, err := s.find(ctx, TripsCollection, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(trip, s.actor) {
		return nil, &AccessError{Actor: s.actor, Action: "modify", Collection: TripsCollection, ID: id}
	}
	return trip, nil
}

func (s *Session) viewableTrip(ctx context.Context, id string) (*core.Record, error) {
	trip, err := s.find(ctx, TripsCollection, id)
	if err != nil {
		return nil, err
	}
	if !canView(trip, s.actor) {
		return nil, &AccessError{Actor: s.actor, Action: "view", Collection: TripsCollection, ID: id}
	}
	return trip, nil
}

func (s *Session) itemRecords(ctx context.Context, tripID string) ([]*core.Record, error) {
	var records []*core.Record
	err := s.app.RecordQuery(ItemsCollection).
		WithContext(ctx).
		AndWhere(dbx.HashExp{"trip_id": tripID}).
		OrderBy("date ASC", "start_time ASC", "sequence ASC").
		All(&records)
	return records, err
}

func (s *Session) expenseRecords(ctx context.Context, tripID string) ([]*core.Record, error) {
	var records []*core.Record
	err := s.app.RecordQuery(ExpensesCollection).
		WithContext(ctx).
		AndWhere(dbx.HashExp{"trip_id": tripID}).
		OrderBy("date ASC", "created_at ASC").
		All(&records)
	return records, err
}
