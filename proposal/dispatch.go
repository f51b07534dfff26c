package proposal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"tripplanner/schema"
)

// Store is the persistence surface a proposal is applied through. Every
// method is expected to enforce the acting user's permissions itself.
type Store interface {
	CreateItem(ctx context.Context, tripID string, item schema.Record) (schema.Record, error)
	CreateExpense(ctx context.Context, tripID string, expense schema.Record) (schema.Record, error)
	UpdateItem(ctx context.Context, id string, updates schema.Record) (schema.Record, error)
	UpdateExpense(ctx context.Context, id string, updates schema.Record) (schema.Record, error)
	UpdateTrip(ctx context.Context, id string, updates schema.Record) (schema.Record, error)
}

// Outcome is the recorded result of one dispatched call.
type Outcome struct {
	Kind       CallKind       `json:"kind"`
	Endpoint   string         `json:"endpoint"`
	OK         bool           `json:"ok"`
	Status     int            `json:"status"`
	Response   schema.Record  `json:"response,omitempty"`
	Error      string         `json:"error,omitempty"`
	Issues     []schema.Issue `json:"issues,omitempty"`
	LocalID    string         `json:"local_id,omitempty"`
	Unresolved string         `json:"unresolved,omitempty"`
}

// Failed counts the outcomes that did not succeed.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.OK {
			n++
		}
	}
	return n
}

// Dispatcher applies calls one at a time against a Store.
type Dispatcher struct {
	store  Store
	logger *slog.Logger

	// Observe, when set, is called with every outcome as it is recorded.
	Observe func(Outcome)
}

func NewDispatcher(store Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, logger: logger}
}

// Dispatch runs calls sequentially in phase order, awaiting each before the
// next so item ids minted in the first phase are known to the expenses that
// reference them. A failing call is recorded and the run carries on; the
// returned outcomes follow dispatch order.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []Call) []Outcome {
	ordered := slices.Clone(calls)
	sort.SliceStable(ordered, func(i, j int) bool {
		return phase[ordered[i].Kind] < phase[ordered[j].Kind]
	})

	runID := uuid.NewString()
	resolver := NewResolver(ordered)
	outcomes := make([]Outcome, 0, len(ordered))

	for _, call := range ordered {
		payload := call.Payload
		var unresolved string
		if call.Kind == CreateExpense || call.Kind == UpdateExpense {
			payload, unresolved = resolver.Rewrite(payload)
		}

		resp, err := d.apply(ctx, call, payload)

		outcome := Outcome{
			Kind:       call.Kind,
			Endpoint:   call.Endpoint,
			LocalID:    call.LocalID,
			Unresolved: unresolved,
		}
		if err != nil {
			outcome.Status = statusOf(err)
			outcome.Error = err.Error()
			var verr *schema.ValidationError
			if errors.As(err, &verr) {
				outcome.Issues = verr.Issues
			}
			d.logger.Warn("Proposal call failed",
				"run", runID, "kind", call.Kind, "endpoint", call.Endpoint,
				"status", outcome.Status, "unresolved", unresolved, "error", err)
		} else {
			outcome.OK = true
			outcome.Status = successStatus(call.Kind)
			outcome.Response = resp
			if call.Kind == CreateItem {
				resolver.Bind(call.LocalID, cast.ToString(resp["id"]))
			}
			d.logger.Info("Proposal call applied",
				"run", runID, "kind", call.Kind, "endpoint", call.Endpoint, "id", resp["id"])
		}

		if d.Observe != nil {
			d.Observe(outcome)
		}
		outcomes = append(outcomes, outcome)
	}

	d.logger.Info("Proposal dispatched", "run", runID, "calls", len(outcomes), "failed", Failed(outcomes))
	return outcomes
}

func (d *Dispatcher) apply(ctx context.Context, call Call, payload schema.Record) (schema.Record, error) {
	switch call.Kind {
	case CreateItem:
		return d.store.CreateItem(ctx, call.TripID, payload)
	case CreateExpense:
		return d.store.CreateExpense(ctx, call.TripID, payload)
	case UpdateItem:
		return d.store.UpdateItem(ctx, call.ID, payload)
	case UpdateExpense:
		return d.store.UpdateExpense(ctx, call.ID, payload)
	case UpdateTrip:
		return d.store.UpdateTrip(ctx, call.ID, payload)
	}
	return nil, &unknownKindError{kind: call.Kind}
}

type unknownKindError struct {
	kind CallKind
}

func (e *unknownKindError) Error() string {
	return "unknown call kind " + string(e.kind)
}

func (e *unknownKindError) HTTPStatus() int {
	return http.StatusBadRequest
}

func statusOf(err error) int {
	var coded interface{ HTTPStatus() int }
	if errors.As(err, &coded) {
		return coded.HTTPStatus()
	}
	return http.StatusInternalServerError
}

func successStatus(kind CallKind) int {
	if kind.Method() == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}
