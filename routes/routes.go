package routes

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tripplanner/config"
	"tripplanner/llm"
	"tripplanner/proposal"
	"tripplanner/trips"
)

// completer is the part of the LLM client the handlers use.
type completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Routes holds the dependencies of the planner's HTTP handlers.
type Routes struct {
	Config  config.Config
	Prompts *llm.Prompts
	Trips   *trips.Service
	Metrics *Metrics

	newCompleter func(llm.Config) (completer, error)
}

func New(cfg config.Config, prompts *llm.Prompts, svc *trips.Service, metrics *Metrics) *Routes {
	return &Routes{
		Config:  cfg,
		Prompts: prompts,
		Trips:   svc,
		Metrics: metrics,
		newCompleter: func(c llm.Config) (completer, error) {
			return llm.New(c)
		},
	}
}

// Register mounts every planner route on the serve event's router.
func (r *Routes) Register(se *core.ServeEvent) {
	se.Router.GET("/metrics", apis.WrapStdHandler(r.Metrics.Handler()))

	api := se.Router.Group("/api")
	api.BindFunc(r.loadActor)

	api.GET("/trips", r.listTrips)
	api.POST("/trips", r.createTrip)
	api.GET("/trips/{tripId}", r.getTrip)
	api.PATCH("/trips/{tripId}", r.updateTrip)
	api.POST("/trips/{tripId}/items", r.createItem)
	api.PATCH("/items/{id}", r.updateItem)
	api.POST("/trips/{tripId}/expenses", r.createExpense)
	api.PATCH("/expenses/{id}", r.updateExpense)
	api.GET("/trips/{tripId}/calendar.ics", r.calendar)

	api.POST("/ai/chat", r.chat)
	api.POST("/ai/plan", r.plan)
	api.POST("/trips/{tripId}/ai/assistant", r.tripAssistant).BindFunc(r.loadTrip)
	api.POST("/trips/{tripId}/ai/modify", r.modify).BindFunc(r.loadEditableTrip)
	api.POST("/trips/{tripId}/ai/apply", r.apply).BindFunc(r.loadEditableTrip)
}

// loadActor resolves the acting user from the auth record, or from the
// X-Actor-Id header when that is enabled.
func (r *Routes) loadActor(e *core.RequestEvent) error {
	actor := ""
	if e.Auth != nil {
		actor = e.Auth.Id
	} else if r.Config.AllowActorHeader {
		actor = e.Request.Header.Get("X-Actor-Id")
	}
	if actor == "" {
		return e.JSON(http.StatusUnauthorized, map[string]string{
			"error":   "unauthorized",
			"message": "sign in to continue",
		})
	}
	e.Set("actor", actor)
	return e.Next()
}

// loadTrip puts the path's trip on the event once the actor may view it.
func (r *Routes) loadTrip(e *core.RequestEvent) error {
	trip, err := r.session(e).Trip(e.Request.Context(), e.Request.PathValue("tripId"))
	if err != nil {
		return r.fail(e, err)
	}
	e.Set("trip", trip)
	return e.Next()
}

// loadEditableTrip is loadTrip for routes that change the trip: a public
// trip is visible to anyone but only its members may modify it.
func (r *Routes) loadEditableTrip(e *core.RequestEvent) error {
	trip, err := r.session(e).EditableTrip(e.Request.Context(), e.Request.PathValue("tripId"))
	if err != nil {
		return r.fail(e, err)
	}
	e.Set("trip", trip)
	return e.Next()
}

func (r *Routes) session(e *core.RequestEvent) *trips.Session {
	actor, _ := e.Get("actor").(string)
	return r.Trips.As(actor)
}

func (r *Routes) dispatcher(e *core.RequestEvent) *proposal.Dispatcher {
	d := proposal.NewDispatcher(r.session(e), e.App.Logger())
	d.Observe = r.Metrics.observeOutcome
	return d
}
