package routes

import (
	"encoding/json"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"tripplanner/proposal"
)

// apply dispatches a proposal the user reviewed, and possibly edited, after
// a modify call that did not apply it.
func (r *Routes) apply(e *core.RequestEvent) error {
	var body struct {
		Proposal any `json:"proposal"`
	}
	if err := json.NewDecoder(e.Request.Body).Decode(&body); err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}
	if body.Proposal == nil {
		return badRequest(e, "proposal_required", "proposal is required")
	}

	p := proposal.Normalize(body.Proposal)
	trip := e.Get("trip").(*core.Record)
	session := r.session(e)

	calls, err := proposal.Build(p, trip.Id, session.Actor())
	if err != nil {
		return r.invalidProposal(e, err, p)
	}
	outcomes := r.dispatcher(e).Dispatch(e.Request.Context(), calls)

	return e.JSON(http.StatusOK, map[string]any{
		"ok":              true,
		"failed":          proposal.Failed(outcomes),
		"intended_calls":  calls,
		"updates_applied": outcomes,
	})
}
