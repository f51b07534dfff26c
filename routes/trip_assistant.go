package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/samber/lo"

	"tripplanner/llm"
	"tripplanner/proposal"
	"tripplanner/schema"
)

// Turns kept from a conversation; older ones are dropped.
const maxConversation = 20

func (r *Routes) tripAssistant(e *core.RequestEvent) error {
	req, err := decodeAI(e)
	if err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}

	messages := lo.Filter(req.Messages, func(m llm.Message, _ int) bool {
		return strings.TrimSpace(m.Content) != ""
	})
	if len(messages) == 0 {
		return badRequest(e, "message_required", "at least one message is required")
	}

	tripContext, err := r.tripContext(e)
	if err != nil {
		return r.fail(e, err)
	}

	system := r.Prompts.Chat + "\nTrip context (JSON):\n" + tripContext
	resp, err := r.complete(e, "assistant", req.override(), llm.Request{
		System:         system,
		Messages:       truncateConversation(messages, maxConversation),
		EnableThinking: req.EnableThinking,
	})
	if err != nil {
		return r.fail(e, err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message": llm.Message{Role: "assistant", Content: strings.TrimSpace(resp.Text)},
	})
}

// modify asks the model for a change proposal against the current trip and
// returns the calls it would make. With apply set those calls are dispatched.
func (r *Routes) modify(e *core.RequestEvent) error {
	req, err := decodeAI(e)
	if err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}
	input := strings.TrimSpace(req.UserInput)
	if input == "" {
		input = strings.TrimSpace(req.Message)
	}
	if input == "" {
		return badRequest(e, "user_input_required", "user_input is required")
	}

	tripContext, err := r.tripContext(e)
	if err != nil {
		return r.fail(e, err)
	}

	resp, err := r.complete(e, "modify", req.override(), llm.Request{
		System: r.Prompts.Modify,
		Messages: []llm.Message{{
			Role:    "user",
			Content: fmt.Sprintf("User request:\n%s\n\nCurrent trip (JSON):\n%s", input, tripContext),
		}},
		EnableThinking: req.thinking(true),
	})
	if err != nil {
		return r.fail(e, err)
	}

	parsed, err := r.extract("modify", resp.Text)
	if err != nil {
		return r.fail(e, err)
	}
	p := proposal.Normalize(parsed)

	session := r.session(e)
	trip := e.Get("trip").(*core.Record)
	calls, err := proposal.Build(p, trip.Id, session.Actor())
	if err != nil {
		return r.invalidProposal(e, err, p)
	}

	out := map[string]any{
		"ok":             true,
		"parsed":         p,
		"raw_model_text": resp.Text,
		"intended_calls": calls,
	}
	if req.Apply {
		outcomes := r.dispatcher(e).Dispatch(e.Request.Context(), calls)
		out["updates_applied"] = outcomes
		out["failed"] = proposal.Failed(outcomes)
	}
	return e.JSON(http.StatusOK, out)
}

// tripContext renders the loaded trip with its days and expenses for the
// model.
func (r *Routes) tripContext(e *core.RequestEvent) (string, error) {
	trip := e.Get("trip").(*core.Record)
	full, err := r.session(e).GetTrip(e.Request.Context(), trip.Id)
	if err != nil {
		return "", err
	}
	full["generated_at"] = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(full, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// invalidProposal reports a proposal the builder refused, along with what
// the model produced.
func (r *Routes) invalidProposal(e *core.RequestEvent, err error, parsed any) error {
	var invalid *schema.ValidationError
	if !errors.As(err, &invalid) {
		return r.fail(e, err)
	}
	return e.JSON(http.StatusBadRequest, map[string]any{
		"error":   "invalid_proposal",
		"message": invalid.Error(),
		"issues":  invalid.Issues,
		"parsed":  parsed,
	})
}

func truncateConversation(messages []llm.Message, limit int) []llm.Message {
	if len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}
