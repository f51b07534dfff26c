package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"tripplanner/llm"
	"tripplanner/proposal"
	"tripplanner/schema"
)

// aiRequest is the body shared by the AI endpoints. Model, key and URL
// override the server configuration as llm.Config.Merge allows.
type aiRequest struct {
	Message        string        `json:"message"`
	UserInput      string        `json:"user_input"`
	Messages       []llm.Message `json:"messages"`
	Apply          bool          `json:"apply"`
	Model          string        `json:"model"`
	APIKey         string        `json:"api_key"`
	APIURL         string        `json:"api_url"`
	EnableThinking *bool         `json:"enable_thinking"`
}

func (a aiRequest) override() llm.Config {
	return llm.Config{APIKey: a.APIKey, APIURL: a.APIURL, Model: a.Model}
}

func (a aiRequest) thinking(fallback bool) *bool {
	if a.EnableThinking != nil {
		return a.EnableThinking
	}
	return &fallback
}

func decodeAI(e *core.RequestEvent) (aiRequest, error) {
	var req aiRequest
	err := json.NewDecoder(e.Request.Body).Decode(&req)
	return req, err
}

// complete runs one completion for flow and records its result.
func (r *Routes) complete(e *core.RequestEvent, flow string, override llm.Config, req llm.Request) (*llm.Response, error) {
	client, err := r.newCompleter(r.Config.LLM.Merge(override))
	if err != nil {
		r.Metrics.observeLLM(flow, resultLabel(err))
		return nil, err
	}
	resp, err := client.Complete(e.Request.Context(), req)
	r.Metrics.observeLLM(flow, resultLabel(err))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, llm.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, llm.ErrUnreachable):
		return "unreachable"
	default:
		return "upstream_error"
	}
}

// extract parses the model's JSON answer, counting unparseable answers
// against flow.
func (r *Routes) extract(flow, text string) (any, error) {
	parsed, err := proposal.Extract(text)
	if err != nil {
		r.Metrics.observeLLM(flow, "non_json")
	}
	return parsed, err
}

func (r *Routes) chat(e *core.RequestEvent) error {
	req, err := decodeAI(e)
	if err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}

	messages := req.Messages
	if strings.TrimSpace(req.Message) != "" {
		messages = append(messages, llm.Message{Role: "user", Content: req.Message})
	}
	if len(messages) == 0 {
		return badRequest(e, "message_required", "message is required")
	}

	resp, err := r.complete(e, "chat", req.override(), llm.Request{
		System:         r.Prompts.Chat,
		Messages:       truncateConversation(messages, maxConversation),
		EnableThinking: req.EnableThinking,
	})
	if err != nil {
		return r.fail(e, err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ok":   true,
		"text": resp.Text,
	})
}

// plan generates a new trip from a free-text requirement. With apply set the
// trip is created and its items and expenses dispatched into it.
func (r *Routes) plan(e *core.RequestEvent) error {
	req, err := decodeAI(e)
	if err != nil {
		return badRequest(e, "invalid_body", "request body must be a JSON object")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return badRequest(e, "message_required", "message is required")
	}

	resp, err := r.complete(e, "plan", req.override(), llm.Request{
		System:         r.Prompts.Plan,
		Messages:       []llm.Message{{Role: "user", Content: message}},
		EnableThinking: req.thinking(true),
	})
	if err != nil {
		return r.fail(e, err)
	}

	parsed, err := r.extract("plan", resp.Text)
	if err != nil {
		return r.fail(e, err)
	}
	if parsed == nil {
		return e.JSON(http.StatusOK, map[string]any{
			"ok":             true,
			"parsed":         nil,
			"raw_model_text": resp.Text,
		})
	}

	plan := proposal.NormalizePlan(parsed)
	out := map[string]any{
		"ok":             true,
		"parsed":         plan,
		"raw_model_text": resp.Text,
	}
	if !req.Apply {
		return e.JSON(http.StatusOK, out)
	}

	session := r.session(e)
	trip, err := session.CreateTrip(e.Request.Context(), plan.Trip)
	if err != nil {
		return r.fail(e, err)
	}
	tripID := schema.String(trip, "id")

	calls, err := proposal.Build(plan.Proposal(), tripID, session.Actor())
	if err != nil {
		return r.fail(e, err)
	}
	outcomes := r.dispatcher(e).Dispatch(e.Request.Context(), calls)

	out["trip"] = trip
	out["intended_calls"] = calls
	out["updates_applied"] = outcomes
	out["failed"] = proposal.Failed(outcomes)
	return e.JSON(http.StatusOK, out)
}
