package routes

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"tripplanner/llm"
	"tripplanner/proposal"
	"tripplanner/schema"
	"tripplanner/trips"
)

// fail writes err as a JSON error whose "error" code tells the kinds apart:
// an unreachable model, an unparseable answer, an invalid payload and a
// permission problem each get their own code and message.
func (r *Routes) fail(e *core.RequestEvent, err error) error {
	var (
		nonJSON  *proposal.NonJSONError
		upstream *llm.UpstreamError
		invalid  *schema.ValidationError
		denied   *trips.AccessError
		rejected *trips.RejectedError
	)

	switch {
	case errors.As(err, &nonJSON):
		return e.JSON(http.StatusBadGateway, map[string]any{
			"error":   "model_returned_non_json",
			"text":    nonJSON.Excerpt,
			"message": "The model returned an unparseable response. Please retry or rephrase the request.",
		})
	case errors.Is(err, llm.ErrNotConfigured):
		return e.JSON(http.StatusServiceUnavailable, map[string]string{
			"error":   "llm_not_configured",
			"message": "No model API key is configured on the server or provided with the request.",
		})
	case errors.As(err, &upstream) && upstream.Kind == llm.KindUnreachable:
		e.App.Logger().Error("Model upstream unreachable", "error", err)
		return e.JSON(http.StatusBadGateway, map[string]string{
			"error":   "upstream_unreachable",
			"message": "Could not reach the model service.",
			"detail":  upstream.Detail,
		})
	case errors.As(err, &upstream):
		e.App.Logger().Error("Model upstream error", "error", err, "status", upstream.StatusCode)
		return e.JSON(http.StatusBadGateway, map[string]any{
			"error":           "upstream_error",
			"message":         "The model service returned an error.",
			"upstream_status": upstream.StatusCode,
			"detail":          upstream.Detail,
		})
	case errors.As(err, &invalid):
		return e.JSON(http.StatusBadRequest, map[string]any{
			"error":   "invalid_payload",
			"message": invalid.Error(),
			"issues":  invalid.Issues,
		})
	case errors.As(err, &denied):
		return e.JSON(http.StatusForbidden, map[string]string{
			"error":   "forbidden",
			"message": "You do not have permission to " + denied.Action + " this trip.",
		})
	case errors.Is(err, trips.ErrNotFound):
		return e.JSON(http.StatusNotFound, map[string]string{
			"error":   "not_found",
			"message": err.Error(),
		})
	case errors.As(err, &rejected):
		return e.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error":   "storage_rejected",
			"message": rejected.Error(),
		})
	}

	e.App.Logger().Error("Request failed", "error", err, "path", e.Request.URL.Path)
	return e.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal_error",
	})
}

func badRequest(e *core.RequestEvent, code, message string) error {
	return e.JSON(http.StatusBadRequest, map[string]string{
		"error":   code,
		"message": message,
	})
}
