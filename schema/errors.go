package schema

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Issue is a single field-level validation failure.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError is returned when a payload fails required-field or type
// validation. It is always raised before any side effect.
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Path, issue.Message))
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// Prefixed returns a copy of e with every issue path nested under prefix.
func (e *ValidationError) Prefixed(prefix string) *ValidationError {
	out := &ValidationError{Issues: make([]Issue, 0, len(e.Issues))}
	for _, issue := range e.Issues {
		out.Issues = append(out.Issues, Issue{Path: joinPath(prefix, issue.Path), Message: issue.Message})
	}
	return out
}

// NewValidationError builds a ValidationError out of a single issue.
func NewValidationError(path, message string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Path: path, Message: message}}}
}

// fromRules converts the error tree returned by ozzo-validation into a flat,
// path-sorted ValidationError. A nil input yields nil.
func fromRules(err error) error {
	if err == nil {
		return nil
	}
	var issues []Issue
	collectIssues("", err, &issues)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return &ValidationError{Issues: issues}
}

func collectIssues(prefix string, err error, out *[]Issue) {
	if errs, ok := err.(validation.Errors); ok {
		for key, nested := range errs {
			collectIssues(joinPath(prefix, key), nested, out)
		}
		return
	}
	*out = append(*out, Issue{Path: prefix, Message: err.Error()})
}

func joinPath(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	case strings.HasPrefix(key, "["):
		return prefix + key
	}
	return prefix + "." + key
}
