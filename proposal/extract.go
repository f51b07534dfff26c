// Package proposal turns free-form model output into an ordered batch of
// persistence calls: extraction, normalization, local reference resolution,
// call planning and sequential dispatch.
package proposal

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// ExcerptLength bounds the raw text kept on a NonJSONError.
const ExcerptLength = 200

// ErrNonJSON matches any *NonJSONError.
var ErrNonJSON = errors.New("model did not return parseable JSON")

// NonJSONError reports model text in which no JSON value could be found.
type NonJSONError struct {
	Excerpt string
}

func (e *NonJSONError) Error() string {
	return fmt.Sprintf("%s: %q", ErrNonJSON.Error(), e.Excerpt)
}

func (e *NonJSONError) Is(target error) bool {
	return target == ErrNonJSON
}

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	braceSpan   = regexp.MustCompile(`(?s)\{.*\}`)
)

// Extract locates a single JSON value in model text. The attempts run in
// order and the first one yielding a non-null value wins:
//
//  1. the trimmed text as a whole
//  2. the inside of the first fenced code block
//  3. the greedy span from the first '{' to the last '}'
//
// Text that is exactly "null" after trimming is an explicit empty answer and
// returns (nil, nil). Anything else returns a *NonJSONError.
func Extract(text string) (any, error) {
	trimmed := strings.TrimSpace(text)

	if v, ok := parseJSON(trimmed); ok {
		return v, nil
	}
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if v, ok := parseJSON(strings.TrimSpace(m[1])); ok {
			return v, nil
		}
	}
	if span := braceSpan.FindString(text); span != "" {
		if v, ok := parseJSON(span); ok {
			return v, nil
		}
	}
	if trimmed == "null" {
		return nil, nil
	}

	return nil, &NonJSONError{Excerpt: lo.Substring(text, 0, ExcerptLength)}
}

// parseJSON decodes s and reports success only for non-null values.
func parseJSON(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return nil, false
	}
	return v, true
}
