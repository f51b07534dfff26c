package llm

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ModelText pulls the model's answer out of a provider response body. Known
// shapes are tried in order; a body that is not JSON is the text itself and
// an unrecognized JSON shape is returned verbatim.
func ModelText(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return string(raw)
	}

	doc := gjson.ParseBytes(raw)
	switch doc.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return doc.String()
	}

	for _, path := range []string{"output.text", "data.text", "result", "text"} {
		if v := doc.Get(path); v.Type == gjson.String {
			return v.String()
		}
	}

	if choice := doc.Get("choices.0"); choice.Exists() {
		if v := choice.Get("text"); v.Type == gjson.String {
			return v.String()
		}
		msg := choice.Get("message")
		if msg.Type == gjson.String {
			return msg.String()
		}
		if text, ok := content(msg.Get("content")); ok {
			return text
		}
		if v := msg.Get("reasoning_content"); v.Type == gjson.String {
			return v.String()
		}
	}

	if text, ok := content(doc.Get("results.0.content")); ok {
		return text
	}

	return strings.TrimSpace(doc.Raw)
}

// content reads a message content that is either a string or a list of
// {type, text} parts joined by newlines.
func content(v gjson.Result) (string, bool) {
	if v.Type == gjson.String {
		return v.String(), true
	}
	if !v.IsArray() {
		return "", false
	}
	parts := v.Array()
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		texts = append(texts, p.Get("text").String())
	}
	return strings.Join(texts, "\n"), true
}
