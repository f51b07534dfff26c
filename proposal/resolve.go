package proposal

import (
	"strings"

	"tripplanner/schema"
)

// LocalIDPrefix is the conventional prefix of model-assigned item ids.
const LocalIDPrefix = "local_"

const itemRefField = "itinerary_item_id"

// Resolver maps the transient local ids of proposed items to the ids storage
// assigned them. One Resolver serves exactly one dispatch run.
type Resolver struct {
	declared map[string]struct{}
	bound    map[string]string
}

// NewResolver starts a run-scoped table for the local ids declared by the
// given creation calls.
func NewResolver(calls []Call) *Resolver {
	r := &Resolver{
		declared: map[string]struct{}{},
		bound:    map[string]string{},
	}
	for _, c := range calls {
		if c.Kind == CreateItem && c.LocalID != "" {
			r.declared[c.LocalID] = struct{}{}
		}
	}
	return r
}

// Bind records the real id of a created item.
func (r *Resolver) Bind(localID, realID string) {
	if localID == "" || realID == "" {
		return
	}
	r.bound[localID] = realID
}

// Lookup returns the real id bound to localID.
func (r *Resolver) Lookup(localID string) (string, bool) {
	id, ok := r.bound[localID]
	return id, ok
}

// Rewrite returns a copy of payload whose item reference is replaced by the
// bound real id when it names a known local id. Any other value passes
// through. unresolved names the reference when it looks like a local id that
// never got bound, in which case the placeholder is kept as is.
func (r *Resolver) Rewrite(payload schema.Record) (out schema.Record, unresolved string) {
	ref, ok := payload[itemRefField].(string)
	if !ok || ref == "" {
		return payload, ""
	}
	if id, ok := r.bound[ref]; ok {
		out = make(schema.Record, len(payload))
		for k, v := range payload {
			out[k] = v
		}
		out[itemRefField] = id
		return out, ""
	}
	if _, declared := r.declared[ref]; declared || strings.HasPrefix(ref, LocalIDPrefix) {
		return payload, ref
	}
	return payload, ""
}
