package trips

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	pbtypes "github.com/pocketbase/pocketbase/tools/types"

	"tripplanner/schema"
)

// protected fields are never written from a payload
var protected = map[string]bool{"id": true, "created_at": true, "updated_at": true}

// assign copies payload values onto the record's own fields and ignores the
// rest.
func assign(record *core.Record, payload schema.Record) {
	fields := record.Collection().Fields
	for key, value := range payload {
		if protected[key] || fields.GetByName(key) == nil {
			continue
		}
		record.Set(key, value)
	}
}

// export renders a record as a plain Record following its field types.
// Empty optional values come out as nil.
func export(record *core.Record) schema.Record {
	out := schema.Record{"id": record.Id}
	for _, field := range record.Collection().Fields {
		name := field.GetName()
		if name == "id" {
			continue
		}
		switch f := field.(type) {
		case *core.JSONField:
			out[name] = jsonValue(record, name)
		case *core.NumberField:
			out[name] = record.GetFloat(name)
		case *core.RelationField:
			if f.IsMultiple() {
				out[name] = record.GetStringSlice(name)
			} else {
				out[name] = nullable(record.GetString(name))
			}
		case *core.DateField, *core.AutodateField:
			out[name] = formatDate(record.GetDateTime(name))
		default:
			out[name] = nullable(record.GetString(name))
		}
	}
	return out
}

func jsonValue(record *core.Record, name string) any {
	var v any
	if err := record.UnmarshalJSONField(name, &v); err != nil {
		return nil
	}
	return v
}

// nullableNumber reads a JSON field holding a number or null.
func nullableNumber(record *core.Record, name string) *float64 {
	switch v := jsonValue(record, name).(type) {
	case float64:
		return &v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatDate(dt pbtypes.DateTime) any {
	if dt.IsZero() {
		return nil
	}
	return dt.Time().UTC().Format(time.RFC3339)
}

func withContext(ctx context.Context) func(q *dbx.SelectQuery) error {
	return func(q *dbx.SelectQuery) error {
		q.WithContext(ctx)
		return nil
	}
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func trimmed(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
