package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"
	"golang.org/x/text/currency"
)

const (
	dateLayout = "2006-01-02"
)

var clockLayouts = []string{"15:04", "15:04:05"}

// ValidateTrip whitelists a new trip, fills the currency/status defaults and
// checks the required fields.
func ValidateTrip(in Record) (Record, error) {
	src := cloneRecord(in)
	renameAlias(src, "notes", "description")
	r := Pick(src, TripFields)
	setDefault(r, "currency", DefaultCurrency)
	setDefault(r, "status", "draft")
	normalizeCurrency(r)
	coerceNumbers(r, "estimated_budget")

	err := validation.Validate(r, validation.Map(
		validation.Key("title", validation.Required, isString),
		validation.Key("start_date", validation.Required, isDate),
		validation.Key("end_date", validation.Required, isDate),
		validation.Key("currency", validation.Required, isCurrency),
		validation.Key("status", isString).Optional(),
		validation.Key("owner_id", isString).Optional(),
		validation.Key("description", isString).Optional(),
		validation.Key("visibility", isString).Optional(),
		validation.Key("estimated_budget", isNumber).Optional(),
		validation.Key("collaborators", isStringList).Optional(),
	).AllowExtraKeys())
	if err != nil {
		return nil, fromRules(err)
	}
	if err := checkDateOrder(r); err != nil {
		return nil, err
	}
	return r, nil
}

// ValidateTripUpdates whitelists and type-checks a partial trip update.
func ValidateTripUpdates(in Record) (Record, error) {
	src := cloneRecord(in)
	renameAlias(src, "notes", "description")
	r := Pick(src, TripUpdateFields)
	normalizeCurrency(r)
	coerceNumbers(r, "estimated_budget")

	err := validation.Validate(r, validation.Map(
		validation.Key("title", validation.Required, isString).Optional(),
		validation.Key("start_date", validation.Required, isDate).Optional(),
		validation.Key("end_date", validation.Required, isDate).Optional(),
		validation.Key("currency", validation.Required, isCurrency).Optional(),
		validation.Key("status", isString).Optional(),
		validation.Key("description", isString).Optional(),
		validation.Key("visibility", isString).Optional(),
		validation.Key("estimated_budget", isNumber).Optional(),
		validation.Key("collaborators", isStringList).Optional(),
	).AllowExtraKeys())
	if err != nil {
		return nil, fromRules(err)
	}
	if err := checkDateOrder(r); err != nil {
		return nil, err
	}
	return r, nil
}

// ValidateItem whitelists a new itinerary item (dropping any local_id), fills
// the time defaults and checks title and date.
func ValidateItem(in Record) (Record, error) {
	r := Pick(in, ItemFields)
	if _, ok := r["start_time"]; !ok {
		r["start_time"] = nil
	}
	if _, ok := r["end_time"]; !ok {
		r["end_time"] = nil
	}
	normalizeCurrency(r)
	normalizeLocation(r)
	coerceNumbers(r, "est_cost", "actual_cost", "sequence", "day_index")

	if err := validation.Validate(r, itemRules(true)); err != nil {
		return nil, fromRules(err)
	}
	return r, nil
}

// ValidateItemUpdates whitelists and type-checks a partial item update.
// A notes value is mirrored into a blank description.
func ValidateItemUpdates(in Record) (Record, error) {
	src := cloneRecord(in)
	renameAlias(src, "notes", "description")
	r := Pick(src, ItemUpdateFields)
	normalizeCurrency(r)
	normalizeLocation(r)
	coerceNumbers(r, "est_cost", "actual_cost", "sequence", "day_index")

	if err := validation.Validate(r, itemRules(false)); err != nil {
		return nil, fromRules(err)
	}
	return r, nil
}

func itemRules(create bool) validation.MapRule {
	title := validation.Key("title", validation.Required, isString)
	date := validation.Key("date", validation.Required, isDate)
	if !create {
		title = title.Optional()
		date = date.Optional()
	}
	return validation.Map(
		title,
		date,
		validation.Key("trip_id", isString).Optional(),
		validation.Key("start_time", isClock).Optional(),
		validation.Key("end_time", isClock).Optional(),
		validation.Key("type", isString).Optional(),
		validation.Key("description", isString).Optional(),
		validation.Key("notes", isString).Optional(),
		validation.Key("location", isLocation).Optional(),
		validation.Key("est_cost", isNumber).Optional(),
		validation.Key("actual_cost", isNumber).Optional(),
		validation.Key("currency", isCurrency).Optional(),
		validation.Key("sequence", isNumber).Optional(),
		validation.Key("day_index", isNumber).Optional(),
	).AllowExtraKeys()
}

// ValidateExpense applies the description alias, whitelists, defaults the
// currency and checks amount and currency.
func ValidateExpense(in Record) (Record, error) {
	r := SanitizeExpense(in)
	setDefault(r, "currency", DefaultCurrency)
	normalizeCurrency(r)
	coerceNumbers(r, "amount")

	if err := validation.Validate(r, expenseRules(true)); err != nil {
		return nil, fromRules(err)
	}
	return r, nil
}

// ValidateExpenseUpdates applies the description alias and type-checks a
// partial expense update.
func ValidateExpenseUpdates(in Record) (Record, error) {
	r := Pick(SanitizeExpense(in), ExpenseUpdateFields)
	normalizeCurrency(r)
	coerceNumbers(r, "amount")

	if err := validation.Validate(r, expenseRules(false)); err != nil {
		return nil, fromRules(err)
	}
	return r, nil
}

func expenseRules(create bool) validation.MapRule {
	amount := validation.Key("amount", validation.NotNil, isNumber)
	cur := validation.Key("currency", validation.Required, isCurrency)
	if !create {
		amount = amount.Optional()
		cur = cur.Optional()
	}
	return validation.Map(
		amount,
		cur,
		validation.Key("trip_id", isString).Optional(),
		validation.Key("itinerary_item_id", isString).Optional(),
		validation.Key("user_id", isString).Optional(),
		validation.Key("payer_id", isString).Optional(),
		validation.Key("category", isString).Optional(),
		validation.Key("date", isDate).Optional(),
		validation.Key("note", isString).Optional(),
		validation.Key("vendor", isString).Optional(),
		validation.Key("payment_method", isString).Optional(),
		validation.Key("recorded_via", isString).Optional(),
		validation.Key("raw_transcript", isString).Optional(),
		validation.Key("receipt_url", isString).Optional(),
		validation.Key("status", isString).Optional(),
	).AllowExtraKeys()
}

// rules below accept nil so nullable columns may be cleared explicitly

var isString = validation.By(func(v any) error {
	if v == nil {
		return nil
	}
	if _, ok := v.(string); !ok {
		return errors.New("must be a string")
	}
	return nil
})

var isNumber = validation.By(func(v any) error {
	switch v.(type) {
	case nil, float64, float32, int, int64, int32, json.Number:
		return nil
	}
	return errors.New("must be a number")
})

var isDate = validation.By(func(v any) error {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return errors.New("must be a YYYY-MM-DD string")
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return errors.New("must be a valid YYYY-MM-DD date")
	}
	return nil
})

var isClock = validation.By(func(v any) error {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return errors.New("must be an HH:MM string")
	}
	for _, layout := range clockLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return nil
		}
	}
	return errors.New("must be a valid HH:MM time")
})

var isCurrency = validation.By(func(v any) error {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return errors.New("must be a currency code")
	}
	if _, err := currency.ParseISO(s); err != nil {
		return errors.New("must be an ISO 4217 currency code")
	}
	return nil
})

var isStringList = validation.By(func(v any) error {
	switch t := v.(type) {
	case nil, []string:
		return nil
	case []any:
		for _, el := range t {
			if _, ok := el.(string); !ok {
				return errors.New("must be a list of strings")
			}
		}
		return nil
	}
	return errors.New("must be a list of strings")
})

var isLocation = validation.By(func(v any) error {
	if v == nil {
		return nil
	}
	loc, ok := v.(map[string]any)
	if !ok {
		return errors.New("must be an object with lat, lng or address")
	}
	return validation.Validate(loc, validation.Map(
		validation.Key("lat", isNumber, validation.By(inRange(-90, 90))).Optional(),
		validation.Key("lng", isNumber, validation.By(inRange(-180, 180))).Optional(),
		validation.Key("address", isString).Optional(),
	).AllowExtraKeys())
})

func inRange(min, max float64) validation.RuleFunc {
	return func(v any) error {
		if v == nil {
			return nil
		}
		f := cast.ToFloat64(v)
		if f < min || f > max {
			return errors.New("is out of range")
		}
		return nil
	}
}

// coerceNumbers converts numeric strings and integer types held under keys
// into float64. Values that do not parse are left for the rules to reject.
func coerceNumbers(r Record, keys ...string) {
	for _, key := range keys {
		switch v := r[key].(type) {
		case string:
			if f, err := cast.ToFloat64E(strings.TrimSpace(v)); err == nil && strings.TrimSpace(v) != "" {
				r[key] = f
			}
		case json.Number:
			if f, err := v.Float64(); err == nil {
				r[key] = f
			}
		case int, int32, int64, float32:
			r[key] = cast.ToFloat64(v)
		}
	}
}

// normalizeLocation copies a location object so coercing its coordinates
// never touches the caller's payload.
func normalizeLocation(r Record) {
	loc, ok := r["location"].(map[string]any)
	if !ok {
		return
	}
	loc = cloneRecord(loc)
	coerceNumbers(loc, "lat", "lng")
	r["location"] = loc
}

func normalizeCurrency(r Record) {
	if s, ok := r["currency"].(string); ok {
		r["currency"] = strings.ToUpper(strings.TrimSpace(s))
	}
}

func checkDateOrder(r Record) error {
	start, err1 := time.Parse(dateLayout, String(r, "start_date"))
	end, err2 := time.Parse(dateLayout, String(r, "end_date"))
	if err1 != nil || err2 != nil {
		return nil
	}
	if end.Before(start) {
		return NewValidationError("end_date", "must not be before start_date")
	}
	return nil
}

func cloneRecord(in Record) Record {
	out := make(Record, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
