package trips

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
)

const calendarProductID = "-//tripplanner//itinerary//EN"

// ExportCalendar renders the trip's itinerary as an iCalendar document.
// Timed items are placed in the zone of their coordinates, untimed items
// become all-day events.
func (s *Session) ExportCalendar(ctx context.Context, tripID string) (string, error) {
	trip, err := s.viewableTrip(ctx, tripID)
	if err != nil {
		return "", err
	}
	items, err := s.itemRecords(ctx, trip.Id)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(trip.GetString("title"))

	stamp := time.Now().UTC()
	for _, item := range items {
		day, err := time.Parse("2006-01-02", item.GetString("date"))
		if err != nil {
			s.svc.logger.Warn("Skipping item without a valid date", "itemId", item.Id, "date", item.GetString("date"))
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s@%s", item.Id, trip.Id))
		event.SetDtStampTime(stamp)
		event.SetSummary(item.GetString("title"))
		if desc := item.GetString("description"); desc != "" {
			event.SetDescription(desc)
		}

		loc := location(item)
		if address := cast.ToString(loc["address"]); address != "" {
			event.SetLocation(address)
		}

		start, hasStart := clockOn(day, item.GetString("start_time"), s.itemZone(loc))
		if !hasStart {
			event.SetAllDayStartAt(day)
			event.SetAllDayEndAt(day.AddDate(0, 0, 1))
			continue
		}
		end, hasEnd := clockOn(day, item.GetString("end_time"), start.Location())
		switch {
		case !hasEnd:
			end = start.Add(time.Hour)
		case !end.After(start):
			end = end.AddDate(0, 0, 1)
		}
		event.SetStartAt(start)
		event.SetEndAt(end)
	}

	return cal.Serialize(), nil
}

func (s *Session) itemZone(loc map[string]any) *time.Location {
	lat, errLat := cast.ToFloat64E(loc["lat"])
	lng, errLng := cast.ToFloat64E(loc["lng"])
	if loc["lat"] == nil || loc["lng"] == nil || errLat != nil || errLng != nil {
		return s.svc.zones.Fallback()
	}
	return s.svc.zones.Locate(lat, lng)
}

func location(item *core.Record) map[string]any {
	loc, _ := jsonValue(item, "location").(map[string]any)
	if loc == nil {
		return map[string]any{}
	}
	return loc
}

// clockOn places an HH:MM or HH:MM:SS clock on day in zone.
func clockOn(day time.Time, clock string, zone *time.Location) (time.Time, bool) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, zone), true
		}
	}
	return time.Time{}, false
}
