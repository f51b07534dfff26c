package trips

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/ringsaturn/tzf"
)

// Timezones resolves the time zone of a coordinate. The zone finder is
// loaded on first use and lookups are memoized per rounded coordinate.
type Timezones struct {
	fallback *time.Location
	logger   *slog.Logger

	once   sync.Once
	finder tzf.F
	cache  *cache.Cache
}

func NewTimezones(fallback *time.Location, logger *slog.Logger) *Timezones {
	if fallback == nil {
		fallback = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Timezones{
		fallback: fallback,
		logger:   logger,
		cache:    cache.New(24*time.Hour, time.Hour),
	}
}

func (t *Timezones) Fallback() *time.Location {
	return t.fallback
}

// Locate returns the zone at lat/lng, or the fallback when the coordinate
// is unknown or lies outside every zone.
func (t *Timezones) Locate(lat, lng float64) *time.Location {
	key := fmt.Sprintf("%.2f,%.2f", lat, lng)
	if loc, ok := t.cache.Get(key); ok {
		return loc.(*time.Location)
	}

	loc := t.fallback
	if finder := t.loadFinder(); finder != nil {
		if name := finder.GetTimezoneName(lng, lat); name != "" {
			if l, err := time.LoadLocation(name); err == nil {
				loc = l
			} else {
				t.logger.Warn("Unknown timezone for coordinates", "zone", name, "lat", lat, "lng", lng, "error", err)
			}
		}
	}

	t.cache.Set(key, loc, cache.DefaultExpiration)
	return loc
}

func (t *Timezones) loadFinder() tzf.F {
	t.once.Do(func() {
		finder, err := tzf.NewDefaultFinder()
		if err != nil {
			t.logger.Error("Unable to load timezone finder", "error", err)
			return
		}
		t.finder = finder
	})
	return t.finder
}
