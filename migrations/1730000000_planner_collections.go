package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"

	"tripplanner/trips"
)

func init() {
	m.Register(func(app core.App) error {
		return trips.EnsureCollections(app)
	}, func(app core.App) error {
		return trips.DropCollections(app)
	})
}
