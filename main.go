package main

import (
	"log"
	"os"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"

	"tripplanner/config"
	"tripplanner/llm"
	_ "tripplanner/migrations"
	"tripplanner/routes"
	"tripplanner/trips"
)

func main() {
	app := pocketbase.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	prompts, err := llm.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		log.Fatalf("prompts: %v", err)
	}

	// auto-create migration files only when running through go run
	isGoRun := strings.HasPrefix(os.Args[0], os.TempDir())
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: isGoRun,
	})

	app.RootCmd.AddCommand(newExtractCommand())

	metrics := routes.NewMetrics()
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		svc := trips.NewService(se.App, cfg.DefaultTimezone)
		routes.New(cfg, prompts, svc, metrics).Register(se)
		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
