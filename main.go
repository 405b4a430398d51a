package main

import (
	"log"

	"asset-app/config"
	"asset-app/controllers/idgen"
	"asset-app/database"
	"asset-app/notification"
	"asset-app/routes"
	"asset-app/workflow"

	"github.com/gofiber/fiber/v2"
)

func main() {
	config.LoadConfig()

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	idgen.Init()
	database.RunSeeders(db)

	app := fiber.New()
	config.SetupCORS(app)

	machine := workflow.NewMachine(db, notification.NewMailer(nil))
	coordinator := workflow.NewCoordinator(db, machine)

	routes.SetupAuthRoutes(app, db)
	routes.SetupAssetRoutes(app, db)
	routes.SetupCategoryRoutes(app, db)
	routes.SetupProjectRoutes(app, db)
	routes.SetupWorkflowRoutes(app, db, machine, coordinator)
	routes.SetupIncidentRoutes(app, db)
	routes.SetupReportRoutes(app, db)

	log.Printf("Server running on port %s", config.APP_PORT)
	log.Fatal(app.Listen(":" + config.APP_PORT))
}
