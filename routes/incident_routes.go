package routes

import (
	"asset-app/config"
	"asset-app/controllers"
	"asset-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupIncidentRoutes(app *fiber.App, db *gorm.DB) {
	incidentController := controllers.NewIncidentController(db)

	api := app.Group(config.MAIN_ROUTES+"/incidents", middleware.AuthMiddleware(db))
	api.Get("/", incidentController.GetAllIncidents)
	api.Put("/:id/resolve", incidentController.ResolveIncident)
}
