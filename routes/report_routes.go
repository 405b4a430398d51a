package routes

import (
	"asset-app/config"
	"asset-app/controllers"
	"asset-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupReportRoutes(app *fiber.App, db *gorm.DB) {
	reportController := controllers.NewReportController(db)

	api := app.Group(config.MAIN_ROUTES+"/reports", middleware.AuthMiddleware(db))
	api.Get("/ledger", reportController.GetLedger)
	api.Get("/ledger/export", reportController.ExportLedgerExcel)
	api.Get("/overdue", reportController.GetOverdue)
}
