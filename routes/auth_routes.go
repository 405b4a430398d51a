package routes

import (
	"asset-app/config"
	"asset-app/controllers"
	"asset-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authController := controllers.NewAuthController(db)

	api := app.Group(config.MAIN_ROUTES + "/auth")
	api.Post("/login", authController.Login)

	protected := app.Group(config.MAIN_ROUTES+"/auth", middleware.AuthMiddleware(db))
	protected.Get("/logout", authController.Logout)
	protected.Get("/isLoggedIn", authController.IsLoggedIn)
}
