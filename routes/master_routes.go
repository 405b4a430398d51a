package routes

import (
	"asset-app/config"
	"asset-app/controllers"
	"asset-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAssetRoutes(app *fiber.App, db *gorm.DB) {
	assetController := controllers.NewAssetController(db)

	api := app.Group(config.MAIN_ROUTES+"/assets", middleware.AuthMiddleware(db))
	api.Post("/", assetController.CreateAsset)
	api.Get("/", assetController.GetAllAssets)
	api.Get("/stock", assetController.GetStock)
	api.Get("/export", assetController.ExportExcel)
	api.Get("/:id", assetController.GetAssetByID)
	api.Put("/:id", assetController.UpdateAsset)
}

func SetupCategoryRoutes(app *fiber.App, db *gorm.DB) {
	categoryController := controllers.NewCategoryController(db)

	api := app.Group(config.MAIN_ROUTES+"/categories", middleware.AuthMiddleware(db))
	api.Post("/", categoryController.CreateCategory)
	api.Get("/", categoryController.GetAllCategories)
	api.Put("/:id", categoryController.UpdateCategory)
}

func SetupProjectRoutes(app *fiber.App, db *gorm.DB) {
	projectController := controllers.NewProjectController(db)

	api := app.Group(config.MAIN_ROUTES+"/projects", middleware.AuthMiddleware(db))
	api.Post("/", projectController.CreateProject)
	api.Get("/", projectController.GetAllProjects)
	api.Put("/:id", projectController.UpdateProject)
}
