package routes

import (
	"asset-app/config"
	"asset-app/controllers"
	"asset-app/middleware"
	"asset-app/models"
	"asset-app/workflow"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// entityRoutePaths maps entity types onto their route group.
var entityRoutePaths = map[string]string{
	models.EntityWithdrawal:   "/withdrawals",
	models.EntityBorrowedTool: "/borrowed-tools",
	models.EntityTransfer:     "/transfers",
	models.EntityRequest:      "/requests",
}

// SetupWorkflowRoutes mounts one controller per entity type. Every
// group exposes the same lifecycle surface, only the route prefix
// differs.
func SetupWorkflowRoutes(app *fiber.App, db *gorm.DB, machine *workflow.Machine, coordinator *workflow.Coordinator) {
	limiter := middleware.NewRateLimiter(config.BatchRateLimit, config.BatchRateWindow)

	for _, entityType := range []string{
		models.EntityWithdrawal,
		models.EntityBorrowedTool,
		models.EntityTransfer,
		models.EntityRequest,
	} {
		controller := controllers.NewWorkflowController(db, entityType, machine, coordinator)

		api := app.Group(config.MAIN_ROUTES+entityRoutePaths[entityType], middleware.AuthMiddleware(db))
		api.Post("/", controller.Create)
		api.Post("/batch", limiter.Middleware(), controller.CreateBatch)
		api.Get("/", controller.List)
		api.Get("/:id", controller.GetByID)
		api.Get("/:id/audit", controller.AuditTrail)
		api.Get("/batch/:id", controller.GetBatch)
		api.Get("/batch/:id/audit", controller.BatchAuditTrail)

		api.Post("/:id/verify", controller.Action(workflow.ActionVerify))
		api.Post("/:id/approve", controller.Action(workflow.ActionApprove))
		api.Post("/:id/release", controller.Action(workflow.ActionRelease))
		api.Post("/:id/receive", controller.Action(workflow.ActionReceive))
		api.Post("/:id/return", controller.Action(workflow.ActionReturn))
		api.Post("/:id/complete", controller.Action(workflow.ActionComplete))
		api.Post("/:id/cancel", controller.Action(workflow.ActionCancel))
		api.Post("/:id/decline", controller.Action(workflow.ActionDecline))

		api.Post("/batch/:id/verify", controller.BatchAction(workflow.ActionVerify))
		api.Post("/batch/:id/approve", controller.BatchAction(workflow.ActionApprove))
		api.Post("/batch/:id/release", controller.BatchAction(workflow.ActionRelease))
		api.Post("/batch/:id/receive", controller.BatchAction(workflow.ActionReceive))
		api.Post("/batch/:id/return", controller.BatchAction(workflow.ActionReturn))
		api.Post("/batch/:id/complete", controller.BatchAction(workflow.ActionComplete))
		api.Post("/batch/:id/cancel", controller.BatchAction(workflow.ActionCancel))
		api.Post("/batch/:id/decline", controller.BatchAction(workflow.ActionDecline))
	}
}
