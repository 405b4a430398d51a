package helpers

import (
	"asset-app/workflow"

	"github.com/gofiber/fiber/v2"
)

// CurrentActor reads the identity stored by the auth middleware.
func CurrentActor(ctx *fiber.Ctx) workflow.Actor {
	actor := workflow.Actor{}
	if userID, ok := ctx.Locals("userID").(float64); ok {
		actor.ID = int(userID)
	}
	if role, ok := ctx.Locals("role").(string); ok {
		actor.Role = role
	}
	return actor
}
