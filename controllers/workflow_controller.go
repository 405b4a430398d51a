package controllers

import (
	"errors"

	"asset-app/controllers/helpers"
	"asset-app/models"
	"asset-app/repositories"
	"asset-app/workflow"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// WorkflowController serves one entity type. The routes package mounts
// one instance per entity so withdrawals, borrowed tools, transfers and
// requests share the same handler code.
type WorkflowController struct {
	DB          *gorm.DB
	EntityType  string
	machine     *workflow.Machine
	coordinator *workflow.Coordinator
	requests    *repositories.RequestRepository
	audits      *repositories.AuditRepository
}

func NewWorkflowController(db *gorm.DB, entityType string, machine *workflow.Machine, coordinator *workflow.Coordinator) *WorkflowController {
	return &WorkflowController{
		DB:          db,
		EntityType:  entityType,
		machine:     machine,
		coordinator: coordinator,
		requests:    repositories.NewRequestRepository(db),
		audits:      repositories.NewAuditRepository(db),
	}
}

// statusForKind maps the workflow error taxonomy onto HTTP codes.
// AlreadyProcessed is not here because it answers 200 with success
// false, a retry of an acknowledged action is not a client error.
func statusForKind(kind string) int {
	switch kind {
	case workflow.KindPermissionDenied:
		return fiber.StatusForbidden
	case workflow.KindInvalidTransition:
		return fiber.StatusConflict
	case workflow.KindInsufficientQuantity:
		return fiber.StatusUnprocessableEntity
	case workflow.KindValidation:
		return fiber.StatusBadRequest
	case workflow.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func (c *WorkflowController) Create(ctx *fiber.Ctx) error {
	var input workflow.CreateInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}
	input.EntityType = c.EntityType
	input.Actor = helpers.CurrentActor(ctx)

	req, err := c.machine.CreateRequest(input)
	if err != nil {
		kind := workflow.KindOf(err)
		return ctx.Status(statusForKind(kind)).JSON(fiber.Map{
			"success":    false,
			"error_kind": kind,
			"message":    err.Error(),
		})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Request " + req.RequestNo + " created",
		"data":    req,
	})
}

func (c *WorkflowController) CreateBatch(ctx *fiber.Ctx) error {
	var input workflow.BatchInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}
	input.EntityType = c.EntityType
	input.Actor = helpers.CurrentActor(ctx)

	result, err := c.coordinator.SubmitBatch(input)
	if err != nil {
		kind := workflow.KindOf(err)
		return ctx.Status(statusForKind(kind)).JSON(result)
	}

	return ctx.Status(fiber.StatusCreated).JSON(result)
}

type actionBody struct {
	Notes   string                `json:"notes"`
	Returns []workflow.ReturnLine `json:"returns"`
}

// Action executes one lifecycle step on a single request. The action
// name comes from the route so every step shares this handler.
func (c *WorkflowController) Action(action workflow.Action) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := ctx.ParamsInt("id")
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
		}

		var body actionBody
		if len(ctx.Body()) > 0 {
			if err := ctx.BodyParser(&body); err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
			}
		}

		result, err := c.machine.Apply(workflow.ActionInput{
			Action:    action,
			RequestID: int64(id),
			Actor:     helpers.CurrentActor(ctx),
			Notes:     body.Notes,
			Returns:   body.Returns,
		})
		if err != nil {
			if result.ErrorKind == workflow.KindAlreadyProcessed {
				return ctx.JSON(result)
			}
			return ctx.Status(statusForKind(result.ErrorKind)).JSON(result)
		}

		return ctx.JSON(result)
	}
}

// BatchAction executes one lifecycle step across every request of a
// batch.
func (c *WorkflowController) BatchAction(action workflow.Action) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := ctx.ParamsInt("id")
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
		}

		var body actionBody
		if len(ctx.Body()) > 0 {
			if err := ctx.BodyParser(&body); err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
			}
		}

		result, err := c.coordinator.ApplyBatch(int64(id), action, helpers.CurrentActor(ctx), body.Notes, body.Returns)
		if err != nil {
			kind := workflow.KindOf(err)
			if kind == workflow.KindAlreadyProcessed {
				return ctx.JSON(result)
			}
			return ctx.Status(statusForKind(kind)).JSON(result)
		}

		return ctx.JSON(result)
	}
}

func (c *WorkflowController) GetByID(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	req, err := c.requests.GetByID(int64(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Request not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if req.EntityType != c.EntityType {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Request not found"})
	}

	return ctx.JSON(fiber.Map{"success": true, "data": req})
}

func (c *WorkflowController) List(ctx *fiber.Ctx) error {
	filter := repositories.RequestFilter{
		EntityType: c.EntityType,
		Status:     ctx.Query("status"),
		ProjectID:  int64(ctx.QueryInt("project_id")),
		BatchID:    int64(ctx.QueryInt("batch_id")),
		Initiator:  ctx.QueryInt("initiator"),
	}

	requests, err := c.requests.List(filter)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve requests",
		})
	}

	return ctx.JSON(fiber.Map{"success": true, "data": requests})
}

func (c *WorkflowController) AuditTrail(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	events, err := c.audits.ByRequest(int64(id))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve audit trail",
		})
	}

	return ctx.JSON(fiber.Map{"success": true, "data": events})
}

func (c *WorkflowController) GetBatch(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	var batch models.RequestBatch
	if err := c.DB.First(&batch, "id = ?", int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Batch not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	requests, err := c.requests.ListByBatch(batch.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"batch":    batch,
		"requests": requests,
	}})
}

func (c *WorkflowController) BatchAuditTrail(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	events, err := c.audits.ByBatch(int64(id))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve audit trail",
		})
	}

	return ctx.JSON(fiber.Map{"success": true, "data": events})
}
