package controllers

import (
	"errors"

	"asset-app/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type IncidentController struct {
	DB *gorm.DB
}

func NewIncidentController(DB *gorm.DB) *IncidentController {
	return &IncidentController{DB: DB}
}

func (c *IncidentController) GetAllIncidents(ctx *fiber.Ctx) error {
	q := c.DB.Order("id desc")
	if status := ctx.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if incidentType := ctx.Query("type"); incidentType != "" {
		q = q.Where("type = ?", incidentType)
	}

	var incidents []models.Incident
	if err := q.Find(&incidents).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve incidents",
		})
	}

	return ctx.JSON(fiber.Map{"success": true, "data": incidents})
}

type resolveInput struct {
	Resolution string `json:"resolution"`
}

func (c *IncidentController) ResolveIncident(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid incident id"})
	}

	var input resolveInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}

	var incident models.Incident
	if err := c.DB.First(&incident, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Incident not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if incident.Status == models.IncidentResolved {
		return ctx.JSON(fiber.Map{
			"success": false,
			"message": "Incident already resolved",
			"data":    incident,
		})
	}

	incident.Status = models.IncidentResolved
	incident.Resolution = input.Resolution
	incident.ResolvedBy = int(ctx.Locals("userID").(float64))

	if err := c.DB.Save(&incident).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve incident",
		})
	}

	return ctx.JSON(fiber.Map{"success": true, "message": "Incident resolved", "data": incident})
}
