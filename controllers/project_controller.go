package controllers

import (
	"errors"

	"asset-app/models"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProjectController struct {
	DB *gorm.DB
}

func NewProjectController(DB *gorm.DB) *ProjectController {
	return &ProjectController{DB: DB}
}

type projectInput struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

func (c *ProjectController) CreateProject(ctx *fiber.Ctx) error {
	var input projectInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.Status == "" {
		input.Status = "active"
	}

	userID := int(ctx.Locals("userID").(float64))
	project := models.Project{
		Code:      input.Code,
		Name:      input.Name,
		Location:  input.Location,
		Status:    input.Status,
		CreatedBy: userID,
		UpdatedBy: userID,
	}

	if err := c.DB.Create(&project).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create project",
			"error":   err.Error(),
		})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": project})
}

func (c *ProjectController) GetAllProjects(ctx *fiber.Ctx) error {
	var projects []models.Project
	if err := c.DB.Find(&projects).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve projects",
		})
	}
	return ctx.JSON(fiber.Map{"success": true, "data": projects})
}

func (c *ProjectController) UpdateProject(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project id"})
	}

	var project models.Project
	if err := c.DB.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var input projectInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}

	project.Name = input.Name
	project.Location = input.Location
	if input.Status != "" {
		project.Status = input.Status
	}
	project.UpdatedBy = int(ctx.Locals("userID").(float64))

	if err := c.DB.Save(&project).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"success": true, "data": project})
}
