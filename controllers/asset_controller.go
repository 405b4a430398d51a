package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"asset-app/models"
	"asset-app/repositories"
	"asset-app/workflow"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type AssetController struct {
	DB *gorm.DB
}

func NewAssetController(DB *gorm.DB) *AssetController {
	return &AssetController{DB: DB}
}

type assetInput struct {
	ItemCode    string `json:"item_code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Uom         string `json:"uom" validate:"required"`
	CategoryID  uint   `json:"category_id" validate:"required"`
	ProjectID   int64  `json:"project_id" validate:"required"`
	Consumable  bool   `json:"consumable"`
	UnitCost    string `json:"unit_cost"`
	OpeningQty  int    `json:"opening_qty"`
}

func (c *AssetController) CreateAsset(ctx *fiber.Ctx) error {
	var input assetInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid payload",
			"error":   err.Error(),
		})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	unitCost := decimal.Zero
	if input.UnitCost != "" {
		parsed, err := decimal.NewFromString(input.UnitCost)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid unit_cost"})
		}
		unitCost = parsed
	}

	userID := int(ctx.Locals("userID").(float64))

	tx := c.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	asset := models.Asset{
		ItemCode:   input.ItemCode,
		Name:       input.Name,
		Uom:        input.Uom,
		CategoryID: input.CategoryID,
		ProjectID:  input.ProjectID,
		Consumable: input.Consumable,
		UnitCost:   unitCost,
		CreatedBy:  userID,
		UpdatedBy:  userID,
	}
	if err := tx.Create(&asset).Error; err != nil {
		tx.Rollback()
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create asset",
			"error":   err.Error(),
		})
	}

	if input.OpeningQty > 0 {
		ledger := workflow.NewLedger(tx)
		if err := ledger.Opening(asset.ID, input.OpeningQty, userID); err != nil {
			tx.Rollback()
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to record opening stock",
				"error":   err.Error(),
			})
		}
	}

	if err := tx.Commit().Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to commit",
			"error":   err.Error(),
		})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Asset created",
		"data":    asset,
	})
}

func (c *AssetController) GetAllAssets(ctx *fiber.Ctx) error {
	var assets []models.Asset
	q := c.DB.Preload("Category")
	if project := ctx.QueryInt("project_id"); project != 0 {
		q = q.Where("project_id = ?", project)
	}
	if err := q.Find(&assets).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve assets",
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Assets retrieved successfully",
		"data":    assets,
	})
}

func (c *AssetController) GetAssetByID(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset id"})
	}

	var asset models.Asset
	if err := c.DB.Preload("Category").First(&asset, "id = ?", int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"success": true, "data": asset})
}

func (c *AssetController) UpdateAsset(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid asset id"})
	}

	var asset models.Asset
	if err := c.DB.First(&asset, "id = ?", int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Asset not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var input assetInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}

	userID := int(ctx.Locals("userID").(float64))

	// Quantity counters are only ever touched by the stock ledger.
	asset.Name = input.Name
	asset.Uom = input.Uom
	asset.CategoryID = input.CategoryID
	asset.Consumable = input.Consumable
	if input.UnitCost != "" {
		if parsed, err := decimal.NewFromString(input.UnitCost); err == nil {
			asset.UnitCost = parsed
		}
	}
	asset.UpdatedBy = userID

	if err := c.DB.Save(&asset).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"success": true, "message": "Asset updated", "data": asset})
}

func (c *AssetController) GetStock(ctx *fiber.Ctx) error {
	repo := repositories.NewInventoryRepository(c.DB)
	stock, err := repo.GetStock()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "data": fiber.Map{"stock": stock}})
}

// ExportExcel streams the asset register as an xlsx file.
func (c *AssetController) ExportExcel(ctx *fiber.Ctx) error {
	repo := repositories.NewInventoryRepository(c.DB)
	stock, err := repo.GetStock()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	f := excelize.NewFile()
	sheet := "Sheet1"

	f.SetCellValue(sheet, "A1", "Item Code")
	f.SetCellValue(sheet, "B1", "Item Name")
	f.SetCellValue(sheet, "C1", "UOM")
	f.SetCellValue(sheet, "D1", "Category")
	f.SetCellValue(sheet, "E1", "Project")
	f.SetCellValue(sheet, "F1", "On Hand")
	f.SetCellValue(sheet, "G1", "Reserved")
	f.SetCellValue(sheet, "H1", "Available")

	for i, item := range stock {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), item.ItemCode)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), item.ItemName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", i+2), item.Uom)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", i+2), item.Category)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", i+2), item.Project)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", i+2), item.QuantityOnHand)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", i+2), item.QuantityReserved)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", i+2), item.QuantityAvailable)
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", `attachment; filename="asset_register.xlsx"`)

	if err := f.Write(ctx.Response().BodyWriter()); err != nil {
		return ctx.Status(http.StatusInternalServerError).SendString("Failed to generate Excel")
	}

	return nil
}
