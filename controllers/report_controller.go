package controllers

import (
	"fmt"
	"net/http"
	"time"

	"asset-app/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ReportController struct {
	DB        *gorm.DB
	inventory *repositories.InventoryRepository
	requests  *repositories.RequestRepository
}

func NewReportController(DB *gorm.DB) *ReportController {
	return &ReportController{
		DB:        DB,
		inventory: repositories.NewInventoryRepository(DB),
		requests:  repositories.NewRequestRepository(DB),
	}
}

func parseLedgerFilter(ctx *fiber.Ctx) (repositories.LedgerFilter, error) {
	filter := repositories.LedgerFilter{
		AssetID:   int64(ctx.QueryInt("asset_id")),
		RequestID: int64(ctx.QueryInt("request_id")),
	}

	if from := ctx.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return filter, fmt.Errorf("invalid from date: %s", from)
		}
		filter.From = &t
	}
	if to := ctx.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return filter, fmt.Errorf("invalid to date: %s", to)
		}
		// Exclusive upper bound, the whole "to" day is included.
		t = t.AddDate(0, 0, 1)
		filter.To = &t
	}

	return filter, nil
}

func (c *ReportController) GetLedger(ctx *fiber.Ctx) error {
	filter, err := parseLedgerFilter(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	entries, err := c.inventory.GetLedgerEntries(filter)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve ledger entries",
		})
	}

	return ctx.JSON(fiber.Map{"success": true, "data": entries})
}

// ExportLedgerExcel streams the stock ledger as an xlsx file.
func (c *ReportController) ExportLedgerExcel(ctx *fiber.Ctx) error {
	filter, err := parseLedgerFilter(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	entries, err := c.inventory.GetLedgerEntries(filter)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	f := excelize.NewFile()
	sheet := "Sheet1"

	f.SetCellValue(sheet, "A1", "Date")
	f.SetCellValue(sheet, "B1", "Asset ID")
	f.SetCellValue(sheet, "C1", "Request ID")
	f.SetCellValue(sheet, "D1", "Entry Type")
	f.SetCellValue(sheet, "E1", "Quantity")
	f.SetCellValue(sheet, "F1", "Delta")
	f.SetCellValue(sheet, "G1", "Reason")
	f.SetCellValue(sheet, "H1", "Created By")

	for i, entry := range entries {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), entry.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), entry.AssetID)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", i+2), entry.RequestID)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", i+2), entry.EntryType)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", i+2), entry.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", i+2), entry.Delta)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", i+2), entry.Reason)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", i+2), entry.CreatedBy)
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", `attachment; filename="stock_ledger.xlsx"`)

	if err := f.Write(ctx.Response().BodyWriter()); err != nil {
		return ctx.Status(http.StatusInternalServerError).SendString("Failed to generate Excel")
	}

	return nil
}

// GetOverdue lists borrowed or transferred requests whose expected
// return date has passed without a return.
func (c *ReportController) GetOverdue(ctx *fiber.Ctx) error {
	requests, err := c.requests.ListOverdue(time.Now())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve overdue requests",
		})
	}

	return ctx.JSON(fiber.Map{"success": true, "data": requests})
}
