package repositories

import (
	"time"

	"asset-app/models"

	"gorm.io/gorm"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db}
}

type listStock struct {
	ItemCode          string `json:"item_code"`
	ItemName          string `json:"item_name"`
	Uom               string `json:"uom"`
	Category          string `json:"category"`
	Project           string `json:"project"`
	QuantityOnHand    int    `json:"quantity_on_hand"`
	QuantityReserved  int    `json:"quantity_reserved"`
	QuantityAvailable int    `json:"quantity_available"`
}

func (r *InventoryRepository) GetStock() ([]listStock, error) {
	sqlStock := `select a.item_code, a.name as item_name, a.uom, c.name as category, p.name as project,
	a.quantity_on_hand, a.quantity_reserved,
	a.quantity_on_hand - a.quantity_reserved as quantity_available
	from assets a
	left join categories c on a.category_id = c.id
	left join projects p on a.project_id = p.id
	where a.deleted_at is null
	order by a.item_code
	`

	var stock []listStock
	if err := r.db.Raw(sqlStock).Scan(&stock).Error; err != nil {
		return nil, err
	}
	return stock, nil
}

type LedgerFilter struct {
	AssetID   int64
	RequestID int64
	From      *time.Time
	To        *time.Time
}

func (r *InventoryRepository) GetLedgerEntries(filter LedgerFilter) ([]models.StockLedgerEntry, error) {
	q := r.db.Order("id asc")
	if filter.AssetID != 0 {
		q = q.Where("asset_id = ?", filter.AssetID)
	}
	if filter.RequestID != 0 {
		q = q.Where("request_id = ?", filter.RequestID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}

	var entries []models.StockLedgerEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
