package models

import (
	"asset-app/controllers/idgen"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	gorm.Model
	Code        string `json:"code" gorm:"unique"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsCritical  bool   `json:"is_critical" gorm:"default:false"`
	CreatedBy   int
	UpdatedBy   int
	DeletedBy   int
}

type Project struct {
	gorm.Model
	Code      string `json:"code" gorm:"unique"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Status    string `json:"status" gorm:"default:'active'"`
	CreatedBy int
	UpdatedBy int
	DeletedBy int
}

// Asset is one inventory line of one project. The same item code held
// by two projects is two asset rows, each with its own counters.
// QuantityOnHand and QuantityReserved are materialized from the stock
// ledger and only mutated together with a ledger entry, under a row
// lock.
type Asset struct {
	gorm.Model
	ID         int64           `json:"id" gorm:"primary_key"`
	ItemCode   string          `json:"item_code" gorm:"uniqueIndex:idx_asset_code_project"`
	ProjectID  int64           `json:"project_id" gorm:"uniqueIndex:idx_asset_code_project"`
	Name       string          `json:"name"`
	Uom        string          `json:"uom"`
	CategoryID uint            `json:"category_id"`
	Consumable bool            `json:"consumable" gorm:"default:false"`
	UnitCost   decimal.Decimal `json:"unit_cost" gorm:"type:decimal(20,4);default:0"`

	QuantityOnHand   int `json:"quantity_on_hand" gorm:"default:0"`
	QuantityReserved int `json:"quantity_reserved" gorm:"default:0"`

	CreatedBy int
	UpdatedBy int
	DeletedBy int

	Category Category `json:"category" gorm:"foreignKey:CategoryID"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == 0 {
		a.ID = idgen.GenerateID()
	}
	return
}

// QuantityAvailable is what a new reservation may still claim.
func (a *Asset) QuantityAvailable() int {
	return a.QuantityOnHand - a.QuantityReserved
}
