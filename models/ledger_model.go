package models

import (
	"asset-app/controllers/idgen"
	"asset-app/types"

	"gorm.io/gorm"
)

// Ledger entry types.
const (
	EntryOpening            = "opening"
	EntryReserve            = "reserve"
	EntryReleaseReservation = "release_reservation"
	EntryDeduct             = "deduct"
	EntryRestore            = "restore"
	EntryTransferIn         = "transfer_in"
)

// StockLedgerEntry is append-only; rows are never updated or deleted.
// Delta is the signed effect on the asset's on-hand quantity, so for
// one asset: on_hand = sum(delta). Reservations carry delta 0 (they do
// not touch physical stock) with the reserved quantity in Quantity.
// Lost/Consumed/Damaged returns are written as zero-delta restore
// entries for audit completeness.
type StockLedgerEntry struct {
	gorm.Model
	ID        types.SnowflakeID `json:"id" gorm:"primary_key"`
	AssetID   int64             `json:"asset_id" gorm:"index"`
	RequestID int64             `json:"request_id" gorm:"index"`
	LineID    int64             `json:"line_id" gorm:"index"`
	EntryType string            `json:"entry_type"`
	Quantity  int               `json:"quantity"`
	Delta     int               `json:"delta"`
	Reason    string            `json:"reason"`
	CreatedBy int               `json:"created_by"`
}

func (e *StockLedgerEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == 0 {
		e.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
