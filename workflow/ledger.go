package workflow

import (
	"errors"
	"fmt"

	"asset-app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger applies quantity changes for one transaction scope. Every
// mutation locks the asset row, updates the materialized counters and
// appends one immutable stock ledger entry, so availability re-checks
// always read the live count.
type Ledger struct {
	tx *gorm.DB
}

func NewLedger(tx *gorm.DB) *Ledger {
	return &Ledger{tx: tx}
}

// lockForUpdate takes a row lock on server databases. Sqlite (tests)
// has a single writer, so the clause is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (l *Ledger) lockAsset(assetID int64) (*models.Asset, error) {
	var asset models.Asset
	if err := lockForUpdate(l.tx).First(&asset, "id = ?", assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Validationf("asset %d not found", assetID)
		}
		return nil, err
	}
	return &asset, nil
}

func (l *Ledger) appendEntry(asset *models.Asset, line *models.RequestLine, entryType string, qty, delta int, reason string, actor int) error {
	entry := models.StockLedgerEntry{
		AssetID:   asset.ID,
		EntryType: entryType,
		Quantity:  qty,
		Delta:     delta,
		Reason:    reason,
		CreatedBy: actor,
	}
	if line != nil {
		entry.RequestID = line.RequestID
		entry.LineID = line.ID
	}
	return l.tx.Create(&entry).Error
}

// Reserve claims qty against the live available count
// (on_hand - reserved). It never touches physical stock; delta 0.
func (l *Ledger) Reserve(line *models.RequestLine, actor int) error {
	if line.QuantityRequested <= 0 {
		return Validationf("quantity must be positive")
	}
	if line.QuantityReserved > 0 {
		return ErrAlreadyProcessed
	}

	asset, err := l.lockAsset(line.AssetID)
	if err != nil {
		return err
	}
	if line.QuantityRequested > asset.QuantityAvailable() {
		return InsufficientQuantityf("item %s: requested %d but only %d available",
			asset.ItemCode, line.QuantityRequested, asset.QuantityAvailable())
	}

	if err := l.tx.Exec("UPDATE assets SET quantity_reserved = quantity_reserved + ? WHERE id = ?",
		line.QuantityRequested, asset.ID).Error; err != nil {
		return err
	}
	line.QuantityReserved = line.QuantityRequested
	if err := l.tx.Model(&models.RequestLine{}).Where("id = ?", line.ID).
		Update("quantity_reserved", line.QuantityReserved).Error; err != nil {
		return err
	}

	return l.appendEntry(asset, line, models.EntryReserve, line.QuantityRequested, 0, "reservation", actor)
}

// Deduct converts a reservation into a physical stock decrement at
// Release/Borrow. Idempotent per line: a second call is a no-op
// answering ErrAlreadyDeducted and writes nothing.
func (l *Ledger) Deduct(line *models.RequestLine, actor int) error {
	if line.QuantityDeducted > 0 {
		return ErrAlreadyDeducted
	}
	qty := line.QuantityRequested
	if qty > line.QuantityReserved {
		return Validationf("deduct of %d exceeds reservation of %d", qty, line.QuantityReserved)
	}

	asset, err := l.lockAsset(line.AssetID)
	if err != nil {
		return err
	}
	if err := l.tx.Exec("UPDATE assets SET quantity_on_hand = quantity_on_hand - ?, quantity_reserved = quantity_reserved - ? WHERE id = ?",
		qty, qty, asset.ID).Error; err != nil {
		return err
	}

	line.QuantityDeducted = qty
	line.QuantityReserved = 0
	if err := l.tx.Model(&models.RequestLine{}).Where("id = ?", line.ID).
		Updates(map[string]interface{}{"quantity_deducted": qty, "quantity_reserved": 0}).Error; err != nil {
		return err
	}

	return l.appendEntry(asset, line, models.EntryDeduct, qty, -qty, "released", actor)
}

// Restore is the idempotent inverse of Deduct, fired at Return or
// Cancel-after-deduction. Only goods returned in serviceable
// condition go back to stock; Damaged, Lost and Consumed lines keep
// the deduction permanent but still append a zero-delta entry for
// audit completeness.
func (l *Ledger) Restore(line *models.RequestLine, qty int, condition string, actor int) error {
	if line.QuantityDeducted == 0 || line.QuantityReturned > 0 {
		return ErrNothingToRestore
	}
	if qty <= 0 || qty > line.QuantityDeducted {
		return Validationf("returned quantity %d must be between 1 and %d", qty, line.QuantityDeducted)
	}
	switch condition {
	case models.ConditionGood, models.ConditionDamaged, models.ConditionLost, models.ConditionConsumed:
	default:
		return Validationf("unknown return condition %q", condition)
	}

	asset, err := l.lockAsset(line.AssetID)
	if err != nil {
		return err
	}

	restored := 0
	if condition == models.ConditionGood {
		restored = qty
		if err := l.tx.Exec("UPDATE assets SET quantity_on_hand = quantity_on_hand + ? WHERE id = ?",
			restored, asset.ID).Error; err != nil {
			return err
		}
	}

	line.QuantityReturned = qty
	line.ReturnCondition = condition
	if err := l.tx.Model(&models.RequestLine{}).Where("id = ?", line.ID).
		Updates(map[string]interface{}{"quantity_returned": qty, "return_condition": condition}).Error; err != nil {
		return err
	}

	return l.appendEntry(asset, line, models.EntryRestore, qty, restored, "return "+condition, actor)
}

// CancelReservation releases whatever the request still holds:
// undeducted reservations are freed, deducted lines not yet returned
// are restored to stock. Idempotent; lines already settled are
// skipped.
func (l *Ledger) CancelReservation(req *models.WorkflowRequest, actor int) error {
	for i := range req.Lines {
		line := &req.Lines[i]

		if line.QuantityReserved > 0 {
			asset, err := l.lockAsset(line.AssetID)
			if err != nil {
				return err
			}
			if err := l.tx.Exec("UPDATE assets SET quantity_reserved = quantity_reserved - ? WHERE id = ?",
				line.QuantityReserved, asset.ID).Error; err != nil {
				return err
			}
			if err := l.appendEntry(asset, line, models.EntryReleaseReservation, line.QuantityReserved, 0, "cancelled", actor); err != nil {
				return err
			}
			if err := l.tx.Model(&models.RequestLine{}).Where("id = ?", line.ID).
				Update("quantity_reserved", 0).Error; err != nil {
				return err
			}
			line.QuantityReserved = 0
			continue
		}

		if line.QuantityDeducted > 0 && line.QuantityReturned == 0 {
			asset, err := l.lockAsset(line.AssetID)
			if err != nil {
				return err
			}
			if err := l.tx.Exec("UPDATE assets SET quantity_on_hand = quantity_on_hand + ? WHERE id = ?",
				line.QuantityDeducted, asset.ID).Error; err != nil {
				return err
			}
			if err := l.appendEntry(asset, line, models.EntryRestore, line.QuantityDeducted, line.QuantityDeducted, "cancelled after release", actor); err != nil {
				return err
			}
			if err := l.tx.Model(&models.RequestLine{}).Where("id = ?", line.ID).
				Updates(map[string]interface{}{"quantity_returned": line.QuantityDeducted, "return_condition": models.ConditionGood}).Error; err != nil {
				return err
			}
			line.QuantityReturned = line.QuantityDeducted
		}
	}
	return nil
}

// TransferIn credits the deducted quantity to the destination
// project's asset row at Receive, creating the row on first transfer
// of that item code.
func (l *Ledger) TransferIn(line *models.RequestLine, destProjectID int64, actor int) error {
	if line.QuantityDeducted == 0 {
		return ErrNothingToRestore
	}

	source, err := l.lockAsset(line.AssetID)
	if err != nil {
		return err
	}

	dest := models.Asset{
		ItemCode:   source.ItemCode,
		ProjectID:  destProjectID,
		Name:       source.Name,
		Uom:        source.Uom,
		CategoryID: source.CategoryID,
		Consumable: source.Consumable,
		UnitCost:   source.UnitCost,
		CreatedBy:  actor,
	}
	if err := lockForUpdate(l.tx).
		Where("item_code = ? AND project_id = ?", source.ItemCode, destProjectID).
		FirstOrCreate(&dest).Error; err != nil {
		return err
	}

	if err := l.tx.Exec("UPDATE assets SET quantity_on_hand = quantity_on_hand + ? WHERE id = ?",
		line.QuantityDeducted, dest.ID).Error; err != nil {
		return err
	}

	return l.appendEntry(&dest, line, models.EntryTransferIn, line.QuantityDeducted, line.QuantityDeducted,
		fmt.Sprintf("transfer from project %d", source.ProjectID), actor)
}

// Opening seeds initial stock for an asset.
func (l *Ledger) Opening(assetID int64, qty int, actor int) error {
	if qty <= 0 {
		return Validationf("opening quantity must be positive")
	}
	asset, err := l.lockAsset(assetID)
	if err != nil {
		return err
	}
	if err := l.tx.Exec("UPDATE assets SET quantity_on_hand = quantity_on_hand + ? WHERE id = ?",
		qty, asset.ID).Error; err != nil {
		return err
	}
	return l.appendEntry(asset, nil, models.EntryOpening, qty, qty, "opening stock", actor)
}

// Available answers the live reservable quantity for an asset.
func (l *Ledger) Available(assetID int64) (int, error) {
	var asset models.Asset
	if err := l.tx.First(&asset, "id = ?", assetID).Error; err != nil {
		return 0, err
	}
	return asset.QuantityAvailable(), nil
}
