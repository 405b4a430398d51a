package workflow

import (
	"errors"
	"fmt"
	"time"

	"asset-app/config"
	"asset-app/models"
	"asset-app/repositories"

	"gorm.io/gorm"
)

type BatchInput struct {
	EntityType           string       `json:"entity_type"`
	ProjectID            int64        `json:"project_id"`
	DestinationProjectID int64        `json:"destination_project_id"`
	Actor                Actor        `json:"-"`
	ReceiverID           int          `json:"receiver_id"`
	Purpose              string       `json:"purpose"`
	Notes                string       `json:"notes"`
	ExpectedReturnDate   *time.Time   `json:"expected_return_date"`
	Items                []CreateLine `json:"items"`
}

type BatchItemResult struct {
	Index     int    `json:"index"`
	ItemCode  string `json:"item_code"`
	RequestID int64  `json:"request_id,omitempty"`
	RequestNo string `json:"request_no,omitempty"`
	Status    string `json:"status,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"message,omitempty"`
}

type BatchResult struct {
	Success        bool              `json:"success"`
	BatchID        int64             `json:"batch_id,omitempty"`
	BatchReference string            `json:"batch_reference,omitempty"`
	NewStatus      string            `json:"new_status,omitempty"`
	Items          []BatchItemResult `json:"items"`
	Message        string            `json:"message"`
}

// Coordinator validates and executes a set of line items as one
// logical unit: creation is all-or-nothing, batch transitions either
// move every request or none, and only returns settle per line.
type Coordinator struct {
	db       *gorm.DB
	machine  *Machine
	maxItems int
}

func NewCoordinator(db *gorm.DB, machine *Machine) *Coordinator {
	maxItems := config.BatchMaxItems
	if maxItems <= 0 {
		maxItems = 50
	}
	return &Coordinator{db: db, machine: machine, maxItems: maxItems}
}

// SubmitBatch pre-validates every item before any mutation. A single
// offending item fails the whole batch: no request, batch or ledger
// row is created.
func (c *Coordinator) SubmitBatch(in BatchInput) (BatchResult, error) {
	offending := c.prevalidate(in)
	if len(offending) > 0 {
		return BatchResult{
			Success: false,
			Items:   offending,
			Message: fmt.Sprintf("batch rejected: %d offending item(s)", len(offending)),
		}, Validationf("batch pre-validation failed")
	}

	pe := &pendingEffects{}
	tx := c.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	reference, err := repositories.GenerateBatchReference(tx)
	if err != nil {
		tx.Rollback()
		return BatchResult{Success: false, Message: err.Error()}, err
	}
	batch := models.RequestBatch{
		BatchReference: reference,
		EntityType:     in.EntityType,
		CreatedBy:      in.Actor.ID,
	}
	if err := tx.Create(&batch).Error; err != nil {
		tx.Rollback()
		return BatchResult{Success: false, Message: err.Error()}, err
	}

	items := make([]BatchItemResult, 0, len(in.Items))
	for i, item := range in.Items {
		req, err := c.machine.createInTx(tx, CreateInput{
			EntityType:           in.EntityType,
			ProjectID:            in.ProjectID,
			DestinationProjectID: in.DestinationProjectID,
			Actor:                in.Actor,
			ReceiverID:           in.ReceiverID,
			Purpose:              in.Purpose,
			Notes:                in.Notes,
			ExpectedReturnDate:   in.ExpectedReturnDate,
			Lines:                []CreateLine{item},
			BatchID:              &batch.ID,
			BatchReference:       reference,
		}, pe)
		if err != nil {
			tx.Rollback()
			return BatchResult{
				Success: false,
				Items: []BatchItemResult{{
					Index:     i,
					ItemCode:  item.ItemCode,
					ErrorKind: KindOf(err),
					Message:   err.Error(),
				}},
				Message: fmt.Sprintf("batch aborted at item %d: %s", i+1, err.Error()),
			}, err
		}
		items = append(items, BatchItemResult{
			Index:     i,
			ItemCode:  item.ItemCode,
			RequestID: req.ID,
			RequestNo: req.RequestNo,
			Status:    req.Status,
		})
	}

	if err := tx.Commit().Error; err != nil {
		return BatchResult{Success: false, Message: err.Error()}, err
	}
	c.machine.flush(pe)

	return BatchResult{
		Success:        true,
		BatchID:        batch.ID,
		BatchReference: reference,
		NewStatus:      items[0].Status,
		Items:          items,
		Message:        fmt.Sprintf("batch %s created with %d item(s)", reference, len(items)),
	}, nil
}

// prevalidate checks every item read-only and reports all offenders.
// Availability is re-checked under lock at reserve time; this pass
// exists to reject the batch before anything is written.
func (c *Coordinator) prevalidate(in BatchInput) []BatchItemResult {
	var offending []BatchItemResult
	fail := func(i int, code string, format string, args ...interface{}) {
		offending = append(offending, BatchItemResult{
			Index:     i,
			ItemCode:  code,
			ErrorKind: KindValidation,
			Message:   fmt.Sprintf(format, args...),
		})
	}

	if !validEntityType(in.EntityType) {
		fail(0, "", "unknown entity type %q", in.EntityType)
		return offending
	}
	if len(in.Items) == 0 {
		fail(0, "", "batch needs at least one item")
		return offending
	}
	if len(in.Items) > c.maxItems {
		fail(0, "", "batch of %d items exceeds the cap of %d", len(in.Items), c.maxItems)
		return offending
	}

	for i, item := range in.Items {
		if item.Quantity <= 0 {
			fail(i, item.ItemCode, "quantity must be positive")
			continue
		}

		var asset models.Asset
		q := c.db.Preload("Category")
		var err error
		if item.AssetID != 0 {
			err = q.First(&asset, "id = ?", item.AssetID).Error
		} else {
			err = q.First(&asset, "item_code = ? AND project_id = ?", item.ItemCode, in.ProjectID).Error
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fail(i, item.ItemCode, "item not found in project %d", in.ProjectID)
			} else {
				fail(i, item.ItemCode, "lookup failed: %s", err.Error())
			}
			continue
		}

		if in.EntityType == models.EntityWithdrawal && !asset.Consumable {
			fail(i, asset.ItemCode, "item is not a consumable")
			continue
		}
		if item.Quantity > asset.QuantityAvailable() {
			offending = append(offending, BatchItemResult{
				Index:     i,
				ItemCode:  asset.ItemCode,
				ErrorKind: KindInsufficientQuantity,
				Message:   fmt.Sprintf("requested %d but only %d available", item.Quantity, asset.QuantityAvailable()),
			})
		}
	}
	return offending
}

// ApplyBatch moves every request of a batch through one transition.
// Verify/Approve/Release/Receive/Complete/Cancel/Decline are
// all-or-nothing in a single transaction; Return settles per line and
// never lets one item block the others.
func (c *Coordinator) ApplyBatch(batchID int64, action Action, actor Actor, notes string, returns []ReturnLine) (BatchResult, error) {
	var batch models.RequestBatch
	if err := c.db.First(&batch, "id = ?", batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BatchResult{Success: false, Message: "batch not found"}, Validationf("batch %d not found", batchID)
		}
		return BatchResult{Success: false, Message: err.Error()}, err
	}

	var requests []models.WorkflowRequest
	if err := c.db.Where("batch_id = ?", batchID).Order("id asc").Find(&requests).Error; err != nil {
		return BatchResult{Success: false, Message: err.Error()}, err
	}
	if len(requests) == 0 {
		return BatchResult{Success: false, Message: "batch is empty"}, Validationf("batch %d has no requests", batchID)
	}

	if action == ActionReturn {
		return c.applyBatchReturn(&batch, requests, actor, notes, returns)
	}

	pe := &pendingEffects{}
	tx := c.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	items := make([]BatchItemResult, 0, len(requests))
	var newStatus string
	for i, req := range requests {
		res, err := c.machine.applyInTx(tx, ActionInput{
			Action:    action,
			RequestID: req.ID,
			Actor:     actor,
			Notes:     notes,
		}, pe)
		if err != nil {
			tx.Rollback()
			return BatchResult{
				Success: false,
				BatchID: batch.ID,
				Items: []BatchItemResult{{
					Index:     i,
					RequestID: req.ID,
					RequestNo: req.RequestNo,
					ErrorKind: KindOf(err),
					Message:   err.Error(),
				}},
				Message: fmt.Sprintf("batch %s abort: request %s failed, nothing was changed", batch.BatchReference, req.RequestNo),
			}, err
		}
		newStatus = res.NewStatus
		items = append(items, BatchItemResult{
			Index:     i,
			RequestID: req.ID,
			RequestNo: req.RequestNo,
			Status:    res.NewStatus,
		})
	}

	if err := tx.Commit().Error; err != nil {
		return BatchResult{Success: false, BatchID: batch.ID, Message: err.Error()}, err
	}
	c.machine.flush(pe)

	return BatchResult{
		Success:        true,
		BatchID:        batch.ID,
		BatchReference: batch.BatchReference,
		NewStatus:      newStatus,
		Items:          items,
		Message:        fmt.Sprintf("batch %s: %d request(s) now %s", batch.BatchReference, len(items), newStatus),
	}, nil
}

func (c *Coordinator) applyBatchReturn(batch *models.RequestBatch, requests []models.WorkflowRequest, actor Actor, notes string, returns []ReturnLine) (BatchResult, error) {
	items := make([]BatchItemResult, 0, len(requests))
	allOK := true

	for i, req := range requests {
		res, err := c.machine.Apply(ActionInput{
			Action:    ActionReturn,
			RequestID: req.ID,
			Actor:     actor,
			Notes:     notes,
			Returns:   returns,
		})
		if err != nil {
			allOK = false
			items = append(items, BatchItemResult{
				Index:     i,
				RequestID: req.ID,
				RequestNo: req.RequestNo,
				ErrorKind: KindOf(err),
				Message:   err.Error(),
			})
			continue
		}
		items = append(items, BatchItemResult{
			Index:     i,
			RequestID: req.ID,
			RequestNo: req.RequestNo,
			Status:    res.NewStatus,
		})
	}

	msg := fmt.Sprintf("batch %s return processed", batch.BatchReference)
	if !allOK {
		msg = fmt.Sprintf("batch %s return processed with failures", batch.BatchReference)
	}
	return BatchResult{
		Success:        allOK,
		BatchID:        batch.ID,
		BatchReference: batch.BatchReference,
		NewStatus:      models.StatusReturned,
		Items:          items,
		Message:        msg,
	}, nil
}
