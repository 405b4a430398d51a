package models

import (
	"time"

	"asset-app/controllers/idgen"

	"gorm.io/gorm"
)

// Entity types moved through the approval workflow.
const (
	EntityWithdrawal   = "withdrawal"
	EntityBorrowedTool = "borrowed_tool"
	EntityTransfer     = "transfer"
	EntityRequest      = "request"
)

// Criticality tiers.
const (
	CriticalityBasic    = "basic"
	CriticalityCritical = "critical"
)

// Request statuses.
const (
	StatusDraft               = "draft"
	StatusPendingVerification = "pending_verification"
	StatusPendingApproval     = "pending_approval"
	StatusApproved            = "approved"
	StatusReleased            = "released"
	StatusBorrowed            = "borrowed"
	StatusInTransit           = "in_transit"
	StatusReceived            = "received"
	StatusCompleted           = "completed"
	StatusReturned            = "returned"
	StatusCancelled           = "cancelled"
	StatusDeclined            = "declined"
)

// Return conditions on a line.
const (
	ConditionGood     = "good"
	ConditionDamaged  = "damaged"
	ConditionLost     = "lost"
	ConditionConsumed = "consumed"
)

// WorkflowRequest is never hard-deleted; it only ever moves to a
// terminal status through the state machine.
type WorkflowRequest struct {
	gorm.Model
	ID          int64  `json:"id" gorm:"primary_key"`
	RequestNo   string `json:"request_no" gorm:"unique"`
	EntityType  string `json:"entity_type" gorm:"index"`
	Criticality string `json:"criticality"`
	Status      string `json:"status" gorm:"index;default:'draft'"`
	BatchID     *int64 `json:"batch_id" gorm:"index"`

	ProjectID            int64  `json:"project_id"`
	DestinationProjectID int64  `json:"destination_project_id"`
	Purpose              string `json:"purpose"`

	// Custody holder for Return (receiver on withdrawals, borrower on
	// tool loans).
	ReceiverID         int        `json:"receiver_id"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`

	InitiatorID int `json:"initiator_id"`

	// Per-stage actor, timestamp and notes, filled as stages are
	// reached.
	VerifiedBy     int        `json:"verified_by"`
	VerifiedAt     *time.Time `json:"verified_at"`
	VerifyNotes    string     `json:"verify_notes"`
	ApprovedBy     int        `json:"approved_by"`
	ApprovedAt     *time.Time `json:"approved_at"`
	ApproveNotes   string     `json:"approve_notes"`
	ReleasedBy     int        `json:"released_by"`
	ReleasedAt     *time.Time `json:"released_at"`
	ReleaseNotes   string     `json:"release_notes"`
	ReceivedBy     int        `json:"received_by"`
	ReceivedAt     *time.Time `json:"received_at"`
	ReturnedBy     int        `json:"returned_by"`
	ReturnedAt     *time.Time `json:"returned_at"`
	CompletedBy    int        `json:"completed_by"`
	CompletedAt    *time.Time `json:"completed_at"`
	CancelledBy    int        `json:"cancelled_by"`
	CancelledAt    *time.Time `json:"cancelled_at"`
	CancelNotes    string     `json:"cancel_notes"`
	DeclinedBy     int        `json:"declined_by"`
	DeclinedAt     *time.Time `json:"declined_at"`
	DeclineNotes   string     `json:"decline_notes"`

	CreatedBy int
	UpdatedBy int
	DeletedBy int

	Lines []RequestLine `json:"lines" gorm:"foreignKey:RequestID;references:ID"`
}

func (r *WorkflowRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == 0 {
		r.ID = idgen.GenerateID()
	}
	return
}

// IsTerminal reports whether no further transition is legal.
func (r *WorkflowRequest) IsTerminal() bool {
	switch r.Status {
	case StatusCompleted, StatusReturned, StatusCancelled, StatusDeclined:
		return true
	}
	return false
}

// IsOverdue is derived at read time, never stored. An overdue request
// still accepts every transition legal for its status.
func (r *WorkflowRequest) IsOverdue(now time.Time) bool {
	if r.ExpectedReturnDate == nil {
		return false
	}
	switch r.Status {
	case StatusReleased, StatusBorrowed, StatusInTransit:
		return now.After(*r.ExpectedReturnDate)
	}
	return false
}

// RequestLine invariants: QuantityDeducted <= QuantityRequested and
// QuantityReturned <= QuantityDeducted. The stock ledger enforces both.
type RequestLine struct {
	gorm.Model
	ID        int64  `json:"id" gorm:"primary_key"`
	RequestID int64  `json:"request_id" gorm:"index"`
	AssetID   int64  `json:"asset_id" gorm:"index"`
	ItemCode  string `json:"item_code"`

	QuantityRequested int `json:"quantity_requested"`
	QuantityReserved  int `json:"quantity_reserved"`
	QuantityDeducted  int `json:"quantity_deducted"`
	QuantityReturned  int `json:"quantity_returned"`

	ReturnCondition string `json:"return_condition"`
	ReturnRemarks   string `json:"return_remarks"`
}

func (l *RequestLine) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == 0 {
		l.ID = idgen.GenerateID()
	}
	return
}

// RequestBatch groups requests created together; they advance through
// the workflow as one unit while each line keeps its own return data.
type RequestBatch struct {
	gorm.Model
	ID             int64  `json:"id" gorm:"primary_key"`
	BatchReference string `json:"batch_reference" gorm:"unique"`
	EntityType     string `json:"entity_type"`
	CreatedBy      int
	UpdatedBy      int
	DeletedBy      int
}

func (b *RequestBatch) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == 0 {
		b.ID = idgen.GenerateID()
	}
	return
}
