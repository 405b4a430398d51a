package workflow

import (
	"time"
)

// Actor is the opaque caller identity handed in by the auth layer.
type Actor struct {
	ID   int    `json:"id"`
	Role string `json:"role"`
}

type Action string

const (
	ActionCreate   Action = "create"
	ActionVerify   Action = "verify"
	ActionApprove  Action = "approve"
	ActionRelease  Action = "release"
	ActionReceive  Action = "receive"
	ActionReturn   Action = "return"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionDecline  Action = "decline"
)

// ReturnLine reports one line of a return: how much came back and in
// what condition.
type ReturnLine struct {
	LineID           int64  `json:"line_id"`
	QuantityReturned int    `json:"quantity_returned"`
	Condition        string `json:"condition"`
	Remarks          string `json:"remarks"`
}

// ActionInput is the single entry point contract for every workflow
// action on an existing request.
type ActionInput struct {
	Action    Action       `json:"action"`
	RequestID int64        `json:"request_id"`
	Actor     Actor        `json:"-"`
	Notes     string       `json:"notes"`
	Returns   []ReturnLine `json:"returns"`
}

type ActionResult struct {
	Success      bool   `json:"success"`
	RequestID    int64  `json:"request_id"`
	NewStatus    string `json:"new_status,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	Message      string `json:"message"`
	AuditEventID int64  `json:"audit_event_id,omitempty"`
}

// CreateLine is one requested item at creation time.
type CreateLine struct {
	AssetID  int64  `json:"asset_id"`
	ItemCode string `json:"item_code"`
	Quantity int    `json:"quantity"`
}

type CreateInput struct {
	EntityType           string       `json:"entity_type"`
	ProjectID            int64        `json:"project_id"`
	DestinationProjectID int64        `json:"destination_project_id"`
	Actor                Actor        `json:"-"`
	ReceiverID           int          `json:"receiver_id"`
	Purpose              string       `json:"purpose"`
	Notes                string       `json:"notes"`
	ExpectedReturnDate   *time.Time   `json:"expected_return_date"`
	Lines                []CreateLine `json:"lines"`

	// Set by the batch coordinator, never by callers.
	BatchID        *int64 `json:"-"`
	BatchReference string `json:"-"`
}
