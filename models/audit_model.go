package models

import (
	"asset-app/controllers/idgen"
	"asset-app/types"

	"gorm.io/gorm"
)

// AuditEvent is the append-only trail of every workflow transition.
// Streamlined creations still write one event per logically skipped
// stage so the chain reads the same as the full path.
type AuditEvent struct {
	gorm.Model
	ID         int64  `json:"id" gorm:"primary_key"`
	RequestID  int64  `json:"request_id" gorm:"index"`
	BatchID    *int64 `json:"batch_id" gorm:"index"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorID    int    `json:"actor_id"`
	ActorRole  string `json:"actor_role"`
	Notes      string `json:"notes"`
}

func (e *AuditEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == 0 {
		e.ID = idgen.GenerateID()
	}
	return
}

// Incident types and statuses.
const (
	IncidentDamaged = "damaged"
	IncidentLost    = "lost"

	IncidentOpen     = "open"
	IncidentResolved = "resolved"
)

// Incident is opened when a line comes back Damaged or Lost. Creation
// happens after the return transaction commits so one failing incident
// never blocks the other lines of the same return.
type Incident struct {
	gorm.Model
	ID          types.SnowflakeID `json:"id" gorm:"primary_key"`
	RequestID   int64             `json:"request_id" gorm:"index"`
	LineID      int64             `json:"line_id"`
	AssetID     int64             `json:"asset_id" gorm:"index"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Status      string            `json:"status" gorm:"default:'open'"`
	ReportedBy  int               `json:"reported_by"`
	ResolvedBy  int               `json:"resolved_by"`
	Resolution  string            `json:"resolution"`
}

func (i *Incident) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == 0 {
		i.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
