package workflow

import (
	"asset-app/models"

	"gorm.io/gorm"
)

func appendAudit(tx *gorm.DB, req *models.WorkflowRequest, action Action, from, to string, actor Actor, notes string) (*models.AuditEvent, error) {
	evt := models.AuditEvent{
		RequestID:  req.ID,
		BatchID:    req.BatchID,
		Action:     string(action),
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Notes:      notes,
	}
	if err := tx.Create(&evt).Error; err != nil {
		return nil, err
	}
	return &evt, nil
}
