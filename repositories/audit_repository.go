package repositories

import (
	"asset-app/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db}
}

func (r *AuditRepository) ByRequest(requestID int64) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	if err := r.db.Where("request_id = ?", requestID).Order("id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *AuditRepository) ByBatch(batchID int64) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	if err := r.db.Where("batch_id = ?", batchID).Order("id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
