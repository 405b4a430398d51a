package repositories

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"asset-app/models"

	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db}
}

var requestPrefixes = map[string]string{
	models.EntityWithdrawal:   "WD",
	models.EntityBorrowedTool: "BR",
	models.EntityTransfer:     "TF",
	models.EntityRequest:      "RQ",
}

// GenerateRequestNumber produces e.g. WD2608310001: prefix + date +
// 4-digit daily sequence, continued from the last request of the same
// entity type.
func GenerateRequestNumber(tx *gorm.DB, entityType string) (string, error) {
	prefix, ok := requestPrefixes[entityType]
	if !ok {
		return "", fmt.Errorf("unknown entity type %q", entityType)
	}

	var last models.WorkflowRequest
	err := tx.Where("entity_type = ?", entityType).Order("request_no desc").First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	currentDate := time.Now().Format("060102")
	sequence := 1
	if last.RequestNo != "" && len(last.RequestNo) >= 12 {
		lastDatePart := last.RequestNo[2:8]
		if lastDatePart == currentDate {
			lastSeq, _ := strconv.Atoi(last.RequestNo[len(last.RequestNo)-4:])
			sequence = lastSeq + 1
		}
	}

	return fmt.Sprintf("%s%s%04d", prefix, currentDate, sequence), nil
}

// GenerateBatchReference produces e.g. BT2608310001.
func GenerateBatchReference(tx *gorm.DB) (string, error) {
	var last models.RequestBatch
	err := tx.Order("batch_reference desc").First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	currentDate := time.Now().Format("060102")
	sequence := 1
	if last.BatchReference != "" && len(last.BatchReference) >= 12 {
		if last.BatchReference[2:8] == currentDate {
			lastSeq, _ := strconv.Atoi(last.BatchReference[len(last.BatchReference)-4:])
			sequence = lastSeq + 1
		}
	}

	return fmt.Sprintf("BT%s%04d", currentDate, sequence), nil
}

func (r *RequestRepository) GetByID(id int64) (*models.WorkflowRequest, error) {
	var req models.WorkflowRequest
	if err := r.db.Preload("Lines").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

type RequestFilter struct {
	EntityType string
	Status     string
	ProjectID  int64
	BatchID    int64
	Initiator  int
}

func (r *RequestRepository) List(filter RequestFilter) ([]models.WorkflowRequest, error) {
	q := r.db.Preload("Lines").Order("id desc")
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ProjectID != 0 {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.BatchID != 0 {
		q = q.Where("batch_id = ?", filter.BatchID)
	}
	if filter.Initiator != 0 {
		q = q.Where("initiator_id = ?", filter.Initiator)
	}

	var requests []models.WorkflowRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListOverdue answers requests whose expected return date has passed
// while stock is still out. Overdue is derived here at read time, it
// is not a stored status.
func (r *RequestRepository) ListOverdue(now time.Time) ([]models.WorkflowRequest, error) {
	var requests []models.WorkflowRequest
	err := r.db.Preload("Lines").
		Where("expected_return_date IS NOT NULL AND expected_return_date < ?", now).
		Where("status IN ?", []string{models.StatusReleased, models.StatusBorrowed, models.StatusInTransit}).
		Order("expected_return_date asc").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *RequestRepository) ListByBatch(batchID int64) ([]models.WorkflowRequest, error) {
	var requests []models.WorkflowRequest
	if err := r.db.Preload("Lines").Where("batch_id = ?", batchID).Order("id asc").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
