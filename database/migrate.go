// database/migrate.go
package database

import (
	"asset-app/models"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserSession{},
		&models.LoginLog{},
		&models.Category{},
		&models.Project{},
		&models.Asset{},
		&models.WorkflowRequest{},
		&models.RequestLine{},
		&models.RequestBatch{},
		&models.StockLedgerEntry{},
		&models.AuditEvent{},
		&models.Incident{},
	)
}
