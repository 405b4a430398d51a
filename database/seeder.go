// database/seeder.go
package database

import (
	"errors"
	"log"

	"asset-app/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func RunSeeders(db *gorm.DB) {
	SeedUsers(db)
	SeedCategories(db)
	SeedProjects(db)
}

func SeedUsers(db *gorm.DB) {
	users := []models.User{
		{Username: "admin", Name: "Administrator", Email: "admin@asset-tracking.local", Role: models.RoleAdmin},
		{Username: "warehouse1", Name: "Warehouseman", Email: "warehouse1@asset-tracking.local", Role: models.RoleWarehouseman},
		{Username: "engineer1", Name: "Site Engineer", Email: "engineer1@asset-tracking.local", Role: models.RoleSiteEngineer},
		{Username: "pm1", Name: "Project Manager", Email: "pm1@asset-tracking.local", Role: models.RoleProjectManager},
		{Username: "director1", Name: "Asset Director", Email: "director1@asset-tracking.local", Role: models.RoleAssetDirector},
		{Username: "supervisor1", Name: "Supervisor", Email: "supervisor1@asset-tracking.local", Role: models.RoleSupervisor},
	}

	for _, u := range users {
		var existing models.User
		err := db.Where("username = ?", u.Username).First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				hashed, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
				if err != nil {
					log.Println("Failed to hash seed password:", err)
					continue
				}
				u.Password = string(hashed)
				db.Create(&u)
			}
		}
	}
}

func SeedCategories(db *gorm.DB) {
	categories := []models.Category{
		{Code: "CONS", Name: "Consumables"},
		{Code: "TOOL", Name: "Small Tools"},
		{Code: "HEQP", Name: "Heavy Equipment", IsCritical: true},
		{Code: "SURV", Name: "Survey Instruments", IsCritical: true},
	}

	for _, c := range categories {
		var existing models.Category
		if err := db.Where("code = ?", c.Code).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				db.Create(&c)
			}
		}
	}
}

func SeedProjects(db *gorm.DB) {
	projects := []models.Project{
		{Code: "HQ", Name: "Head Office Warehouse", Location: "Head Office"},
		{Code: "SITE-A", Name: "Site A", Location: "North"},
	}

	for _, p := range projects {
		var existing models.Project
		if err := db.Where("code = ?", p.Code).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				db.Create(&p)
			}
		}
	}
}
