package models

import (
	"time"

	"gorm.io/gorm"
)

// Workflow roles. A user carries exactly one role; grants per role and
// action live in the workflow package.
const (
	RoleAdmin          = "admin"
	RoleWarehouseman   = "warehouseman"
	RoleSiteEngineer   = "site_engineer"
	RoleProjectManager = "project_manager"
	RoleAssetDirector  = "asset_director"
	RoleSupervisor     = "supervisor"
)

type User struct {
	gorm.Model
	Username  string `json:"username" gorm:"unique"`
	Password  string `json:"-"`
	Name      string `json:"name"`
	Email     string `json:"email" gorm:"unique"`
	Role      string `json:"role"`
	CreatedBy int
	UpdatedBy int
	DeletedBy int
}

type UserSession struct {
	gorm.Model
	UserID         uint      `json:"user_id"`
	SessionID      string    `json:"session_id" gorm:"unique"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type LoginLog struct {
	gorm.Model
	UserID    uint       `json:"user_id"`
	SessionID string     `json:"session_id"`
	LoginAt   time.Time  `json:"login_at"`
	LogoutAt  *time.Time `json:"logout_at"`
	IpAddress string     `json:"ip_address"`
}
