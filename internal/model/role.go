package model

import (
	"time"

	"github.com/google/uuid"
)

// Permission codes checked by middleware.RequirePermission.
const (
	PermUsersManage         = "users.manage"
	PermRolesManage         = "roles.manage"
	PermClientsRead         = "clients.read"
	PermClientsWrite        = "clients.write"
	PermContentWrite        = "content.write"
	PermSurveysWrite        = "surveys.write"
	PermSurveyResponsesRead = "surveys.responses.read"
	PermTaxPlansManage      = "tax_plans.manage"
	PermActivityTypesWrite  = "activity_types.write"
	PermTaxSimulate         = "tax.simulate"
	PermCNAECacheManage     = "cnae.cache.manage"
	PermAuditRead           = "audit.read"
	PermDashboardRead       = "dashboard.read"
)

// Role represents a user role with associated permissions
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "clients.write"
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"`
}
