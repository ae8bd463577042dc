package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionLogin          = "LOGIN"
	ActionChangePassword = "CHANGE_PASSWORD"
	ActionCreateUser     = "CREATE_USER"
	ActionUpdateUser     = "UPDATE_USER"
	ActionDeleteUser     = "DELETE_USER"

	ActionCreateClient = "CREATE_CLIENT"
	ActionUpdateClient = "UPDATE_CLIENT"
	ActionDeleteClient = "DELETE_CLIENT"

	ActionCreateTaxCalculation = "CREATE_TAX_CALCULATION"
	ActionDeleteTaxCalculation = "DELETE_TAX_CALCULATION"

	ActionCreatePost     = "CREATE_POST"
	ActionUpdatePost     = "UPDATE_POST"
	ActionDeletePost     = "DELETE_POST"
	ActionCreateCategory = "CREATE_CATEGORY"
	ActionDeleteCategory = "DELETE_CATEGORY"

	ActionCreateSurvey = "CREATE_SURVEY"
	ActionDeleteSurvey = "DELETE_SURVEY"

	ActionCreateTaxPlan = "CREATE_TAX_PLAN"
	ActionDeleteTaxPlan = "DELETE_TAX_PLAN"

	ActionCreateActivityType     = "CREATE_ACTIVITY_TYPE"
	ActionUpdateActivityType     = "UPDATE_ACTIVITY_TYPE"
	ActionDeactivateActivityType = "DEACTIVATE_ACTIVITY_TYPE"

	ActionUpdateRolePermissions = "UPDATE_ROLE_PERMISSIONS"
	ActionClearCNAECache        = "CLEAR_CNAE_CACHE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID        `gorm:"type:uuid;index" json:"user_id"` // nil for system actions
	User       *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string            `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string            `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string            `gorm:"type:varchar(255);index" json:"entity_name,omitempty"`
	Details    datatypes.JSONMap `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}
