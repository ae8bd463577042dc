package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxPlan collects a client's revenues and expenses for one fiscal year.
type TaxPlan struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"client_id"`
	Client      *Client        `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Year        int            `gorm:"not null;index" json:"year"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Notes       string         `gorm:"type:text" json:"notes"`
	Revenues    []PlanRevenue  `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE;" json:"revenues,omitempty"`
	Expenses    []PlanExpense  `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE;" json:"expenses,omitempty"`
	CreatedBy   uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type PlanRevenue struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PlanID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"plan_id"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PlanExpense is a cost line. Creditable expenses generate PIS/COFINS credits
// under the non-cumulative regime.
type PlanExpense struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PlanID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"plan_id"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"type:varchar(60)" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Creditable  bool            `gorm:"not null;default:false" json:"creditable"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}
