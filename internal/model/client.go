package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Client is a customer of the firm. Every client logs in through its User.
type Client struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20)" json:"phone"`
	Company   *ClientCompany `gorm:"foreignKey:ClientID" json:"company,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ClientCompany is the legal entity tax calculations are run for.
type ClientCompany struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID         uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"client_id"`
	CompanyName      string         `gorm:"type:varchar(255);not null" json:"company_name"`
	CNPJ             string         `gorm:"column:cnpj;type:varchar(14);uniqueIndex;not null" json:"cnpj"`
	RegimeTributario string         `gorm:"type:varchar(30)" json:"regime_tributario"`
	CNAE             string         `gorm:"column:cnae;type:varchar(7)" json:"cnae"`
	CNAESecundarios  datatypes.JSON `gorm:"column:cnaes_secundarios;type:jsonb" json:"cnaes_secundarios" swaggertype:"array,string"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
