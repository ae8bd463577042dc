package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TaxCalculationReport is written once per comparison and never updated.
type TaxCalculationReport struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Company   *ClientCompany `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Year      int            `gorm:"not null;index" json:"ano"`

	CompanyType string `gorm:"type:varchar(20);not null" json:"tipo_empresa"`
	CNAE        string `gorm:"column:cnae;type:varchar(7);not null" json:"cnae"`

	// Current and Prior hold the 12 monthly figures each, January first.
	Current datatypes.JSON `gorm:"type:jsonb;not null" json:"meses_atual" swaggertype:"array,number"`
	Prior   datatypes.JSON `gorm:"type:jsonb;not null" json:"meses_anterior" swaggertype:"array,number"`

	Payroll12m decimal.Decimal `gorm:"column:folha_pagamento_12m;type:decimal(18,2);not null;default:0" json:"folha_pagamento_12m"`
	NetProfit  decimal.Decimal `gorm:"column:lucro_liquido_anual;type:decimal(18,2);not null;default:0" json:"lucro_liquido_anual"`
	ISSRate    decimal.Decimal `gorm:"column:aliquota_iss;type:decimal(6,4);not null;default:0" json:"aliquota_iss"`
	ICMSRate   decimal.Decimal `gorm:"column:aliquota_icms;type:decimal(6,4);not null;default:0" json:"aliquota_icms"`
	Credits    decimal.Decimal `gorm:"column:creditos_pis_cofins;type:decimal(18,2);not null;default:0" json:"creditos_pis_cofins"`

	RBA   decimal.Decimal `gorm:"column:rba;type:decimal(18,2);not null" json:"rba"`
	RBAA  decimal.Decimal `gorm:"column:rbaa;type:decimal(18,2);not null" json:"rbaa"`
	RBT12 decimal.Decimal `gorm:"column:rbt12;type:decimal(18,2);not null" json:"rbt12"`

	BestRegime string          `gorm:"type:varchar(30);not null;index" json:"melhor_regime"`
	Savings    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"economia"`

	// Result is the full comparison as returned to the caller.
	Result           datatypes.JSON `gorm:"type:jsonb;not null" json:"resultado" swaggertype:"object"`
	ReferenceVersion string         `gorm:"type:varchar(20)" json:"versao_tabelas"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by"`
	Creator   *User     `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
