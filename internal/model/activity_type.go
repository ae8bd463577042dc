package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActivityType is an admin-maintained presumption profile (tipo_atividade).
// Percentages are stored as 0-100. When VariableIRPJ is set the IRPJ
// presumption depends on whether annual revenue exceeds RevenueLimit.
type ActivityType struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string           `gorm:"column:nome;type:varchar(255);uniqueIndex;not null" json:"nome"`
	Description     string           `gorm:"column:descricao;type:text" json:"descricao"`
	PresumptionIRPJ decimal.Decimal  `gorm:"column:presuncao_irpj;type:decimal(5,2);not null" json:"presuncao_irpj"`
	PresumptionCSLL decimal.Decimal  `gorm:"column:presuncao_csll;type:decimal(5,2);not null" json:"presuncao_csll"`
	VariableIRPJ    bool             `gorm:"column:presuncao_irpj_variavel;not null;default:false" json:"presuncao_irpj_variavel"`
	RevenueLimit    *decimal.Decimal `gorm:"column:faturamento_limite;type:decimal(18,2)" json:"faturamento_limite"`
	IRPJUpToLimit   *decimal.Decimal `gorm:"column:presuncao_irpj_ate_limite;type:decimal(5,2)" json:"presuncao_irpj_ate_limite"`
	IRPJAboveLimit  *decimal.Decimal `gorm:"column:presuncao_irpj_acima_limite;type:decimal(5,2)" json:"presuncao_irpj_acima_limite"`
	Active          bool             `gorm:"column:ativo;not null;default:true;index" json:"ativo"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TableName keeps the historical table name.
func (ActivityType) TableName() string { return "tipo_atividade" }

// IRPJPresumption returns the IRPJ percentage that applies to the given annual revenue.
func (a ActivityType) IRPJPresumption(annualRevenue decimal.Decimal) decimal.Decimal {
	if !a.VariableIRPJ || a.RevenueLimit == nil || a.IRPJUpToLimit == nil || a.IRPJAboveLimit == nil {
		return a.PresumptionIRPJ
	}
	if annualRevenue.LessThanOrEqual(*a.RevenueLimit) {
		return *a.IRPJUpToLimit
	}
	return *a.IRPJAboveLimit
}
