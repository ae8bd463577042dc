package database

import (
	"fmt"
	"time"

	"occ-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every table owned by the API, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.AuditLog{},
		&model.Client{},
		&model.ClientCompany{},
		&model.TaxCalculationReport{},
		&model.Category{},
		&model.Post{},
		&model.Survey{},
		&model.SurveyQuestion{},
		&model.SurveyResponse{},
		&model.SurveyAnswer{},
		&model.TaxPlan{},
		&model.PlanRevenue{},
		&model.PlanExpense{},
		&model.ActivityType{},
	}
}

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, maxConns int, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.AutoMigrate(Models()...); err != nil {
		log.Warn("auto-migrate failed", zap.Error(err))
	}

	return db, nil
}
