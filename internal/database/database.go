package database

import (
	"fmt"
	"os"
	"time"

	"github.com/sjperalta/studio-finance-api/internal/models"
	pkgLogger "github.com/sjperalta/studio-finance-api/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*gorm.DB, error) {
	logLevel := logger.Warn
	if os.Getenv("ENVIRONMENT") == "development" {
		logLevel = logger.Info
	}

	gormLogger := pkgLogger.NewGormLogger(
		logLevel,
		200*time.Millisecond,
	)

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// financeTables are owned by this service
var financeTables = []any{
	&models.IncomeEntry{},
	&models.ExpenseEntry{},
	&models.Receipt{},
	&models.ReceiptSequence{},
	&models.FinancialSummary{},
	&models.AuditLog{},
}

// collaboratorTables belong to the booking side; they are only created when
// the API runs standalone.
var collaboratorTables = []any{
	&models.User{},
	&models.Product{},
	&models.Order{},
}

// Migrate creates or updates the finance tables. withCollaborators also
// creates the user, product and order projections.
func Migrate(db *gorm.DB, withCollaborators bool) error {
	tables := financeTables
	if withCollaborators {
		tables = append(append([]any{}, collaboratorTables...), financeTables...)
	}
	if err := db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
