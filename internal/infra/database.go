package infra

import (
	"fmt"
	"time"

	"hotelbilling/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the Postgres connection and brings the invoices table up to date.
// TranslateError makes unique violations surface as gorm.ErrDuplicatedKey, which the invoice
// service relies on to reject a second invoice for the same reservation.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates the invoices table and applies the DDL AutoMigrate cannot
// express. Reservation, room, service, client and payment tables belong to other subsystems and
// are never migrated here.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Invoice{}); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent Postgres-only statements. Other dialects (SQLite in tests)
// skip them.
func applySchemaPatches(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	patches := []struct{ descr, sql string }{
		{"status check constraint", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_invoices_status') THEN
    ALTER TABLE invoices
      ADD CONSTRAINT chk_invoices_status
      CHECK (status IN ('PENDING', 'PAID', 'PARTIAL', 'REFUNDED'));
  END IF;
END $$`},
		{"non-negative total", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_invoices_total_amount') THEN
    ALTER TABLE invoices
      ADD CONSTRAINT chk_invoices_total_amount CHECK (total_amount >= 0);
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
