package infra

import (
	"fmt"

	"recantoverde/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// to create / update all tables, then applies the idempotent SQL patches that
// GORM cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against a
// scratch database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.MenuItem{},
		&model.Table{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusChange{},
		&model.CaixaSession{},
		&model.CaixaMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot fully handle
// on its own. Each statement uses existence guards so re-running on an
// already-patched database is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open caixa session, enforced by the database even when
		// two opens race past the application-level check.
		{"unique open caixa session", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uix_caixa_sessions_open') THEN
    CREATE UNIQUE INDEX uix_caixa_sessions_open
        ON caixa_sessions (status)
        WHERE status = 'open';
  END IF;
END $$`},
		// Open-order lookups by table are the hot path for release checks.
		{"partial index on open orders per table", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_orders_table_open') THEN
    CREATE INDEX idx_orders_table_open
        ON orders (table_id)
        WHERE status NOT IN ('paid', 'cancelled');
  END IF;
END $$`},
		// Ledger replay reads all movements of a session in insertion order.
		{"index on caixa movements per session", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_caixa_movements_session') THEN
    CREATE INDEX idx_caixa_movements_session
        ON caixa_movements (session_id, created_at);
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
