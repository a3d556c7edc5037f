// Package dbtest opens the integration-test database.
package dbtest

import (
	"os"
	"strings"
	"testing"

	"japoke-backend/internal/database"

	"gorm.io/gorm"
)

var tables = []string{
	"supplier_purchase_lines", "supplier_purchases", "whatsapp_logs", "store_settings",
	"wallet_transactions", "bs_protections", "exchange_rates", "purchases",
	"stock_movements", "orders", "poke_types", "supplies", "items", "categories", "admin_users",
}

// Open skips the test unless INTEGRATION_TESTS and TEST_DATABASE_DSN are set,
// then returns a migrated database with every table emptied.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests")
	}
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := database.Open(dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Exec("TRUNCATE " + strings.Join(tables, ", ") + " CASCADE").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
