// Package testsupport gives tests a real transactional store: an embedded
// SQLite database per test, migrated with the production schema.
package testsupport

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a fresh file-backed SQLite database. It holds a single
// connection, so code under test must run every in-transaction query on tx.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return db
}

// SeedSite creates a location and the given units operating there.
func SeedSite(t testing.TB, db *gorm.DB, locationId string, unitIds ...string) {
	t.Helper()
	if err := db.Create(&models.Location{ID: locationId, Name: locationId}).Error; err != nil {
		t.Fatalf("seed location %s: %v", locationId, err)
	}
	for _, unitId := range unitIds {
		if err := db.Create(&models.Unit{ID: unitId, LocationId: locationId, Name: unitId}).Error; err != nil {
			t.Fatalf("seed unit %s: %v", unitId, err)
		}
	}
}
