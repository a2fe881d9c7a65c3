package models

import (
	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Location{}, &Unit{},
		&InventoryLot{},
		&TraceLink{},
		&LedgerEntry{}, &LedgerLine{},
		&Invoice{},
		&Period{},
	)
}
