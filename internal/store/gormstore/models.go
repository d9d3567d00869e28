package gormstore

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StoreEntry mirrors the store_entries table.
type StoreEntry struct {
	StateKey  string         `gorm:"primaryKey;size:64"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (StoreEntry) TableName() string { return "store_entries" }

// AutoMigrate creates or updates the tables used by Store.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&StoreEntry{})
}
