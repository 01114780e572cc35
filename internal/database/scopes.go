package database

import (
	"gorm.io/gorm"
)

// OwnedBy restricts a query to rows whose user_id matches.
func OwnedBy(userID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// NewestFirst orders by creation time, most recent first.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

// OldestFirst orders by creation time, earliest first.
func OldestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
