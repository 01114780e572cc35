package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/oppuss/internal/models"
	"gorm.io/gorm"
)

// GormDataRepository is a GORM implementation of DataRepository
type GormDataRepository struct {
	db *gorm.DB
}

// NewDataRepository creates a new DataRepository
func NewDataRepository(db *gorm.DB) DataRepository {
	return &GormDataRepository{db: db}
}

// ReplaceUserData swaps the user's data for the given set in one transaction
func (r *GormDataRepository) ReplaceUserData(ctx context.Context, userID string, houses []models.House, rooms []models.Room, items []models.ShoppingItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := deleteUserData(tx, userID); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}

		if len(houses) > 0 {
			if err := tx.Create(&houses).Error; err != nil {
				return fmt.Errorf("failed to insert houses: %w", err)
			}
		}
		if len(rooms) > 0 {
			if err := tx.Create(&rooms).Error; err != nil {
				return fmt.Errorf("failed to insert rooms: %w", err)
			}
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("failed to insert shopping items: %w", err)
			}
		}

		return nil
	})
}

// DeleteUserData removes the user's houses, rooms and shopping items
func (r *GormDataRepository) DeleteUserData(ctx context.Context, userID string) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteUserData(tx, userID)
		removed = n
		return err
	})
	return removed, err
}

// deleteUserData must run inside a transaction. Rooms go first so that no room
// is ever left pointing at a removed house.
func deleteUserData(tx *gorm.DB, userID string) (int64, error) {
	ownedHouses := tx.Model(&models.House{}).
		Select("id").
		Where("user_id = ?", userID)

	if err := tx.Where("house_id IN (?)", ownedHouses).Delete(&models.Room{}).Error; err != nil {
		return 0, err
	}

	result := tx.Where("user_id = ?", userID).Delete(&models.House{})
	if result.Error != nil {
		return 0, result.Error
	}

	if err := tx.Where("user_id = ?", userID).Delete(&models.ShoppingItem{}).Error; err != nil {
		return 0, err
	}

	return result.RowsAffected, nil
}
