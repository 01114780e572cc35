package repository

import (
	"context"

	"github.com/yukikurage/oppuss/internal/database"
	"github.com/yukikurage/oppuss/internal/models"
	"gorm.io/gorm"
)

// GormHouseRepository is a GORM implementation of HouseRepository
type GormHouseRepository struct {
	db *gorm.DB
}

// NewHouseRepository creates a new HouseRepository
func NewHouseRepository(db *gorm.DB) HouseRepository {
	return &GormHouseRepository{db: db}
}

// Create creates a new house
func (r *GormHouseRepository) Create(ctx context.Context, house *models.House) error {
	return r.db.WithContext(ctx).Create(house).Error
}

// FindByID finds a house by ID
func (r *GormHouseRepository) FindByID(ctx context.Context, id string) (*models.House, error) {
	var house models.House
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&house).Error; err != nil {
		return nil, err
	}
	return &house, nil
}

// ListByUserID lists a user's houses, most recent first
func (r *GormHouseRepository) ListByUserID(ctx context.Context, userID string) ([]models.House, error) {
	houses := []models.House{}
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(userID), database.NewestFirst).
		Find(&houses).Error; err != nil {
		return nil, err
	}
	return houses, nil
}

// Update updates a house
func (r *GormHouseRepository) Update(ctx context.Context, house *models.House) error {
	return r.db.WithContext(ctx).Save(house).Error
}

// Delete deletes a house and all of its rooms in a transaction
func (r *GormHouseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("house_id = ?", id).Delete(&models.Room{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.House{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}
