package repository

import (
	"context"

	"github.com/yukikurage/oppuss/internal/database"
	"github.com/yukikurage/oppuss/internal/models"
	"gorm.io/gorm"
)

// GormShoppingItemRepository is a GORM implementation of ShoppingItemRepository
type GormShoppingItemRepository struct {
	db *gorm.DB
}

// NewShoppingItemRepository creates a new ShoppingItemRepository
func NewShoppingItemRepository(db *gorm.DB) ShoppingItemRepository {
	return &GormShoppingItemRepository{db: db}
}

func (r *GormShoppingItemRepository) Create(ctx context.Context, item *models.ShoppingItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *GormShoppingItemRepository) FindByID(ctx context.Context, id string) (*models.ShoppingItem, error) {
	var item models.ShoppingItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormShoppingItemRepository) ListByUserID(ctx context.Context, userID string) ([]models.ShoppingItem, error) {
	items := []models.ShoppingItem{}
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(userID), database.NewestFirst).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormShoppingItemRepository) Update(ctx context.Context, item *models.ShoppingItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *GormShoppingItemRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ShoppingItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormShoppingItemRepository) DeleteCompleted(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(userID)).
		Where("completed = ?", true).
		Delete(&models.ShoppingItem{})
	return result.RowsAffected, result.Error
}
