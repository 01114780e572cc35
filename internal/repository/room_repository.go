package repository

import (
	"context"
	"time"

	"github.com/yukikurage/oppuss/internal/database"
	"github.com/yukikurage/oppuss/internal/models"
	"gorm.io/gorm"
)

// GormRoomRepository is a GORM implementation of RoomRepository
type GormRoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &GormRoomRepository{db: db}
}

// Create creates a new room
func (r *GormRoomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// FindByID finds a room by ID
func (r *GormRoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// ListByHouseID lists the rooms of one house
func (r *GormRoomRepository) ListByHouseID(ctx context.Context, houseID string) ([]models.Room, error) {
	rooms := []models.Room{}
	if err := r.db.WithContext(ctx).
		Where("house_id = ?", houseID).
		Scopes(database.OldestFirst).
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListByUserID lists the rooms of every house owned by the user
func (r *GormRoomRepository) ListByUserID(ctx context.Context, userID string) ([]models.Room, error) {
	rooms := []models.Room{}

	ownedHouses := r.db.Model(&models.House{}).
		Select("id").
		Where("user_id = ?", userID)

	if err := r.db.WithContext(ctx).
		Where("house_id IN (?)", ownedHouses).
		Scopes(database.OldestFirst).
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// Update updates a room
func (r *GormRoomRepository) Update(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// UpdateTasks writes the whole task collection back to the room
func (r *GormRoomRepository) UpdateTasks(ctx context.Context, roomID string, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}

	result := r.db.WithContext(ctx).
		Model(&models.Room{ID: roomID}).
		Select("Tasks", "UpdatedAt").
		Updates(&models.Room{Tasks: tasks, UpdatedAt: time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete deletes a room
func (r *GormRoomRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Room{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
