package repository

import (
	"context"

	"github.com/yukikurage/oppuss/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Delete deletes a user together with their houses, rooms and shopping items
	Delete(ctx context.Context, id string) error
}

// HouseRepository defines the interface for house data access
type HouseRepository interface {
	// Create creates a new house
	Create(ctx context.Context, house *models.House) error

	// FindByID finds a house by ID
	FindByID(ctx context.Context, id string) (*models.House, error)

	// ListByUserID lists a user's houses, most recent first
	ListByUserID(ctx context.Context, userID string) ([]models.House, error)

	// Update saves all fields of a house
	Update(ctx context.Context, house *models.House) error

	// Delete deletes a house and all of its rooms
	Delete(ctx context.Context, id string) error
}

// RoomRepository defines the interface for room data access
type RoomRepository interface {
	// Create creates a new room
	Create(ctx context.Context, room *models.Room) error

	// FindByID finds a room by ID
	FindByID(ctx context.Context, id string) (*models.Room, error)

	// ListByHouseID lists the rooms of one house, oldest first
	ListByHouseID(ctx context.Context, houseID string) ([]models.Room, error)

	// ListByUserID lists the rooms of every house the user owns, oldest first
	ListByUserID(ctx context.Context, userID string) ([]models.Room, error)

	// Update saves all fields of a room
	Update(ctx context.Context, room *models.Room) error

	// UpdateTasks replaces the room's whole task collection
	UpdateTasks(ctx context.Context, roomID string, tasks []models.Task) error

	// Delete deletes a room
	Delete(ctx context.Context, id string) error
}

// ShoppingItemRepository defines the interface for shopping item data access
type ShoppingItemRepository interface {
	// Create creates a new item
	Create(ctx context.Context, item *models.ShoppingItem) error

	// FindByID finds an item by ID
	FindByID(ctx context.Context, id string) (*models.ShoppingItem, error)

	// ListByUserID lists a user's items, most recent first
	ListByUserID(ctx context.Context, userID string) ([]models.ShoppingItem, error)

	// Update saves all fields of an item
	Update(ctx context.Context, item *models.ShoppingItem) error

	// Delete deletes an item
	Delete(ctx context.Context, id string) error

	// DeleteCompleted deletes every completed item of a user
	DeleteCompleted(ctx context.Context, userID string) (int64, error)
}

// DataRepository handles whole-account data replacement for import and clear.
type DataRepository interface {
	// ReplaceUserData deletes the user's houses, rooms and shopping items and
	// inserts the given ones, houses before rooms before shopping items.
	// Either everything is applied or nothing is.
	ReplaceUserData(ctx context.Context, userID string, houses []models.House, rooms []models.Room, items []models.ShoppingItem) error

	// DeleteUserData deletes the user's houses, rooms and shopping items and
	// reports how many houses were removed.
	DeleteUserData(ctx context.Context, userID string) (int64, error)
}
