// Package store keeps in-memory mirrors of a user's houses, rooms and
// shopping list and synchronizes them with a gateway under an optimistic
// update discipline: a change is published to subscribers before the gateway
// call and reverted if that call fails.
//
// The same stores run over the local service layer or over the HTTP client;
// both satisfy the gateway interfaces below.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
)

var (
	ErrNoCurrentUser = errors.New("no user is signed in")
	ErrNotLoaded     = errors.New("entity is not in the store")
)

// UserSource supplies the signed-in user, if any.
type UserSource interface {
	CurrentUserID() (string, bool)
}

// StaticUser is a UserSource for a fixed user ID. The empty string means
// nobody is signed in.
type StaticUser string

func (u StaticUser) CurrentUserID() (string, bool) {
	return string(u), u != ""
}

// HouseGateway persists houses.
type HouseGateway interface {
	ListHouses(ctx context.Context, userID string) ([]models.House, error)
	CreateHouse(ctx context.Context, userID string, input services.CreateHouseInput) (*models.House, error)
	UpdateHouse(ctx context.Context, userID, id string, input services.UpdateHouseInput) (*models.House, error)
	DeleteHouse(ctx context.Context, userID, id string) error
}

// RoomGateway persists rooms. Tasks are only ever written as a room's whole
// collection through ReplaceTasks.
type RoomGateway interface {
	ListRooms(ctx context.Context, userID string) ([]models.Room, error)
	CreateRoom(ctx context.Context, userID string, input services.CreateRoomInput) (*models.Room, error)
	UpdateRoom(ctx context.Context, userID, id string, input services.UpdateRoomInput) (*models.Room, error)
	ReplaceTasks(ctx context.Context, userID, id string, tasks []models.Task) (*models.Room, error)
	DeleteRoom(ctx context.Context, userID, id string) error
}

// ShoppingGateway persists shopping items.
type ShoppingGateway interface {
	ListItems(ctx context.Context, userID string) ([]models.ShoppingItem, error)
	CreateItem(ctx context.Context, userID string, input services.CreateShoppingItemInput) (*models.ShoppingItem, error)
	UpdateItem(ctx context.Context, userID, id string, input services.UpdateShoppingItemInput) (*models.ShoppingItem, error)
	DeleteItem(ctx context.Context, userID, id string) error
	ClearCompleted(ctx context.Context, userID string) (int64, error)
}

const tempIDPrefix = "tmp-"

func tempID() string {
	return tempIDPrefix + uuid.NewString()
}

// IsTemporaryID reports whether id was assigned locally to an entity the
// gateway has not confirmed yet.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}
